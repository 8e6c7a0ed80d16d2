// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package llm is the upstream client for the completion API used by the
// tech-update tool.
//
// # Description
//
// Two backends implement CompletionClient:
//
//   - "responses" (default): a raw POST to {base}/responses with a web_search
//     tool attached. The response body is kept verbatim.
//   - "chat": chat completions through go-openai, for OpenAI-compatible
//     gateways that lack the Responses API. The reply is re-shaped into a
//     Responses-style output document.
//
// Either way the caller receives an opaque JSON tree and extracts text and
// citations from it.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mdwillman/avalogica-weather-mcp/pkg/secrets"
	"github.com/mdwillman/avalogica-weather-mcp/pkg/toolerr"
	"github.com/mdwillman/avalogica-weather-mcp/services/gateway/observability"
)

const (
	// BackendResponses selects the Responses API backend.
	BackendResponses = "responses"

	// BackendChat selects the chat-completions backend.
	BackendChat = "chat"

	// DefaultBaseURL is the OpenAI API root.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is used when neither the config nor the request names one.
	DefaultModel = "gpt-5-mini"

	serviceName    = "Completion API"
	metricsClient  = "llm"
	defaultTimeout = 120 * time.Second
)

// GenerationParams are optional sampling controls. Nil fields are omitted.
type GenerationParams struct {
	Temperature *float32 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_output_tokens,omitempty"`
}

// Tool is a hosted tool the model may call, e.g. {"type":"web_search"}.
type Tool struct {
	Type string `json:"type"`
}

// WebSearchTool lets the model browse while answering.
var WebSearchTool = Tool{Type: "web_search"}

// CompletionRequest is one prompt.
type CompletionRequest struct {
	Model  string
	Tools  []Tool
	Input  string
	Params GenerationParams
}

// Completion is the upstream reply.
//
// # Fields
//
//   - Model: Model reported by the backend, or the requested one.
//   - Raw: Response document, valid JSON of unknown shape.
type Completion struct {
	Model string
	Raw   json.RawMessage
}

// CompletionClient defines the interface every completion backend implements.
type CompletionClient interface {
	CreateCompletion(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// Config selects and configures a backend.
type Config struct {
	Backend    string
	APIKey     *secrets.Secret
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Metrics    *observability.Metrics
}

// New builds the backend named by cfg.Backend ("" means responses).
//
// # Outputs
//
//   - CompletionClient: Ready to use.
//   - error: ErrMissingCredentials without an API key, or an unknown backend.
func New(cfg Config) (CompletionClient, error) {
	if cfg.APIKey.IsZero() {
		return nil, fmt.Errorf("completion client: %w: COMPLETION_API_KEY is required", toolerr.ErrMissingCredentials)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendResponses:
		return newResponsesClient(cfg), nil
	case BackendChat:
		chat, err := newOpenAIChatClient(cfg)
		if err != nil {
			return nil, err
		}
		return chat, nil
	default:
		return nil, fmt.Errorf("unknown completion backend %q (want %q or %q)", cfg.Backend, BackendResponses, BackendChat)
	}
}

func modelOr(requested, fallback string) string {
	if requested != "" {
		return requested
	}
	return fallback
}
