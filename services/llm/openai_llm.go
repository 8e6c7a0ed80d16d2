// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mdwillman/avalogica-weather-mcp/pkg/toolerr"
	"github.com/mdwillman/avalogica-weather-mcp/services/gateway/observability"
)

// OpenAIChatClient implements CompletionClient over chat completions.
//
// Hosted tools are not part of the chat-completions API, so req.Tools is
// ignored here.
type OpenAIChatClient struct {
	client  *openai.Client
	model   string
	metrics *observability.Metrics
}

func newOpenAIChatClient(cfg Config) (*OpenAIChatClient, error) {
	apiKey, err := cfg.APIKey.Value()
	if err != nil {
		return nil, fmt.Errorf("completion client: %w: %v", toolerr.ErrMissingCredentials, err)
	}
	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = cfg.BaseURL
	clientConfig.HTTPClient = cfg.HTTPClient

	slog.Info("Initializing chat completion client", "model", cfg.Model, "base_url", cfg.BaseURL)
	return &OpenAIChatClient{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   cfg.Model,
		metrics: cfg.Metrics,
	}, nil
}

// Responses-style envelope produced from a chat reply.
type chatOutputText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type chatOutputMessage struct {
	Type    string           `json:"type"`
	Role    string           `json:"role"`
	Content []chatOutputText `json:"content"`
}

type chatEnvelope struct {
	ID     string              `json:"id"`
	Object string              `json:"object"`
	Model  string              `json:"model"`
	Output []chatOutputMessage `json:"output"`
}

// CreateCompletion implements CompletionClient.
func (o *OpenAIChatClient) CreateCompletion(ctx context.Context, req CompletionRequest) (_ *Completion, err error) {
	model := modelOr(req.Model, o.model)
	ctx, span := tracer.Start(ctx, "llm.CreateCompletion", trace.WithAttributes(
		attribute.String("llm.backend", BackendChat),
		attribute.String("llm.model", model),
	))
	defer func() { endSpan(span, err) }()

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Input},
		},
	}
	if req.Params.Temperature != nil {
		chatReq.Temperature = *req.Params.Temperature
	}
	if req.Params.MaxTokens != nil {
		chatReq.MaxCompletionTokens = *req.Params.MaxTokens
	}
	if len(req.Tools) > 0 {
		slog.Debug("Chat backend ignores hosted tools", "count", len(req.Tools))
	}

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		mapped := mapOpenAIError(err)
		var httpErr *toolerr.UpstreamHTTPError
		code := 0
		if errors.As(mapped, &httpErr) {
			code = httpErr.Status
		}
		o.metrics.RecordUpstream(metricsClient, "chat", code, time.Since(start))
		slog.Error("Chat completion call failed", "error", err)
		return nil, mapped
	}
	o.metrics.RecordUpstream(metricsClient, "chat", http.StatusOK, time.Since(start))

	if len(resp.Choices) == 0 {
		return nil, toolerr.UpstreamParse("chat completion returned no choices")
	}
	slog.Debug("Received chat completion", "finish_reason", resp.Choices[0].FinishReason)

	envelope := chatEnvelope{
		ID:     resp.ID,
		Object: "response",
		Model:  modelOr(resp.Model, model),
	}
	for _, choice := range resp.Choices {
		envelope.Output = append(envelope.Output, chatOutputMessage{
			Type:    "message",
			Role:    choice.Message.Role,
			Content: []chatOutputText{{Type: "output_text", Text: choice.Message.Content}},
		})
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("encoding chat completion: %w", err)
	}
	return &Completion{Model: envelope.Model, Raw: raw}, nil
}

// mapOpenAIError converts go-openai failures into the shared taxonomy.
func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &toolerr.UpstreamHTTPError{
			Service:    serviceName,
			Status:     apiErr.HTTPStatusCode,
			StatusText: statusLine(apiErr.HTTPStatusCode),
			Body:       apiErr.Message,
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		body := ""
		if reqErr.Err != nil {
			body = reqErr.Err.Error()
		}
		return &toolerr.UpstreamHTTPError{
			Service:    serviceName,
			Status:     reqErr.HTTPStatusCode,
			StatusText: statusLine(reqErr.HTTPStatusCode),
			Body:       body,
		}
	}
	return fmt.Errorf("chat completion failed: %w", err)
}

func statusLine(code int) string {
	if text := http.StatusText(code); text != "" {
		return fmt.Sprintf("%d %s", code, text)
	}
	return fmt.Sprintf("%d", code)
}
