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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mdwillman/avalogica-weather-mcp/pkg/secrets"
	"github.com/mdwillman/avalogica-weather-mcp/pkg/toolerr"
	"github.com/mdwillman/avalogica-weather-mcp/services/gateway/observability"
)

const maxResponseBody = 8 << 20

var tracer = otel.Tracer("github.com/mdwillman/avalogica-weather-mcp/services/llm")

// ResponsesClient calls POST {base}/responses.
type ResponsesClient struct {
	apiKey  *secrets.Secret
	baseURL string
	model   string
	http    *http.Client
	metrics *observability.Metrics
}

func newResponsesClient(cfg Config) *ResponsesClient {
	return &ResponsesClient{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		http:    cfg.HTTPClient,
		metrics: cfg.Metrics,
	}
}

type responsesRequest struct {
	Model           string   `json:"model"`
	Input           string   `json:"input"`
	Tools           []Tool   `json:"tools,omitempty"`
	Temperature     *float32 `json:"temperature,omitempty"`
	MaxOutputTokens *int     `json:"max_output_tokens,omitempty"`
}

// CreateCompletion implements CompletionClient.
func (c *ResponsesClient) CreateCompletion(ctx context.Context, req CompletionRequest) (_ *Completion, err error) {
	model := modelOr(req.Model, c.model)
	ctx, span := tracer.Start(ctx, "llm.CreateCompletion", trace.WithAttributes(
		attribute.String("llm.backend", BackendResponses),
		attribute.String("llm.model", model),
	))
	defer func() { endSpan(span, err) }()

	payload, err := json.Marshal(responsesRequest{
		Model:           model,
		Input:           req.Input,
		Tools:           req.Tools,
		Temperature:     req.Params.Temperature,
		MaxOutputTokens: req.Params.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/responses", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if err := c.apiKey.Reveal(func(key string) error {
		httpReq.Header.Set("Authorization", "Bearer "+key)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", toolerr.ErrMissingCredentials, err)
	}

	slog.Debug("Sending completion request", "backend", BackendResponses, "model", model)
	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.metrics.RecordUpstream(metricsClient, "responses", 0, time.Since(start))
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.RecordUpstream(metricsClient, "responses", resp.StatusCode, time.Since(start))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("reading completion response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Warn("Completion API returned an error", "status", resp.StatusCode)
		return nil, &toolerr.UpstreamHTTPError{
			Service:    serviceName,
			Status:     resp.StatusCode,
			StatusText: resp.Status,
			Body:       string(body),
		}
	}
	if !gjson.ValidBytes(body) {
		return nil, toolerr.UpstreamParse("completion response is not valid JSON")
	}

	if reported := strings.TrimSpace(gjson.GetBytes(body, "model").String()); reported != "" {
		model = reported
	}
	return &Completion{Model: model, Raw: json.RawMessage(body)}, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, toolerr.Kind(err))
	}
	span.End()
}
