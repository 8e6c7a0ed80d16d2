// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package weather is the upstream client for the Open-Meteo forecast API.
//
// The free endpoint is unauthenticated. When an API key is configured the
// client switches to the commercial host and appends it as the apikey
// parameter.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mdwillman/avalogica-weather-mcp/pkg/secrets"
	"github.com/mdwillman/avalogica-weather-mcp/pkg/toolerr"
	"github.com/mdwillman/avalogica-weather-mcp/services/gateway/observability"
)

const (
	// DefaultBaseURL is the free Open-Meteo host.
	DefaultBaseURL = "https://api.open-meteo.com"

	// CustomerBaseURL is the commercial host used when an API key is set.
	CustomerBaseURL = "https://customer-api.open-meteo.com"

	// DefaultDays is the forecast length when the caller gives none.
	DefaultDays = 7

	// MaxDays is the longest forecast the tool offers.
	MaxDays = 7

	forecastPath   = "/v1/forecast"
	dailyFields    = "temperature_2m_max,temperature_2m_min"
	serviceName    = "Open-Meteo API"
	metricsClient  = "weather"
	maxErrorBody   = 64 << 10
	defaultTimeout = 30 * time.Second
)

var tracer = otel.Tracer("github.com/mdwillman/avalogica-weather-mcp/services/weather")

// HTTPClient is the subset of *http.Client the client needs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures a Client. Every field is optional.
type Config struct {
	// APIKey selects the commercial host when set.
	APIKey *secrets.Secret

	// BaseURL overrides the host chosen from APIKey.
	BaseURL string

	HTTPClient HTTPClient
	Metrics    *observability.Metrics
}

// Client fetches daily forecasts.
type Client struct {
	apiKey  *secrets.Secret
	baseURL string
	http    HTTPClient
	metrics *observability.Metrics
}

// NewClient builds a Client from cfg.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
		if !cfg.APIKey.IsZero() {
			cfg.BaseURL = CustomerBaseURL
		}
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    cfg.HTTPClient,
		metrics: cfg.Metrics,
	}
}

// GetForecast fetches daily max/min temperatures for a coordinate.
//
// # Inputs
//
//   - ctx: Cancels the outbound request.
//   - latitude, longitude: Already range-checked by the caller.
//   - days: 1..7. Zero means DefaultDays.
//
// # Outputs
//
//   - *Forecast: Parsed response, not revalidated.
//   - error: UpstreamHTTPError on non-2xx, UpstreamParse on undecodable JSON.
func (c *Client) GetForecast(ctx context.Context, latitude, longitude float64, days int) (_ *Forecast, err error) {
	if days <= 0 {
		days = DefaultDays
	}
	ctx, span := tracer.Start(ctx, "weather.GetForecast", trace.WithAttributes(
		attribute.Float64("weather.latitude", latitude),
		attribute.Float64("weather.longitude", longitude),
		attribute.Int("weather.days", days),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, toolerr.Kind(err))
		}
		span.End()
	}()

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(longitude, 'f', -1, 64))
	params.Set("daily", dailyFields)
	params.Set("forecast_days", strconv.Itoa(days))
	params.Set("timezone", "auto")
	if !c.apiKey.IsZero() {
		if err := c.apiKey.Reveal(func(key string) error {
			params.Set("apikey", strings.Clone(key))
			return nil
		}); err != nil {
			return nil, fmt.Errorf("%w: %v", toolerr.ErrMissingCredentials, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+forecastPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building forecast request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.RecordUpstream(metricsClient, "forecast", 0, time.Since(start))
		return nil, fmt.Errorf("forecast request failed: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.RecordUpstream(metricsClient, "forecast", resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		slog.Warn("forecast upstream error", "status", resp.StatusCode)
		return nil, &toolerr.UpstreamHTTPError{
			Service:    serviceName,
			Status:     resp.StatusCode,
			StatusText: resp.Status,
			Body:       string(body),
		}
	}

	var forecast Forecast
	if err := json.NewDecoder(resp.Body).Decode(&forecast); err != nil {
		return nil, toolerr.UpstreamParse("decoding forecast response: %v", err)
	}
	return &forecast, nil
}
