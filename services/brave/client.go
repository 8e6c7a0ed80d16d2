// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package brave is the upstream client for the Brave Search API.
//
// # Description
//
// Two operations are exposed, WebSearch and LocalSearch. Each consumes one unit
// of the client's rate-limit quota before touching the network. LocalSearch
// degrades to a plain WebSearch when the location-filtered query yields no
// place identifiers; that fallback goes through the public WebSearch and so
// consumes a second unit.
//
// # Thread Safety
//
// Client is safe for concurrent use. The embedded Limiter serializes quota
// accounting; everything else is immutable after NewClient.
package brave

import (
	"context"
	"encoding/json"
	"errors"
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
	"golang.org/x/sync/errgroup"

	"github.com/mdwillman/avalogica-weather-mcp/pkg/secrets"
	"github.com/mdwillman/avalogica-weather-mcp/pkg/toolerr"
	"github.com/mdwillman/avalogica-weather-mcp/services/gateway/observability"
	"github.com/mdwillman/avalogica-weather-mcp/services/ratelimit"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// DefaultBaseURL is the public Brave Search API host.
	DefaultBaseURL = "https://api.search.brave.com"

	// DefaultWebCount is the web-search page size when the caller gives none.
	DefaultWebCount = 10

	// DefaultLocalCount is the local-search size when the caller gives none.
	DefaultLocalCount = 5

	// MaxCount is the largest page size the API accepts.
	MaxCount = 20

	webSearchPath    = "/res/v1/web/search"
	poisPath         = "/res/v1/local/pois"
	descriptionsPath = "/res/v1/local/descriptions"

	serviceName    = "Brave API"
	metricsClient  = "brave"
	maxErrorBody   = 64 << 10
	defaultTimeout = 30 * time.Second
)

var tracer = otel.Tracer("github.com/mdwillman/avalogica-weather-mcp/services/brave")

// HTTPClient is the subset of *http.Client the client needs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// =============================================================================
// Client
// =============================================================================

// Config configures a Client.
//
// # Fields
//
//   - APIKey: Subscription token. Required.
//   - BaseURL: API host. Default: DefaultBaseURL.
//   - Limits: Quota. Zero fields take the ratelimit defaults (1/s, 15000/month).
//   - HTTPClient: Transport. Default: *http.Client with a 30s timeout.
//   - Clock: Limiter clock. Default: system clock.
//   - Metrics: Optional Prometheus collectors.
type Config struct {
	APIKey     *secrets.Secret
	BaseURL    string
	Limits     ratelimit.Limits
	HTTPClient HTTPClient
	Clock      ratelimit.Clock
	Metrics    *observability.Metrics
}

// Client talks to the Brave Search API.
type Client struct {
	apiKey  *secrets.Secret
	baseURL string
	http    HTTPClient
	limiter *ratelimit.Limiter
	metrics *observability.Metrics
}

// NewClient builds a Client from cfg.
//
// # Outputs
//
//   - *Client: Ready to use.
//   - error: wraps toolerr.ErrMissingCredentials when cfg.APIKey is unset.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey.IsZero() {
		return nil, fmt.Errorf("brave client: %w: BRAVE_API_KEY is required", toolerr.ErrMissingCredentials)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	if cfg.Clock == nil {
		cfg.Clock = ratelimit.SystemClock()
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    cfg.HTTPClient,
		limiter: ratelimit.NewWithClock(cfg.Limits, cfg.Clock),
		metrics: cfg.Metrics,
	}, nil
}

// Limiter exposes the client's quota state, mainly for diagnostics.
func (c *Client) Limiter() *ratelimit.Limiter {
	return c.limiter
}

// =============================================================================
// Operations
// =============================================================================

// WebSearch runs an organic web search and formats the hits.
//
// # Inputs
//
//   - ctx: Cancels the outbound request.
//   - query: Search terms, already sanitized.
//   - count: 1..20. Zero means DefaultWebCount.
//   - offset: 0..9.
//
// # Outputs
//
//   - string: Title/Description/URL blocks, "" when nothing matched.
//   - error: rate limit, UpstreamHTTPError, or UpstreamParse.
func (c *Client) WebSearch(ctx context.Context, query string, count, offset int) (_ string, err error) {
	ctx, span := tracer.Start(ctx, "brave.WebSearch", trace.WithAttributes(
		attribute.Int("brave.count", count),
		attribute.Int("brave.offset", offset),
	))
	defer func() { endSpan(span, err) }()

	if err := c.consume(); err != nil {
		return "", err
	}

	if count <= 0 {
		count = DefaultWebCount
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(min(count, MaxCount)))
	params.Set("offset", strconv.Itoa(offset))

	var resp WebSearchResponse
	if err := c.get(ctx, "web", webSearchPath, params, &resp); err != nil {
		return "", err
	}
	return FormatWebResults(resp.webResults()), nil
}

// LocalSearch looks up places matching query and formats their details.
//
// # Description
//
// Issues a location-filtered web search. When it returns no location ids the
// result of WebSearch(query, count, 0) is returned verbatim. Otherwise POI
// details and descriptions are fetched concurrently; both must succeed.
//
// Every outbound request consumes one unit of quota: three when locations
// are found, two on the web-search fallback.
//
// # Outputs
//
//   - string: POI blocks, "No local results found", or fallback web text.
//   - error: rate limit, UpstreamHTTPError (from any of the requests), or UpstreamParse.
func (c *Client) LocalSearch(ctx context.Context, query string, count int) (_ string, err error) {
	ctx, span := tracer.Start(ctx, "brave.LocalSearch", trace.WithAttributes(
		attribute.Int("brave.count", count),
	))
	defer func() { endSpan(span, err) }()

	if err := c.consume(); err != nil {
		return "", err
	}

	if count <= 0 {
		count = DefaultLocalCount
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("search_lang", "en")
	params.Set("result_filter", "locations")
	params.Set("count", strconv.Itoa(min(count, MaxCount)))

	var search WebSearchResponse
	if err := c.get(ctx, "local_lookup", webSearchPath, params, &search); err != nil {
		return "", err
	}

	ids := search.locationIDs()
	if len(ids) == 0 {
		slog.Debug("brave local search found no locations, falling back to web search")
		span.SetAttributes(attribute.Bool("brave.fallback", true))
		return c.WebSearch(ctx, query, count, 0)
	}
	span.SetAttributes(attribute.Int("brave.location_ids", len(ids)))

	// One unit per detail request, both taken before either is sent.
	for range 2 {
		if err := c.consume(); err != nil {
			return "", err
		}
	}

	var (
		pois         POIResponse
		descriptions DescriptionsResponse
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.get(gctx, "pois", poisPath, idParams(ids), &pois)
	})
	g.Go(func() error {
		return c.get(gctx, "descriptions", descriptionsPath, idParams(ids), &descriptions)
	})
	if err := g.Wait(); err != nil {
		return "", err
	}

	return FormatPOIs(pois.Results, descriptions.Descriptions), nil
}

// =============================================================================
// Internals
// =============================================================================

func (c *Client) consume() error {
	if err := c.limiter.CheckAndConsume(); err != nil {
		c.metrics.RecordRateLimited(metricsClient)
		return err
	}
	return nil
}

func idParams(ids []string) url.Values {
	params := url.Values{}
	for _, id := range ids {
		params.Add("ids", id)
	}
	return params
}

// get issues an authenticated GET and decodes a 2xx JSON body into out.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, out any) error {
	reqURL := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("building %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if err := c.apiKey.Reveal(func(key string) error {
		req.Header.Set("X-Subscription-Token", strings.Clone(key))
		return nil
	}); err != nil {
		return fmt.Errorf("%w: %v", toolerr.ErrMissingCredentials, err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.RecordUpstream(metricsClient, endpoint, 0, time.Since(start))
		return fmt.Errorf("brave %s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()
	c.metrics.RecordUpstream(metricsClient, endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		slog.Warn("brave upstream error", "endpoint", endpoint, "status", resp.StatusCode)
		return &toolerr.UpstreamHTTPError{
			Service:    serviceName,
			Status:     resp.StatusCode,
			StatusText: resp.Status,
			Body:       string(body),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return toolerr.UpstreamParse("empty %s response from %s", endpoint, serviceName)
		}
		return toolerr.UpstreamParse("decoding %s response: %v", endpoint, err)
	}
	slog.Debug("brave upstream ok", "endpoint", endpoint, "elapsed", time.Since(start))
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, toolerr.Kind(err))
	}
	span.End()
}
