// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the tool servers.
//
// # Description
//
// Metrics cover three layers:
//   - Tool calls (by tool and outcome kind)
//   - Upstream HTTP requests (by client, endpoint and status code)
//   - Rate-limit rejections (by client)
//
// Metrics are exposed on GET /metrics. Every recording method is safe to call
// on a nil *Metrics, so clients built without metrics (tests, the CLI) need
// no special casing.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

// Namespace for all metrics
const metricsNamespace = "avalogica"

// Metrics holds the Prometheus collectors for one server process.
//
// # Fields
//
//   - ToolCallsTotal: Counter of tool calls by tool and status.
//   - ToolCallDuration: Histogram of tool-call latency by tool.
//   - UpstreamRequestsTotal: Counter of backend requests by client, endpoint, code.
//   - UpstreamRequestDuration: Histogram of backend latency by client and endpoint.
//   - RateLimitRejectionsTotal: Counter of local quota rejections by client.
type Metrics struct {
	// ToolCallsTotal counts tool invocations.
	// Labels: tool (brave_web_search, ...), status (ok, invalid_argument, ...)
	ToolCallsTotal *prometheus.CounterVec

	// ToolCallDuration measures end-to-end handler latency.
	// Labels: tool
	ToolCallDuration *prometheus.HistogramVec

	// UpstreamRequestsTotal counts outbound HTTP requests.
	// Labels: client (brave, weather, llm), endpoint, code ("0" on transport error)
	UpstreamRequestsTotal *prometheus.CounterVec

	// UpstreamRequestDuration measures outbound request latency.
	// Labels: client, endpoint
	UpstreamRequestDuration *prometheus.HistogramVec

	// RateLimitRejectionsTotal counts requests refused by the local limiter.
	// Labels: client
	RateLimitRejectionsTotal *prometheus.CounterVec
}

// New creates and registers all collectors on reg.
//
// # Inputs
//
//   - reg: Registry to register on. Use prometheus.NewRegistry() in tests and
//     prometheus.DefaultRegisterer in the server.
//
// # Outputs
//
//   - *Metrics: The initialized collectors.
//
// # Limitations
//
//   - Panics when called twice against the same registry (duplicate registration).
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ToolCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "tool_calls_total",
				Help:      "Total tool calls by tool and status",
			},
			[]string{"tool", "status"},
		),

		ToolCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "tool_call_duration_seconds",
				Help:      "Tool call duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"tool"},
		),

		UpstreamRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "upstream_requests_total",
				Help:      "Total upstream HTTP requests by client, endpoint and status code",
			},
			[]string{"client", "endpoint", "code"},
		),

		UpstreamRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "upstream_request_duration_seconds",
				Help:      "Upstream HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"client", "endpoint"},
		),

		RateLimitRejectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "rate_limit_rejections_total",
				Help:      "Total requests rejected by the local rate limiter",
			},
			[]string{"client"},
		),
	}
}

// =============================================================================
// Helper Methods
// =============================================================================

// RecordToolCall records one finished tool call.
//
// # Inputs
//
//   - tool: Tool name.
//   - status: Outcome label, normally toolerr.Kind(err).
//   - elapsed: Handler duration.
func (m *Metrics) RecordToolCall(tool, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ToolCallsTotal.WithLabelValues(tool, status).Inc()
	m.ToolCallDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// RecordUpstream records one outbound HTTP request. Use code 0 for requests
// that failed before a response arrived.
func (m *Metrics) RecordUpstream(client, endpoint string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamRequestsTotal.WithLabelValues(client, endpoint, strconv.Itoa(code)).Inc()
	m.UpstreamRequestDuration.WithLabelValues(client, endpoint).Observe(elapsed.Seconds())
}

// RecordRateLimited records a local quota rejection.
func (m *Metrics) RecordRateLimited(client string) {
	if m == nil {
		return
	}
	m.RateLimitRejectionsTotal.WithLabelValues(client).Inc()
}
