// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersOnIsolatedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	require.NotNil(t, m)

	m.RecordToolCall("get_forecast", "ok", 10*time.Millisecond)
	m.RecordUpstream("weather", "forecast", 200, 5*time.Millisecond)
	m.RecordRateLimited("brave")

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["avalogica_tool_calls_total"])
	assert.True(t, names["avalogica_tool_call_duration_seconds"])
	assert.True(t, names["avalogica_upstream_requests_total"])
	assert.True(t, names["avalogica_upstream_request_duration_seconds"])
	assert.True(t, names["avalogica_rate_limit_rejections_total"])
}

func TestRecordToolCall_CountsByStatus(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordToolCall("brave_web_search", "ok", time.Millisecond)
	m.RecordToolCall("brave_web_search", "ok", time.Millisecond)
	m.RecordToolCall("brave_web_search", "rate_limited", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ToolCallsTotal.WithLabelValues("brave_web_search", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolCallsTotal.WithLabelValues("brave_web_search", "rate_limited")))
}

func TestRecordUpstream_CodeLabel(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordUpstream("brave", "web", 429, time.Millisecond)
	m.RecordUpstream("brave", "web", 0, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequestsTotal.WithLabelValues("brave", "web", "429")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequestsTotal.WithLabelValues("brave", "web", "0")))
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordToolCall("x", "ok", time.Second)
		m.RecordUpstream("x", "y", 200, time.Second)
		m.RecordRateLimited("x")
	})
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
