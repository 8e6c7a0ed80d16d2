// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package brave

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdwillman/avalogica-weather-mcp/pkg/secrets"
	"github.com/mdwillman/avalogica-weather-mcp/pkg/toolerr"
	"github.com/mdwillman/avalogica-weather-mcp/services/ratelimit"
)

// =============================================================================
// Test Helpers
// =============================================================================

// fakeBrave serves canned responses per path and records every request.
type fakeBrave struct {
	mu       sync.Mutex
	requests []*http.Request
	handlers map[string]http.HandlerFunc
	calls    atomic.Int32
}

func (f *fakeBrave) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)
	f.mu.Lock()
	f.requests = append(f.requests, r.Clone(context.Background()))
	h := f.handlers[r.URL.Path]
	f.mu.Unlock()
	if h == nil {
		http.NotFound(w, r)
		return
	}
	h(w, r)
}

func (f *fakeBrave) requestsFor(path string) []*http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*http.Request
	for _, r := range f.requests {
		if r.URL.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func jsonHandler(v any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
}

func newTestClient(t *testing.T, fake *fakeBrave, limits ratelimit.Limits) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		APIKey:  secrets.New("test-key"),
		BaseURL: srv.URL,
		Limits:  limits,
		Clock:   ratelimit.ClockFunc(func() int64 { return 0 }),
	})
	require.NoError(t, err)
	return client
}

var generous = ratelimit.Limits{PerSecond: 100, PerMonth: 1000}

func ptr[T any](v T) *T { return &v }

// =============================================================================
// Construction
// =============================================================================

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{APIKey: secrets.New("")})
	require.Error(t, err)
	assert.ErrorIs(t, err, toolerr.ErrMissingCredentials)
}

// =============================================================================
// WebSearch
// =============================================================================

func TestWebSearch_FormatsResultsAndSendsParams(t *testing.T) {
	fake := &fakeBrave{handlers: map[string]http.HandlerFunc{
		webSearchPath: jsonHandler(map[string]any{
			"web": map[string]any{"results": []map[string]string{
				{"title": "Go", "description": "The Go language", "url": "https://go.dev"},
				{"title": "Tour", "description": "A tour", "url": "https://go.dev/tour"},
			}},
		}),
	}}
	client := newTestClient(t, fake, generous)

	text, err := client.WebSearch(context.Background(), "golang", 2, 3)
	require.NoError(t, err)
	assert.Equal(t,
		"Title: Go\nDescription: The Go language\nURL: https://go.dev\n\n"+
			"Title: Tour\nDescription: A tour\nURL: https://go.dev/tour",
		text)

	reqs := fake.requestsFor(webSearchPath)
	require.Len(t, reqs, 1)
	q := reqs[0].URL.Query()
	assert.Equal(t, "golang", q.Get("q"))
	assert.Equal(t, "2", q.Get("count"))
	assert.Equal(t, "3", q.Get("offset"))
	assert.Equal(t, "test-key", reqs[0].Header.Get("X-Subscription-Token"))
	assert.Equal(t, "application/json", reqs[0].Header.Get("Accept"))
}

func TestWebSearch_MissingWebSectionIsEmpty(t *testing.T) {
	fake := &fakeBrave{handlers: map[string]http.HandlerFunc{
		webSearchPath: jsonHandler(map[string]any{"query": map[string]any{"original": "x"}}),
	}}
	client := newTestClient(t, fake, generous)

	text, err := client.WebSearch(context.Background(), "x", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "", text)
	assert.Equal(t, "10", fake.requestsFor(webSearchPath)[0].URL.Query().Get("count"))
}

func TestWebSearch_HTTPError(t *testing.T) {
	fake := &fakeBrave{handlers: map[string]http.HandlerFunc{
		webSearchPath: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"slow down"}`))
		},
	}}
	client := newTestClient(t, fake, generous)

	_, err := client.WebSearch(context.Background(), "x", 1, 0)
	require.Error(t, err)

	var httpErr *toolerr.UpstreamHTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusTooManyRequests, httpErr.Status)
	assert.Equal(t, "Brave API error: 429 Too Many Requests\n{\"error\":\"slow down\"}", err.Error())
}

func TestWebSearch_MalformedBody(t *testing.T) {
	fake := &fakeBrave{handlers: map[string]http.HandlerFunc{
		webSearchPath: func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>"))
		},
	}}
	client := newTestClient(t, fake, generous)

	_, err := client.WebSearch(context.Background(), "x", 1, 0)
	assert.ErrorIs(t, err, toolerr.ErrUpstreamParse)
}

func TestWebSearch_RateLimitedBeforeNetwork(t *testing.T) {
	fake := &fakeBrave{handlers: map[string]http.HandlerFunc{
		webSearchPath: jsonHandler(map[string]any{}),
	}}
	client := newTestClient(t, fake, ratelimit.Limits{PerSecond: 1, PerMonth: 10})

	_, err := client.WebSearch(context.Background(), "x", 1, 0)
	require.NoError(t, err)

	_, err = client.WebSearch(context.Background(), "x", 1, 0)
	assert.ErrorIs(t, err, toolerr.ErrRateLimitExceeded)
	assert.Equal(t, int32(1), fake.calls.Load())
}

// =============================================================================
// LocalSearch
// =============================================================================

func TestLocalSearch_FansOutAndFormats(t *testing.T) {
	fake := &fakeBrave{handlers: map[string]http.HandlerFunc{
		webSearchPath: jsonHandler(map[string]any{
			"locations": map[string]any{"results": []map[string]string{{"id": "p1"}, {"id": "p2"}}},
		}),
		poisPath: jsonHandler(POIResponse{Results: []POI{
			{
				ID:           "p1",
				Name:         "Blue Bottle",
				Address:      &Address{StreetAddress: "1 Main St", AddressLocality: "Oakland", AddressRegion: "CA", PostalCode: "94607"},
				Phone:        "555-0100",
				Rating:       &Rating{RatingValue: ptr(4.5), RatingCount: ptr(120)},
				OpeningHours: []string{"Mo-Fr 07:00-18:00", "Sa 08:00-16:00"},
				PriceRange:   "$$",
			},
			{ID: "p2", Name: "Nowhere Cafe"},
		}}),
		descriptionsPath: jsonHandler(DescriptionsResponse{Descriptions: map[string]string{"p1": "Coffee roaster."}}),
	}}
	client := newTestClient(t, fake, generous)

	text, err := client.LocalSearch(context.Background(), "coffee oakland", 5)
	require.NoError(t, err)

	want := "Name: Blue Bottle\n" +
		"Address: 1 Main St, Oakland, CA, 94607\n" +
		"Phone: 555-0100\n" +
		"Rating: 4.5 (120 reviews)\n" +
		"Price Range: $$\n" +
		"Hours: Mo-Fr 07:00-18:00, Sa 08:00-16:00\n" +
		"Description: Coffee roaster." +
		"\n---\n" +
		"Name: Nowhere Cafe\n" +
		"Address: N/A\n" +
		"Phone: N/A\n" +
		"Rating: N/A (0 reviews)\n" +
		"Price Range: N/A\n" +
		"Hours: N/A\n" +
		"Description: No description available"
	assert.Equal(t, want, text)

	lookup := fake.requestsFor(webSearchPath)
	require.Len(t, lookup, 1)
	assert.Equal(t, "locations", lookup[0].URL.Query().Get("result_filter"))
	assert.Equal(t, "en", lookup[0].URL.Query().Get("search_lang"))

	for _, path := range []string{poisPath, descriptionsPath} {
		reqs := fake.requestsFor(path)
		require.Len(t, reqs, 1, path)
		ids := reqs[0].URL.Query()["ids"]
		sort.Strings(ids)
		assert.Equal(t, []string{"p1", "p2"}, ids, path)
	}
}

func TestLocalSearch_QuotaCountsEveryRequest(t *testing.T) {
	fake := &fakeBrave{handlers: map[string]http.HandlerFunc{
		webSearchPath: jsonHandler(map[string]any{
			"locations": map[string]any{"results": []map[string]string{{"id": "p1"}}},
		}),
		poisPath:         jsonHandler(POIResponse{Results: []POI{{ID: "p1", Name: "A"}}}),
		descriptionsPath: jsonHandler(DescriptionsResponse{Descriptions: map[string]string{}}),
	}}
	client := newTestClient(t, fake, generous)

	_, err := client.LocalSearch(context.Background(), "a", 1)
	require.NoError(t, err)

	assert.Equal(t, int32(3), fake.calls.Load())
	assert.Equal(t, int(fake.calls.Load()), client.Limiter().Snapshot().MonthCount)
}

func TestLocalSearch_DetailQuotaRejectedBeforeDetailRequests(t *testing.T) {
	tests := []struct {
		name      string
		limits    ratelimit.Limits
		wantMonth int
	}{
		{"per-second exhausted after lookup", ratelimit.Limits{PerSecond: 1, PerMonth: 10}, 1},
		{"one detail unit left", ratelimit.Limits{PerSecond: 2, PerMonth: 10}, 2},
		{"month exhausted", ratelimit.Limits{PerSecond: 10, PerMonth: 2}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeBrave{handlers: map[string]http.HandlerFunc{
				webSearchPath: jsonHandler(map[string]any{
					"locations": map[string]any{"results": []map[string]string{{"id": "p1"}}},
				}),
				poisPath:         jsonHandler(POIResponse{}),
				descriptionsPath: jsonHandler(DescriptionsResponse{}),
			}}
			client := newTestClient(t, fake, tt.limits)

			_, err := client.LocalSearch(context.Background(), "a", 1)
			assert.ErrorIs(t, err, toolerr.ErrRateLimitExceeded)
			assert.Empty(t, fake.requestsFor(poisPath))
			assert.Empty(t, fake.requestsFor(descriptionsPath))
			assert.Equal(t, tt.wantMonth, client.Limiter().Snapshot().MonthCount)
		})
	}
}

func TestLocalSearch_FallbackMatchesWebSearch(t *testing.T) {
	web := map[string]any{
		"web": map[string]any{"results": []map[string]string{
			{"title": "T", "description": "D", "url": "U"},
		}},
	}
	fake := &fakeBrave{handlers: map[string]http.HandlerFunc{webSearchPath: jsonHandler(web)}}
	client := newTestClient(t, fake, generous)

	local, err := client.LocalSearch(context.Background(), "pizza", 4)
	require.NoError(t, err)
	direct, err := client.WebSearch(context.Background(), "pizza", 4, 0)
	require.NoError(t, err)

	assert.Equal(t, direct, local)
	assert.Equal(t, "Title: T\nDescription: D\nURL: U", local)
	assert.Empty(t, fake.requestsFor(poisPath))
}

func TestLocalSearch_FallbackConsumesQuotaTwice(t *testing.T) {
	fake := &fakeBrave{handlers: map[string]http.HandlerFunc{webSearchPath: jsonHandler(map[string]any{})}}
	client := newTestClient(t, fake, ratelimit.Limits{PerSecond: 1, PerMonth: 10})

	_, err := client.LocalSearch(context.Background(), "pizza", 4)
	assert.ErrorIs(t, err, toolerr.ErrRateLimitExceeded)
	assert.Equal(t, 1, client.Limiter().Snapshot().MonthCount)
}

func TestLocalSearch_DetailFailureFailsWholeCall(t *testing.T) {
	fake := &fakeBrave{handlers: map[string]http.HandlerFunc{
		webSearchPath: jsonHandler(map[string]any{
			"locations": map[string]any{"results": []map[string]string{{"id": "p1"}}},
		}),
		poisPath: jsonHandler(POIResponse{Results: []POI{{ID: "p1", Name: "A"}}}),
		descriptionsPath: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("bad gateway"))
		},
	}}
	client := newTestClient(t, fake, generous)

	_, err := client.LocalSearch(context.Background(), "a", 1)
	var httpErr *toolerr.UpstreamHTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadGateway, httpErr.Status)
	assert.True(t, strings.HasSuffix(err.Error(), "\nbad gateway"))
}

func TestLocalSearch_EmptyPOIs(t *testing.T) {
	fake := &fakeBrave{handlers: map[string]http.HandlerFunc{
		webSearchPath: jsonHandler(map[string]any{
			"locations": map[string]any{"results": []map[string]string{{"id": "p1"}}},
		}),
		poisPath:         jsonHandler(map[string]any{"results": []any{}}),
		descriptionsPath: jsonHandler(map[string]any{"descriptions": map[string]string{}}),
	}}
	client := newTestClient(t, fake, generous)

	text, err := client.LocalSearch(context.Background(), "a", 1)
	require.NoError(t, err)
	assert.Equal(t, "No local results found", text)
}
