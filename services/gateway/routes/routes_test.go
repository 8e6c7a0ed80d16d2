// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/mdwillman/avalogica-weather-mcp/pkg/secrets"
	"github.com/mdwillman/avalogica-weather-mcp/pkg/toolerr"
	"github.com/mdwillman/avalogica-weather-mcp/services/gateway/handlers"
	"github.com/mdwillman/avalogica-weather-mcp/services/tools"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubTools serves a single "echo" tool.
type stubTools struct{}

func (stubTools) ListTools() []tools.Descriptor {
	return []tools.Descriptor{{Name: "echo", Description: "Echoes text"}}
}

func (stubTools) CallTool(_ context.Context, name string, args map[string]any) (*tools.Result, error) {
	if name != "echo" {
		return nil, toolerr.MethodNotFound(name)
	}
	text, _ := args["text"].(string)
	return tools.TextResult(text), nil
}

func newRouter(token *secrets.Secret, metrics http.Handler) *gin.Engine {
	r := gin.New()
	SetupRoutes(r, Options{
		Tools:     stubTools{},
		Info:      handlers.ServerInfo{Name: "avalogica-test", Version: "0.0.1"},
		Families:  []string{"search"},
		AuthToken: token,
		Metrics:   metrics,
	})
	return r
}

type route struct {
	method string
	path   string
	body   string
}

func serve(r *gin.Engine, rt route, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(rt.method, rt.path, strings.NewReader(rt.body))
	if rt.body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

var metricsStub = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("# metrics\n"))
})

func TestSetupRoutes_AuthCoverage(t *testing.T) {
	r := newRouter(secrets.New("s3cret"), metricsStub)

	tests := []struct {
		name       string
		route      route
		protected  bool
		authedCode int
	}{
		{"health", route{http.MethodGet, "/health", ""}, false, http.StatusOK},
		{"metrics", route{http.MethodGet, "/metrics", ""}, false, http.StatusOK},
		{"mcp post", route{http.MethodPost, "/mcp", `{"jsonrpc":"2.0","id":1,"method":"ping"}`}, true, http.StatusOK},
		{"mcp get", route{http.MethodGet, "/mcp", ""}, true, http.StatusMethodNotAllowed},
		{"mcp delete", route{http.MethodDelete, "/mcp", ""}, true, http.StatusBadRequest},
		{"list tools", route{http.MethodGet, "/v1/tools", ""}, true, http.StatusOK},
		{"call tool", route{http.MethodPost, "/v1/tools/echo", `{"text":"hi"}`}, true, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			anon := serve(r, tt.route, "")
			if tt.protected {
				assert.Equal(t, http.StatusUnauthorized, anon.Code)
				assert.JSONEq(t, `{"error":"unauthorized"}`, anon.Body.String())
			} else {
				assert.Equal(t, tt.authedCode, anon.Code)
			}

			authed := serve(r, tt.route, "Bearer s3cret")
			assert.Equal(t, tt.authedCode, authed.Code)
		})
	}
}

func TestSetupRoutes_NoTokenLeavesEverythingOpen(t *testing.T) {
	r := newRouter(nil, nil)

	tests := []struct {
		route route
		want  int
	}{
		{route{http.MethodGet, "/v1/tools", ""}, http.StatusOK},
		{route{http.MethodPost, "/v1/tools/echo", `{"text":"hi"}`}, http.StatusOK},
		{route{http.MethodPost, "/v1/tools/nope", `{}`}, http.StatusNotFound},
		{route{http.MethodPost, "/mcp", `{"jsonrpc":"2.0","id":1,"method":"ping"}`}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.route.method+" "+tt.route.path, func(t *testing.T) {
			assert.Equal(t, tt.want, serve(r, tt.route, "").Code)
		})
	}
}

func TestSetupRoutes_MetricsOmittedWhenNil(t *testing.T) {
	r := newRouter(nil, nil)

	w := serve(r, route{http.MethodGet, "/metrics", ""}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetupRoutes_CallToolBody(t *testing.T) {
	r := newRouter(nil, nil)

	w := serve(r, route{http.MethodPost, "/v1/tools/echo", `{"text":"hi"}`}, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"content":[{"type":"text","text":"hi"}],"isError":false}`, w.Body.String())
}
