// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package routes registers the gateway's HTTP endpoints.
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mdwillman/avalogica-weather-mcp/pkg/secrets"
	"github.com/mdwillman/avalogica-weather-mcp/services/gateway/handlers"
	"github.com/mdwillman/avalogica-weather-mcp/services/gateway/middleware"
)

// Options carries what the handlers need.
//
// # Fields
//
//   - Tools: Dispatcher behind /mcp and /v1/tools. Required.
//   - Sessions: MCP session table. Nil creates one.
//   - Info: Name and version for initialize and /health.
//   - Instructions: Optional initialize instructions.
//   - Families: Enabled tool families, reported by /health.
//   - AuthToken: Bearer token for /mcp and /v1. Nil or empty disables auth.
//   - Metrics: Handler for /metrics. Nil leaves the route unregistered.
type Options struct {
	Tools        handlers.ToolService
	Sessions     *handlers.SessionStore
	Info         handlers.ServerInfo
	Instructions string
	Families     []string
	AuthToken    *secrets.Secret
	Metrics      http.Handler
}

// SetupRoutes registers every endpoint on router.
//
//	GET    /health
//	GET    /metrics
//	POST   /mcp            JSON-RPC (auth)
//	GET    /mcp            405
//	DELETE /mcp            end session (auth)
//	GET    /v1/tools       descriptors (auth)
//	POST   /v1/tools/:name run one tool (auth)
func SetupRoutes(router *gin.Engine, opts Options) {
	router.GET("/health", handlers.HandleHealth(opts.Tools, opts.Info, opts.Families))
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	auth := middleware.BearerAuth(opts.AuthToken)

	mcp := handlers.NewMCPHandler(opts.Tools, opts.Sessions, opts.Info, opts.Instructions)
	mcpGroup := router.Group("/mcp", auth)
	{
		mcpGroup.POST("", mcp.HandlePost())
		mcpGroup.GET("", mcp.HandleGet())
		mcpGroup.DELETE("", mcp.HandleDelete())
	}

	v1 := router.Group("/v1", auth)
	{
		v1.GET("/tools", handlers.HandleListTools(opts.Tools))
		v1.POST("/tools/:name", handlers.HandleCallTool(opts.Tools))
	}
}
