// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mdwillman/avalogica-weather-mcp/pkg/toolerr"
)

// HandleListTools returns {"tools": [...descriptors]}.
func HandleListTools(service ToolService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"tools": service.ListTools()})
	}
}

// HandleCallTool runs the tool named in the path with the JSON body as its
// argument bag. An empty body means no arguments.
//
// # Outputs
//
//   - 200 with the tool Result, in-band errors included.
//   - 400 when the body is not a JSON object.
//   - 404 for an unknown tool.
func HandleCallTool(service ToolService) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")

		args := map[string]any{}
		if err := c.ShouldBindJSON(&args); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON object"})
			return
		}
		if args == nil {
			args = map[string]any{}
		}

		result, err := service.CallTool(c.Request.Context(), name, args)
		switch {
		case errors.Is(err, toolerr.ErrMethodNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown tool: " + name})
			return
		case err != nil:
			slog.Error("Tool dispatch failed", "tool", name, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
