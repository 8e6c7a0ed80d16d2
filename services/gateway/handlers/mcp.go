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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/mdwillman/avalogica-weather-mcp/pkg/toolerr"
	"github.com/mdwillman/avalogica-weather-mcp/services/tools"
)

// LatestProtocolVersion is returned when the client asks for a revision the
// server does not speak.
const LatestProtocolVersion = "2025-03-26"

// SupportedProtocolVersions lists the MCP revisions echoed back on initialize.
var SupportedProtocolVersions = []string{"2024-11-05", LatestProtocolVersion, "2025-06-18"}

// MaxRequestBytes caps the size of a /mcp request body.
const MaxRequestBytes = 1 << 20

// ToolService is the dispatcher surface the handlers need.
type ToolService interface {
	ListTools() []tools.Descriptor
	CallTool(ctx context.Context, name string, args map[string]any) (*tools.Result, error)
}

// ServerInfo identifies the server in the initialize result.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeResult is the result of the initialize method.
type InitializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ServerInfo      ServerInfo     `json:"serverInfo"`
	Instructions    string         `json:"instructions,omitempty"`
}

type initializeParams struct {
	ProtocolVersion string `json:"protocolVersion"`
	ClientInfo      struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"clientInfo"`
}

type callParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// =============================================================================
// MCP Handler
// =============================================================================

// MCPHandler serves the MCP streamable-HTTP endpoint with plain JSON replies.
type MCPHandler struct {
	service      ToolService
	sessions     *SessionStore
	info         ServerInfo
	instructions string
}

// NewMCPHandler wires the endpoint to a tool service.
//
// # Inputs
//
//   - service: Lists and runs tools. Must not be nil.
//   - sessions: Session table. Nil creates a default one.
//   - info: Name and version reported on initialize.
//   - instructions: Optional usage hint for the client's model.
func NewMCPHandler(service ToolService, sessions *SessionStore, info ServerInfo, instructions string) *MCPHandler {
	if sessions == nil {
		sessions = NewSessionStore(0)
	}
	return &MCPHandler{
		service:      service,
		sessions:     sessions,
		info:         info,
		instructions: instructions,
	}
}

// HandlePost answers one JSON-RPC request or a batch of them.
//
// # Description
//
// Notifications get 202 with no body. A session id header that the server
// never issued yields 404 so the client re-initializes. Successful
// initialize responses carry a new Mcp-Session-Id header.
func (h *MCPHandler) HandlePost() gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxRequestBytes+1))
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse(nil, CodeParseError, "Parse error: failed to read request body"))
			return
		}
		if len(body) > MaxRequestBytes {
			c.JSON(http.StatusRequestEntityTooLarge, errorResponse(nil, CodeInvalidRequest, "Invalid Request: body too large"))
			return
		}

		if sid := c.GetHeader(SessionHeader); sid != "" && !h.sessions.Has(sid) {
			c.JSON(http.StatusNotFound, errorResponse(nil, CodeInvalidRequest, "Invalid Request: unknown session"))
			return
		}

		body = bytes.TrimSpace(body)
		if len(body) > 0 && body[0] == '[' {
			h.handleBatch(c, body)
			return
		}

		var req Request
		if err := json.Unmarshal(body, &req); err != nil {
			c.JSON(http.StatusOK, errorResponse(nil, CodeParseError, "Parse error: "+err.Error()))
			return
		}

		resp := h.Dispatch(c.Request.Context(), &req)
		if resp == nil {
			c.Status(http.StatusAccepted)
			return
		}
		if req.Method == "initialize" && resp.Error == nil {
			c.Header(SessionHeader, h.sessions.Create())
		}
		c.JSON(http.StatusOK, resp)
	}
}

// HandleDelete ends the session named by the Mcp-Session-Id header.
func (h *MCPHandler) HandleDelete() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := c.GetHeader(SessionHeader)
		if sid == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing " + SessionHeader + " header"})
			return
		}
		if !h.sessions.Delete(sid) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// HandleGet rejects the optional server-to-client SSE stream, which this
// server does not offer.
func (h *MCPHandler) HandleGet() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Allow", "POST, DELETE")
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "server does not offer an SSE stream"})
	}
}

func (h *MCPHandler) handleBatch(c *gin.Context, body []byte) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		c.JSON(http.StatusOK, errorResponse(nil, CodeParseError, "Parse error: "+err.Error()))
		return
	}
	if len(raw) == 0 {
		c.JSON(http.StatusOK, errorResponse(nil, CodeInvalidRequest, "Invalid Request: empty batch"))
		return
	}

	responses := make([]*Response, 0, len(raw))
	for _, item := range raw {
		var req Request
		if err := json.Unmarshal(item, &req); err != nil {
			responses = append(responses, errorResponse(nil, CodeInvalidRequest, "Invalid Request: "+err.Error()))
			continue
		}
		if req.Method == "initialize" {
			responses = append(responses, errorResponse(req.ID, CodeInvalidRequest, "Invalid Request: initialize cannot be batched"))
			continue
		}
		if resp := h.Dispatch(c.Request.Context(), &req); resp != nil {
			responses = append(responses, resp)
		}
	}

	if len(responses) == 0 {
		c.Status(http.StatusAccepted)
		return
	}
	c.JSON(http.StatusOK, responses)
}

// =============================================================================
// Method Dispatch
// =============================================================================

// Dispatch runs one request and returns its response, or nil for a
// notification.
func (h *MCPHandler) Dispatch(ctx context.Context, req *Request) *Response {
	if req.JSONRPC != JSONRPCVersion || req.Method == "" || !validID(req.ID) {
		id := req.ID
		if !validID(id) {
			id = nil
		}
		return errorResponse(id, CodeInvalidRequest, "Invalid Request")
	}

	if req.IsNotification() {
		slog.Debug("MCP notification", "method", req.Method)
		return nil
	}

	switch req.Method {
	case "initialize":
		return h.initialize(req)
	case "ping":
		return resultResponse(req.ID, struct{}{})
	case "tools/list":
		return resultResponse(req.ID, gin.H{"tools": h.service.ListTools()})
	case "tools/call":
		return h.callTool(ctx, req)
	default:
		return errorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method))
	}
}

func (h *MCPHandler) initialize(req *Request) *Response {
	var params initializeParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, CodeInvalidParams, "Invalid params: "+err.Error())
		}
	}

	version := LatestProtocolVersion
	if slices.Contains(SupportedProtocolVersions, params.ProtocolVersion) {
		version = params.ProtocolVersion
	}
	slog.Info("MCP client initialized",
		"client", params.ClientInfo.Name,
		"client_version", params.ClientInfo.Version,
		"protocol_version", version)

	return resultResponse(req.ID, InitializeResult{
		ProtocolVersion: version,
		Capabilities: map[string]any{
			"tools": map[string]any{"listChanged": false},
		},
		ServerInfo:   h.info,
		Instructions: h.instructions,
	})
}

func (h *MCPHandler) callTool(ctx context.Context, req *Request) *Response {
	var params callParams
	if len(req.Params) == 0 {
		return errorResponse(req.ID, CodeInvalidParams, "Invalid params: missing params")
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, CodeInvalidParams, "Invalid params: "+err.Error())
	}
	if params.Name == "" {
		return errorResponse(req.ID, CodeInvalidParams, "Invalid params: name is required")
	}
	if params.Arguments == nil {
		params.Arguments = map[string]any{}
	}

	result, err := h.service.CallTool(ctx, params.Name, params.Arguments)
	switch {
	case errors.Is(err, toolerr.ErrMethodNotFound):
		return errorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("Unknown tool: %s", params.Name))
	case err != nil:
		slog.Error("Tool dispatch failed", "tool", params.Name, "error", err)
		return errorResponse(req.ID, CodeInternalError, "Internal error")
	}
	return resultResponse(req.ID, result)
}
