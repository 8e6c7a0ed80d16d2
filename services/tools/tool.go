// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tools defines the agent-facing tools and routes calls to them.
//
// # Description
//
// A Tool pairs a Descriptor (name, description, JSON argument schema) with a
// Run function. Run receives the caller's untyped argument object, converts
// it to a typed record and calls an upstream client. The Dispatcher turns
// every Run failure into an in-band error Result; only an unknown tool name
// surfaces as a Go error (wrapping toolerr.ErrMethodNotFound).
//
// # Families
//
//   - "search": brave_web_search, brave_local_search
//   - "forecast": get_forecast, get_tech_update
//
// # Thread Safety
//
// Tools and the Dispatcher are immutable after construction and safe for
// concurrent use as long as the underlying clients are.
package tools

import (
	"context"
)

// =============================================================================
// Results
// =============================================================================

// Content is one block of a tool result. Only "text" blocks are produced.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Result is the outcome of one tool call.
type Result struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError"`
}

// TextResult wraps successful output.
func TextResult(text string) *Result {
	return &Result{Content: []Content{{Type: "text", Text: text}}}
}

// ErrorResult wraps a failure message as an in-band error.
func ErrorResult(err error) *Result {
	return &Result{Content: []Content{{Type: "text", Text: err.Error()}}, IsError: true}
}

// Text concatenates the text blocks.
func (r *Result) Text() string {
	if r == nil {
		return ""
	}
	out := ""
	for _, c := range r.Content {
		out += c.Text
	}
	return out
}

// =============================================================================
// Descriptors
// =============================================================================

// Property describes one argument in a tool's input schema.
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Default     any      `json:"default,omitempty"`
	Minimum     *float64 `json:"minimum,omitempty"`
	Maximum     *float64 `json:"maximum,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// InputSchema is the JSON-schema object describing a tool's arguments.
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Descriptor is what tools/list returns for one tool.
type Descriptor struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

// RunFunc executes a tool against an untyped argument object.
type RunFunc func(ctx context.Context, args map[string]any) (string, error)

// Tool is a named capability.
type Tool struct {
	Descriptor Descriptor
	Family     string
	Run        RunFunc
}

// Name returns the descriptor name.
func (t Tool) Name() string {
	return t.Descriptor.Name
}

func bound(v float64) *float64 {
	return &v
}
