// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mdwillman/avalogica-weather-mcp/pkg/toolerr"
	"github.com/mdwillman/avalogica-weather-mcp/services/gateway/observability"
)

var tracer = otel.Tracer("github.com/mdwillman/avalogica-weather-mcp/services/tools")

// Dispatcher routes tool calls by exact name.
type Dispatcher struct {
	tools   []Tool
	byName  map[string]Tool
	metrics *observability.Metrics
}

// NewDispatcher indexes tools. Order is kept for ListTools.
//
// # Outputs
//
//   - error: when two tools share a name or a tool has no Run function.
func NewDispatcher(metrics *observability.Metrics, tools ...Tool) (*Dispatcher, error) {
	d := &Dispatcher{
		tools:   make([]Tool, 0, len(tools)),
		byName:  make(map[string]Tool, len(tools)),
		metrics: metrics,
	}
	for _, t := range tools {
		if t.Name() == "" || t.Run == nil {
			return nil, fmt.Errorf("tool %q is incomplete", t.Name())
		}
		if _, dup := d.byName[t.Name()]; dup {
			return nil, fmt.Errorf("duplicate tool name %q", t.Name())
		}
		d.byName[t.Name()] = t
		d.tools = append(d.tools, t)
	}
	return d, nil
}

// ListTools returns every descriptor in registration order.
func (d *Dispatcher) ListTools() []Descriptor {
	out := make([]Descriptor, len(d.tools))
	for i, t := range d.tools {
		out[i] = t.Descriptor
	}
	return out
}

// Has reports whether a tool is registered under name.
func (d *Dispatcher) Has(name string) bool {
	_, ok := d.byName[name]
	return ok
}

// CallTool invokes the named tool.
//
// # Description
//
// Every failure inside the tool, panics included, becomes a Result with
// IsError set and the failure message as its only text block.
//
// # Outputs
//
//   - *Result: Never nil when error is nil.
//   - error: wraps toolerr.ErrMethodNotFound for unknown names. No other
//     error is returned.
func (d *Dispatcher) CallTool(ctx context.Context, name string, args map[string]any) (*Result, error) {
	tool, ok := d.byName[name]
	if !ok {
		slog.Warn("Unknown tool requested", "tool", name)
		return nil, toolerr.MethodNotFound(name)
	}

	ctx, span := tracer.Start(ctx, "tools.Call", trace.WithAttributes(attribute.String("tool.name", name)))
	defer span.End()

	start := time.Now()
	text, err := invoke(ctx, tool, args)
	elapsed := time.Since(start)
	d.metrics.RecordToolCall(name, toolerr.Kind(err), elapsed)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, toolerr.Kind(err))
		slog.Info("Tool call failed", "tool", name, "duration", elapsed, "is_error", true, "kind", toolerr.Kind(err))
		return ErrorResult(err), nil
	}
	slog.Info("Tool call completed", "tool", name, "duration", elapsed, "is_error", false)
	return TextResult(text), nil
}

func invoke(ctx context.Context, tool Tool, args map[string]any) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Tool panicked", "tool", tool.Name(), "panic", r)
			err = fmt.Errorf("internal error in %s", tool.Name())
		}
	}()
	return tool.Run(ctx, args)
}
