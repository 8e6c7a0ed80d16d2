// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package toolerr defines the error taxonomy shared by the upstream clients,
// the tool handlers and the transport.
//
// # Description
//
// Errors are classified with errors.Is against the sentinels below, or with
// errors.As against *UpstreamHTTPError. Handlers convert every one of them
// into an in-band error result. Only ErrMethodNotFound is expected to reach
// the transport, where it becomes a protocol-level JSON-RPC error.
//
// # Thread Safety
//
// All values are immutable and safe for concurrent use.
package toolerr

import (
	"errors"
	"fmt"
)

// =============================================================================
// Sentinel Errors
// =============================================================================

var (
	// ErrInvalidArgument reports bad or missing caller input. Never retried.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrRateLimitExceeded reports an exhausted per-second or per-month quota.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrUpstreamParse reports a backend response that could not be interpreted.
	ErrUpstreamParse = errors.New("unexpected upstream response")

	// ErrMethodNotFound reports an unknown tool name at the dispatcher.
	ErrMethodNotFound = errors.New("method not found")

	// ErrMissingCredentials reports a client used without its API key.
	ErrMissingCredentials = errors.New("missing API credentials")
)

// =============================================================================
// Upstream HTTP Error
// =============================================================================

// UpstreamHTTPError is returned when a backend answers with a non-2xx status.
//
// # Fields
//
//   - Service: Human-readable backend name used as the message prefix ("Brave API").
//   - Status: HTTP status code.
//   - StatusText: Status line text, e.g. "429 Too Many Requests".
//   - Body: Response body as received, possibly empty.
type UpstreamHTTPError struct {
	Service    string
	Status     int
	StatusText string
	Body       string
}

// Error formats the error as "<service> error: <status line>\n<body>".
func (e *UpstreamHTTPError) Error() string {
	service := e.Service
	if service == "" {
		service = "upstream"
	}
	statusText := e.StatusText
	if statusText == "" {
		statusText = fmt.Sprintf("%d", e.Status)
	}
	return fmt.Sprintf("%s error: %s\n%s", service, statusText, e.Body)
}

// =============================================================================
// Constructors
// =============================================================================

// InvalidArgument wraps ErrInvalidArgument with a caller-facing reason.
//
// # Example
//
//	return SearchArgs{}, toolerr.InvalidArgument("query must be a string")
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// UpstreamParse wraps ErrUpstreamParse with a description of what was missing.
func UpstreamParse(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUpstreamParse, fmt.Sprintf(format, args...))
}

// MethodNotFound wraps ErrMethodNotFound with the unknown tool name.
func MethodNotFound(name string) error {
	return fmt.Errorf("%w: Unknown tool: %s", ErrMethodNotFound, name)
}

// =============================================================================
// Classification
// =============================================================================

// Kind returns a short, stable label for err, used as a metrics label.
//
// # Outputs
//
//   - string: one of "ok", "invalid_argument", "rate_limited", "upstream_http",
//     "upstream_parse", "method_not_found", "missing_credentials", "internal".
func Kind(err error) string {
	var httpErr *UpstreamHTTPError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrRateLimitExceeded):
		return "rate_limited"
	case errors.As(err, &httpErr):
		return "upstream_http"
	case errors.Is(err, ErrUpstreamParse):
		return "upstream_parse"
	case errors.Is(err, ErrMethodNotFound):
		return "method_not_found"
	case errors.Is(err, ErrMissingCredentials):
		return "missing_credentials"
	default:
		return "internal"
	}
}
