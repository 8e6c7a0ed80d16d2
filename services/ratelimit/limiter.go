// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ratelimit enforces the request quotas of a single upstream client.
//
// # Description
//
// A Limiter tracks two counters: requests in the current one-second window
// and requests since the process started (the "month" counter). The month
// counter is process-scoped and never resets; it is not calendar-accurate.
//
// # Thread Safety
//
// Limiter is safe for concurrent use. The HTTP transport serves tool calls
// concurrently, so the state is guarded by a mutex rather than relying on
// callers to serialize access.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"github.com/mdwillman/avalogica-weather-mcp/pkg/toolerr"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// DefaultPerSecond is the Brave free-plan per-second allowance.
	DefaultPerSecond = 1

	// DefaultPerMonth is the Brave free-plan monthly allowance.
	DefaultPerMonth = 15000

	// windowMs is the length of the per-second window in milliseconds.
	windowMs = 1000
)

// =============================================================================
// Types
// =============================================================================

// Limits configures a Limiter. Zero values fall back to the defaults.
type Limits struct {
	PerSecond int
	PerMonth  int
}

// State is a snapshot of the limiter counters.
//
// # Fields
//
//   - SecondCount: Requests consumed in the current window.
//   - WindowStartMs: Window start in Unix milliseconds.
//   - MonthCount: Requests consumed since the limiter was created.
type State struct {
	SecondCount   int
	WindowStartMs int64
	MonthCount    int
}

// Limiter is a fixed-window per-second plus lifetime per-month quota.
//
// # Description
//
// CheckAndConsume must be called once, synchronously, immediately before
// every outbound request on the owning client.
type Limiter struct {
	limits Limits
	clock  Clock

	mu    sync.Mutex
	state State
}

// =============================================================================
// Constructors
// =============================================================================

// New creates a Limiter using the system clock.
//
// # Inputs
//
//   - limits: Quotas. Non-positive fields use DefaultPerSecond / DefaultPerMonth.
//
// # Outputs
//
//   - *Limiter: Ready to use; the first window starts now.
func New(limits Limits) *Limiter {
	return NewWithClock(limits, SystemClock())
}

// NewWithClock creates a Limiter with an injected clock, mostly for tests.
func NewWithClock(limits Limits, clock Clock) *Limiter {
	if limits.PerSecond <= 0 {
		limits.PerSecond = DefaultPerSecond
	}
	if limits.PerMonth <= 0 {
		limits.PerMonth = DefaultPerMonth
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &Limiter{
		limits: limits,
		clock:  clock,
		state:  State{WindowStartMs: clock.NowMs()},
	}
}

// =============================================================================
// Operations
// =============================================================================

// CheckAndConsume admits one request or rejects it.
//
// # Description
//
//  1. If more than 1000ms elapsed since the window start, the second counter
//     resets and the window restarts at now.
//  2. If either counter has reached its limit, the call fails and no counter
//     is incremented.
//  3. Otherwise both counters are incremented.
//
// # Outputs
//
//   - error: wraps toolerr.ErrRateLimitExceeded when the quota is exhausted.
func (l *Limiter) CheckAndConsume() error {
	now := l.clock.NowMs()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now-l.state.WindowStartMs > windowMs {
		l.state.SecondCount = 0
		l.state.WindowStartMs = now
	}

	if l.state.SecondCount >= l.limits.PerSecond {
		return fmt.Errorf("%w: %d request(s) per second allowed", toolerr.ErrRateLimitExceeded, l.limits.PerSecond)
	}
	if l.state.MonthCount >= l.limits.PerMonth {
		return fmt.Errorf("%w: monthly quota of %d requests used", toolerr.ErrRateLimitExceeded, l.limits.PerMonth)
	}

	l.state.SecondCount++
	l.state.MonthCount++
	return nil
}

// Snapshot returns a copy of the current counters.
func (l *Limiter) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Limits returns the effective quotas.
func (l *Limiter) Limits() Limits {
	return l.limits
}

// =============================================================================
// Clock
// =============================================================================

// Clock supplies the current time in Unix milliseconds.
type Clock interface {
	NowMs() int64
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() int64

// NowMs implements Clock.
func (f ClockFunc) NowMs() int64 { return f() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock {
	return ClockFunc(func() int64 { return time.Now().UnixMilli() })
}
