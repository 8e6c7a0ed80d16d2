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
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionHeader carries the MCP session id assigned on initialize.
const SessionHeader = "Mcp-Session-Id"

// DefaultMaxSessions bounds the session table; the oldest entry is evicted
// when it is full.
const DefaultMaxSessions = 10000

// SessionStore remembers the session ids handed out by initialize.
//
// # Thread Safety
//
// Safe for concurrent use.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]time.Time
	max      int
	now      func() time.Time
}

// NewSessionStore creates a store holding at most max sessions.
// Non-positive max uses DefaultMaxSessions.
func NewSessionStore(max int) *SessionStore {
	if max <= 0 {
		max = DefaultMaxSessions
	}
	return &SessionStore{
		sessions: make(map[string]time.Time),
		max:      max,
		now:      time.Now,
	}
}

// Create registers and returns a new session id.
func (s *SessionStore) Create() string {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sessions) >= s.max {
		s.evictOldestLocked()
	}
	s.sessions[id] = s.now()
	return id
}

// Has reports whether id is a live session.
func (s *SessionStore) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	return ok
}

// Delete ends a session. It reports false when id was unknown.
func (s *SessionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionStore) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, created := range s.sessions {
		if oldestID == "" || created.Before(oldest) {
			oldestID, oldest = id, created
		}
	}
	delete(s.sessions, oldestID)
}
