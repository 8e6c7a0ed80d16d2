// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package secrets keeps upstream API keys out of ordinary heap memory.
//
// # Description
//
// A Secret seals its value in a memguard Enclave (encrypted at rest in
// memory). The plaintext is only materialized for the duration of a Reveal
// call, when a client attaches the key to an outbound request.
//
// # Thread Safety
//
// Secret is safe for concurrent use; memguard serializes Enclave access.
package secrets

import (
	"fmt"
	"strings"

	"github.com/awnumar/memguard"
)

// Secret is a sealed string value. The zero value and nil are both "unset".
type Secret struct {
	enclave *memguard.Enclave
}

// New seals value. An empty (or whitespace-only) value yields an unset Secret.
//
// # Example
//
//	key := secrets.New(os.Getenv("BRAVE_API_KEY"))
//	if key.IsZero() {
//	    return fmt.Errorf("BRAVE_API_KEY is required")
//	}
func New(value string) *Secret {
	value = strings.TrimSpace(value)
	if value == "" {
		return &Secret{}
	}
	// NewEnclave wipes the slice it is given.
	return &Secret{enclave: memguard.NewEnclave([]byte(value))}
}

// IsZero reports whether the secret holds no value.
func (s *Secret) IsZero() bool {
	return s == nil || s.enclave == nil
}

// Reveal opens the enclave and passes the plaintext to fn.
//
// # Description
//
// The plaintext buffer is destroyed when fn returns, so fn must not retain
// the string it receives. Copy it (strings.Clone) if it has to outlive the
// call, as header values do.
//
// # Outputs
//
//   - error: non-nil when the secret is unset, cannot be opened, or fn fails.
func (s *Secret) Reveal(fn func(plaintext string) error) error {
	if s.IsZero() {
		return fmt.Errorf("secret is not set")
	}
	buf, err := s.enclave.Open()
	if err != nil {
		return fmt.Errorf("opening secret: %w", err)
	}
	defer buf.Destroy()
	return fn(buf.String())
}

// Value returns a heap copy of the plaintext.
//
// Use only where an API insists on a plain string (e.g. SDK client configs).
func (s *Secret) Value() (string, error) {
	var out string
	err := s.Reveal(func(plaintext string) error {
		out = strings.Clone(plaintext)
		return nil
	})
	return out, err
}

// String never prints the secret.
func (s *Secret) String() string {
	if s.IsZero() {
		return "<unset>"
	}
	return "<redacted>"
}

// Purge destroys every sealed secret and wipes memguard's session key.
// Call once on process shutdown.
func Purge() {
	memguard.Purge()
}
