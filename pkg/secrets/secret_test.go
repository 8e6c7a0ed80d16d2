// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package secrets

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecret_RoundTrip(t *testing.T) {
	s := New("  brave-key-123 ")
	require.False(t, s.IsZero())

	v, err := s.Value()
	require.NoError(t, err)
	assert.Equal(t, "brave-key-123", v)
}

func TestSecret_Empty(t *testing.T) {
	for _, s := range []*Secret{New(""), New("   "), nil} {
		assert.True(t, s.IsZero())
		_, err := s.Value()
		assert.Error(t, err)
	}
}

func TestSecret_RevealPropagatesError(t *testing.T) {
	s := New("k")
	err := s.Reveal(func(string) error { return fmt.Errorf("boom") })
	assert.EqualError(t, err, "boom")
}

func TestSecret_StringIsRedacted(t *testing.T) {
	assert.Equal(t, "<redacted>", New("k").String())
	assert.Equal(t, "<unset>", New("").String())
	assert.NotContains(t, fmt.Sprintf("%v", New("topsecret")), "topsecret")
}
