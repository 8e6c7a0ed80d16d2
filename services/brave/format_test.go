// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package brave

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatWebResults(t *testing.T) {
	tests := []struct {
		name    string
		results []WebResult
		want    string
	}{
		{"empty", nil, ""},
		{"single", []WebResult{{Title: "T", Description: "D", URL: "U"}}, "Title: T\nDescription: D\nURL: U"},
		{
			"two",
			[]WebResult{{Title: "A", Description: "a", URL: "1"}, {Title: "B", Description: "b", URL: "2"}},
			"Title: A\nDescription: a\nURL: 1\n\nTitle: B\nDescription: b\nURL: 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatWebResults(tt.results))
		})
	}
}

func TestFormatAddress(t *testing.T) {
	tests := []struct {
		name string
		addr *Address
		want string
	}{
		{"nil", nil, "N/A"},
		{"all empty", &Address{StreetAddress: " "}, "N/A"},
		{"partial", &Address{AddressLocality: "Austin", PostalCode: "78701"}, "Austin, 78701"},
		{"full", &Address{StreetAddress: "1 A St", AddressLocality: "B", AddressRegion: "C", PostalCode: "D"}, "1 A St, B, C, D"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatAddress(tt.addr))
		})
	}
}

func TestFormatRating(t *testing.T) {
	assert.Equal(t, "N/A (0 reviews)", formatRating(nil))
	assert.Equal(t, "4 (0 reviews)", formatRating(&Rating{RatingValue: ptr(4.0)}))
	assert.Equal(t, "N/A (7 reviews)", formatRating(&Rating{RatingCount: ptr(7)}))
}

func TestFormatPOIs_Empty(t *testing.T) {
	assert.Equal(t, "No local results found", FormatPOIs(nil, nil))
}
