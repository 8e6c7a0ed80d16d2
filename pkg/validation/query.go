// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for values that are
// forwarded to upstream APIs.
//
// This package contains validators for agent-provided inputs that end up in
// query strings. Rejecting them early keeps malformed requests (and the quota
// they would burn) away from the upstream services.
package validation

import (
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxQueryLength is the longest search query Brave accepts, in characters.
const MaxQueryLength = 400

// MaxQueryWords is the largest number of words Brave accepts in a query.
const MaxQueryWords = 50

// SanitizeQuery normalizes and validates a search query.
//
// Normalization trims surrounding whitespace and replaces control characters
// (newlines, tabs, NUL) with spaces. The result must be non-empty, at most
// MaxQueryLength characters and at most MaxQueryWords words.
//
// Example:
//
//	q, err := validation.SanitizeQuery(userInput)
//	if err != nil {
//	    return err
//	}
//	// q is safe to put in the "q" parameter
func SanitizeQuery(query string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, query)
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return "", fmt.Errorf("query cannot be empty")
	}
	if n := utf8.RuneCountInString(cleaned); n > MaxQueryLength {
		return "", fmt.Errorf("query too long: %d characters (max %d)", n, MaxQueryLength)
	}
	if n := len(strings.Fields(cleaned)); n > MaxQueryWords {
		return "", fmt.Errorf("query has too many words: %d (max %d)", n, MaxQueryWords)
	}
	return cleaned, nil
}

// ValidateCoordinates checks that latitude and longitude are finite and in range.
//
// Valid coordinates:
//   - latitude in [-90, 90]
//   - longitude in [-180, 180]
func ValidateCoordinates(latitude, longitude float64) error {
	if math.IsNaN(latitude) || math.IsInf(latitude, 0) || latitude < -90 || latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", latitude)
	}
	if math.IsNaN(longitude) || math.IsInf(longitude, 0) || longitude < -180 || longitude > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", longitude)
	}
	return nil
}
