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
	"fmt"
	"strconv"
	"strings"
)

const (
	notAvailable        = "N/A"
	noDescription       = "No description available"
	noLocalResults      = "No local results found"
	poiSeparator        = "\n---\n"
	webResultsSeparator = "\n\n"
)

// FormatWebResults renders each result as a Title/Description/URL block, blocks
// separated by a blank line. An empty slice renders as "".
func FormatWebResults(results []WebResult) string {
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, fmt.Sprintf("Title: %s\nDescription: %s\nURL: %s", r.Title, r.Description, r.URL))
	}
	return strings.Join(blocks, webResultsSeparator)
}

// FormatPOIs renders POI records joined with their descriptions (matched by id).
//
// # Outputs
//
//   - string: one block per POI separated by a dashed line, or
//     "No local results found" when pois is empty.
func FormatPOIs(pois []POI, descriptions map[string]string) string {
	if len(pois) == 0 {
		return noLocalResults
	}

	blocks := make([]string, 0, len(pois))
	for _, poi := range pois {
		var b strings.Builder
		fmt.Fprintf(&b, "Name: %s\n", poi.Name)
		fmt.Fprintf(&b, "Address: %s\n", formatAddress(poi.Address))
		fmt.Fprintf(&b, "Phone: %s\n", orNA(poi.Phone))
		fmt.Fprintf(&b, "Rating: %s\n", formatRating(poi.Rating))
		fmt.Fprintf(&b, "Price Range: %s\n", orNA(poi.PriceRange))
		fmt.Fprintf(&b, "Hours: %s\n", orNA(strings.Join(poi.OpeningHours, ", ")))

		description := strings.TrimSpace(descriptions[poi.ID])
		if description == "" {
			description = noDescription
		}
		fmt.Fprintf(&b, "Description: %s", description)
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, poiSeparator)
}

// formatAddress comma-joins the non-empty address parts, or returns "N/A".
func formatAddress(addr *Address) string {
	if addr == nil {
		return notAvailable
	}
	parts := make([]string, 0, 4)
	for _, p := range []string{addr.StreetAddress, addr.AddressLocality, addr.AddressRegion, addr.PostalCode} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return notAvailable
	}
	return strings.Join(parts, ", ")
}

func formatRating(r *Rating) string {
	value := notAvailable
	count := 0
	if r != nil {
		if r.RatingValue != nil {
			value = strconv.FormatFloat(*r.RatingValue, 'f', -1, 64)
		}
		if r.RatingCount != nil {
			count = *r.RatingCount
		}
	}
	return fmt.Sprintf("%s (%d reviews)", value, count)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}
