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

// =============================================================================
// Web Search
// =============================================================================

// WebResult is one organic web hit. Only the fields the formatter reads are modeled.
type WebResult struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// LocationRef identifies a place returned by a location-filtered web search.
type LocationRef struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// WebSearchResponse is the subset of /res/v1/web/search the client consumes.
// Both sections may be absent.
type WebSearchResponse struct {
	Web *struct {
		Results []WebResult `json:"results"`
	} `json:"web,omitempty"`
	Locations *struct {
		Results []LocationRef `json:"results"`
	} `json:"locations,omitempty"`
}

// webResults returns the organic results, tolerating a missing section.
func (r *WebSearchResponse) webResults() []WebResult {
	if r == nil || r.Web == nil {
		return nil
	}
	return r.Web.Results
}

// locationIDs returns the non-empty location identifiers in response order.
func (r *WebSearchResponse) locationIDs() []string {
	if r == nil || r.Locations == nil {
		return nil
	}
	ids := make([]string, 0, len(r.Locations.Results))
	for _, loc := range r.Locations.Results {
		if loc.ID != "" {
			ids = append(ids, loc.ID)
		}
	}
	return ids
}

// =============================================================================
// Local Search
// =============================================================================

// Address is a postal address as returned by /res/v1/local/pois.
type Address struct {
	StreetAddress   string `json:"streetAddress,omitempty"`
	AddressLocality string `json:"addressLocality,omitempty"`
	AddressRegion   string `json:"addressRegion,omitempty"`
	PostalCode      string `json:"postalCode,omitempty"`
}

// Rating is an aggregate review score. Either field may be missing.
type Rating struct {
	RatingValue *float64 `json:"ratingValue,omitempty"`
	RatingCount *int     `json:"ratingCount,omitempty"`
}

// POI is a point-of-interest record.
type POI struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Address      *Address `json:"address,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	Rating       *Rating  `json:"rating,omitempty"`
	OpeningHours []string `json:"openingHours,omitempty"`
	PriceRange   string   `json:"priceRange,omitempty"`
}

// POIResponse is the body of /res/v1/local/pois.
type POIResponse struct {
	Results []POI `json:"results"`
}

// DescriptionsResponse is the body of /res/v1/local/descriptions, keyed by POI id.
type DescriptionsResponse struct {
	Descriptions map[string]string `json:"descriptions"`
}
