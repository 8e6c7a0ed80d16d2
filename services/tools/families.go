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
	"fmt"
	"slices"
	"strings"
)

// Tool families.
const (
	FamilySearch   = "search"
	FamilyForecast = "forecast"
)

// AllFamilies lists every family in registration order.
var AllFamilies = []string{FamilySearch, FamilyForecast}

// Deps carries the clients the tool families need. Only the clients of
// enabled families must be set.
type Deps struct {
	Search       SearchClient
	Forecast     ForecastClient
	Updater      TechUpdater
	TopicSlugs   []string
	ForecastDays int
}

// ParseFamilies splits a comma-separated list and checks each name.
// An empty input yields AllFamilies.
func ParseFamilies(list []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, entry := range list {
		for _, name := range strings.Split(entry, ",") {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "" || seen[name] {
				continue
			}
			if name != FamilySearch && name != FamilyForecast {
				return nil, fmt.Errorf("unknown tool family %q (want %s)", name, strings.Join(AllFamilies, " or "))
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), AllFamilies...), nil
	}
	return out, nil
}

// BuildTools assembles the tools of the requested families.
//
// # Outputs
//
//   - []Tool: search tools first, then forecast tools.
//   - error: an unknown family, or a missing client for an enabled family.
func BuildTools(deps Deps, families []string) ([]Tool, error) {
	families, err := ParseFamilies(families)
	if err != nil {
		return nil, err
	}
	enabled := make(map[string]bool, len(families))
	for _, f := range families {
		enabled[f] = true
	}

	var out []Tool
	if enabled[FamilySearch] {
		if deps.Search == nil {
			return nil, fmt.Errorf("search family requires a search client")
		}
		out = append(out, NewWebSearchTool(deps.Search), NewLocalSearchTool(deps.Search))
	}
	if enabled[FamilyForecast] {
		if deps.Forecast == nil || deps.Updater == nil {
			return nil, fmt.Errorf("forecast family requires a forecast client and a tech updater")
		}
		out = append(out,
			NewForecastTool(deps.Forecast, deps.ForecastDays),
			NewTechUpdateTool(deps.Updater, deps.TopicSlugs),
		)
	}
	return out, nil
}

// Describe returns the descriptors BuildTools would register for families,
// without needing any upstream client. The returned tools are never run.
func Describe(families []string, topicSlugs []string, forecastDays int) ([]Descriptor, error) {
	families, err := ParseFamilies(families)
	if err != nil {
		return nil, err
	}

	var out []Descriptor
	for _, family := range AllFamilies {
		if !slices.Contains(families, family) {
			continue
		}
		switch family {
		case FamilySearch:
			out = append(out, NewWebSearchTool(nil).Descriptor, NewLocalSearchTool(nil).Descriptor)
		case FamilyForecast:
			out = append(out,
				NewForecastTool(nil, forecastDays).Descriptor,
				NewTechUpdateTool(nil, topicSlugs).Descriptor,
			)
		}
	}
	return out, nil
}
