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
	"context"
)

// Tool names of the search family.
const (
	WebSearchToolName   = "brave_web_search"
	LocalSearchToolName = "brave_local_search"
)

// SearchClient is the subset of *brave.Client the search tools use.
type SearchClient interface {
	WebSearch(ctx context.Context, query string, count, offset int) (string, error)
	LocalSearch(ctx context.Context, query string, count int) (string, error)
}

// NewWebSearchTool builds brave_web_search.
func NewWebSearchTool(client SearchClient) Tool {
	return Tool{
		Family: FamilySearch,
		Descriptor: Descriptor{
			Name: WebSearchToolName,
			Description: "Performs a web search using the Brave Search API, ideal for general queries, news, articles, and online content. " +
				"Use this for broad information gathering, recent events, or when you need diverse web sources. " +
				"Supports pagination. " +
				"Maximum 20 results per request, with offset for pagination.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"query": {
						Type:        "string",
						Description: "Search query (max 400 chars, 50 words)",
					},
					"count": {
						Type:        "number",
						Description: "Number of results (1-20, default 10)",
						Default:     10,
						Minimum:     bound(1),
						Maximum:     bound(20),
					},
					"offset": {
						Type:        "number",
						Description: "Pagination offset (max 9, default 0)",
						Default:     0,
						Minimum:     bound(0),
						Maximum:     bound(9),
					},
				},
				Required: []string{"query"},
			},
		},
		Run: func(ctx context.Context, raw map[string]any) (string, error) {
			args, err := ParseWebSearchArgs(raw)
			if err != nil {
				return "", err
			}
			return client.WebSearch(ctx, args.Query, args.Count, args.Offset)
		},
	}
}

// NewLocalSearchTool builds brave_local_search.
func NewLocalSearchTool(client SearchClient) Tool {
	return Tool{
		Family: FamilySearch,
		Descriptor: Descriptor{
			Name: LocalSearchToolName,
			Description: "Searches for local businesses and places using Brave's Local Search API. " +
				"Best for queries related to physical locations, businesses, restaurants, services, etc. " +
				"Returns detailed information including business names and addresses, ratings and review counts, " +
				"phone numbers and opening hours. Use this when the query implies 'near me' or mentions specific locations. " +
				"Automatically falls back to web search if no local results are found.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"query": {
						Type:        "string",
						Description: "Local search query (e.g. 'pizza near Central Park')",
					},
					"count": {
						Type:        "number",
						Description: "Number of results (1-20, default 5)",
						Default:     5,
						Minimum:     bound(1),
						Maximum:     bound(20),
					},
				},
				Required: []string{"query"},
			},
		},
		Run: func(ctx context.Context, raw map[string]any) (string, error) {
			args, err := ParseLocalSearchArgs(raw)
			if err != nil {
				return "", err
			}
			return client.LocalSearch(ctx, args.Query, args.Count)
		},
	}
}
