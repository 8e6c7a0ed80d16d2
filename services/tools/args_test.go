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
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdwillman/avalogica-weather-mcp/pkg/toolerr"
)

func TestParseWebSearchArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		want    WebSearchArgs
		wantErr string
	}{
		{"defaults", map[string]any{"query": "golang"}, WebSearchArgs{Query: "golang", Count: 10, Offset: 0}, ""},
		{"explicit", map[string]any{"query": " go ", "count": 20.0, "offset": 9.0}, WebSearchArgs{Query: "go", Count: 20, Offset: 9}, ""},
		{"json number", map[string]any{"query": "go", "count": json.Number("3")}, WebSearchArgs{Query: "go", Count: 3}, ""},
		{"nil args", nil, WebSearchArgs{}, "arguments must be an object"},
		{"missing query", map[string]any{}, WebSearchArgs{}, "query must be a string"},
		{"query not string", map[string]any{"query": 42}, WebSearchArgs{}, "query must be a string"},
		{"blank query", map[string]any{"query": "   "}, WebSearchArgs{}, "query cannot be empty"},
		{"long query", map[string]any{"query": strings.Repeat("a", 401)}, WebSearchArgs{}, "query too long"},
		{"too many words", map[string]any{"query": strings.Repeat("w ", 51)}, WebSearchArgs{}, "query has too many words"},
		{"count too big", map[string]any{"query": "go", "count": 21.0}, WebSearchArgs{}, "count must be at most 20"},
		{"count zero", map[string]any{"query": "go", "count": 0.0}, WebSearchArgs{}, "count must be at least 1"},
		{"offset too big", map[string]any{"query": "go", "offset": 10.0}, WebSearchArgs{}, "offset must be at most 9"},
		{"fractional count", map[string]any{"query": "go", "count": 2.5}, WebSearchArgs{}, "count must be an integer"},
		{"string count", map[string]any{"query": "go", "count": "5"}, WebSearchArgs{}, "count must be an integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWebSearchArgs(tt.args)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, toolerr.ErrInvalidArgument)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLocalSearchArgs(t *testing.T) {
	got, err := ParseLocalSearchArgs(map[string]any{"query": "pizza"})
	require.NoError(t, err)
	assert.Equal(t, LocalSearchArgs{Query: "pizza", Count: 5}, got)

	_, err = ParseLocalSearchArgs(map[string]any{"query": "pizza", "count": 25})
	assert.ErrorIs(t, err, toolerr.ErrInvalidArgument)
}

func TestParseForecastArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		want    ForecastArgs
		wantErr string
	}{
		{"defaults", map[string]any{"latitude": 40.7, "longitude": -74.0}, ForecastArgs{Latitude: 40.7, Longitude: -74.0, Days: 7}, ""},
		{"ints accepted", map[string]any{"latitude": 10, "longitude": 20, "days": 3}, ForecastArgs{Latitude: 10, Longitude: 20, Days: 3}, ""},
		{"string latitude", map[string]any{"latitude": "10", "longitude": 20}, ForecastArgs{}, "latitude must be a number"},
		{"missing longitude", map[string]any{"latitude": 10.0}, ForecastArgs{}, "longitude is required"},
		{"null latitude", map[string]any{"latitude": nil, "longitude": 1.0}, ForecastArgs{}, "latitude is required"},
		{"latitude range", map[string]any{"latitude": 91.0, "longitude": 0.0}, ForecastArgs{}, "out of range"},
		{"longitude range", map[string]any{"latitude": 0.0, "longitude": -180.5}, ForecastArgs{}, "out of range"},
		{"days too many", map[string]any{"latitude": 0.0, "longitude": 0.0, "days": 8.0}, ForecastArgs{}, "days must be at most 7"},
		{"nil args", nil, ForecastArgs{}, "latitude: number, longitude: number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseForecastArgs(tt.args, 7)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, toolerr.ErrInvalidArgument)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTechUpdateArgs(t *testing.T) {
	got, err := ParseTechUpdateArgs(map[string]any{"topic": " research "})
	require.NoError(t, err)
	assert.Equal(t, "research", got.Topic)

	_, err = ParseTechUpdateArgs(map[string]any{"topic": ""})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "topic is required")

	_, err = ParseTechUpdateArgs(map[string]any{"topic": []any{"research"}})
	assert.ErrorIs(t, err, toolerr.ErrInvalidArgument)
}
