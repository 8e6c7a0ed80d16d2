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
	"fmt"

	"github.com/mdwillman/avalogica-weather-mcp/services/weather"
)

// Tool names of the forecast family.
const (
	ForecastToolName   = "get_forecast"
	TechUpdateToolName = "get_tech_update"
)

// ForecastClient is the subset of *weather.Client the forecast tool uses.
type ForecastClient interface {
	GetForecast(ctx context.Context, latitude, longitude float64, days int) (*weather.Forecast, error)
}

// NewForecastTool builds get_forecast. defaultDays applies when the caller
// omits days; values outside 1..7 fall back to weather.DefaultDays.
func NewForecastTool(client ForecastClient, defaultDays int) Tool {
	if defaultDays < 1 || defaultDays > weather.MaxDays {
		defaultDays = weather.DefaultDays
	}
	return Tool{
		Family: FamilyForecast,
		Descriptor: Descriptor{
			Name:        ForecastToolName,
			Description: "Get the daily weather forecast (high and low temperatures) for a location given its latitude and longitude.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"latitude": {
						Type:        "number",
						Description: "Latitude of the location (-90 to 90)",
						Minimum:     bound(-90),
						Maximum:     bound(90),
					},
					"longitude": {
						Type:        "number",
						Description: "Longitude of the location (-180 to 180)",
						Minimum:     bound(-180),
						Maximum:     bound(180),
					},
					"days": {
						Type:        "integer",
						Description: fmt.Sprintf("Number of forecast days (1-%d, default %d)", weather.MaxDays, defaultDays),
						Default:     defaultDays,
						Minimum:     bound(1),
						Maximum:     bound(weather.MaxDays),
					},
				},
				Required: []string{"latitude", "longitude"},
			},
		},
		Run: func(ctx context.Context, raw map[string]any) (string, error) {
			args, err := ParseForecastArgs(raw, defaultDays)
			if err != nil {
				return "", err
			}
			forecast, err := client.GetForecast(ctx, args.Latitude, args.Longitude, args.Days)
			if err != nil {
				return "", err
			}
			return forecast.Text(), nil
		},
	}
}
