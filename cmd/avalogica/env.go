// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mdwillman/avalogica-weather-mcp/pkg/secrets"
	"github.com/mdwillman/avalogica-weather-mcp/services/gateway"
)

// Environment variables read by every command.
const (
	envBraveAPIKey       = "BRAVE_API_KEY"
	envBraveBaseURL      = "BRAVE_BASE_URL"
	envBraveRatePerSec   = "BRAVE_RATE_LIMIT_PER_SECOND"
	envBraveRatePerMonth = "BRAVE_RATE_LIMIT_PER_MONTH"
	envWeatherAPIKey     = "WEATHER_API_KEY"
	envWeatherBaseURL    = "WEATHER_BASE_URL"
	envForecastDays      = "FORECAST_DEFAULT_DAYS"
	envCompletionAPIKey  = "COMPLETION_API_KEY"
	envCompletionBaseURL = "COMPLETION_BASE_URL"
	envCompletionModel   = "COMPLETION_MODEL"
	envCompletionAPI     = "COMPLETION_API"
	envTopicsPath        = "TOPICS_PATH"
	envPort              = "PORT"
	envAppEnv            = "APP_ENV"
	envFamilies          = "TOOL_FAMILIES"
	envAuthToken         = "MCP_AUTH_TOKEN"
	envOTelEndpoint      = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envTracesExporter    = "OTEL_TRACES_EXPORTER"
	envLogLevel          = "LOG_LEVEL"
	envLogDir            = "LOG_DIR"
)

// configFromEnv builds a gateway.Config from environment variables.
//
// # Inputs
//
//   - getenv: Variable lookup, os.Getenv outside tests.
//
// # Outputs
//
//   - gateway.Config: Unset values stay zero so gateway defaults apply.
//   - error: A numeric variable that does not parse.
func configFromEnv(getenv func(string) string) (gateway.Config, error) {
	cfg := gateway.Config{
		Environment:       getenv(envAppEnv),
		Version:           version,
		BraveAPIKey:       secrets.New(getenv(envBraveAPIKey)),
		BraveBaseURL:      getenv(envBraveBaseURL),
		WeatherAPIKey:     secrets.New(getenv(envWeatherAPIKey)),
		WeatherBaseURL:    getenv(envWeatherBaseURL),
		CompletionAPIKey:  secrets.New(getenv(envCompletionAPIKey)),
		CompletionBackend: getenv(envCompletionAPI),
		CompletionBaseURL: getenv(envCompletionBaseURL),
		CompletionModel:   getenv(envCompletionModel),
		TopicsPath:        getenv(envTopicsPath),
		AuthToken:         secrets.New(getenv(envAuthToken)),
		OTelEndpoint:      getenv(envOTelEndpoint),
		TraceExporter:     getenv(envTracesExporter),
	}
	if families := strings.TrimSpace(getenv(envFamilies)); families != "" {
		cfg.Families = []string{families}
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{envPort, &cfg.Port},
		{envForecastDays, &cfg.ForecastDays},
		{envBraveRatePerSec, &cfg.BraveLimits.PerSecond},
		{envBraveRatePerMonth, &cfg.BraveLimits.PerMonth},
	}
	for _, v := range ints {
		raw := strings.TrimSpace(getenv(v.name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return gateway.Config{}, fmt.Errorf("%s must be a non-negative integer, got %q", v.name, raw)
		}
		*v.dst = n
	}

	return cfg, nil
}
