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
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mdwillman/avalogica-weather-mcp/services/gateway"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := configFromEnv(os.Getenv)
	if err != nil {
		return err
	}
	applyServeFlags(cmd, &cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := gateway.New(ctx, cfg)
	if err != nil {
		return err
	}

	slog.Info("Starting avalogica",
		"version", version,
		"brave_key_set", !cfg.BraveAPIKey.IsZero(),
		"weather_key_set", !cfg.WeatherAPIKey.IsZero(),
		"completion_key_set", !cfg.CompletionAPIKey.IsZero(),
		"auth_enabled", !cfg.AuthToken.IsZero(),
	)
	return svc.Run(ctx)
}

// applyServeFlags overrides env-derived values with explicitly set flags.
func applyServeFlags(cmd *cobra.Command, cfg *gateway.Config) {
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Port = servePort
	}
	if flags.Changed("family") {
		cfg.Families = serveFamilies
	}
	if flags.Changed("env") {
		cfg.Environment = serveEnv
	}
}
