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
	"github.com/spf13/cobra"
)

var (
	// Persistent flags
	logLevel string
	logJSON  bool

	// serve flags
	servePort     int
	serveFamilies []string
	serveEnv      string

	// tools flags
	toolsFamilies []string
	toolsJSON     bool
	toolsCallArgs string

	rootCmd = &cobra.Command{
		Use:   "avalogica",
		Short: "MCP tool server for web search, weather forecasts and tech news",
		Long: `avalogica exposes Brave web and local search, Open-Meteo daily forecasts
and cited AI news briefings as MCP tools over HTTP.

API keys are read from the environment (BRAVE_API_KEY, WEATHER_API_KEY,
COMPLETION_API_KEY). Flags override the matching environment variables.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setupLogging,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on /mcp with REST helpers on /v1",
		Args:  cobra.NoArgs,
		RunE:  runServe, // Defined in cmd_serve.go
	}

	toolsCmd = &cobra.Command{
		Use:   "tools",
		Short: "Inspect and run tools without starting the server",
	}
	toolsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List the tools of the enabled families",
		Args:  cobra.NoArgs,
		RunE:  runToolsList, // Defined in cmd_tools.go
	}
	toolsCallCmd = &cobra.Command{
		Use:   "call <name>",
		Short: "Run one tool in-process and print its result",
		Example: `  avalogica tools call brave_web_search --args '{"query":"golang generics"}'
  avalogica tools call get_forecast --args '{"latitude":52.52,"longitude":13.41,"days":3}'
  avalogica tools call get_tech_update --args '{"topic":"research"}'`,
		Args: cobra.ExactArgs(1),
		RunE: runToolsCall, // Defined in cmd_tools.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (env LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON (default when APP_ENV=production)")

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (env PORT, default 8080)")
	serveCmd.Flags().StringSliceVarP(&serveFamilies, "family", "f", nil, "tool families to enable: search, forecast (env TOOL_FAMILIES, default all)")
	serveCmd.Flags().StringVar(&serveEnv, "env", "", "environment: development or production (env APP_ENV)")

	toolsCmd.PersistentFlags().StringSliceVarP(&toolsFamilies, "family", "f", nil, "tool families to enable (default all)")
	toolsCmd.PersistentFlags().BoolVar(&toolsJSON, "json", false, "print JSON instead of text")
	toolsCallCmd.Flags().StringVarP(&toolsCallArgs, "args", "a", "{}", "tool arguments as a JSON object")

	toolsCmd.AddCommand(toolsListCmd, toolsCallCmd)
	rootCmd.AddCommand(serveCmd, toolsCmd)
}
