// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command avalogica runs and inspects the avalogica MCP tool server.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mdwillman/avalogica-weather-mcp/pkg/logging"
	"github.com/mdwillman/avalogica-weather-mcp/pkg/secrets"
	"github.com/mdwillman/avalogica-weather-mcp/services/gateway"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// errToolFailed marks a tool result with isError set. The result text has
// already been printed, so main only sets the exit code.
var errToolFailed = errors.New("tool reported an error")

var processLogger *logging.Logger

func main() {
	os.Exit(run())
}

func run() int {
	defer secrets.Purge()
	defer func() {
		if processLogger != nil {
			_ = processLogger.Close()
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errToolFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return 1
	}
	return 0
}

// setupLogging installs the process logger as the slog default.
func setupLogging(cmd *cobra.Command, _ []string) error {
	levelName := logLevel
	if levelName == "" {
		levelName = os.Getenv(envLogLevel)
	}
	level, levelErr := logging.ParseLevel(levelName)

	env := os.Getenv(envAppEnv)
	if serveEnv != "" {
		env = serveEnv
	}

	processLogger = logging.New(logging.Config{
		Level:   level,
		Service: "avalogica",
		JSON:    logJSON || strings.EqualFold(strings.TrimSpace(env), gateway.EnvProduction),
		LogDir:  os.Getenv(envLogDir),
		Output:  cmd.ErrOrStderr(),
	})
	slog.SetDefault(processLogger.Slog())

	if levelErr != nil {
		slog.Warn("Ignoring log level", "error", levelErr)
	}
	return nil
}
