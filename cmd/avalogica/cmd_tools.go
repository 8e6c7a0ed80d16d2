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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mdwillman/avalogica-weather-mcp/pkg/toolerr"
	"github.com/mdwillman/avalogica-weather-mcp/services/gateway"
	"github.com/mdwillman/avalogica-weather-mcp/services/news"
	"github.com/mdwillman/avalogica-weather-mcp/services/tools"
)

func runToolsList(cmd *cobra.Command, _ []string) error {
	cfg, err := configFromEnv(os.Getenv)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("family") {
		cfg.Families = toolsFamilies
	}

	registry, err := news.LoadRegistry(cmd.Context(), cfg.TopicsPath)
	if err != nil {
		return err
	}
	descs, err := tools.Describe(cfg.Families, registry.Slugs(), cfg.ForecastDays)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if toolsJSON {
		return writeJSON(out, map[string]any{"tools": descs})
	}
	return writeToolTable(out, descs)
}

func runToolsCall(cmd *cobra.Command, args []string) error {
	name := args[0]

	var toolArgs map[string]any
	if err := json.Unmarshal([]byte(toolsCallArgs), &toolArgs); err != nil {
		return fmt.Errorf("--args must be a JSON object: %w", err)
	}
	if toolArgs == nil {
		toolArgs = map[string]any{}
	}

	cfg, err := configFromEnv(os.Getenv)
	if err != nil {
		return err
	}
	switch {
	case cmd.Flags().Changed("family"):
		cfg.Families = toolsFamilies
	case len(cfg.Families) == 0:
		if family := familyOf(name); family != "" {
			cfg.Families = []string{family}
		}
	}

	dispatcher, err := gateway.BuildDispatcher(cmd.Context(), cfg, nil)
	if err != nil {
		return err
	}

	result, err := dispatcher.CallTool(cmd.Context(), name, toolArgs)
	if err != nil {
		if errors.Is(err, toolerr.ErrMethodNotFound) {
			return fmt.Errorf("unknown tool %q (see 'avalogica tools list')", name)
		}
		return err
	}

	if toolsJSON {
		if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	} else if result.IsError {
		fmt.Fprintln(cmd.ErrOrStderr(), result.Text())
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), result.Text())
	}

	if result.IsError {
		return errToolFailed
	}
	return nil
}

// familyOf returns the family registering tool name, or "" if none does.
func familyOf(name string) string {
	for _, family := range tools.AllFamilies {
		descs, err := tools.Describe([]string{family}, nil, 0)
		if err != nil {
			continue
		}
		for _, d := range descs {
			if d.Name == name {
				return family
			}
		}
	}
	return ""
}

func writeToolTable(w io.Writer, descs []tools.Descriptor) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tREQUIRED\tDESCRIPTION")
	for _, d := range descs {
		required := strings.Join(d.InputSchema.Required, ",")
		if required == "" {
			required = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Name, required, firstSentence(d.Description))
	}
	return tw.Flush()
}

func firstSentence(s string) string {
	if i := strings.Index(s, ". "); i >= 0 {
		return s[:i+1]
	}
	return s
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
