//go:build ignore

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// generate_tool_docs generates a markdown reference of every tool and tech
// news topic the server registers.
//
// Usage:
//
//	go run scripts/generate_tool_docs.go > docs/tool_reference.md
//	go run scripts/generate_tool_docs.go -topics path/to/topics.yaml
//
// The generated documentation includes:
//   - One section per tool family with each tool's arguments
//   - The get_tech_update topic catalog with keywords
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mdwillman/avalogica-weather-mcp/services/news"
	"github.com/mdwillman/avalogica-weather-mcp/services/tools"
	"github.com/mdwillman/avalogica-weather-mcp/services/weather"
)

var familyDescriptions = map[string]string{
	tools.FamilySearch:   "Brave Search API tools. Require BRAVE_API_KEY and share one rate limiter (1 request/s, 15000/month by default).",
	tools.FamilyForecast: "Open-Meteo daily forecasts and cited AI news briefings. get_tech_update requires COMPLETION_API_KEY.",
}

func main() {
	topicsPath := flag.String("topics", "", "topics.yaml override (default: embedded catalog)")
	flag.Parse()

	registry, err := news.LoadRegistry(context.Background(), *topicsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading topics: %v\n", err)
		os.Exit(1)
	}

	generateMarkdown(registry)
}

// generateMarkdown outputs the full markdown documentation.
func generateMarkdown(registry *news.Registry) {
	fmt.Println("# Tool Reference")
	fmt.Println()
	fmt.Printf("**Generated:** %s\n", time.Now().UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Println()

	for _, family := range tools.AllFamilies {
		descs, err := tools.Describe([]string{family}, registry.Slugs(), weather.DefaultDays)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error describing %s: %v\n", family, err)
			os.Exit(1)
		}

		fmt.Printf("## Family `%s`\n\n", family)
		fmt.Println(familyDescriptions[family])
		fmt.Println()

		for _, d := range descs {
			generateToolSection(d)
		}
	}

	generateTopicSection(registry)
}

func generateToolSection(d tools.Descriptor) {
	fmt.Printf("### %s\n\n", d.Name)
	fmt.Println(d.Description)
	fmt.Println()
	fmt.Println("| Argument | Type | Required | Default | Range | Description |")
	fmt.Println("|----------|------|----------|---------|-------|-------------|")

	names := make([]string, 0, len(d.InputSchema.Properties))
	for name := range d.InputSchema.Properties {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ri, rj := isRequired(d, names[i]), isRequired(d, names[j])
		if ri != rj {
			return ri
		}
		return names[i] < names[j]
	})

	for _, name := range names {
		p := d.InputSchema.Properties[name]
		required := "no"
		if isRequired(d, name) {
			required = "yes"
		}
		def := "-"
		if p.Default != nil {
			def = fmt.Sprintf("`%v`", p.Default)
		}
		fmt.Printf("| `%s` | %s | %s | %s | %s | %s |\n",
			name, p.Type, required, def, formatRange(p), escapePipes(p.Description))
	}
	fmt.Println()
}

func generateTopicSection(registry *news.Registry) {
	fmt.Println("## Tech Update Topics")
	fmt.Println()
	fmt.Println("Topics are matched case-insensitively by slug or keyword.")
	fmt.Println()
	fmt.Println("| Slug | Title | Keywords |")
	fmt.Println("|------|-------|----------|")
	for _, topic := range registry.Topics() {
		fmt.Printf("| `%s` | %s | %s |\n", topic.Slug, topic.Title, strings.Join(topic.Keywords, ", "))
	}
	fmt.Println()
	fmt.Printf("**Summary:** %d topics\n", len(registry.Topics()))
}

func isRequired(d tools.Descriptor, name string) bool {
	for _, r := range d.InputSchema.Required {
		if r == name {
			return true
		}
	}
	return false
}

func formatRange(p tools.Property) string {
	switch {
	case len(p.Enum) > 0:
		return strings.Join(p.Enum, ", ")
	case p.Minimum != nil && p.Maximum != nil:
		return fmt.Sprintf("%s..%s", trim(*p.Minimum), trim(*p.Maximum))
	case p.Minimum != nil:
		return ">= " + trim(*p.Minimum)
	case p.Maximum != nil:
		return "<= " + trim(*p.Maximum)
	default:
		return "-"
	}
}

func trim(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
