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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mdwillman/avalogica-weather-mcp/services/news"
)

// TechUpdater is the subset of *news.Updater the tech-update tool uses.
type TechUpdater interface {
	GetUpdate(ctx context.Context, topic string) (*news.Update, error)
}

// NewTechUpdateTool builds get_tech_update. slugs populates the topic enum.
func NewTechUpdateTool(updater TechUpdater, slugs []string) Tool {
	return Tool{
		Family: FamilyForecast,
		Descriptor: Descriptor{
			Name: TechUpdateToolName,
			Description: "Get a cited briefing of the latest technology news for a topic. " +
				"Returns JSON with content, citations, model, createdAt, topic, title and description.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"topic": {
						Type:        "string",
						Description: fmt.Sprintf("Topic to summarize. One of: %s", strings.Join(slugs, ", ")),
						Enum:        append([]string(nil), slugs...),
					},
				},
				Required: []string{"topic"},
			},
		},
		Run: func(ctx context.Context, raw map[string]any) (string, error) {
			args, err := ParseTechUpdateArgs(raw)
			if err != nil {
				return "", err
			}
			update, err := updater.GetUpdate(ctx, args.Topic)
			if err != nil {
				return "", err
			}
			data, err := json.Marshal(update)
			if err != nil {
				return "", fmt.Errorf("encoding tech update: %w", err)
			}
			return string(data), nil
		},
	}
}
