// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package news

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/mdwillman/avalogica-weather-mcp/pkg/toolerr"
	"github.com/mdwillman/avalogica-weather-mcp/services/llm"
)

// Update is the briefing returned to the caller as JSON.
type Update struct {
	Content     string     `json:"content"`
	Citations   []Citation `json:"citations"`
	Model       string     `json:"model"`
	CreatedAt   string     `json:"createdAt"`
	Topic       string     `json:"topic"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
}

// Updater produces topic briefings with a completion client.
type Updater struct {
	registry *Registry
	client   llm.CompletionClient
	model    string
	now      func() time.Time
}

// NewUpdater wires a registry to a completion client. client may be nil when
// no API key is configured; GetUpdate then fails with ErrMissingCredentials.
func NewUpdater(registry *Registry, client llm.CompletionClient, model string) *Updater {
	return &Updater{
		registry: registry,
		client:   client,
		model:    model,
		now:      time.Now,
	}
}

// Registry returns the topic registry backing the updater.
func (u *Updater) Registry() *Registry {
	return u.registry
}

// GetUpdate resolves rawTopic and asks the model for a cited briefing.
//
// # Outputs
//
//   - *Update: The briefing. Citations is never nil.
//   - error: InvalidArgument for an unknown topic, ErrMissingCredentials,
//     any client error, or UpstreamParse when the reply holds no text.
func (u *Updater) GetUpdate(ctx context.Context, rawTopic string) (*Update, error) {
	topic, err := u.registry.Resolve(rawTopic)
	if err != nil {
		return nil, err
	}
	if u.client == nil {
		return nil, fmt.Errorf("%w: COMPLETION_API_KEY is not configured", toolerr.ErrMissingCredentials)
	}

	now := u.now().UTC()
	completion, err := u.client.CreateCompletion(ctx, llm.CompletionRequest{
		Model: u.model,
		Tools: []llm.Tool{llm.WebSearchTool},
		Input: BuildPrompt(topic, now),
	})
	if err != nil {
		return nil, err
	}

	root := gjson.ParseBytes(completion.Raw)
	text, ok := FindFirstText(root)
	if !ok {
		return nil, toolerr.UpstreamParse("completion response contained no text")
	}

	model := completion.Model
	if model == "" {
		model = u.model
	}
	return &Update{
		Content:     text,
		Citations:   ExtractCitations(root, text),
		Model:       model,
		CreatedAt:   now.Format(time.RFC3339),
		Topic:       topic.Slug,
		Title:       topic.Title,
		Description: topic.Description,
	}, nil
}

// BuildPrompt renders the briefing instructions for topic.
func BuildPrompt(topic *Topic, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a technology news analyst. Write a concise briefing on the latest developments in %s.\n", topic.Title)
	if topic.Description != "" {
		fmt.Fprintf(&b, "Topic: %s\n", topic.Description)
	}
	if topic.Focus != "" {
		fmt.Fprintf(&b, "Focus: %s\n", topic.Focus)
	}
	fmt.Fprintf(&b, "Today is %s. Search the web and cover the most important items from the past seven days.\n", now.Format("2006-01-02"))
	b.WriteString("Give each item a short headline and one or two sentences of context, and cite every item with its source URL.")
	return b.String()
}
