// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package news assembles tech-update briefings for a fixed set of topics.
//
// # Description
//
// The package has three parts:
//
//   - A topic Registry loaded from YAML (embedded default, optional file
//     override) with a normalized keyword index.
//   - Normalizers that pull the first text payload and the citation list out
//     of an arbitrary completion-API JSON document.
//   - Updater, which resolves a topic, prompts the completion client and
//     shapes the result.
//
// # Thread Safety
//
// A Registry is immutable after loading and safe for concurrent use.
package news

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"

	"github.com/mdwillman/avalogica-weather-mcp/pkg/toolerr"
)

// =============================================================================
// Constants
// =============================================================================

// MaxTopicsFileSize caps an external topics file.
const MaxTopicsFileSize = 256 * 1024

//go:embed topics.yaml
var defaultTopicsYAML []byte

var tracer = otel.Tracer("github.com/mdwillman/avalogica-weather-mcp/services/news")

// =============================================================================
// Types
// =============================================================================

// TopicsYAML is the on-disk shape of topics.yaml.
type TopicsYAML struct {
	Topics []TopicYAML `yaml:"topics"`
}

// TopicYAML is one entry in topics.yaml.
type TopicYAML struct {
	Slug        string   `yaml:"slug"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Focus       string   `yaml:"focus"`
	Keywords    []string `yaml:"keywords"`
}

// Topic is a resolved topic definition.
type Topic struct {
	Slug        string
	Title       string
	Description string
	Focus       string
	Keywords    []string
}

// Registry holds the topics in file order and the normalized lookup index.
type Registry struct {
	topics []*Topic
	index  map[string]*Topic
}

// =============================================================================
// Loading
// =============================================================================

// DefaultRegistry parses the embedded topics.yaml.
func DefaultRegistry() (*Registry, error) {
	return ParseRegistry(defaultTopicsYAML)
}

// LoadRegistry loads topics from path, or the embedded default when path is "".
//
// # Description
//
// Unlike a missing optional file, a configured path that cannot be read or
// parsed is an error: the operator asked for it explicitly.
func LoadRegistry(ctx context.Context, path string) (*Registry, error) {
	_, span := tracer.Start(ctx, "news.LoadRegistry")
	defer span.End()

	if path == "" {
		span.SetAttributes(attribute.String("source", "embedded"))
		return DefaultRegistry()
	}
	span.SetAttributes(attribute.String("source", "external"), attribute.String("path", path))

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat topics file: %w", err)
	}
	if info.Size() > MaxTopicsFileSize {
		return nil, fmt.Errorf("topics file too large: %d bytes (max %d)", info.Size(), MaxTopicsFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading topics file: %w", err)
	}

	reg, err := ParseRegistry(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	slog.Info("Loaded topics from external file", "path", path, "topics", len(reg.topics))
	return reg, nil
}

// ParseRegistry parses YAML and builds the keyword index.
//
// # Outputs
//
//   - error: on invalid YAML, an empty topic list, a missing slug or title,
//     a duplicate slug, or a normalized keyword claimed by two topics.
func ParseRegistry(data []byte) (*Registry, error) {
	var doc TopicsYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshaling topics YAML: %w", err)
	}
	if len(doc.Topics) == 0 {
		return nil, fmt.Errorf("topics YAML defines no topics")
	}

	reg := &Registry{
		topics: make([]*Topic, 0, len(doc.Topics)),
		index:  make(map[string]*Topic),
	}
	for i, t := range doc.Topics {
		slug := strings.ToLower(strings.TrimSpace(t.Slug))
		if slug == "" {
			return nil, fmt.Errorf("topic at index %d has empty slug", i)
		}
		if strings.TrimSpace(t.Title) == "" {
			return nil, fmt.Errorf("topic %s has empty title", slug)
		}
		topic := &Topic{
			Slug:        slug,
			Title:       strings.TrimSpace(t.Title),
			Description: strings.TrimSpace(t.Description),
			Focus:       strings.TrimSpace(t.Focus),
			Keywords:    t.Keywords,
		}

		for _, key := range append([]string{slug}, t.Keywords...) {
			norm := NormalizeTopic(key)
			if norm == "" {
				continue
			}
			if owner, ok := reg.index[norm]; ok {
				if owner == topic {
					continue
				}
				if key == slug {
					return nil, fmt.Errorf("duplicate topic slug %q", slug)
				}
				return nil, fmt.Errorf("keyword %q of topic %s already belongs to %s", key, slug, owner.Slug)
			}
			reg.index[norm] = topic
		}
		reg.topics = append(reg.topics, topic)
	}
	return reg, nil
}

// =============================================================================
// Lookup
// =============================================================================

// NormalizeTopic lowercases s and drops every character outside [a-z0-9].
func NormalizeTopic(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Resolve maps a free-text topic to its definition.
//
// # Outputs
//
//   - *Topic: The matching topic.
//   - error: wraps toolerr.ErrInvalidArgument and lists the supported slugs.
func (r *Registry) Resolve(raw string) (*Topic, error) {
	if topic, ok := r.index[NormalizeTopic(raw)]; ok {
		return topic, nil
	}
	return nil, toolerr.InvalidArgument("unsupported topic %q; supported topics: %s", raw, strings.Join(r.Slugs(), ", "))
}

// Slugs returns the topic slugs in file order.
func (r *Registry) Slugs() []string {
	slugs := make([]string, len(r.topics))
	for i, t := range r.topics {
		slugs[i] = t.Slug
	}
	return slugs
}

// Topics returns the topics in file order.
func (r *Registry) Topics() []*Topic {
	return append([]*Topic(nil), r.topics...)
}
