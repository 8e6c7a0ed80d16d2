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
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// Citation is a labeled source link.
type Citation struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

var (
	fallbackURLPattern = regexp.MustCompile(`https?://[^\s<>"'()\[\]{}]+`)
	referenceMarker    = regexp.MustCompile(`^\s*\[\d+\]`)
)

// =============================================================================
// Text
// =============================================================================

// FindFirstText returns the first non-empty string stored under a "text" key,
// searching depth-first.
//
// # Description
//
// Within an object the order is: the object's own "text" string, then its
// "content" array, then every other field value in document order. Arrays are
// scanned front to back. Primitives other than a "text" string never match.
//
// # Outputs
//
//   - string: The trimmed text.
//   - bool: False when the tree holds no such text.
func FindFirstText(node gjson.Result) (string, bool) {
	switch {
	case node.IsArray():
		var (
			found string
			ok    bool
		)
		node.ForEach(func(_, item gjson.Result) bool {
			found, ok = FindFirstText(item)
			return !ok
		})
		return found, ok

	case node.IsObject():
		text := node.Get("text")
		if text.Type == gjson.String {
			if trimmed := strings.TrimSpace(text.String()); trimmed != "" {
				return trimmed, true
			}
		}
		content := node.Get("content")
		if content.IsArray() {
			if found, ok := FindFirstText(content); ok {
				return found, true
			}
		}

		var (
			found string
			ok    bool
		)
		node.ForEach(func(key, value gjson.Result) bool {
			switch key.String() {
			case "text":
				if value.Type == gjson.String {
					return true
				}
			case "content":
				if value.IsArray() {
					return true
				}
			}
			found, ok = FindFirstText(value)
			return !ok
		})
		return found, ok

	default:
		return "", false
	}
}

// =============================================================================
// Citations
// =============================================================================

// ExtractCitations collects source links from a completion document.
//
// # Description
//
// Every object carrying a string "url" yields a citation labeled by its first
// non-empty "label", "title" or "name" (else the url). String entries of any
// "citations" array that look like links are taken as well. When the tree
// yields nothing, URLs are scraped from fallbackText, skipping any URL that is
// directly followed by a "[n]" reference marker.
//
// # Outputs
//
//   - []Citation: Deduplicated by URL, first occurrence wins. Never nil.
func ExtractCitations(root gjson.Result, fallbackText string) []Citation {
	c := &citationSet{list: []Citation{}, seen: make(map[string]bool)}
	c.walk(root)
	if len(c.list) == 0 {
		c.scanText(fallbackText)
	}
	return c.list
}

type citationSet struct {
	list []Citation
	seen map[string]bool
}

func (c *citationSet) add(label, url string) {
	url = strings.TrimSpace(url)
	if url == "" || c.seen[url] {
		return
	}
	c.seen[url] = true
	c.list = append(c.list, Citation{Label: label, URL: url})
}

func (c *citationSet) walk(node gjson.Result) {
	switch {
	case node.IsArray():
		node.ForEach(func(_, item gjson.Result) bool {
			c.walk(item)
			return true
		})

	case node.IsObject():
		if url := node.Get("url"); url.Type == gjson.String && strings.TrimSpace(url.String()) != "" {
			c.add(labelFor(node, strings.TrimSpace(url.String())), url.String())
		}
		node.ForEach(func(key, value gjson.Result) bool {
			if key.String() == "citations" && value.IsArray() {
				value.ForEach(func(_, item gjson.Result) bool {
					if item.Type == gjson.String {
						if s := strings.TrimSpace(item.String()); strings.HasPrefix(s, "http") {
							c.add(s, s)
						}
						return true
					}
					c.walk(item)
					return true
				})
				return true
			}
			c.walk(value)
			return true
		})
	}
}

func labelFor(node gjson.Result, url string) string {
	for _, key := range []string{"label", "title", "name"} {
		if v := node.Get(key); v.Type == gjson.String {
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return url
}

// scanText is a heuristic: a URL followed by "[1]" style text is assumed to be
// cited already and is skipped. Unrelated bracketed numbers suppress it too.
func (c *citationSet) scanText(text string) {
	for _, loc := range fallbackURLPattern.FindAllStringIndex(text, -1) {
		url := strings.TrimRight(text[loc[0]:loc[1]], ".,;:!?")
		if referenceMarker.MatchString(text[loc[1]:]) {
			continue
		}
		c.add(url, url)
	}
}
