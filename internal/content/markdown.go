// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package content renders user-authored text: markdown to sanitized HTML,
// plain-text excerpts and URL slugs.
package content

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// ExcerptLength is the rune budget for generated excerpts.
const ExcerptLength = 200

var (
	md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
	)

	// ugcPolicy allows safe HTML tags for user-generated content while
	// stripping scripts, event handlers and the like.
	ugcPolicy = bluemonday.UGCPolicy()

	// strictPolicy strips every tag.
	strictPolicy = bluemonday.StrictPolicy()
)

// Render converts markdown to sanitized HTML.
func Render(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return ugcPolicy.Sanitize(buf.String()), nil
}

// PlainText strips all markup from s and collapses whitespace.
func PlainText(s string) string {
	text := html.UnescapeString(strictPolicy.Sanitize(s))
	return strings.Join(strings.Fields(text), " ")
}

// Excerpt derives a short plain-text summary from rendered HTML.
func Excerpt(renderedHTML string) string {
	text := PlainText(renderedHTML)
	if utf8.RuneCountInString(text) <= ExcerptLength {
		return text
	}
	runes := []rune(text)[:ExcerptLength]
	cut := string(runes)
	if i := strings.LastIndex(cut, " "); i > ExcerptLength/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " .,;:") + "…"
}

// SanitizeComment keeps comment text free of markup. Comments are plain text.
func SanitizeComment(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}
