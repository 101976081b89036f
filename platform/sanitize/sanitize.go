// Package sanitize provides text sanitization utilities to prevent XSS attacks.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	// htmlTagRegex matches HTML tags
	htmlTagRegex = regexp.MustCompile(`<[^>]*>`)
	// blockEndRegex matches tags that end a visual line
	blockEndRegex = regexp.MustCompile(`(?i)<\s*(br\s*/?|/p|/div|/li|/tr|/h[1-6])\s*>`)
	// blankLinesRegex matches runs of more than one empty line
	blankLinesRegex = regexp.MustCompile(`\n{3,}`)
)

// StripHTML removes all HTML tags from a string, making it safe for text-only display.
func StripHTML(s string) string {
	// Remove HTML tags
	result := htmlTagRegex.ReplaceAllString(s, "")
	// Decode common HTML entities
	result = strings.ReplaceAll(result, "&lt;", "<")
	result = strings.ReplaceAll(result, "&gt;", ">")
	result = strings.ReplaceAll(result, "&nbsp;", " ")
	result = strings.ReplaceAll(result, "&quot;", "\"")
	result = strings.ReplaceAll(result, "&#39;", "'")
	result = strings.ReplaceAll(result, "&amp;", "&")
	// Re-strip after entity decode to catch encoded tags
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text sanitizes a single-line user-provided field such as a name or company:
// markup is stripped and runs of whitespace collapse to one space.
func Text(s string) string {
	return strings.Join(strings.Fields(StripHTML(s)), " ")
}

// PlainText renders an HTML body as readable plain text, keeping one line per
// paragraph, list item or explicit break.
func PlainText(html string) string {
	withBreaks := blockEndRegex.ReplaceAllString(html, "\n")
	lines := strings.Split(StripHTML(withBreaks), "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	text := blankLinesRegex.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(text)
}
