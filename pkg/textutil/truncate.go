// Package textutil holds the boundary text rules for publish requests.
//
// The platform enforces hard limits on note titles and bodies; both are
// truncated once, at the request boundary, and never re-applied downstream.
package textutil

import "strings"

const (
	// MaxTitleLength is the platform limit on note titles, in runes.
	MaxTitleLength = 20

	// MaxContentLength is the platform limit on note bodies, in runes.
	MaxContentLength = 1000
)

// TruncateTitle trims whitespace and cuts the title to MaxTitleLength runes.
// Empty and whitespace-only input maps to "".
func TruncateTitle(title string) string {
	return truncate(title, MaxTitleLength)
}

// TruncateContent trims whitespace and cuts the body to MaxContentLength runes.
func TruncateContent(content string) string {
	return truncate(content, MaxContentLength)
}

// TruncateTitles applies TruncateTitle to each entry, dropping entries that
// collapse to empty.
func TruncateTitles(titles []string) []string {
	result := make([]string, 0, len(titles))
	for _, item := range titles {
		if t := TruncateTitle(item); t != "" {
			result = append(result, t)
		}
	}
	return result
}

func truncate(s string, max int) string {
	text := strings.TrimSpace(s)
	if text == "" {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	// Re-trim after the cut so truncation is idempotent even when the cut
	// lands on whitespace.
	return strings.TrimSpace(string(runes[:max]))
}
