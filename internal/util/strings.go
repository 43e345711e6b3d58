// Package util provides small helpers shared across packages.
package util

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// NormalizeDomainSuffix strips surrounding whitespace and any leading dots
// from a domain suffix, so ".ddev", " ddev" and "ddev" all normalize to
// "ddev". Router rules are assembled as name + "." + suffix, which would
// produce a double dot otherwise.
func NormalizeDomainSuffix(suffix string) string {
	return strings.TrimLeft(strings.TrimSpace(suffix), ".")
}

// TruncateString truncates a string to maxLen runes, adding "..." when it
// does. Rune counting is wrong for ANSI escapes and wide characters, so
// styled terminal output should go through TruncateANSI instead. The
// dashboard uses this for plain activity feed lines.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 3 {
		return "..."
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

// TruncateANSI truncates a string to maxWidth visual columns, adding "..."
// when it does. Escape sequences survive and wide characters count by
// column, so lipgloss-styled lines keep their styling after truncation.
func TruncateANSI(s string, maxWidth int) string {
	if maxWidth <= 3 {
		return "..."
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	// ansi.Truncate counts the tail against maxWidth.
	return ansi.Truncate(s, maxWidth, "...")
}
