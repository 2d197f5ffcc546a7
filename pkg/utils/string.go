package utils

import (
	"regexp"
	"strings"
)

// blankLines matches runs of line breaks.
var blankLines = regexp.MustCompile(`\n+`)

// NormalizeNewlines converts CRLF and CR line endings to LF.
func NormalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// CompressWhitespacePreserveNewlines replaces multiple consecutive spaces with a single space
// while preserving newlines.
func CompressWhitespacePreserveNewlines(s string) string {
	lines := strings.Split(NormalizeNewlines(s), "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// SplitParagraphs splits text on runs of line breaks.
func SplitParagraphs(s string) []string {
	return blankLines.Split(NormalizeNewlines(s), -1)
}
