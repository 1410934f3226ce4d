package util

import (
	"strings"
	"unicode/utf8"
)

// TruncateBytes trims a string to at most maxBytes without splitting a rune.
func TruncateBytes(input string, maxBytes int) (string, bool) {
	if maxBytes <= 0 || len(input) <= maxBytes {
		return input, false
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(input[cut]) {
		cut--
	}
	return input[:cut], true
}

// Preview returns the first maxLines lines of text, capped at maxBytes, with
// a trailing marker when anything was dropped.
func Preview(text string, maxLines int, maxBytes int) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	truncated := false
	if maxLines > 0 {
		lines := strings.SplitN(text, "\n", maxLines+1)
		if len(lines) > maxLines {
			lines = lines[:maxLines]
			truncated = true
		}
		text = strings.Join(lines, "\n")
	}
	if trimmed, did := TruncateBytes(text, maxBytes); did {
		text = trimmed
		truncated = true
	}
	if truncated {
		text += "\n..."
	}
	return text
}
