package journal

import "strings"

const (
	previewMaxRunes = 30
	previewEllipsis = "..."
)

// DerivePreview flattens entry text into a short list-view summary:
// newlines collapse to spaces, surrounding whitespace is trimmed, and
// anything past the cap is cut on a rune boundary with an ellipsis marker.
func DerivePreview(text string) string {
	flat := strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	runes := []rune(flat)
	if len(runes) <= previewMaxRunes {
		return flat
	}
	return string(runes[:previewMaxRunes]) + previewEllipsis
}

// DeriveWordCount counts whitespace-delimited tokens. Empty or
// whitespace-only text counts zero.
func DeriveWordCount(text string) int {
	return len(strings.Fields(text))
}
