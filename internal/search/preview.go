package search

import "strings"

// PreviewLength is the number of characters kept in result previews.
const PreviewLength = 100

// Preview truncates text to at most limit runes, preferring to cut at the last space
// when it falls within the final 30% of the window. "..." is appended only when text was cut.
func Preview(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}

	cut := runes[:limit]
	if i := lastSpace(cut); i >= 0 && float64(i) >= float64(limit)*0.7 {
		cut = cut[:i]
	}
	return strings.TrimRight(string(cut), " ") + "..."
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return -1
}
