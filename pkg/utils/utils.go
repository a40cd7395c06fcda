package utils

import (
	"strings"
	"unicode/utf8"
)

// Preview shortens text to at most limit runes for log and report output,
// flattening newlines so a preview always fits on one line.
func Preview(text string, limit int) string {
	flat := strings.Join(strings.Fields(text), " ")
	if limit <= 0 || utf8.RuneCountInString(flat) <= limit {
		return flat
	}
	runes := []rune(flat)
	if limit == 1 {
		return "…"
	}
	return string(runes[:limit-1]) + "…"
}

func Deduplicate(s []string) []string {
	seen := make(map[string]bool)
	result := []string{}
	for _, str := range s {
		if !seen[str] {
			seen[str] = true
			result = append(result, str)
		}
	}
	return result
}

// Plural returns singular when n is 1 and plural otherwise.
func Plural(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
