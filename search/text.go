package search

import (
	"strings"
	"unicode"
)

// Tokenize lower-cases the query, deletes punctuation and symbols, and
// splits on whitespace. "Dragon's Lair!" becomes ["dragons", "lair"].
func Tokenize(query string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, query)
	return strings.Fields(cleaned)
}
