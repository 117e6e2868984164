package ranking

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const minKeywordChars = 3

var stopWords = map[string]struct{}{
	"what":  {},
	"how":   {},
	"when":  {},
	"where": {},
	"which": {},
	"with":  {},
	"from":  {},
	"the":   {},
	"and":   {},
	"for":   {},
}

// Keywords returns the lower-cased query words worth matching, in order and
// with repeats kept.
func Keywords(query string) []string {
	var out []string
	for _, w := range words(query) {
		if utf8.RuneCountInString(w) < minKeywordChars {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		out = append(out, w)
	}
	return out
}

// KeywordScore is the number of whole-word, case-insensitive keyword
// occurrences in text divided by the number of keywords.
func KeywordScore(text string, keywords []string) float64 {
	if len(keywords) == 0 || text == "" {
		return 0
	}
	counts := make(map[string]int)
	for _, w := range words(text) {
		counts[w]++
	}
	total := 0
	for _, k := range keywords {
		total += counts[k]
	}
	return float64(total) / float64(len(keywords))
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})
}
