package index

import (
	"strings"
	"unicode"
)

// Tokenize splits raw text into normalized lowercase terms. Punctuation is
// treated as a separator and single-character tokens are dropped. The same
// function is used at statistics build time and at query time so that BM25
// term counts line up.
func Tokenize(text string) []string {
	if text == "" {
		return []string{}
	}

	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	terms := make([]string, 0, len(fields))
	for _, field := range fields {
		if len(field) < 2 {
			continue
		}
		terms = append(terms, field)
	}
	return terms
}

// TermCounts returns the occurrence count of each term in the tokenized text.
func TermCounts(terms []string) map[string]int {
	counts := make(map[string]int, len(terms))
	for _, term := range terms {
		counts[term]++
	}
	return counts
}
