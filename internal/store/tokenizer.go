package store

import (
	"regexp"
	"strings"
)

// minTokenLength is the shortest token the index keeps; anything shorter
// (mostly single letters and punctuation fragments) is dropped both at
// index time and at query time so the two stay consistent.
const minTokenLength = 2

// tokenRegex matches runs of letters/digits, the same class the teacher's
// code tokenizer split on before camelCase handling. Documents have no
// identifiers to split further, so this is the whole job.
var tokenRegex = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Tokenize splits normalized document or query text into the canonical
// token stream: lowercased, punctuation-stripped, short tokens dropped.
func Tokenize(text string) []string {
	words := tokenRegex.FindAllString(text, -1)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		lower := strings.ToLower(w)
		if len(lower) >= minTokenLength {
			tokens = append(tokens, lower)
		}
	}
	return tokens
}

// queryPhraseRegex matches "quoted phrase" fragments in a raw query string.
var queryPhraseRegex = regexp.MustCompile(`"([^"]*)"`)

// ParseQuery splits a raw query string into positive tokens, quoted phrase
// fragments, exclusion tokens (prefixed with "-"), and filetype: filters,
// per spec.md §4.1 step 1.
func ParseQuery(raw string) SearchQuery {
	var q SearchQuery

	remainder := queryPhraseRegex.ReplaceAllStringFunc(raw, func(m string) string {
		phrase := strings.Trim(m, `"`)
		phrase = strings.ToLower(strings.TrimSpace(phrase))
		if phrase != "" {
			q.Phrases = append(q.Phrases, phrase)
		}
		return " "
	})

	for _, field := range strings.Fields(remainder) {
		switch {
		case strings.HasPrefix(field, "filetype:"):
			ft := strings.ToLower(strings.TrimPrefix(field, "filetype:"))
			if ft != "" {
				q.FileTypes = append(q.FileTypes, ft)
			}
		case strings.HasPrefix(field, "-") && len(field) > 1:
			excl := Tokenize(field[1:])
			q.Excludes = append(q.Excludes, excl...)
		default:
			q.Tokens = append(q.Tokens, Tokenize(field)...)
		}
	}

	return q
}
