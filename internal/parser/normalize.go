package parser

import "regexp"

// wordRegex finds the same letter/digit runs the store's tokenizer
// indexes, so TokenPosition offsets line up with what search snippets
// need to highlight.
var wordRegex = regexp.MustCompile(`[\p{L}\p{N}]+`)

// tokenPositions finds every word-like run in text and returns its byte
// offsets, per spec.md §4.2 ("token positions are byte offsets into
// normalized_text").
func tokenPositions(text string) []TokenPosition {
	matches := wordRegex.FindAllStringIndex(text, -1)
	positions := make([]TokenPosition, 0, len(matches))
	for _, m := range matches {
		positions = append(positions, TokenPosition{Start: m[0], End: m[1]})
	}
	return positions
}
