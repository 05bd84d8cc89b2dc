package parser

import "strings"

// PlaintextParser is the identity parser: the normalized text is the
// input decoded as UTF-8, unchanged, with invalid byte sequences
// replaced rather than rejected.
type PlaintextParser struct{}

// NewPlaintextParser returns a parser for plain text files.
func NewPlaintextParser() *PlaintextParser {
	return &PlaintextParser{}
}

// SupportedExtensions implements Parser.
func (p *PlaintextParser) SupportedExtensions() []string {
	return []string{".txt", ".text", ".log"}
}

// Parse implements Parser.
func (p *PlaintextParser) Parse(path string, raw []byte) (*ParseResult, error) {
	text := toValidUTF8(raw)
	return &ParseResult{
		NormalizedText: text,
		Metadata:       map[string]string{},
		Tokens:         tokenPositions(text),
	}, nil
}

// toValidUTF8 replaces invalid UTF-8 byte sequences with the Unicode
// replacement character rather than failing, per spec.md §4.2.
func toValidUTF8(raw []byte) string {
	return strings.ToValidUTF8(string(raw), "�")
}
