// Package parser turns raw document bytes into the normalized text and
// metadata the document store indexes, via a pluggable per-extension
// parser registry.
package parser

// TokenPosition is the byte span of a token in ParseResult.NormalizedText:
// Start is the offset of its first byte, End the offset just past its last.
type TokenPosition struct {
	Start int
	End   int
}

// ParseResult is the uniform output every parser produces regardless of
// input format: plain searchable text, flat string metadata, and the
// byte positions of each token within that text.
type ParseResult struct {
	NormalizedText string
	Metadata       map[string]string
	Tokens         []TokenPosition
}

// Parser is a pure function of (path, raw bytes) implemented by each
// supported document format.
type Parser interface {
	// SupportedExtensions lists the file extensions (lowercase, with a
	// leading dot, e.g. ".md") this parser handles.
	SupportedExtensions() []string

	// Parse normalizes raw into a ParseResult. Invalid UTF-8 sequences
	// are replaced, never fatal; only a PARSE_ERROR-worthy failure
	// (something the format itself rejects) returns a non-nil error.
	Parse(path string, raw []byte) (*ParseResult, error)
}
