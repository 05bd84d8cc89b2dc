package parser

// UnknownParser handles any extension with no dedicated parser
// registration. It treats the file as plain text rather than refusing
// to index it, per SPEC_FULL.md §4.2 ("a generic unknown fallback that
// still produces normalized text for any extension not in the
// whitelist's dedicated parsers").
type UnknownParser struct{}

// NewUnknownParser returns the fallback parser.
func NewUnknownParser() *UnknownParser {
	return &UnknownParser{}
}

// SupportedExtensions implements Parser. Returns nil: the unknown parser
// is never registered by extension, only as a registry fallback.
func (p *UnknownParser) SupportedExtensions() []string {
	return nil
}

// Parse implements Parser, identically to PlaintextParser.
func (p *UnknownParser) Parse(path string, raw []byte) (*ParseResult, error) {
	text := toValidUTF8(raw)
	return &ParseResult{
		NormalizedText: text,
		Metadata:       map[string]string{},
		Tokens:         tokenPositions(text),
	}, nil
}
