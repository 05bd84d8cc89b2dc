package parser

import (
	"regexp"
	"strings"
)

// frontmatterPattern matches a leading YAML front-matter block delimited
// by "---" lines, same shape the teacher's markdown chunker used to
// split front-matter from body.
var frontmatterPattern = regexp.MustCompile(`(?s)^---\n(.+?)\n---\n*`)

// headerPattern matches ATX headers: "# Title", "## Title", etc.
var headerPattern = regexp.MustCompile(`(?m)^(#{1,6})[ \t]+(.+)$`)

// frontmatterFieldPattern matches a simple "key: value" front-matter
// line. Nested YAML structures are not unpacked; their raw value is kept
// as the metadata string.
var frontmatterFieldPattern = regexp.MustCompile(`(?m)^([A-Za-z0-9_-]+):\s*(.*)$`)

// MarkdownParser normalizes Markdown into plain text: front-matter is
// extracted as metadata rather than left in the body, headers are
// demoted to plain lines (the leading "#"s stripped), and fenced code
// blocks are preserved verbatim as body text, per spec.md §4.2.
type MarkdownParser struct{}

// NewMarkdownParser returns a parser for Markdown files.
func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{}
}

// SupportedExtensions implements Parser.
func (p *MarkdownParser) SupportedExtensions() []string {
	return []string{".md", ".markdown", ".mdx"}
}

// Parse implements Parser.
func (p *MarkdownParser) Parse(path string, raw []byte) (*ParseResult, error) {
	content := toValidUTF8(raw)

	metadata := make(map[string]string)
	body := content
	if m := frontmatterPattern.FindStringSubmatch(content); m != nil {
		body = content[len(m[0]):]
		for _, field := range frontmatterFieldPattern.FindAllStringSubmatch(m[1], -1) {
			key := strings.ToLower(strings.TrimSpace(field[1]))
			value := strings.TrimSpace(field[2])
			value = strings.Trim(value, `"'`)
			if key != "" {
				metadata[key] = value
			}
		}
	}

	normalized := demoteHeaders(body)

	return &ParseResult{
		NormalizedText: normalized,
		Metadata:       metadata,
		Tokens:         tokenPositions(normalized),
	}, nil
}

// demoteHeaders strips the leading "#" markers from ATX headers,
// leaving the header text as a plain line in the body. Lines inside ```
// or ~~~ fenced code blocks, and the fence lines themselves, are left
// untouched.
func demoteHeaders(text string) string {
	lines := strings.SplitAfter(text, "\n")
	inFence := false
	for i, line := range lines {
		if t := strings.TrimSpace(line); strings.HasPrefix(t, "```") || strings.HasPrefix(t, "~~~") {
			inFence = !inFence
		} else if !inFence {
			lines[i] = headerPattern.ReplaceAllString(line, "$2")
		}
	}
	return strings.Join(lines, "")
}
