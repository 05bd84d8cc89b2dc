package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaintextParser_SupportedExtensions(t *testing.T) {
	p := NewPlaintextParser()
	assert.ElementsMatch(t, []string{".txt", ".text", ".log"}, p.SupportedExtensions())
}

func TestPlaintextParser_Parse_ReturnsTextUnchanged(t *testing.T) {
	p := NewPlaintextParser()
	result, err := p.Parse("note.txt", []byte("a quick note about the rollout"))
	require.NoError(t, err)
	assert.Equal(t, "a quick note about the rollout", result.NormalizedText)
	assert.Empty(t, result.Metadata)
}

func TestPlaintextParser_Parse_ReplacesInvalidUTF8(t *testing.T) {
	p := NewPlaintextParser()
	raw := append([]byte("hello "), 0xff, 0xfe)
	result, err := p.Parse("note.txt", raw)
	require.NoError(t, err)
	assert.Contains(t, result.NormalizedText, "hello ")
	assert.NotContains(t, result.NormalizedText, string(rune(0xff)))
}

func TestPlaintextParser_Parse_ProducesTokenPositions(t *testing.T) {
	p := NewPlaintextParser()
	result, err := p.Parse("note.txt", []byte("hello world"))
	require.NoError(t, err)
	require.Len(t, result.Tokens, 2)
	assert.Equal(t, "hello", result.NormalizedText[result.Tokens[0].Start:result.Tokens[0].End])
	assert.Equal(t, "world", result.NormalizedText[result.Tokens[1].Start:result.Tokens[1].End])
}
