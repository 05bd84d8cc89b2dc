package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize_SplitsOnWhitespace(t *testing.T) {
	tokens := Tokenize("hello world")
	assert.Equal(t, []string{"hello", "world"}, tokens)
}

func TestTokenize_StripsPunctuation(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect []string
	}{
		{"sentence", "Hello, world!", []string{"hello", "world"}},
		{"parens", "(see the runbook)", []string{"see", "the", "runbook"}},
		{"hyphenated", "on-call rotation", []string{"on", "call", "rotation"}},
		{"dotted path", "config.yaml settings", []string{"config", "yaml", "settings"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, Tokenize(tt.input))
		})
	}
}

func TestTokenize_Lowercases(t *testing.T) {
	assert.Equal(t, []string{"incident", "response"}, Tokenize("INCIDENT Response"))
}

func TestTokenize_FiltersShortTokens(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect []string
	}{
		{"filters single char", "a runbook b", []string{"runbook"}},
		{"keeps two char tokens", "go is ok", []string{"go", "is", "ok"}},
		{"keeps alphanumeric", "q3 2026 plan", []string{"q3", "2026", "plan"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, Tokenize(tt.input))
		})
	}
}

func TestTokenize_EmptyInput(t *testing.T) {
	assert.Empty(t, Tokenize(""))
	assert.Empty(t, Tokenize("   "))
}

func TestParseQuery_PositiveTokens(t *testing.T) {
	q := ParseQuery("incident response runbook")
	assert.Equal(t, []string{"incident", "response", "runbook"}, q.Tokens)
	assert.Empty(t, q.Phrases)
	assert.Empty(t, q.Excludes)
	assert.Empty(t, q.FileTypes)
}

func TestParseQuery_QuotedPhrase(t *testing.T) {
	q := ParseQuery(`incident "on call rotation" runbook`)
	assert.Equal(t, []string{"incident", "runbook"}, q.Tokens)
	assert.Equal(t, []string{"on call rotation"}, q.Phrases)
}

func TestParseQuery_Exclusion(t *testing.T) {
	q := ParseQuery("runbook -draft")
	assert.Equal(t, []string{"runbook"}, q.Tokens)
	assert.Equal(t, []string{"draft"}, q.Excludes)
}

func TestParseQuery_FiletypeFilter(t *testing.T) {
	q := ParseQuery("runbook filetype:markdown")
	assert.Equal(t, []string{"runbook"}, q.Tokens)
	assert.Equal(t, []string{"markdown"}, q.FileTypes)
}

func TestParseQuery_CombinedFilters(t *testing.T) {
	q := ParseQuery(`"disaster recovery" runbook -draft filetype:markdown`)
	assert.Equal(t, []string{"runbook"}, q.Tokens)
	assert.Equal(t, []string{"disaster recovery"}, q.Phrases)
	assert.Equal(t, []string{"draft"}, q.Excludes)
	assert.Equal(t, []string{"markdown"}, q.FileTypes)
}

func BenchmarkTokenize(b *testing.B) {
	input := "Quarterly review of the on-call rotation and incident response runbook."

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Tokenize(input)
	}
}
