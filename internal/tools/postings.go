package tools

import (
	"github.com/mydocs-mcp/mydocs-mcp/internal/parser"
	"github.com/mydocs-mcp/mydocs-mcp/internal/store"
)

// buildPostings derives the inverted-index entries for one document from
// its parsed token positions: each position is re-tokenized through the
// store's canonical tokenizer so postings and search queries normalize
// identically, then aggregated into a term frequency and position list
// per distinct token.
func buildPostings(text string, positions []parser.TokenPosition) []store.Posting {
	byToken := make(map[string]*store.Posting)
	order := make([]string, 0, len(positions))

	for _, pos := range positions {
		if pos.Start < 0 || pos.End > len(text) || pos.Start >= pos.End {
			continue
		}
		tokens := store.Tokenize(text[pos.Start:pos.End])
		if len(tokens) != 1 {
			continue
		}
		token := tokens[0]

		p, ok := byToken[token]
		if !ok {
			p = &store.Posting{Token: token}
			byToken[token] = p
			order = append(order, token)
		}
		p.TermFrequency++
		p.Positions = append(p.Positions, pos.Start)
	}

	postings := make([]store.Posting, 0, len(order))
	for _, token := range order {
		postings = append(postings, *byToken[token])
	}
	return postings
}
