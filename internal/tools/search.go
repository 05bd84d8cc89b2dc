package tools

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/mydocs-mcp/mydocs-mcp/internal/registry"
	"github.com/mydocs-mcp/mydocs-mcp/internal/store"
)

// SearchDocumentsDescriptor builds the searchDocuments tool descriptor
// per spec.md §4.4.2.
func SearchDocumentsDescriptor(deps Deps) registry.Descriptor {
	return registry.Descriptor{
		Name:        "searchDocuments",
		Description: "Search indexed documents by keyword, phrase, exclusion, and file type.",
		Schema: registry.Schema{
			Type: "object",
			Properties: map[string]registry.Schema{
				"query":      {Type: "string", MinLength: intPtr(1), MaxLength: intPtr(500)},
				"limit":      {Type: "integer", Minimum: floatPtr(1), Maximum: floatPtr(100), Default: int64(20)},
				"file_types": {Type: "array", Items: &registry.Schema{Type: "string"}},
			},
			Required: []string{"query"},
		},
		Handler: searchDocumentsHandler(deps),
	}
}

func floatPtr(f float64) *float64 { return &f }

func searchDocumentsHandler(deps Deps) registry.Handler {
	return func(ctx context.Context, args map[string]any) (any, error) {
		start := time.Now()

		raw, _ := args["query"].(string)
		q := store.ParseQuery(raw)

		if limit, ok := args["limit"].(int64); ok {
			q.Limit = int(limit)
		}
		if fileTypes, ok := args["file_types"].([]any); ok {
			for _, ft := range fileTypes {
				if s, ok := ft.(string); ok {
					q.FileTypes = append(q.FileTypes, strings.ToLower(s))
				}
			}
		}

		resultSet, err := deps.Store.Search(ctx, q)
		if err != nil {
			return nil, err
		}

		results := make([]map[string]any, 0, len(resultSet.Results))
		for _, r := range resultSet.Results {
			results = append(results, map[string]any{
				"document_id":     r.Document.ID,
				"path":            r.Document.Path,
				"title":           titleFor(deps, ctx, r.Document),
				"snippet":         r.Snippet,
				"relevance_score": r.Score,
				"file_size":       r.Document.SizeBytes,
				"last_modified":   r.Document.Mtime.UTC().Format(time.RFC3339),
				"matched_tokens":  matchedTokens(q, r.Document.NormalizedText),
			})
		}

		return map[string]any{
			"results":           results,
			"total_found":       resultSet.Total,
			"execution_time_ms": time.Since(start).Milliseconds(),
		}, nil
	}
}

// titleFor prefers a parser-extracted "title" metadata field, falling
// back to the file's base name without extension.
func titleFor(deps Deps, ctx context.Context, doc *store.Document) string {
	if meta, err := deps.Store.GetMetadata(ctx, doc.ID); err == nil {
		if title, ok := meta["title"]; ok && title != "" {
			return title
		}
	}
	base := filepath.Base(doc.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// matchedTokens reports which of the query's positive tokens actually
// occur in the document, for caller-side highlighting.
func matchedTokens(q store.SearchQuery, normalizedText string) []string {
	present := make(map[string]bool)
	for _, t := range store.Tokenize(normalizedText) {
		present[t] = true
	}
	matched := make([]string, 0, len(q.Tokens))
	seen := make(map[string]bool)
	for _, t := range q.Tokens {
		if present[t] && !seen[t] {
			matched = append(matched, t)
			seen[t] = true
		}
	}
	return matched
}
