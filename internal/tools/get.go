package tools

import (
	"context"
	"time"

	coreerrors "github.com/mydocs-mcp/mydocs-mcp/internal/errors"
	"github.com/mydocs-mcp/mydocs-mcp/internal/registry"
	"github.com/mydocs-mcp/mydocs-mcp/internal/store"
)

// GetDocumentDescriptor builds the getDocument tool descriptor per
// spec.md §4.4.3.
func GetDocumentDescriptor(deps Deps) registry.Descriptor {
	return registry.Descriptor{
		Name:        "getDocument",
		Description: "Fetch a single indexed document by path or id.",
		Schema: registry.Schema{
			Type: "object",
			Properties: map[string]registry.Schema{
				"file_path":         {Type: "string"},
				"document_id":       {Type: "integer"},
				"include_metadata": {Type: "boolean", Default: true},
				// format is accepted for API compatibility but content is always
				// the parser's normalized text: the store never retains raw bytes,
				// so there is nothing format-specific left to reconstruct.
				"format":            {Type: "string", Enum: []any{"json", "markdown", "text"}, Default: "json"},
				"max_content_bytes": {Type: "integer", Minimum: floatPtr(1)},
			},
			OneOf: []registry.Schema{
				{Required: []string{"file_path"}},
				{Required: []string{"document_id"}},
			},
		},
		Handler: getDocumentHandler(deps),
	}
}

func getDocumentHandler(deps Deps) registry.Handler {
	return func(ctx context.Context, args map[string]any) (any, error) {
		doc, err := resolveDocument(ctx, deps, args)
		if err != nil {
			return nil, err
		}

		includeMetadata, _ := args["include_metadata"].(bool)
		content := doc.NormalizedText

		out := map[string]any{
			"document_id":   doc.ID,
			"path":          doc.Path,
			"file_size":     doc.SizeBytes,
			"last_modified": doc.Mtime.UTC().Format(time.RFC3339),
			"indexed_at":    doc.IndexedAt.UTC().Format(time.RFC3339),
		}

		if maxBytes, ok := args["max_content_bytes"].(int64); ok && maxBytes > 0 && int64(len(content)) > maxBytes {
			content = truncateUTF8(content, int(maxBytes))
			out["truncated"] = true
		}
		out["content"] = content

		if includeMetadata {
			meta, err := deps.Store.GetMetadata(ctx, doc.ID)
			if err != nil {
				return nil, err
			}
			out["metadata"] = meta
		}

		return out, nil
	}
}

func resolveDocument(ctx context.Context, deps Deps, args map[string]any) (*store.Document, error) {
	if path, ok := args["file_path"].(string); ok && path != "" {
		resolved, err := deps.resolvePath(path)
		if err != nil {
			return nil, err
		}
		return deps.Store.GetByPath(ctx, resolved)
	}
	if id, ok := args["document_id"].(int64); ok {
		return deps.Store.GetByID(ctx, id)
	}
	return nil, coreerrors.New(coreerrors.CodeInvalidParams,
		"exactly one of file_path or document_id must be provided", nil)
}

// truncateUTF8 cuts s to at most n bytes without splitting a multi-byte
// rune.
func truncateUTF8(s string, n int) string {
	if n >= len(s) {
		return s
	}
	for n > 0 && !utf8RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func utf8RuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
