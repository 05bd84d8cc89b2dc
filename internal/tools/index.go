package tools

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	coreerrors "github.com/mydocs-mcp/mydocs-mcp/internal/errors"
	"github.com/mydocs-mcp/mydocs-mcp/internal/parser"
	"github.com/mydocs-mcp/mydocs-mcp/internal/registry"
	"github.com/mydocs-mcp/mydocs-mcp/internal/store"
)

// IndexDocumentDescriptor builds the indexDocument tool descriptor
// per spec.md §4.4.1.
func IndexDocumentDescriptor(deps Deps) registry.Descriptor {
	return registry.Descriptor{
		Name:        "indexDocument",
		Description: "Parse and index a single document into the store.",
		Schema: registry.Schema{
			Type: "object",
			Properties: map[string]registry.Schema{
				"file_path":     {Type: "string", MinLength: intPtr(1)},
				"force_reindex": {Type: "boolean", Default: false},
			},
			Required: []string{"file_path"},
		},
		Handler: indexDocumentHandler(deps),
	}
}

func indexDocumentHandler(deps Deps) registry.Handler {
	return func(ctx context.Context, args map[string]any) (any, error) {
		rawPath, _ := args["file_path"].(string)
		forceReindex, _ := args["force_reindex"].(bool)

		path, err := deps.resolvePath(rawPath)
		if err != nil {
			return nil, err
		}

		info, err := os.Stat(path)
		if err != nil {
			return nil, coreerrors.New(coreerrors.CodeFileNotFound,
				fmt.Sprintf("file %q does not exist", rawPath), err)
		}
		if deps.MaxDocumentBytes > 0 && info.Size() > deps.MaxDocumentBytes {
			return nil, coreerrors.New(coreerrors.CodeFileTooLarge,
				fmt.Sprintf("file %q is %d bytes, over the configured maximum of %d",
					rawPath, info.Size(), deps.MaxDocumentBytes), nil)
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, coreerrors.New(coreerrors.CodeFileNotFound,
				fmt.Sprintf("could not read %q", rawPath), err)
		}
		contentHash := hashContent(raw)

		if !forceReindex {
			existing, err := deps.Store.GetByPath(ctx, path)
			if err == nil && existing.ContentHash == contentHash {
				return map[string]any{
					"status":      string(store.UpsertStatusUnchanged),
					"document_id": existing.ID,
				}, nil
			}
		}

		p, err := deps.Parsers.Resolve(path)
		if err != nil {
			return nil, err
		}
		result, err := p.Parse(path, raw)
		if err != nil {
			return nil, err
		}

		postings := buildPostings(result.NormalizedText, result.Tokens)

		doc, status, err := deps.Store.UpsertDocument(ctx, store.UpsertInput{
			Path:           path,
			ContentHash:    contentHash,
			SizeBytes:      info.Size(),
			Mtime:          info.ModTime(),
			FileType:       parser.FileTypeForPath(path),
			NormalizedText: result.NormalizedText,
			Metadata:       result.Metadata,
			Postings:       postings,
		})
		if err != nil {
			return nil, err
		}

		return map[string]any{
			"status":          wireStatus(status),
			"document_id":     doc.ID,
			"tokens_indexed":  len(postings),
			"metadata_fields": len(result.Metadata),
		}, nil
	}
}

// wireStatus maps the store's internal UpsertStatus vocabulary onto the
// indexDocument tool's documented status enum (spec.md §4.4.1:
// "indexed"|"updated"|"unchanged"). The store calls a brand-new row
// "created"; the wire contract calls it "indexed".
func wireStatus(status store.UpsertStatus) string {
	if status == store.UpsertStatusCreated {
		return "indexed"
	}
	return string(status)
}

// resolvePath resolves a file_path argument against the configured
// document root when relative, per spec.md §4.4.1.
func (d Deps) resolvePath(rawPath string) (string, error) {
	if rawPath == "" {
		return "", coreerrors.New(coreerrors.CodeInvalidParams, "file_path must not be empty", nil)
	}
	if filepath.IsAbs(rawPath) {
		return rawPath, nil
	}
	return filepath.Join(d.DocumentRoot, rawPath), nil
}

func hashContent(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}

func intPtr(i int) *int { return &i }
