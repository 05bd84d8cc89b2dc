// Package tools implements the built-in tool set (C4) on top of the
// document store (C1) and parser registry (C2): indexDocument,
// searchDocuments, and getDocument.
package tools

import (
	"github.com/mydocs-mcp/mydocs-mcp/internal/parser"
	"github.com/mydocs-mcp/mydocs-mcp/internal/store"
)

// Deps wires a tool handler to its collaborators. All three handlers
// share the same store and parser registry; DocumentRoot and
// MaxDocumentBytes come from the server's loaded configuration.
type Deps struct {
	Store            store.Store
	Parsers          *parser.Registry
	DocumentRoot     string
	MaxDocumentBytes int64
}
