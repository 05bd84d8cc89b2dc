package tools

import "github.com/mydocs-mcp/mydocs-mcp/internal/registry"

// RegisterAll registers the built-in tool set (indexDocument,
// searchDocuments, getDocument) against reg.
func RegisterAll(reg *registry.Registry, deps Deps) error {
	for _, d := range []registry.Descriptor{
		IndexDocumentDescriptor(deps),
		SearchDocumentsDescriptor(deps),
		GetDocumentDescriptor(deps),
	} {
		if err := reg.Register(d); err != nil {
			return err
		}
	}
	return nil
}
