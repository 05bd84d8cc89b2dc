package parser

import (
	"path/filepath"
	"strings"
)

// fileTypes maps extensions to the documents.file_type label indexDocument
// stores and searchDocuments filters on. Extensions with no entry here
// are labeled "unknown", matching the unknown parser's fallback role.
var fileTypes = map[string]string{
	".md":       "markdown",
	".markdown": "markdown",
	".mdx":      "markdown",
	".txt":      "text",
	".text":     "text",
	".log":      "text",
}

// FileTypeForPath returns the file_type label for path's extension.
func FileTypeForPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ft, ok := fileTypes[ext]; ok {
		return ft
	}
	return "unknown"
}
