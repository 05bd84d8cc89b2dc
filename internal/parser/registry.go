package parser

import (
	"path/filepath"
	"strings"
	"sync"

	coreerrors "github.com/mydocs-mcp/mydocs-mcp/internal/errors"
)

// Registry maps file extensions to the parser that handles them. On a
// registration conflict the most recently registered parser for that
// extension wins, per spec.md §4.2. An optional fallback parser handles
// any extension with no dedicated registration.
type Registry struct {
	mu       sync.RWMutex
	byExt    map[string]Parser
	fallback Parser
}

// NewRegistry returns an empty registry with no fallback parser. Resolve
// against an empty registry returns UNSUPPORTED_TYPE for every path.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]Parser)}
}

// NewDefaultRegistry returns a registry with the built-in plaintext and
// markdown parsers registered, and the unknown parser as fallback.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewPlaintextParser())
	r.Register(NewMarkdownParser())
	r.SetFallback(NewUnknownParser())
	return r
}

// Register adds p for every extension it supports. A later call for the
// same extension replaces the earlier registration.
func (r *Registry) Register(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range p.SupportedExtensions() {
		r.byExt[strings.ToLower(ext)] = p
	}
}

// SetFallback registers p as the parser used for any extension without a
// dedicated registration. A later call replaces the earlier fallback.
func (r *Registry) SetFallback(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = p
}

// Resolve returns the parser registered for path's extension, the
// fallback parser if one is set and no dedicated match exists, or an
// UNSUPPORTED_TYPE error.
func (r *Registry) Resolve(path string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(path))

	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.byExt[ext]; ok {
		return p, nil
	}
	if r.fallback != nil {
		return r.fallback, nil
	}
	return nil, coreerrors.New(coreerrors.CodeUnsupportedType, "no parser registered for "+ext, nil).
		WithDetail("path", path)
}

// Parse resolves the parser for path and runs it, wrapping any parser
// failure as PARSE_ERROR with the file path attached.
func (r *Registry) Parse(path string, raw []byte) (*ParseResult, error) {
	p, err := r.Resolve(path)
	if err != nil {
		return nil, err
	}
	result, err := p.Parse(path, raw)
	if err != nil {
		return nil, coreerrors.New(coreerrors.CodeParseError, err.Error(), err).WithDetail("path", path)
	}
	return result, nil
}
