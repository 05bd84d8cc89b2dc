// Package watcher keeps the document store synchronized with configured
// document roots: it watches the filesystem (fsnotify, falling back to
// polling), debounces and batches raw events, and dispatches
// index/delete actions through a bounded worker pool.
package watcher

import (
	"context"
	"time"
)

// Operation is the kind of filesystem change a FileEvent reports.
type Operation int

const (
	// OpCreated indicates a new file was created.
	OpCreated Operation = iota
	// OpModified indicates an existing file's contents changed.
	OpModified
	// OpDeleted indicates a file was removed.
	OpDeleted
	// OpMoved indicates a file was renamed or relocated; Path is the
	// destination and OldPath the source.
	OpMoved
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreated:
		return "CREATED"
	case OpModified:
		return "MODIFIED"
	case OpDeleted:
		return "DELETED"
	case OpMoved:
		return "MOVED"
	default:
		return "UNKNOWN"
	}
}

// FileEvent is a single filesystem change, already classified into one
// of the four operations spec.md §4.5 recognizes.
type FileEvent struct {
	// Path is the file's current path (relative to the watched root).
	Path string

	// OldPath is the source path for OpMoved; empty otherwise.
	OldPath string

	Operation Operation
	IsDir     bool
	Timestamp time.Time
}

// rawWatcher is the interface each underlying mechanism (fsnotify,
// polling) implements; HybridWatcher picks one at construction time.
type rawWatcher interface {
	Start(ctx context.Context, path string) error
	Stop() error
	Events() <-chan FileEvent
	Errors() <-chan error
}

// Options configures a single root's watcher.
type Options struct {
	// DebounceWindow coalesces rapid per-path events before dispatch.
	DebounceWindow time.Duration

	// PollInterval is the scan interval used when fsnotify is unavailable.
	PollInterval time.Duration

	// EventBufferSize bounds the channel of debounced batches.
	EventBufferSize int

	// IgnorePatterns are gitignore-syntax globs excluded before any work
	// (e.g. "*.tmp", ".*").
	IgnorePatterns []string

	// Extensions whitelists which file extensions are eligible; files
	// with any other extension are ignored. Empty means no restriction.
	Extensions []string

	// MaxFileBytes skips files larger than this size before they're ever
	// queued for indexing. Zero means no limit at this layer (the
	// indexing tool still enforces its own document size ceiling).
	MaxFileBytes int64
}

// DefaultOptions returns spec.md §4.5's default configuration.
func DefaultOptions() Options {
	return Options{
		DebounceWindow:  500 * time.Millisecond,
		PollInterval:    5 * time.Second,
		EventBufferSize: 1000,
	}
}

// WithDefaults fills zero-valued fields with DefaultOptions.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.DebounceWindow == 0 {
		o.DebounceWindow = defaults.DebounceWindow
	}
	if o.PollInterval == 0 {
		o.PollInterval = defaults.PollInterval
	}
	if o.EventBufferSize == 0 {
		o.EventBufferSize = defaults.EventBufferSize
	}
	return o
}
