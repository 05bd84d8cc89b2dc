// Package store provides durable storage and keyword search over indexed
// documents: an embedded SQLite database, a hand-rolled inverted posting
// index, and a write-invalidated query cache.
package store

import (
	"context"
	"time"
)

// CurrentSchemaVersion is the current database schema version.
const CurrentSchemaVersion = 1

// Document is a single indexed document and its derived search text.
type Document struct {
	ID             int64
	Path           string
	ContentHash    string
	SizeBytes      int64
	Mtime          time.Time
	FileType       string
	IndexedAt      time.Time
	UpdatedAt      time.Time
	NormalizedText string
}

// MetadataEntry is one key/value pair extracted from a document by its
// parser. Replaced wholesale on every reindex of the owning document.
type MetadataEntry struct {
	DocumentID int64
	Key        string
	Value      string
}

// Posting is one (document, token) entry in the inverted index: how many
// times the token occurs in the document, and at which byte positions.
type Posting struct {
	DocumentID    int64
	Token         string
	TermFrequency int
	Positions     []int
}

// DocumentFrequency tracks how many distinct documents contain a token,
// the df_t term in the search scoring formula.
type DocumentFrequency struct {
	Token    string
	DocCount int
}

// UpsertInput carries everything needed to create or update a document in
// a single transaction: the parsed, normalized form plus the postings
// derived from it.
type UpsertInput struct {
	Path           string
	ContentHash    string
	SizeBytes      int64
	Mtime          time.Time
	FileType       string
	NormalizedText string
	Metadata       map[string]string
	Postings       []Posting
}

// UpsertStatus reports whether UpsertDocument created a new row, updated an
// existing one, or left it untouched because the content hash matched.
type UpsertStatus string

const (
	UpsertStatusCreated   UpsertStatus = "created"
	UpsertStatusUpdated   UpsertStatus = "updated"
	UpsertStatusUnchanged UpsertStatus = "unchanged"
)

// SearchQuery describes a parsed search request. Filters and excludes are
// evaluated in the order spec.md §4.1 lays out: positive token scoring,
// phrase containment, exclusion, then file-type filtering.
type SearchQuery struct {
	Tokens      []string // positive tokens, already canonically tokenized
	Phrases     []string // quoted phrase fragments, matched verbatim against normalized_text
	Excludes    []string // tokens that disqualify a document if present
	FileTypes   []string // filetype: filters, empty means no restriction
	Limit       int      // capped at maxSearchResultsHardCap
}

// SearchResult is one ranked document with its computed score and a
// rendered snippet around the earliest matching token.
type SearchResult struct {
	Document *Document
	Score    float64
	Snippet  string
}

// SearchResultSet is the ranked, truncated output of a search.
type SearchResultSet struct {
	Results []SearchResult
	Total   int // count before truncation to Limit
}

// Stats summarizes store contents for the stats tool and health checks.
type Stats struct {
	DocumentCount int
	TokenCount    int
	DatabaseBytes int64
}

// Store is the persistence and search API C4's tool handlers and C5's
// watcher drive. Implementations must serialize writes through a single
// connection while allowing concurrent reads.
type Store interface {
	UpsertDocument(ctx context.Context, in UpsertInput) (*Document, UpsertStatus, error)
	DeleteDocument(ctx context.Context, path string) (bool, error)
	RenameDocument(ctx context.Context, oldPath, newPath string) (*Document, bool, error)
	GetByID(ctx context.Context, id int64) (*Document, error)
	GetByPath(ctx context.Context, path string) (*Document, error)
	GetMetadata(ctx context.Context, documentID int64) (map[string]string, error)
	Search(ctx context.Context, q SearchQuery) (*SearchResultSet, error)
	Stats(ctx context.Context) (*Stats, error)
	Close() error
}
