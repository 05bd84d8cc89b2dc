package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO

	coreerrors "github.com/mydocs-mcp/mydocs-mcp/internal/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS documents (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	path            TEXT NOT NULL UNIQUE,
	content_hash    TEXT NOT NULL,
	size_bytes      INTEGER NOT NULL,
	mtime           INTEGER NOT NULL,
	file_type       TEXT NOT NULL,
	indexed_at      INTEGER NOT NULL,
	updated_at      INTEGER NOT NULL,
	normalized_text TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_path ON documents(path);
CREATE INDEX IF NOT EXISTS idx_documents_content_hash ON documents(content_hash);

CREATE TABLE IF NOT EXISTS metadata (
	document_id INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	key         TEXT NOT NULL,
	value       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_metadata_document_id ON metadata(document_id);

CREATE TABLE IF NOT EXISTS postings (
	document_id    INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	token          TEXT NOT NULL,
	term_frequency INTEGER NOT NULL,
	positions      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_postings_token ON postings(token);
CREATE INDEX IF NOT EXISTS idx_postings_token_document ON postings(token, document_id);

CREATE TABLE IF NOT EXISTS doc_frequency (
	token     TEXT PRIMARY KEY,
	doc_count INTEGER NOT NULL
);

INSERT OR IGNORE INTO schema_version (version) VALUES (1);
`

// SQLiteStore implements Store on an embedded modernc.org/sqlite database:
// one writer connection (SetMaxOpenConns(1)) serializing all mutations,
// one read-only connection pool for concurrent search/lookup, and an
// advisory file lock guarding the database path against a second server
// process starting against the same store.
type SQLiteStore struct {
	mu       sync.RWMutex
	writeDB  *sql.DB
	readDB   *sql.DB
	path     string
	closed   bool
	fileLock *flock.Flock
	cache    *queryCache

	fileNameBonus float64
	recencyBonus  float64
}

var _ Store = (*SQLiteStore)(nil)

// Options configures a SQLiteStore beyond its database path.
type Options struct {
	// QueryCacheTTL is how long a cached search result set stays valid
	// absent an intervening write. Zero disables the cache.
	QueryCacheTTL time.Duration
	// QueryCacheSize bounds the number of distinct cached queries.
	QueryCacheSize int
	// FileNameBonus (K1 in spec.md §4.1 step 6) is added to a document's
	// score when a query token matches its file-name component.
	FileNameBonus float64
	// RecencyBonus (K2 in spec.md §4.1 step 6) scales the recency factor
	// 1 + K2*f(age) multiplied into a document's score.
	RecencyBonus float64
}

// DefaultOptions returns the bonuses and cache sizing spec.md §4.1 leaves
// to the implementer's discretion, documented here.
func DefaultOptions() Options {
	return Options{
		QueryCacheTTL:  5 * time.Minute,
		QueryCacheSize: 256,
		FileNameBonus:  0.5,
		RecencyBonus:   0.25,
	}
}

// Open creates or opens a SQLite-backed store at path, initializing the
// schema if needed and acquiring an advisory lock that is released on
// Close.
func Open(path string, opts Options) (*SQLiteStore, error) {
	if path == "" {
		path = ":memory:"
	}

	var lock *flock.Flock
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", dir, err)
		}

		lock = flock.New(path + ".lock")
		locked, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire store lock: %w", err)
		}
		if !locked {
			return nil, fmt.Errorf("store at %s is already open by another process", path)
		}
	}

	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=busy_timeout(5000)"
	}

	writeDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		if lock != nil {
			_ = lock.Unlock()
		}
		return nil, fmt.Errorf("open database: %w", err)
	}
	writeDB.SetMaxOpenConns(1)
	writeDB.SetMaxIdleConns(1)
	writeDB.SetConnMaxLifetime(0)

	readDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = writeDB.Close()
		if lock != nil {
			_ = lock.Unlock()
		}
		return nil, fmt.Errorf("open read database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA cache_size = -65536",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := writeDB.Exec(p); err != nil {
			_ = writeDB.Close()
			_ = readDB.Close()
			if lock != nil {
				_ = lock.Unlock()
			}
			return nil, fmt.Errorf("set pragma %q: %w", p, err)
		}
	}
	if _, err := readDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = writeDB.Close()
		_ = readDB.Close()
		if lock != nil {
			_ = lock.Unlock()
		}
		return nil, fmt.Errorf("set read pragma: %w", err)
	}

	if _, err := writeDB.Exec(schema); err != nil {
		_ = writeDB.Close()
		_ = readDB.Close()
		if lock != nil {
			_ = lock.Unlock()
		}
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	s := &SQLiteStore{
		writeDB:       writeDB,
		readDB:        readDB,
		path:          path,
		fileLock:      lock,
		cache:         newQueryCache(opts.QueryCacheSize, opts.QueryCacheTTL),
		fileNameBonus: opts.FileNameBonus,
		recencyBonus:  opts.RecencyBonus,
	}
	return s, nil
}

// busyRetryConfig bounds busy retries at 3 after the first attempt, with a short exponential
// backoff, per spec.md §4.1's DATABASE_BUSY handling.
var busyRetryConfig = coreerrors.RetryConfig{
	MaxRetries:   3,
	InitialDelay: 20 * time.Millisecond,
	MaxDelay:     200 * time.Millisecond,
	Multiplier:   2.0,
	Jitter:       true,
}

// withRetry runs fn, retrying only on a SQLITE_BUSY condition. A non-busy
// error is returned immediately without consuming a retry attempt; a busy
// error that persists past the retry budget surfaces as STORAGE_ERROR.
func (s *SQLiteStore) withRetry(ctx context.Context, fn func() error) error {
	var nonBusyErr error
	err := coreerrors.Retry(ctx, busyRetryConfig, func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if isBusyErr(err) {
			return err
		}
		nonBusyErr = err
		return nil
	})
	if nonBusyErr != nil {
		return nonBusyErr
	}
	if err != nil {
		return coreerrors.Storage("database busy after retries", err)
	}
	return nil
}

// wrapStorageErr normalizes an error from a write transaction into a
// CoreError, passing an already-structured error (e.g. from withRetry's
// busy-retry exhaustion) through unchanged instead of double-wrapping it.
func wrapStorageErr(err error) error {
	if _, ok := err.(*coreerrors.CoreError); ok {
		return err
	}
	return coreerrors.Wrap(coreerrors.CodeStorageError, err)
}

func isBusyErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "busy")
}

// Close checkpoints the WAL, closes both connections, and releases the
// advisory file lock. Idempotent.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.path != ":memory:" {
		_, _ = s.writeDB.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	}
	err1 := s.writeDB.Close()
	err2 := s.readDB.Close()
	if s.fileLock != nil {
		if err := s.fileLock.Unlock(); err != nil {
			slog.Warn("store_unlock_failed", slog.String("path", s.path), slog.String("error", err.Error()))
		}
	}
	if err1 != nil {
		return err1
	}
	return err2
}

// Stats reports document and token counts plus on-disk size.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, coreerrors.Internal("store is closed", nil)
	}

	var stats Stats
	if err := s.readDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&stats.DocumentCount); err != nil {
		return nil, coreerrors.Storage("query document count", err)
	}
	if err := s.readDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM doc_frequency`).Scan(&stats.TokenCount); err != nil {
		return nil, coreerrors.Storage("query token count", err)
	}
	if s.path != ":memory:" {
		if info, err := os.Stat(s.path); err == nil {
			stats.DatabaseBytes = info.Size()
		}
	}
	return &stats, nil
}
