package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	coreerrors "github.com/mydocs-mcp/mydocs-mcp/internal/errors"
)

// UpsertDocument creates or updates a document and its derived metadata
// and postings in a single transaction. If a document already exists at
// path with a matching content hash, the write is a no-op and the
// existing row is returned unchanged (spec.md §3: "(content_hash, path)
// identifies a version").
func (s *SQLiteStore) UpsertDocument(ctx context.Context, in UpsertInput) (*Document, UpsertStatus, error) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return nil, "", coreerrors.Internal("store is closed", nil)
	}

	var doc *Document
	var status UpsertStatus

	err := s.withRetry(ctx, func() error {
		tx, err := s.writeDB.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		existing, findErr := getByPathTx(ctx, tx, in.Path)
		if findErr != nil && !errors.Is(findErr, sql.ErrNoRows) {
			return findErr
		}

		now := time.Now()

		if existing != nil && existing.ContentHash == in.ContentHash {
			doc = existing
			status = UpsertStatusUnchanged
			return tx.Commit()
		}

		var docID int64
		if existing == nil {
			res, err := tx.ExecContext(ctx, `
				INSERT INTO documents (path, content_hash, size_bytes, mtime, file_type, indexed_at, updated_at, normalized_text)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				in.Path, in.ContentHash, in.SizeBytes, in.Mtime.Unix(), in.FileType, now.Unix(), now.Unix(), in.NormalizedText)
			if err != nil {
				return err
			}
			docID, err = res.LastInsertId()
			if err != nil {
				return err
			}
			status = UpsertStatusCreated
		} else {
			docID = existing.ID
			if _, err := tx.ExecContext(ctx, `
				UPDATE documents
				SET content_hash = ?, size_bytes = ?, mtime = ?, file_type = ?, updated_at = ?, normalized_text = ?
				WHERE id = ?`,
				in.ContentHash, in.SizeBytes, in.Mtime.Unix(), in.FileType, now.Unix(), in.NormalizedText, docID); err != nil {
				return err
			}
			status = UpsertStatusUpdated

			if err := clearDocumentDerived(ctx, tx, docID); err != nil {
				return err
			}
		}

		if err := insertMetadata(ctx, tx, docID, in.Metadata); err != nil {
			return err
		}
		if err := insertPostings(ctx, tx, docID, in.Postings); err != nil {
			return err
		}

		if err := tx.Commit(); err != nil {
			return err
		}

		doc = &Document{
			ID:             docID,
			Path:           in.Path,
			ContentHash:    in.ContentHash,
			SizeBytes:      in.SizeBytes,
			Mtime:          in.Mtime,
			FileType:       in.FileType,
			IndexedAt:      now,
			UpdatedAt:      now,
			NormalizedText: in.NormalizedText,
		}
		return nil
	})
	if err != nil {
		return nil, "", wrapStorageErr(err)
	}

	if status != UpsertStatusUnchanged {
		s.cache.invalidate()
	}
	return doc, status, nil
}

// clearDocumentDerived removes a document's existing metadata, postings,
// and door-frequency contributions before a reindex writes fresh ones.
func clearDocumentDerived(ctx context.Context, tx *sql.Tx, docID int64) error {
	rows, err := tx.QueryContext(ctx, `SELECT DISTINCT token FROM postings WHERE document_id = ?`, docID)
	if err != nil {
		return err
	}
	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			rows.Close()
			return err
		}
		tokens = append(tokens, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM metadata WHERE document_id = ?`, docID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM postings WHERE document_id = ?`, docID); err != nil {
		return err
	}
	for _, t := range tokens {
		if _, err := tx.ExecContext(ctx, `
			UPDATE doc_frequency SET doc_count = doc_count - 1 WHERE token = ?`, t); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM doc_frequency WHERE doc_count <= 0`); err != nil {
		return err
	}
	return nil
}

func insertMetadata(ctx context.Context, tx *sql.Tx, docID int64, metadata map[string]string) error {
	if len(metadata) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO metadata (document_id, key, value) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for k, v := range metadata {
		if _, err := stmt.ExecContext(ctx, docID, k, v); err != nil {
			return err
		}
	}
	return nil
}

func insertPostings(ctx context.Context, tx *sql.Tx, docID int64, postings []Posting) error {
	if len(postings) == 0 {
		return nil
	}
	postingStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO postings (document_id, token, term_frequency, positions) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer postingStmt.Close()

	dfStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO doc_frequency (token, doc_count) VALUES (?, 1)
		ON CONFLICT(token) DO UPDATE SET doc_count = doc_count + 1`)
	if err != nil {
		return err
	}
	defer dfStmt.Close()

	for _, p := range postings {
		positions, err := json.Marshal(p.Positions)
		if err != nil {
			return err
		}
		if _, err := postingStmt.ExecContext(ctx, docID, p.Token, p.TermFrequency, string(positions)); err != nil {
			return err
		}
		if _, err := dfStmt.ExecContext(ctx, p.Token); err != nil {
			return err
		}
	}
	return nil
}

// DeleteDocument removes a document and cascades to its metadata and
// postings, decrementing document frequencies. Returns false if no
// document existed at path.
func (s *SQLiteStore) DeleteDocument(ctx context.Context, path string) (bool, error) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return false, coreerrors.Internal("store is closed", nil)
	}

	var deleted bool
	err := s.withRetry(ctx, func() error {
		tx, err := s.writeDB.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		existing, err := getByPathTx(ctx, tx, path)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				deleted = false
				return tx.Commit()
			}
			return err
		}

		if err := clearDocumentDerived(ctx, tx, existing.ID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, existing.ID); err != nil {
			return err
		}
		deleted = true
		return tx.Commit()
	})
	if err != nil {
		return false, wrapStorageErr(err)
	}
	if deleted {
		s.cache.invalidate()
	}
	return deleted, nil
}

// RenameDocument updates the path of the document at oldPath to newPath,
// preserving its id, postings, and metadata (spec.md §4.5: a move whose
// destination still matches the extension whitelist is a path update,
// not a delete+reindex). Returns the updated document, or false if no
// document existed at oldPath.
func (s *SQLiteStore) RenameDocument(ctx context.Context, oldPath, newPath string) (*Document, bool, error) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return nil, false, coreerrors.Internal("store is closed", nil)
	}

	var doc *Document
	var found bool
	err := s.withRetry(ctx, func() error {
		tx, err := s.writeDB.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		existing, err := getByPathTx(ctx, tx, oldPath)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				found = false
				return tx.Commit()
			}
			return err
		}

		now := time.Now()
		if _, err := tx.ExecContext(ctx, `
			UPDATE documents SET path = ?, updated_at = ? WHERE id = ?`,
			newPath, now.Unix(), existing.ID); err != nil {
			return err
		}

		found = true
		existing.Path = newPath
		existing.UpdatedAt = now
		doc = existing
		return tx.Commit()
	})
	if err != nil {
		return nil, false, wrapStorageErr(err)
	}
	if found {
		s.cache.invalidate()
	}
	return doc, found, nil
}

// GetByID looks up a document by its primary key.
func (s *SQLiteStore) GetByID(ctx context.Context, id int64) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, coreerrors.Internal("store is closed", nil)
	}

	doc, err := scanDocument(s.readDB.QueryRowContext(ctx, documentColumns+` FROM documents WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, coreerrors.DocumentNotFound("no document with that id", err)
	}
	if err != nil {
		return nil, coreerrors.Storage("get document by id", err)
	}
	return doc, nil
}

// GetByPath looks up a document by its unique path.
func (s *SQLiteStore) GetByPath(ctx context.Context, path string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, coreerrors.Internal("store is closed", nil)
	}

	doc, err := scanDocument(s.readDB.QueryRowContext(ctx, documentColumns+` FROM documents WHERE path = ?`, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, coreerrors.DocumentNotFound("no document at that path", err)
	}
	if err != nil {
		return nil, coreerrors.Storage("get document by path", err)
	}
	return doc, nil
}

// GetMetadata returns the key/value metadata extracted by a document's
// parser, or an empty map if it has none.
func (s *SQLiteStore) GetMetadata(ctx context.Context, documentID int64) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, coreerrors.Internal("store is closed", nil)
	}

	rows, err := s.readDB.QueryContext(ctx, `SELECT key, value FROM metadata WHERE document_id = ?`, documentID)
	if err != nil {
		return nil, coreerrors.Storage("get document metadata", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, coreerrors.Storage("scan document metadata", err)
		}
		meta[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, coreerrors.Storage("iterate document metadata", err)
	}
	return meta, nil
}

const documentColumns = `SELECT id, path, content_hash, size_bytes, mtime, file_type, indexed_at, updated_at, normalized_text`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var d Document
	var mtime, indexedAt, updatedAt int64
	if err := row.Scan(&d.ID, &d.Path, &d.ContentHash, &d.SizeBytes, &mtime, &d.FileType, &indexedAt, &updatedAt, &d.NormalizedText); err != nil {
		return nil, err
	}
	d.Mtime = time.Unix(mtime, 0).UTC()
	d.IndexedAt = time.Unix(indexedAt, 0).UTC()
	d.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &d, nil
}

func getByPathTx(ctx context.Context, tx *sql.Tx, path string) (*Document, error) {
	return scanDocument(tx.QueryRowContext(ctx, documentColumns+` FROM documents WHERE path = ?`, path))
}
