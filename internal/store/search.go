package store

import (
	"context"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"time"

	coreerrors "github.com/mydocs-mcp/mydocs-mcp/internal/errors"
)

// maxSearchResultsHardCap is the absolute ceiling on returned results
// regardless of the caller's requested limit (spec.md §4.1 step 8).
const maxSearchResultsHardCap = 100

// snippetWindow is the maximum snippet length in characters (spec.md
// §4.1 step 8).
const snippetWindow = 200

// recencyHalfLife is how long it takes the recency bonus factor f(age)
// to decay by half. spec.md §4.1 leaves f's shape to the implementer;
// this store uses a simple exponential decay.
const recencyHalfLife = 30 * 24 * time.Hour

// Search implements spec.md §4.1's 8-step search algorithm: tokenize,
// score positive tokens by tf·idf, filter by phrase containment and
// exclusions and file type, add filename/recency bonuses, rank, and
// truncate with rendered snippets.
func (s *SQLiteStore) Search(ctx context.Context, q SearchQuery) (*SearchResultSet, error) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return nil, coreerrors.Internal("store is closed", nil)
	}

	if len(q.Tokens) == 0 {
		return nil, coreerrors.New(coreerrors.CodeInvalidQuery, "search query has no positive tokens", nil)
	}

	limit := q.Limit
	if limit <= 0 || limit > maxSearchResultsHardCap {
		limit = maxSearchResultsHardCap
	}
	q.Limit = limit

	if cached, ok := s.cache.get(q); ok {
		return cached, nil
	}

	var docCount int
	if err := s.readDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&docCount); err != nil {
		return nil, coreerrors.Storage("count documents", err)
	}
	if docCount == 0 {
		empty := &SearchResultSet{}
		s.cache.put(q, empty)
		return empty, nil
	}

	scores := make(map[int64]float64)
	for _, token := range q.Tokens {
		df, err := s.documentFrequency(ctx, token)
		if err != nil {
			return nil, err
		}
		if df == 0 {
			continue
		}
		idf := math.Log(float64(docCount+1) / float64(df+1))

		rows, err := s.readDB.QueryContext(ctx, `
			SELECT document_id, term_frequency FROM postings WHERE token = ?`, token)
		if err != nil {
			return nil, coreerrors.Storage("query postings", err)
		}
		for rows.Next() {
			var docID int64
			var tf int
			if err := rows.Scan(&docID, &tf); err != nil {
				rows.Close()
				return nil, coreerrors.Storage("scan posting", err)
			}
			scores[docID] += float64(tf) * idf
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, coreerrors.Storage("iterate postings", err)
		}
		rows.Close()
	}

	if len(scores) == 0 {
		empty := &SearchResultSet{}
		s.cache.put(q, empty)
		return empty, nil
	}

	fileTypeSet := make(map[string]struct{}, len(q.FileTypes))
	for _, ft := range q.FileTypes {
		fileTypeSet[ft] = struct{}{}
	}

	var candidates []SearchResult
	now := time.Now()
	for docID, score := range scores {
		doc, err := s.GetByID(ctx, docID)
		if err != nil {
			continue // document deleted concurrently; skip rather than fail the whole search
		}

		if len(q.Phrases) > 0 && !containsAllPhrases(doc.NormalizedText, q.Phrases) {
			continue
		}
		if containsAnyExclusion(doc.NormalizedText, q.Excludes) {
			continue
		}
		if len(fileTypeSet) > 0 {
			if _, ok := fileTypeSet[doc.FileType]; !ok {
				continue
			}
		}

		final := score
		if matchesFileName(doc.Path, q.Tokens) {
			final += s.fileNameBonus
		}
		age := now.Sub(doc.UpdatedAt)
		recencyFactor := 1 + s.recencyBonus*recencyDecay(age)
		final *= recencyFactor

		candidates = append(candidates, SearchResult{Document: doc, Score: final})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		if !candidates[i].Document.UpdatedAt.Equal(candidates[j].Document.UpdatedAt) {
			return candidates[i].Document.UpdatedAt.After(candidates[j].Document.UpdatedAt)
		}
		return candidates[i].Document.ID < candidates[j].Document.ID
	})

	total := len(candidates)
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	for i := range candidates {
		candidates[i].Snippet = buildSnippet(candidates[i].Document.NormalizedText, q.Tokens)
	}

	result := &SearchResultSet{Results: candidates, Total: total}
	s.cache.put(q, result)
	return result, nil
}

func (s *SQLiteStore) documentFrequency(ctx context.Context, token string) (int, error) {
	var df int
	err := s.readDB.QueryRowContext(ctx, `SELECT doc_count FROM doc_frequency WHERE token = ?`, token).Scan(&df)
	if err != nil {
		return 0, nil // no rows means the token has never been indexed
	}
	return df, nil
}

// recencyDecay returns a value in (0, 1] that decays monotonically with
// age, halving every recencyHalfLife.
func recencyDecay(age time.Duration) float64 {
	if age < 0 {
		age = 0
	}
	return math.Exp(-math.Ln2 * float64(age) / float64(recencyHalfLife))
}

func matchesFileName(path string, tokens []string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, t := range tokens {
		if strings.Contains(name, t) {
			return true
		}
	}
	return false
}

func containsAllPhrases(text string, phrases []string) bool {
	lower := strings.ToLower(text)
	for _, p := range phrases {
		if !strings.Contains(lower, p) {
			return false
		}
	}
	return true
}

func containsAnyExclusion(text string, excludes []string) bool {
	if len(excludes) == 0 {
		return false
	}
	tokens := Tokenize(text)
	tokenSet := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = struct{}{}
	}
	for _, e := range excludes {
		if _, ok := tokenSet[e]; ok {
			return true
		}
	}
	return false
}

// buildSnippet finds the earliest occurrence of any query token in text
// and returns a window of at most snippetWindow characters centered on
// it, with ellipses if truncated, per spec.md §4.1 step 8.
func buildSnippet(text string, tokens []string) string {
	lower := strings.ToLower(text)
	earliest := -1
	for _, t := range tokens {
		if idx := strings.Index(lower, t); idx >= 0 && (earliest == -1 || idx < earliest) {
			earliest = idx
		}
	}
	if earliest == -1 {
		if len(text) <= snippetWindow {
			return text
		}
		return strings.TrimSpace(text[:snippetWindow-3]) + "..."
	}

	// Leave room for a leading and a trailing "..." within snippetWindow.
	body := snippetWindow - 6
	half := body / 2
	start := earliest - half
	truncatedStart := start > 0
	if start < 0 {
		start = 0
		truncatedStart = false
	}
	end := start + body
	truncatedEnd := end < len(text)
	if end > len(text) {
		end = len(text)
	}

	snippet := text[start:end]
	if truncatedStart {
		snippet = "..." + snippet
	}
	if truncatedEnd {
		snippet = snippet + "..."
	}
	return strings.TrimSpace(snippet)
}
