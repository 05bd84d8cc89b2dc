package store

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cachedResult is a query cache entry: the computed result set plus when it
// was produced, so entries from before the most recent write are treated
// as stale even inside the TTL window (spec.md §3 invariant).
type cachedResult struct {
	set       *SearchResultSet
	createdAt time.Time
}

// queryCache is the bounded, TTL-bounded, write-invalidated cache the
// search path consults before touching the posting tables. Keyed by a
// stable hash of (normalized_query, limit, sorted filters) per spec.md
// §4.1's "Query cache" section.
type queryCache struct {
	mu        sync.Mutex
	lru       *lru.Cache[string, cachedResult]
	ttl       time.Duration
	lastWrite time.Time
}

func newQueryCache(size int, ttl time.Duration) *queryCache {
	if size <= 0 {
		size = 1
	}
	c, _ := lru.New[string, cachedResult](size)
	return &queryCache{lru: c, ttl: ttl}
}

// key computes the stable cache key for a parsed query.
func cacheKey(q SearchQuery) string {
	var b strings.Builder

	tokens := append([]string(nil), q.Tokens...)
	sort.Strings(tokens)
	b.WriteString(strings.Join(tokens, ","))
	b.WriteByte('|')

	phrases := append([]string(nil), q.Phrases...)
	sort.Strings(phrases)
	b.WriteString(strings.Join(phrases, ","))
	b.WriteByte('|')

	excludes := append([]string(nil), q.Excludes...)
	sort.Strings(excludes)
	b.WriteString(strings.Join(excludes, ","))
	b.WriteByte('|')

	fileTypes := append([]string(nil), q.FileTypes...)
	sort.Strings(fileTypes)
	b.WriteString(strings.Join(fileTypes, ","))
	b.WriteByte('|')

	b.WriteString(strconv.Itoa(q.Limit))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// get returns a cached result set if present, unexpired, and produced
// after the most recent write.
func (c *queryCache) get(q SearchQuery) (*SearchResultSet, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lru.Get(cacheKey(q))
	if !ok {
		return nil, false
	}
	if entry.createdAt.Before(c.lastWrite) {
		return nil, false
	}
	if time.Since(entry.createdAt) > c.ttl {
		return nil, false
	}
	return entry.set, true
}

// put stores a freshly computed result set.
func (c *queryCache) put(q SearchQuery, set *SearchResultSet) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(cacheKey(q), cachedResult{set: set, createdAt: time.Now()})
}

// invalidate marks every currently cached entry stale. Called after any
// successful write; spec.md §4.1 allows the simpler wholesale strategy
// over token-scoped invalidation.
func (c *queryCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastWrite = time.Now()
}
