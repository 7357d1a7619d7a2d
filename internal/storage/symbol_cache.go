package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"linkcheck/internal/linkage"
)

// SymbolCache is the sqlite-backed implementation of
// linkage.ExtractedStore.
type SymbolCache struct {
	db *DB
}

// NewSymbolCache creates a cache over an open database.
func NewSymbolCache(db *DB) *SymbolCache {
	return &SymbolCache{db: db}
}

// Get returns the cached extraction results for an archive digest.
func (c *SymbolCache) Get(digest string) ([]linkage.SourceRefs, bool, error) {
	var refsJSON string
	err := c.db.conn.QueryRow(`
		SELECT refs_json FROM symbol_cache WHERE digest = ?
	`, digest).Scan(&refsJSON)

	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("symbol cache lookup failed: %w", err)
	}

	var refs []linkage.SourceRefs
	if err := json.Unmarshal([]byte(refsJSON), &refs); err != nil {
		// A corrupt row is a cache miss; the next Put overwrites it.
		return nil, false, nil
	}
	return refs, true, nil
}

// Put stores extraction results for an archive digest.
func (c *SymbolCache) Put(digest string, refs []linkage.SourceRefs) error {
	data, err := json.Marshal(refs)
	if err != nil {
		return fmt.Errorf("failed to encode symbol refs: %w", err)
	}

	_, err = c.db.conn.Exec(`
		INSERT OR REPLACE INTO symbol_cache (digest, refs_json) VALUES (?, ?)
	`, digest, string(data))
	if err != nil {
		return fmt.Errorf("failed to store symbol refs: %w", err)
	}
	return nil
}

// Stats returns entry count and total payload bytes, for diagnostics.
func (c *SymbolCache) Stats() (entries int, bytes int, err error) {
	err = c.db.conn.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(LENGTH(refs_json)), 0) FROM symbol_cache
	`).Scan(&entries, &bytes)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read cache stats: %w", err)
	}
	return entries, bytes, nil
}
