// Package storage persists extraction results between runs. The cache is
// keyed by archive digest, so an unchanged archive never gets re-extracted.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"linkcheck/internal/logging"
)

const schemaVersion = 1

// DB represents the symbol cache database connection
type DB struct {
	conn   *sql.DB
	logger *logging.Logger
	dbPath string
}

// Open opens or creates the symbol cache database at dbPath. A database
// with an incompatible schema version is discarded and recreated; the
// cache holds nothing that cannot be recomputed.
func Open(dbPath string, logger *logging.Logger) (*DB, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	db := &DB{conn: conn, logger: logger, dbPath: dbPath}
	if err := db.ensureSchema(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

func (db *DB) ensureSchema() error {
	var current int
	err := db.conn.QueryRow(`SELECT version FROM schema_info LIMIT 1`).Scan(&current)
	switch {
	case err == nil && current == schemaVersion:
		return nil
	case err == nil:
		db.logger.Info("Recreating symbol cache with new schema", map[string]interface{}{
			"path": db.dbPath,
			"from": current,
			"to":   schemaVersion,
		})
		if _, err := db.conn.Exec(`DROP TABLE IF EXISTS symbol_cache; DROP TABLE IF EXISTS schema_info`); err != nil {
			return fmt.Errorf("failed to reset cache schema: %w", err)
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS schema_info (
		version INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS symbol_cache (
		digest     TEXT PRIMARY KEY,
		refs_json  TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	);`
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	var count int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM schema_info`).Scan(&count); err != nil {
		return fmt.Errorf("failed to read schema info: %w", err)
	}
	if count == 0 {
		if _, err := db.conn.Exec(`INSERT INTO schema_info (version) VALUES (?)`, schemaVersion); err != nil {
			return fmt.Errorf("failed to stamp schema version: %w", err)
		}
	}
	return nil
}
