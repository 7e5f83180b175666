package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lattice-kb/lattice/internal/config"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Init initializes the SQLite database at baseDir/lattice.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.lattice.
func Init(baseDir string) (*sql.DB, error) {
	// Create base directory with restricted permissions
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	// Explicit chmod (best-effort, may not work on all platforms)
	_ = os.Chmod(baseDir, 0700)

	// Open database with pragmas in connection string (applies to all connections)
	dbPath := filepath.Join(baseDir, "lattice.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify WAL mode is active
	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	// Run migrations (this creates the file if it doesn't exist)
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	// Set file permissions after file exists (best-effort)
	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: Initial schema (v1)
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS nodes (
		  id         TEXT PRIMARY KEY,
		  kind       TEXT NOT NULL CHECK (kind IN ('note','link','tag','flashcard')),
		  title      TEXT,
		  version    INTEGER NOT NULL DEFAULT 1,
		  is_public  INTEGER NOT NULL DEFAULT 0,
		  created_at INTEGER NOT NULL,
		  updated_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS note_nodes (
		  node_id TEXT PRIMARY KEY REFERENCES nodes(id),
		  content TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS link_nodes (
		  node_id       TEXT PRIMARY KEY REFERENCES nodes(id),
		  url           TEXT NOT NULL UNIQUE,
		  crawled_title TEXT,
		  crawled_text  TEXT,
		  crawled_html  TEXT
		);

		CREATE TABLE IF NOT EXISTS tag_nodes (
		  node_id     TEXT PRIMARY KEY REFERENCES nodes(id),
		  name        TEXT NOT NULL UNIQUE,
		  description TEXT
		);

		CREATE TABLE IF NOT EXISTS flashcard_nodes (
		  node_id          TEXT PRIMARY KEY REFERENCES nodes(id),
		  front            TEXT NOT NULL,
		  back             TEXT NOT NULL,
		  due_at           INTEGER NOT NULL,
		  interval_days    INTEGER NOT NULL,
		  ease_factor      REAL NOT NULL,
		  repetitions      INTEGER NOT NULL,
		  last_reviewed_at INTEGER
		);

		CREATE INDEX IF NOT EXISTS idx_flashcard_due
		ON flashcard_nodes(due_at);

		CREATE TABLE IF NOT EXISTS edges (
		  id               TEXT PRIMARY KEY,
		  from_id          TEXT NOT NULL,
		  to_id            TEXT NOT NULL,
		  type             TEXT NOT NULL,
		  is_bidirectional INTEGER NOT NULL DEFAULT 0,
		  created_at       INTEGER NOT NULL,
		  CHECK (from_id <> to_id)
		);

		CREATE INDEX IF NOT EXISTS idx_edges_from ON edges(from_id);
		CREATE INDEX IF NOT EXISTS idx_edges_to ON edges(to_id);

		CREATE VIRTUAL TABLE IF NOT EXISTS node_search USING fts5(
		  id UNINDEXED,
		  title,
		  content,
		  kind UNINDEXED
		);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}

// Edges deliberately carry no foreign keys: deleting a node leaves its edges
// dangling, and cleanup is the orchestration layer's responsibility.

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
