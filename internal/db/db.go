package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB with parksync-specific helpers.
type DB struct {
	*sql.DB
	path string
}

// Open creates or opens a SQLite database at the given path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	d := &DB{DB: sqlDB, path: path}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// OpenMemory creates an in-memory SQLite database (useful for testing).
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}

	d := &DB{DB: sqlDB, path: ":memory:"}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// migrate runs all schema migrations.
func (d *DB) migrate() error {
	_, err := d.Exec(schema)
	return err
}

// schema contains the full database schema. New tables are added here.
const schema = `
CREATE TABLE IF NOT EXISTS site_connections (
    id TEXT PRIMARY KEY,
    agent_id TEXT NOT NULL UNIQUE,
    site_url TEXT NOT NULL,
    verified_at DATETIME,
    last_test_success INTEGER NOT NULL DEFAULT 0,
    last_test_message TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS endpoint_configs (
    connection_id TEXT NOT NULL REFERENCES site_connections(id) ON DELETE CASCADE,
    kind TEXT NOT NULL CHECK(kind IN ('community','home')),
    rest_base TEXT NOT NULL,
    sync_interval TEXT NOT NULL DEFAULT 'manual',
    last_sync DATETIME,
    PRIMARY KEY(connection_id, kind)
);

CREATE TABLE IF NOT EXISTS field_mappings (
    connection_id TEXT NOT NULL REFERENCES site_connections(id) ON DELETE CASCADE,
    kind TEXT NOT NULL CHECK(kind IN ('community','home')),
    mapping TEXT NOT NULL DEFAULT '{}',
    confirmed INTEGER NOT NULL DEFAULT 0,
    updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
    PRIMARY KEY(connection_id, kind)
);

-- sync_records carries no FK to site_connections: disconnecting keeps the
-- synced data unless the caller explicitly asks for the cascade.
CREATE TABLE IF NOT EXISTS sync_records (
    id TEXT PRIMARY KEY,
    connection_id TEXT NOT NULL,
    kind TEXT NOT NULL CHECK(kind IN ('community','home')),
    source_record_id TEXT NOT NULL,
    fields TEXT NOT NULL DEFAULT '{}',
    content_fingerprint TEXT NOT NULL DEFAULT '',
    last_synced_at DATETIME NOT NULL DEFAULT (datetime('now')),
    created_at DATETIME NOT NULL DEFAULT (datetime('now')),
    UNIQUE(connection_id, kind, source_record_id)
);

CREATE INDEX IF NOT EXISTS idx_sync_records_conn ON sync_records(connection_id, kind);

CREATE TABLE IF NOT EXISTS sync_runs (
    id TEXT PRIMARY KEY,
    connection_id TEXT NOT NULL,
    kind TEXT NOT NULL CHECK(kind IN ('community','home')),
    started_at DATETIME NOT NULL,
    finished_at DATETIME,
    imported INTEGER NOT NULL DEFAULT 0,
    updated INTEGER NOT NULL DEFAULT 0,
    unchanged INTEGER NOT NULL DEFAULT 0,
    failed INTEGER NOT NULL DEFAULT 0,
    total_remote INTEGER NOT NULL DEFAULT 0,
    error TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_sync_runs_conn ON sync_runs(connection_id, kind, started_at);

CREATE TABLE IF NOT EXISTS knowledge_sources (
    id TEXT PRIMARY KEY,
    parent_id TEXT REFERENCES knowledge_sources(id) ON DELETE CASCADE,
    source_type TEXT NOT NULL CHECK(source_type IN ('document','url','synced')),
    name TEXT NOT NULL,
    location TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending','processing','ready','error')),
    error TEXT NOT NULL DEFAULT '',
    chunk_count INTEGER NOT NULL DEFAULT 0,
    last_content_hash TEXT NOT NULL DEFAULT '',
    last_synced_at DATETIME,
    refresh_interval TEXT NOT NULL DEFAULT 'manual',
    created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_knowledge_parent ON knowledge_sources(parent_id);
CREATE INDEX IF NOT EXISTS idx_knowledge_status ON knowledge_sources(status);

CREATE TABLE IF NOT EXISTS audit_entries (
    id TEXT PRIMARY KEY,
    timestamp DATETIME NOT NULL DEFAULT (datetime('now')),
    actor TEXT NOT NULL DEFAULT 'system',
    action TEXT NOT NULL,
    scope TEXT NOT NULL,
    scope_id TEXT NOT NULL DEFAULT '',
    detail TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_entries(timestamp);
CREATE INDEX IF NOT EXISTS idx_audit_scope ON audit_entries(scope, scope_id);
`
