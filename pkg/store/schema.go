// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package store

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaVersion is bumped whenever a migration is appended. Migrations are
// never edited once released; only appended.
const schemaVersion = 1

// schemaStatements are applied in order, every Open, and are individually
// idempotent (CREATE ... IF NOT EXISTS).
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS packages (
		name        TEXT PRIMARY KEY,
		path        TEXT NOT NULL UNIQUE,
		kind        TEXT NOT NULL,
		version     TEXT DEFAULT '',
		description TEXT DEFAULT '',
		metadata    TEXT DEFAULT '{}'
	);`,
	`CREATE TABLE IF NOT EXISTS dependency_edges (
		package     TEXT NOT NULL,
		dependency  TEXT NOT NULL,
		kind        TEXT NOT NULL,
		version_req TEXT DEFAULT '',
		is_internal INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (package, dependency, kind)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_dependency_edges_package ON dependency_edges(package);`,
	`CREATE INDEX IF NOT EXISTS idx_dependency_edges_dependency ON dependency_edges(dependency);`,

	`CREATE TABLE IF NOT EXISTS symbols (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		package       TEXT NOT NULL,
		name          TEXT NOT NULL,
		kind          TEXT NOT NULL,
		signature     TEXT DEFAULT '',
		file_path     TEXT NOT NULL,
		line          INTEGER NOT NULL,
		visibility    TEXT NOT NULL DEFAULT 'public',
		parent_symbol TEXT DEFAULT '',
		return_type   TEXT DEFAULT '',
		parameters    TEXT DEFAULT '[]'
	);`,
	`CREATE INDEX IF NOT EXISTS idx_symbols_package ON symbols(package);`,
	`CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);`,
	`CREATE INDEX IF NOT EXISTS idx_symbols_file_path ON symbols(file_path);`,

	`CREATE TABLE IF NOT EXISTS files (
		path      TEXT PRIMARY KEY,
		package   TEXT,
		extension TEXT NOT NULL DEFAULT '',
		size      INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE INDEX IF NOT EXISTS idx_files_package ON files(package);`,

	`CREATE TABLE IF NOT EXISTS manifest_hashes (
		path TEXT PRIMARY KEY,
		hash TEXT NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS source_hashes (
		package   TEXT PRIMARY KEY,
		hash      TEXT NOT NULL,
		hashed_at INTEGER NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS process_metadata (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`,

	// FTS5 external-content tables, synced to their base tables via triggers
	// below. content_rowid defaults to the base table's implicit rowid.
	`CREATE VIRTUAL TABLE IF NOT EXISTS packages_fts USING fts5(
		name, description, path,
		content='packages', content_rowid='rowid',
		tokenize="unicode61 tokenchars '_.:/@#-'"
	);`,
	`CREATE VIRTUAL TABLE IF NOT EXISTS symbols_fts USING fts5(
		name, kind, signature, file_path,
		content='symbols', content_rowid='rowid',
		tokenize="unicode61 tokenchars '_.:/@#-'"
	);`,
	`CREATE VIRTUAL TABLE IF NOT EXISTS files_fts USING fts5(
		path,
		content='files', content_rowid='rowid',
		tokenize="unicode61 tokenchars '_.:@#-'"
	);`,

	// packages FTS sync triggers
	`CREATE TRIGGER IF NOT EXISTS packages_ai AFTER INSERT ON packages BEGIN
		INSERT INTO packages_fts(rowid, name, description, path) VALUES (new.rowid, new.name, new.description, new.path);
	END;`,
	`CREATE TRIGGER IF NOT EXISTS packages_ad AFTER DELETE ON packages BEGIN
		INSERT INTO packages_fts(packages_fts, rowid, name, description, path) VALUES('delete', old.rowid, old.name, old.description, old.path);
	END;`,
	`CREATE TRIGGER IF NOT EXISTS packages_au AFTER UPDATE ON packages BEGIN
		INSERT INTO packages_fts(packages_fts, rowid, name, description, path) VALUES('delete', old.rowid, old.name, old.description, old.path);
		INSERT INTO packages_fts(rowid, name, description, path) VALUES (new.rowid, new.name, new.description, new.path);
	END;`,

	// symbols FTS sync triggers
	`CREATE TRIGGER IF NOT EXISTS symbols_ai AFTER INSERT ON symbols BEGIN
		INSERT INTO symbols_fts(rowid, name, kind, signature, file_path) VALUES (new.rowid, new.name, new.kind, new.signature, new.file_path);
	END;`,
	`CREATE TRIGGER IF NOT EXISTS symbols_ad AFTER DELETE ON symbols BEGIN
		INSERT INTO symbols_fts(symbols_fts, rowid, name, kind, signature, file_path) VALUES('delete', old.rowid, old.name, old.kind, old.signature, old.file_path);
	END;`,
	`CREATE TRIGGER IF NOT EXISTS symbols_au AFTER UPDATE ON symbols BEGIN
		INSERT INTO symbols_fts(symbols_fts, rowid, name, kind, signature, file_path) VALUES('delete', old.rowid, old.name, old.kind, old.signature, old.file_path);
		INSERT INTO symbols_fts(rowid, name, kind, signature, file_path) VALUES (new.rowid, new.name, new.kind, new.signature, new.file_path);
	END;`,

	// files FTS sync triggers
	`CREATE TRIGGER IF NOT EXISTS files_ai AFTER INSERT ON files BEGIN
		INSERT INTO files_fts(rowid, path) VALUES (new.rowid, new.path);
	END;`,
	`CREATE TRIGGER IF NOT EXISTS files_ad AFTER DELETE ON files BEGIN
		INSERT INTO files_fts(files_fts, rowid, path) VALUES('delete', old.rowid, old.path);
	END;`,
	`CREATE TRIGGER IF NOT EXISTS files_au AFTER UPDATE ON files BEGIN
		INSERT INTO files_fts(files_fts, rowid, path) VALUES('delete', old.rowid, old.path);
		INSERT INTO files_fts(rowid, path) VALUES (new.rowid, new.path);
	END;`,
}

// ensureSchema applies every schema statement. Statements are idempotent,
// so this runs unconditionally on every Open rather than tracking a
// migration-version table — there is exactly one schema generation so far
// (schemaVersion exists for the day a second one is needed).
func ensureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w\n%s", err, stmt)
		}
	}
	return nil
}
