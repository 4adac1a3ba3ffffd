// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Well-known process_metadata keys: file_tree_hash is written by Phase 9,
// the run-summary keys by the post-build summary write (spec.md §4.9:
// "metadata write").
const (
	MetaKeyIndexedAt       = "indexed_at"
	MetaKeyGitCommit       = "git_commit"
	MetaKeyPackageCount    = "package_count"
	MetaKeySymbolCount     = "symbol_count"
	MetaKeyFileCount       = "file_count"
	MetaKeyTotalDurationMs = "total_duration_ms"
	MetaKeyFileTreeHash    = "file_tree_hash"
	MetaKeySchemaVersion   = "schema_version"
	MetaKeyLastRunID       = "last_run_id"
)

// SetMetadata upserts a single process_metadata key/value pair.
func (t *Tx) SetMetadata(ctx context.Context, key, value string) error {
	_, err := t.tx.ExecContext(ctx,
		"INSERT INTO process_metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value",
		key, value)
	if err != nil {
		return fmt.Errorf("set metadata %q: %w", key, err)
	}
	return nil
}

// Metadata reads a single process_metadata value. It returns ("", false,
// nil) if the key is absent.
func (s *Store) Metadata(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM process_metadata WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get metadata %q: %w", key, err)
	}
	return value, true, nil
}

// AllMetadata returns the full process_metadata table, used by the build
// summary printer and by the external serving layer's status surface.
func (s *Store) AllMetadata(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM process_metadata")
	if err != nil {
		return nil, fmt.Errorf("query metadata: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan metadata: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}
