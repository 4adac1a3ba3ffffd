// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package store

import (
	"context"
	"fmt"
	"strings"
)

// ManifestHashes returns the full manifest_hashes table as a path->hash map,
// which Phase 2 (manifest diff) compares against a fresh walk.
func (s *Store) ManifestHashes(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT path, hash FROM manifest_hashes")
	if err != nil {
		return nil, fmt.Errorf("query manifest hashes: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, fmt.Errorf("scan manifest hash: %w", err)
		}
		out[path] = hash
	}
	return out, rows.Err()
}

// UpsertManifestHashes batch-writes manifest path->hash rows at
// HashBatchSize.
func (t *Tx) UpsertManifestHashes(ctx context.Context, hashes map[string]string) error {
	type row struct{ path, hash string }
	rows := make([]row, 0, len(hashes))
	for path, hash := range hashes {
		rows = append(rows, row{path, hash})
	}
	return batched(rows, HashBatchSize, func(chunk []row) error {
		var sb strings.Builder
		args := make([]any, 0, len(chunk)*2)
		sb.WriteString("INSERT INTO manifest_hashes (path, hash) VALUES ")
		for i, r := range chunk {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(?, ?)")
			args = append(args, r.path, r.hash)
		}
		sb.WriteString(" ON CONFLICT(path) DO UPDATE SET hash=excluded.hash")
		_, err := t.tx.ExecContext(ctx, sb.String(), args...)
		if err != nil {
			return fmt.Errorf("upsert manifest hashes: %w", err)
		}
		return nil
	})
}

// DeleteManifestHashes removes manifest_hashes rows for paths no longer on
// disk.
func (t *Tx) DeleteManifestHashes(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	return batched(paths, HashBatchSize, func(chunk []string) error {
		placeholders, args := inClause(chunk)
		_, err := t.tx.ExecContext(ctx, "DELETE FROM manifest_hashes WHERE path IN ("+placeholders+")", args...)
		if err != nil {
			return fmt.Errorf("delete manifest hashes: %w", err)
		}
		return nil
	})
}

// SourceHashes returns the full source_hashes table as a package->SourceHash
// map, which Phase 8 (source-incremental) compares against a fresh
// aggregate hash of each package's source tree.
func (s *Store) SourceHashes(ctx context.Context) (map[string]SourceHash, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT package, hash, hashed_at FROM source_hashes")
	if err != nil {
		return nil, fmt.Errorf("query source hashes: %w", err)
	}
	defer rows.Close()

	out := make(map[string]SourceHash)
	for rows.Next() {
		var sh SourceHash
		if err := rows.Scan(&sh.Package, &sh.Hash, &sh.HashedAt); err != nil {
			return nil, fmt.Errorf("scan source hash: %w", err)
		}
		out[sh.Package] = sh
	}
	return out, rows.Err()
}

// UpsertSourceHashes batch-writes package source-hash rows at
// HashBatchSize.
func (t *Tx) UpsertSourceHashes(ctx context.Context, hashes []SourceHash) error {
	return batched(hashes, HashBatchSize, func(chunk []SourceHash) error {
		var sb strings.Builder
		args := make([]any, 0, len(chunk)*3)
		sb.WriteString("INSERT INTO source_hashes (package, hash, hashed_at) VALUES ")
		for i, sh := range chunk {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(?, ?, ?)")
			args = append(args, sh.Package, sh.Hash, sh.HashedAt)
		}
		sb.WriteString(" ON CONFLICT(package) DO UPDATE SET hash=excluded.hash, hashed_at=excluded.hashed_at")
		_, err := t.tx.ExecContext(ctx, sb.String(), args...)
		if err != nil {
			return fmt.Errorf("upsert source hashes: %w", err)
		}
		return nil
	})
}

// DeleteSourceHashes removes source_hashes rows for packages that no longer
// exist.
func (t *Tx) DeleteSourceHashes(ctx context.Context, packageNames []string) error {
	if len(packageNames) == 0 {
		return nil
	}
	return batched(packageNames, HashBatchSize, func(chunk []string) error {
		placeholders, args := inClause(chunk)
		_, err := t.tx.ExecContext(ctx, "DELETE FROM source_hashes WHERE package IN ("+placeholders+")", args...)
		if err != nil {
			return fmt.Errorf("delete source hashes: %w", err)
		}
		return nil
	})
}
