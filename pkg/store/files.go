// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package store

import (
	"context"
	"fmt"
	"strings"
)

// UpsertFiles batch-inserts or replaces file-tree rows at FileBatchSize
// (spec.md §4.9, the file-tree diff/rebuild phase).
func (t *Tx) UpsertFiles(ctx context.Context, files []FileRow) error {
	return batched(files, FileBatchSize, func(chunk []FileRow) error {
		var sb strings.Builder
		args := make([]any, 0, len(chunk)*4)
		sb.WriteString("INSERT INTO files (path, package, extension, size) VALUES ")
		for i, f := range chunk {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(?, ?, ?, ?)")
			args = append(args, f.Path, f.Package, f.Extension, f.Size)
		}
		sb.WriteString(" ON CONFLICT(path) DO UPDATE SET package=excluded.package, " +
			"extension=excluded.extension, size=excluded.size")
		_, err := t.tx.ExecContext(ctx, sb.String(), args...)
		if err != nil {
			return fmt.Errorf("upsert files: %w", err)
		}
		return nil
	})
}

// DeleteFilesByPath removes file-tree rows for paths no longer present on
// disk.
func (t *Tx) DeleteFilesByPath(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	return batched(paths, FileBatchSize, func(chunk []string) error {
		placeholders, args := inClause(chunk)
		_, err := t.tx.ExecContext(ctx, "DELETE FROM files WHERE path IN ("+placeholders+")", args...)
		if err != nil {
			return fmt.Errorf("delete files: %w", err)
		}
		return nil
	})
}

// AllFilePaths returns every tracked file path; the Phase 9 file index
// deletes these rows before inserting the fresh walk's rows.
func (s *Store) AllFilePaths(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT path FROM files")
	if err != nil {
		return nil, fmt.Errorf("query file paths: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan file path: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountFiles returns the number of rows in files.
func (s *Store) CountFiles(ctx context.Context) (int, error) {
	return countRows(ctx, s.db, "files")
}
