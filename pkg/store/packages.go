// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package store

import (
	"context"
	"fmt"
	"strings"
)

// UpsertPackages batch-inserts or replaces package rows, INSERT-OR-REPLACE
// by the unique `name` key (spec.md §4.6). Replacing wholesale matches the
// "replaced wholesale on any subsequent re-parse" lifecycle rule (spec.md §3).
func (t *Tx) UpsertPackages(ctx context.Context, pkgs []Package) error {
	return batched(pkgs, FileBatchSize, func(chunk []Package) error {
		var sb strings.Builder
		args := make([]any, 0, len(chunk)*6)
		sb.WriteString("INSERT INTO packages (name, path, kind, version, description, metadata) VALUES ")
		for i, p := range chunk {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(?, ?, ?, ?, ?, ?)")
			args = append(args, p.Name, p.Path, p.Kind, p.Version, p.Description, p.Metadata)
		}
		sb.WriteString(" ON CONFLICT(name) DO UPDATE SET path=excluded.path, kind=excluded.kind, " +
			"version=excluded.version, description=excluded.description, metadata=excluded.metadata")
		_, err := t.tx.ExecContext(ctx, sb.String(), args...)
		if err != nil {
			return fmt.Errorf("upsert packages: %w", err)
		}
		return nil
	})
}

// DeletePackagesByName deletes package rows by name.
func (t *Tx) DeletePackagesByName(ctx context.Context, names []string) error {
	return batched(names, FileBatchSize, func(chunk []string) error {
		placeholders, args := inClause(chunk)
		_, err := t.tx.ExecContext(ctx, "DELETE FROM packages WHERE name IN ("+placeholders+")", args...)
		if err != nil {
			return fmt.Errorf("delete packages: %w", err)
		}
		return nil
	})
}

// PackagesByPath returns every package row as a slice; Phase 3 keys it by
// directory path to find a stored package at the same path as a virtual one.
func (s *Store) PackagesByPath(ctx context.Context) ([]Package, error) {
	return queryPackages(ctx, s.db, "SELECT name, path, kind, version, description, metadata FROM packages")
}

// AllPackages returns every package row.
func (s *Store) AllPackages(ctx context.Context) ([]Package, error) {
	return s.PackagesByPath(ctx)
}

// PackagesAtPaths returns the packages whose `path` is among the
// given set of manifest-owning directories (used by Phase 4 to find the
// package(s) owned by a removed manifest).
func (t *Tx) PackagesAtPaths(ctx context.Context, paths []string) ([]Package, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	placeholders, args := inClause(paths)
	return queryPackages(ctx, t.tx, "SELECT name, path, kind, version, description, metadata FROM packages WHERE path IN ("+placeholders+")", args...)
}

func queryPackages(ctx context.Context, q queryRower, query string, args ...any) ([]Package, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query packages: %w", err)
	}
	defer rows.Close()

	var out []Package
	for rows.Next() {
		var p Package
		if err := rows.Scan(&p.Name, &p.Path, &p.Kind, &p.Version, &p.Description, &p.Metadata); err != nil {
			return nil, fmt.Errorf("scan package: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ApplyPackageOverride updates the description of an existing package by
// name. Returns false if no package with that name exists, so the caller
// can print the spec-mandated warning (spec.md §6) without erroring.
func (t *Tx) ApplyPackageOverride(ctx context.Context, name, description string) (bool, error) {
	res, err := t.tx.ExecContext(ctx, "UPDATE packages SET description = ? WHERE name = ?", description, name)
	if err != nil {
		return false, fmt.Errorf("apply package override: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("apply package override: %w", err)
	}
	return n > 0, nil
}

// CountPackages returns the number of rows in packages.
func (s *Store) CountPackages(ctx context.Context) (int, error) {
	return countRows(ctx, s.db, "packages")
}

func countRows(ctx context.Context, q queryRower, table string) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}
