// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package store

import (
	"context"
	"fmt"
	"strings"
)

// DeleteDependencyEdgesForPackages deletes every edge owned by the given
// packages. Called before re-inserting a re-parsed package's edges
// (spec.md §3 "edges are deleted en bloc and reinserted") and during
// Phase 4 removal.
func (t *Tx) DeleteDependencyEdgesForPackages(ctx context.Context, packageNames []string) error {
	if len(packageNames) == 0 {
		return nil
	}
	return batched(packageNames, FileBatchSize, func(chunk []string) error {
		placeholders, args := inClause(chunk)
		_, err := t.tx.ExecContext(ctx, "DELETE FROM dependency_edges WHERE package IN ("+placeholders+")", args...)
		if err != nil {
			return fmt.Errorf("delete dependency edges: %w", err)
		}
		return nil
	})
}

// InsertDependencyEdges batch-inserts edges. is_internal is left at
// whatever the caller computes (normally false/0 — Phase 5 recomputes it
// globally right after).
func (t *Tx) InsertDependencyEdges(ctx context.Context, edges []DependencyEdge) error {
	return batched(edges, FileBatchSize, func(chunk []DependencyEdge) error {
		var sb strings.Builder
		args := make([]any, 0, len(chunk)*5)
		sb.WriteString("INSERT INTO dependency_edges (package, dependency, kind, version_req, is_internal) VALUES ")
		for i, e := range chunk {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(?, ?, ?, ?, ?)")
			internal := 0
			if e.IsInternal {
				internal = 1
			}
			args = append(args, e.Package, e.Dependency, e.Kind, e.VersionReq, internal)
		}
		sb.WriteString(" ON CONFLICT(package, dependency, kind) DO UPDATE SET " +
			"version_req=excluded.version_req, is_internal=excluded.is_internal")
		_, err := t.tx.ExecContext(ctx, sb.String(), args...)
		if err != nil {
			return fmt.Errorf("insert dependency edges: %w", err)
		}
		return nil
	})
}

// RecomputeInternalEdges restores the is_internal invariant (spec.md §3,
// §4.8) in one relational update: an edge is internal if its dependency
// string matches some package's name, or matches the description of some
// go-kind package (Go module-path aliasing).
func (t *Tx) RecomputeInternalEdges(ctx context.Context) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE dependency_edges
		SET is_internal = CASE WHEN EXISTS (
			SELECT 1 FROM packages p WHERE p.name = dependency_edges.dependency
		) OR EXISTS (
			SELECT 1 FROM packages p WHERE p.kind = 'go' AND p.description = dependency_edges.dependency
		) THEN 1 ELSE 0 END
	`)
	if err != nil {
		return fmt.Errorf("recompute internal edges: %w", err)
	}
	return nil
}

// DependencyEdgesForPackage returns every edge owned by a package.
func (s *Store) DependencyEdgesForPackage(ctx context.Context, pkg string) ([]DependencyEdge, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT package, dependency, kind, version_req, is_internal FROM dependency_edges WHERE package = ?", pkg)
	if err != nil {
		return nil, fmt.Errorf("query dependency edges: %w", err)
	}
	defer rows.Close()

	var out []DependencyEdge
	for rows.Next() {
		var e DependencyEdge
		var internal int
		if err := rows.Scan(&e.Package, &e.Dependency, &e.Kind, &e.VersionReq, &internal); err != nil {
			return nil, fmt.Errorf("scan dependency edge: %w", err)
		}
		e.IsInternal = internal != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountInternalEdgesForPackage returns the number of internal edges owned
// by a package — used by tests exercising spec.md §8 scenario 3.
func (s *Store) CountInternalEdgesForPackage(ctx context.Context, pkg string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM dependency_edges WHERE package = ? AND is_internal = 1", pkg).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count internal edges: %w", err)
	}
	return n, nil
}
