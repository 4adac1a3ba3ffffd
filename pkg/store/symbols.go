// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package store

import (
	"context"
	"fmt"
	"strings"
)

// DeleteSymbolsForPackages deletes every symbol owned by the given
// packages, ahead of re-insertion by Phase 7 or Phase 8, and when Phase 3
// or Phase 4 drops a package (spec.md §4.8: "a package's
// symbol rows are replaced wholesale on every build that re-extracts it").
func (t *Tx) DeleteSymbolsForPackages(ctx context.Context, packageNames []string) error {
	if len(packageNames) == 0 {
		return nil
	}
	return batched(packageNames, FileBatchSize, func(chunk []string) error {
		placeholders, args := inClause(chunk)
		_, err := t.tx.ExecContext(ctx, "DELETE FROM symbols WHERE package IN ("+placeholders+")", args...)
		if err != nil {
			return fmt.Errorf("delete symbols: %w", err)
		}
		return nil
	})
}

// InsertSymbols batch-inserts symbol rows at SymbolBatchSize (spec.md §9).
// Callers are expected to have sorted symbols by (file_path, line) first
// so repeated builds produce byte-identical rowid assignment.
func (t *Tx) InsertSymbols(ctx context.Context, symbols []Symbol) error {
	return batched(symbols, SymbolBatchSize, func(chunk []Symbol) error {
		var sb strings.Builder
		args := make([]any, 0, len(chunk)*10)
		sb.WriteString("INSERT INTO symbols (package, name, kind, signature, file_path, line, " +
			"visibility, parent_symbol, return_type, parameters) VALUES ")
		for i, sym := range chunk {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			visibility := sym.Visibility
			if visibility == "" {
				visibility = "public"
			}
			args = append(args, sym.Package, sym.Name, sym.Kind, sym.Signature, sym.FilePath,
				sym.Line, visibility, sym.ParentSymbol, sym.ReturnType, sym.Parameters)
		}
		_, err := t.tx.ExecContext(ctx, sb.String(), args...)
		if err != nil {
			return fmt.Errorf("insert symbols: %w", err)
		}
		return nil
	})
}

// SymbolsForPackage returns every symbol row owned by a package, ordered by
// (file_path, line) for deterministic test assertions.
func (s *Store) SymbolsForPackage(ctx context.Context, pkg string) ([]Symbol, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, package, name, kind, signature, file_path, line, visibility,
		       parent_symbol, return_type, parameters
		FROM symbols WHERE package = ?
		ORDER BY file_path, line
	`, pkg)
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()
	return scanSymbols(rows)
}

// CountSymbols returns the number of rows in symbols.
func (s *Store) CountSymbols(ctx context.Context) (int, error) {
	return countRows(ctx, s.db, "symbols")
}

func scanSymbols(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]Symbol, error) {
	var out []Symbol
	for rows.Next() {
		var sym Symbol
		if err := rows.Scan(&sym.ID, &sym.Package, &sym.Name, &sym.Kind, &sym.Signature,
			&sym.FilePath, &sym.Line, &sym.Visibility, &sym.ParentSymbol, &sym.ReturnType,
			&sym.Parameters); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}
