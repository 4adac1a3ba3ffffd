// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package store

import (
	"context"
	"fmt"
	"strings"
)

// Result caps for the FTS search surface the external serving layer
// consumes (spec.md §6): packages capped at 20, symbols and files at 50.
const (
	PackageSearchLimit = 20
	SymbolSearchLimit  = 50
	FileSearchLimit    = 50
)

// FTSQuote sanitizes a raw search string into an FTS5 MATCH query by
// wrapping every whitespace-separated token in escaped double quotes,
// turning it into a phrase-AND query. This keeps user input safe against
// FTS5's own query-syntax operators (AND/OR/NOT/NEAR, column filters,
// prefix stars) — a token like `OR` or `file:*` is matched literally
// instead of being parsed as an operator.
func FTSQuote(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return `""`
	}
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " ")
}

// SearchPackages runs an FTS5 match against packages_fts and returns the
// matching package rows ranked by bm25, capped at PackageSearchLimit.
func (s *Store) SearchPackages(ctx context.Context, query string) ([]Package, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.name, p.path, p.kind, p.version, p.description, p.metadata
		FROM packages_fts
		JOIN packages p ON p.rowid = packages_fts.rowid
		WHERE packages_fts MATCH ?
		ORDER BY bm25(packages_fts)
		LIMIT ?
	`, FTSQuote(query), PackageSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("search packages: %w", err)
	}
	defer rows.Close()

	var out []Package
	for rows.Next() {
		var p Package
		if err := rows.Scan(&p.Name, &p.Path, &p.Kind, &p.Version, &p.Description, &p.Metadata); err != nil {
			return nil, fmt.Errorf("scan package search result: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SearchSymbols runs an FTS5 match against symbols_fts and returns the
// matching symbol rows ranked by bm25, capped at SymbolSearchLimit.
func (s *Store) SearchSymbols(ctx context.Context, query string) ([]Symbol, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sym.id, sym.package, sym.name, sym.kind, sym.signature, sym.file_path, sym.line,
		       sym.visibility, sym.parent_symbol, sym.return_type, sym.parameters
		FROM symbols_fts
		JOIN symbols sym ON sym.rowid = symbols_fts.rowid
		WHERE symbols_fts MATCH ?
		ORDER BY bm25(symbols_fts)
		LIMIT ?
	`, FTSQuote(query), SymbolSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("search symbols: %w", err)
	}
	defer rows.Close()
	return scanSymbols(rows)
}

// SearchFiles runs an FTS5 match against files_fts and returns the matching
// file rows ranked by bm25, capped at FileSearchLimit.
func (s *Store) SearchFiles(ctx context.Context, query string) ([]FileRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.path, f.package, f.extension, f.size
		FROM files_fts
		JOIN files f ON f.rowid = files_fts.rowid
		WHERE files_fts MATCH ?
		ORDER BY bm25(files_fts)
		LIMIT ?
	`, FTSQuote(query), FileSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("search files: %w", err)
	}
	defer rows.Close()

	var out []FileRow
	for rows.Next() {
		var f FileRow
		if err := rows.Scan(&f.Path, &f.Package, &f.Extension, &f.Size); err != nil {
			return nil, fmt.Errorf("scan file search result: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
