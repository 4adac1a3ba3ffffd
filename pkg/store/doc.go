// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store is shire's embedded relational database.
//
// It wraps a single-writer SQLite database (via the pure-Go modernc.org/sqlite
// driver — no cgo required) that holds the full package graph and symbol
// index for one repository. The schema is declared idempotently at Open
// (CREATE ... IF NOT EXISTS) and three FTS5 virtual tables are kept in sync
// with their base tables via triggers, so full-text search always reflects
// committed state.
//
// # Quick start
//
//	st, err := store.Open(".shire/index.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer st.Close()
//
//	tx, err := st.Begin(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := tx.UpsertPackages(ctx, []store.Package{{Name: "auth", Path: "services/auth", Kind: "npm"}}); err != nil {
//	    tx.Rollback()
//	    log.Fatal(err)
//	}
//	tx.Commit()
//
// # Transaction discipline
//
// Each build phase opens exactly one *store.Tx, performs its deletes and
// batched inserts, and commits or rolls back as a unit — see pkg/pipeline.
// Store itself never opens an implicit transaction around a single
// statement; callers are always explicit about transaction boundaries.
//
// # Full-text search
//
// Query tokens must be sanitized before being embedded in an FTS5 MATCH
// expression; FTSQuote does this by wrapping the token in escaped double
// quotes, which also disables FTS5's boolean/prefix query operators,
// keeping arbitrary user input safe to embed directly.
package store
