// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package store

import (
	"context"
	"fmt"
)

// DeleteMetadata removes a single process_metadata key. Absent keys are not
// an error.
func (t *Tx) DeleteMetadata(ctx context.Context, key string) error {
	_, err := t.tx.ExecContext(ctx, "DELETE FROM process_metadata WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("delete metadata %q: %w", key, err)
	}
	return nil
}

// ClearForForce empties the manifest-hash table, the source-hash table, and
// the symbols table, and removes the file-tree-hash metadata key, all inside
// the caller's transaction (spec.md §4.1: "before phase 1 ... cleared in a
// single transaction"). This forces every downstream diff into the
// new/changed branch on the next build. Package, dependency-edge, and file
// rows are left untouched — a forced rebuild re-derives them from the same
// manifests and source trees, not from a blank slate.
func (t *Tx) ClearForForce(ctx context.Context) error {
	for _, stmt := range []string{
		"DELETE FROM manifest_hashes",
		"DELETE FROM source_hashes",
		"DELETE FROM symbols",
	} {
		if _, err := t.tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear for force (%s): %w", stmt, err)
		}
	}
	return t.DeleteMetadata(ctx, MetaKeyFileTreeHash)
}
