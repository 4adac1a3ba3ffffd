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

package pipeline

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/justinjdev/shire/pkg/differ"
	"github.com/justinjdev/shire/pkg/hashing"
	"github.com/justinjdev/shire/pkg/store"
)

// phase9FileIndex rebuilds the whole-repo file table when the file-tree
// hash has moved (spec.md §4.14), and is a no-op otherwise — the common
// case on a repeat build where nothing on disk changed at all.
func (o *Orchestrator) phase9FileIndex(ctx context.Context, state *buildState) (rebuilt bool, count int, err error) {
	treeEntries, err := state.walk.w.FileTree()
	if err != nil {
		return false, 0, err
	}
	hashEntries := make([]hashing.TreeEntry, len(treeEntries))
	for i, e := range treeEntries {
		hashEntries[i] = hashing.TreeEntry{Path: e.Path, Size: e.Size}
	}
	newHash := hashing.FileTreeHash(hashEntries)

	storedHash, hasStored, err := o.store.Metadata(ctx, store.MetaKeyFileTreeHash)
	if err != nil {
		return false, 0, err
	}
	if differ.FileTreeUnchanged(newHash, storedHash, hasStored) {
		n, err := o.store.CountFiles(ctx)
		return false, n, err
	}

	packageDirs := make([]string, 0, len(state.allPackages))
	for _, p := range state.allPackages {
		packageDirs = append(packageDirs, p.Path)
	}

	rows := make([]store.FileRow, 0, len(treeEntries))
	for _, e := range treeEntries {
		row := store.FileRow{
			Path:      e.Path,
			Extension: strings.TrimPrefix(strings.ToLower(filepath.Ext(e.Path)), "."),
			Size:      e.Size,
		}
		if owner, ok := differ.OwningPackage(e.Path, packageDirs); ok {
			owner := owner
			row.Package = &owner
		}
		rows = append(rows, row)
	}

	oldPaths, err := o.store.AllFilePaths(ctx)
	if err != nil {
		return false, 0, err
	}

	tx, err := o.store.Begin(ctx)
	if err != nil {
		return false, 0, err
	}
	defer tx.Rollback()

	if len(oldPaths) > 0 {
		if err := tx.DeleteFilesByPath(ctx, oldPaths); err != nil {
			return false, 0, err
		}
	}
	if err := tx.UpsertFiles(ctx, rows); err != nil {
		return false, 0, err
	}
	if err := tx.SetMetadata(ctx, store.MetaKeyFileTreeHash, newHash); err != nil {
		return false, 0, err
	}
	if err := tx.Commit(); err != nil {
		return false, 0, err
	}

	return true, len(rows), nil
}
