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

// Package differ holds the three change-detection checks, each driven by
// content digests rather than a git diff: the four-way
// new/changed/removed/unchanged partition of manifest hashes (spec.md
// §4.5), the per-package skip/touch/reextract source verdict
// (ClassifySource), and the file-tree hash equality check
// (FileTreeUnchanged).
package differ

import "sort"

// HashDiff is the result of comparing two {path -> hash} maps.
type HashDiff struct {
	New       []string
	Changed   []string
	Removed   []string
	Unchanged []string
}

// DiffHashes partitions current against stored (spec.md §4.5). The result
// depends only on the two maps' contents, never on iteration order: every
// bucket is sorted before return.
func DiffHashes(current, stored map[string]string) HashDiff {
	var diff HashDiff

	for path, hash := range current {
		storedHash, existed := stored[path]
		switch {
		case !existed:
			diff.New = append(diff.New, path)
		case storedHash != hash:
			diff.Changed = append(diff.Changed, path)
		default:
			diff.Unchanged = append(diff.Unchanged, path)
		}
	}
	for path := range stored {
		if _, stillPresent := current[path]; !stillPresent {
			diff.Removed = append(diff.Removed, path)
		}
	}

	sort.Strings(diff.New)
	sort.Strings(diff.Changed)
	sort.Strings(diff.Removed)
	sort.Strings(diff.Unchanged)
	return diff
}

// HasChanges reports whether any path was added, changed, or removed.
func (d HashDiff) HasChanges() bool {
	return len(d.New) > 0 || len(d.Changed) > 0 || len(d.Removed) > 0
}

// Stats summarizes a HashDiff for build-summary reporting.
type Stats struct {
	NewCount       int
	ChangedCount   int
	RemovedCount   int
	UnchangedCount int
}

// GetStats computes summary counts for the diff.
func (d HashDiff) GetStats() Stats {
	return Stats{
		NewCount:       len(d.New),
		ChangedCount:   len(d.Changed),
		RemovedCount:   len(d.Removed),
		UnchangedCount: len(d.Unchanged),
	}
}

// ToReparse returns New ∪ Changed — the set Phase 3 dispatches to parsers.
func (d HashDiff) ToReparse() []string {
	combined := make([]string, 0, len(d.New)+len(d.Changed))
	combined = append(combined, d.New...)
	combined = append(combined, d.Changed...)
	sort.Strings(combined)
	return combined
}
