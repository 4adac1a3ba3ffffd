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

// Package hashing computes the content digests the three change-detection
// layers (manifest hashes, source hashes, file-tree hash) compare against
// stored state.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// HashBytes returns the hex-encoded sha256 digest of content.
func HashBytes(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// HashFile reads path and returns the hex-encoded sha256 digest of its
// contents (spec.md §4.3 "hash_file").
func HashFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("hash file %s: %w", path, err)
	}
	return HashBytes(content), nil
}

// AggregateSourceHash hashes each file individually, concatenates the hex
// digests in path-sorted order, and hashes the concatenation (spec.md §4.3
// "aggregate_source_hash"). files need not be pre-sorted; relPath is used
// only to establish the sort order, absPath to read content.
func AggregateSourceHash(files map[string]string) (string, error) {
	relPaths := make([]string, 0, len(files))
	for rel := range files {
		relPaths = append(relPaths, rel)
	}
	sort.Strings(relPaths)

	var concatenated []byte
	for _, rel := range relPaths {
		digest, err := HashFile(files[rel])
		if err != nil {
			return "", err
		}
		concatenated = append(concatenated, []byte(digest)...)
	}
	return HashBytes(concatenated), nil
}

// TreeEntry is a (relative path, size) pair, the unit the file-tree hash is
// computed over.
type TreeEntry struct {
	Path string
	Size int64
}

// FileTreeHash concatenates entries in path-sorted order and hashes the
// concatenation (spec.md §4.3 "file_tree_hash"). Each entry contributes
// "path:size" with no separator between entries. A sorted copy is hashed;
// the caller's slice is left in its original order.
func FileTreeHash(entries []TreeEntry) string {
	sorted := make([]TreeEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	var concatenated []byte
	for _, e := range sorted {
		concatenated = append(concatenated, []byte(fmt.Sprintf("%s:%d", e.Path, e.Size))...)
	}
	return HashBytes(concatenated)
}

// HasNewerSourceFiles walks the same file set the aggregate source hash
// would and returns true on the first file whose mtime strictly exceeds
// since. It returns true conservatively on any stat error, and false only
// if every file's mtime is at or before since (spec.md §4.3).
func HasNewerSourceFiles(absPaths []string, since time.Time) bool {
	for _, p := range absPaths {
		info, err := os.Stat(p)
		if err != nil {
			return true
		}
		if info.ModTime().After(since) {
			return true
		}
	}
	return false
}

// RelPathKey builds the normalized map key AggregateSourceHash's caller
// should use: forward-slashed, relative to repo root.
func RelPathKey(path string) string {
	return filepath.ToSlash(path)
}
