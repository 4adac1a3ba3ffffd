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

package differ

// FileTreeUnchanged reports whether the current file-tree hash matches the
// stored metadata value (spec.md §4.14 Phase 9): a match means the file
// table is left untouched entirely.
func FileTreeUnchanged(current, stored string, hasStored bool) bool {
	return hasStored && current == stored
}

// OwningPackage resolves a file's owning package by longest-path-prefix
// match against the current package directory set (spec.md §4.14): the
// empty path is a valid match for root-level packages, so when packageDirs
// contains "" every file has an owner. Returns ("", false) only if no
// package directory is a prefix of filePath.
func OwningPackage(filePath string, packageDirs []string) (string, bool) {
	best := ""
	found := false
	for _, dir := range packageDirs {
		if !isPathPrefix(dir, filePath) {
			continue
		}
		if !found || len(dir) > len(best) {
			best, found = dir, true
		}
	}
	return best, found
}

// isPathPrefix reports whether dir is a directory-boundary prefix of
// filePath. The empty dir always matches (root package).
func isPathPrefix(dir, filePath string) bool {
	if dir == "" {
		return true
	}
	if len(filePath) < len(dir) {
		return false
	}
	if filePath[:len(dir)] != dir {
		return false
	}
	return len(filePath) == len(dir) || filePath[len(dir)] == '/'
}
