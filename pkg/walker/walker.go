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

// Package walker enumerates a repository's directory tree honoring the
// configured exclude set, producing the manifest-path, source-file, and
// file-tree listings the rest of the build pipeline diffs against.
package walker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	zglob "github.com/mattn/go-zglob"
)

// ManifestFile is one discovered manifest: its path relative to the repo
// root, the owning directory, the basename, and its raw contents.
type ManifestFile struct {
	Path    string // relative to repo root
	Dir     string // relative to repo root; "" for root-level
	Base    string
	Content []byte
}

// SourceFile is one discovered source file relative to the repo root.
type SourceFile struct {
	Path string
}

// TreeEntry is one file's (path, size) pair, the unit the file-tree hash is
// computed over.
type TreeEntry struct {
	Path string
	Size int64
}

// Walker enumerates a repo root honoring a configurable exclude set.
type Walker struct {
	Root    string
	Exclude map[string]struct{}
}

// New builds a Walker pruning the given directory names wherever they
// appear in the tree.
func New(root string, excludeDirs []string) *Walker {
	ex := make(map[string]struct{}, len(excludeDirs))
	for _, d := range excludeDirs {
		ex[d] = struct{}{}
	}
	return &Walker{Root: root, Exclude: ex}
}

// walk runs fn over every regular file under the root, pruning excluded
// directory names. Hidden directories (leading dot) are NOT pruned by this
// alone — only names present in the exclude set are.
func (w *Walker) walk(fn func(relPath string, d fs.DirEntry) error) error {
	return filepath.WalkDir(w.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", path, err)
		}
		if path == w.Root {
			return nil
		}
		rel, err := filepath.Rel(w.Root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if _, excluded := w.Exclude[d.Name()]; excluded {
				return filepath.SkipDir
			}
			return nil
		}
		return fn(rel, d)
	})
}

// Manifests performs the manifest walk (spec.md §4.2): yields every file
// whose basename is in the enabled-manifests set, sorted deterministically
// by relative path.
func (w *Walker) Manifests(enabled map[string]struct{}) ([]ManifestFile, error) {
	var out []ManifestFile
	err := w.walk(func(rel string, d fs.DirEntry) error {
		base := filepath.Base(rel)
		if _, ok := enabled[base]; !ok {
			return nil
		}
		content, err := os.ReadFile(filepath.Join(w.Root, rel))
		if err != nil {
			return fmt.Errorf("read manifest %s: %w", rel, err)
		}
		dir := filepath.ToSlash(filepath.Dir(rel))
		if dir == "." {
			dir = ""
		}
		out = append(out, ManifestFile{Path: rel, Dir: dir, Base: base, Content: content})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// SourceFiles performs the source walk (spec.md §4.2): yields every file
// under dir (relative to repo root) whose final extension is in
// extensions, pruning the secondary per-package source-excludes in
// addition to the global exclude set, sorted by relative path.
func (w *Walker) SourceFiles(dir string, extensions map[string]struct{}, extraExclude map[string]struct{}) ([]SourceFile, error) {
	root := filepath.Join(w.Root, dir)
	var out []SourceFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // non-fatal per spec.md §7 I/O errors
		}
		if path == root {
			return nil
		}
		if d.IsDir() {
			if _, excluded := w.Exclude[d.Name()]; excluded {
				return filepath.SkipDir
			}
			if _, excluded := extraExclude[d.Name()]; excluded {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == "" {
			return nil
		}
		if _, ok := extensions[strings.TrimPrefix(ext, ".")]; !ok {
			return nil
		}
		if isExtractionExcluded(d.Name()) {
			return nil
		}
		rel, relErr := filepath.Rel(w.Root, path)
		if relErr != nil {
			return nil
		}
		out = append(out, SourceFile{Path: filepath.ToSlash(rel)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// extractionExcludedPatterns are file-name suffix globs skipped from
// symbol extraction regardless of extension (spec.md §4.2).
var extractionExcludedPatterns = []string{
	"*.generated.*", "*.pb.go", "*_test.go", "build.rs", "*.gradle.kts",
}

func isExtractionExcluded(name string) bool {
	for _, pattern := range extractionExcludedPatterns {
		if ok, _ := zglob.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// FileTree performs the whole-tree walk underpinning the file-tree hash
// (spec.md §4.2, §4.3): every file under the exclude set, as
// (relative_path, size_bytes), sorted by path.
func (w *Walker) FileTree() ([]TreeEntry, error) {
	var out []TreeEntry
	err := w.walk(func(rel string, d fs.DirEntry) error {
		info, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr // non-fatal per spec.md §7
		}
		out = append(out, TreeEntry{Path: rel, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// DefaultSourceExcludes are the per-package source-excludes applied during
// per-package source walking, in addition to the global exclude set
// (spec.md §4.2).
func DefaultSourceExcludes() map[string]struct{} {
	names := []string{"node_modules", "target", "dist", ".build", "vendor", "test", "tests", "__tests__", "__pycache__"}
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out
}

// DefaultExcludeDirs are the default global exclude-set directory names
// (spec.md §6).
func DefaultExcludeDirs() []string {
	return []string{"node_modules", "vendor", "dist", ".build", "target", "third_party", ".shire", ".gradle", "build"}
}
