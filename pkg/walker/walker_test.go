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

package walker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestManifestsFindsEnabledBasenamesSorted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "go.mod", "module example.com/root\n")
	writeFile(t, root, "services/widget/go.mod", "module example.com/widget\n")
	writeFile(t, root, "services/widget/README.md", "not a manifest")
	writeFile(t, root, "node_modules/leftpad/package.json", `{"name":"leftpad"}`)

	w := New(root, DefaultExcludeDirs())
	enabled := map[string]struct{}{"go.mod": {}, "package.json": {}}

	manifests, err := w.Manifests(enabled)
	require.NoError(t, err)
	require.Len(t, manifests, 2)
	require.Equal(t, "go.mod", manifests[0].Path)
	require.Equal(t, "services/widget/go.mod", manifests[1].Path)
	require.Equal(t, "services/widget", manifests[1].Dir)
}

func TestManifestsHonorsHiddenDirectoryTraversal(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".internal/go.mod", "module example.com/hidden\n")

	w := New(root, DefaultExcludeDirs())
	manifests, err := w.Manifests(map[string]struct{}{"go.mod": {}})
	require.NoError(t, err)
	require.Len(t, manifests, 1)
}

func TestSourceFilesFiltersExtensionsAndExtractionExcludes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "widget.go", "package widget\n")
	writeFile(t, root, "widget_test.go", "package widget\n")
	writeFile(t, root, "widget.pb.go", "package widget\n")
	writeFile(t, root, "sub/inner.go", "package sub\n")
	writeFile(t, root, "vendor/dep.go", "package dep\n")

	w := New(root, DefaultExcludeDirs())
	files, err := w.SourceFiles("", map[string]struct{}{"go": {}}, DefaultSourceExcludes())
	require.NoError(t, err)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	require.Contains(t, paths, "widget.go")
	require.Contains(t, paths, "sub/inner.go")
	require.NotContains(t, paths, "widget_test.go")
	require.NotContains(t, paths, "widget.pb.go")
	require.NotContains(t, paths, "vendor/dep.go")
}

func TestFileTreeSortedByPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.txt", "bb")
	writeFile(t, root, "a.txt", "a")

	w := New(root, DefaultExcludeDirs())
	entries, err := w.FileTree()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "a.txt", entries[0].Path)
	require.Equal(t, int64(1), entries[0].Size)
	require.Equal(t, "b.txt", entries[1].Path)
	require.Equal(t, int64(2), entries[1].Size)
}

func TestFileTreePrunesExcludedDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep.txt", "x")
	writeFile(t, root, "node_modules/dep/index.js", "x")

	w := New(root, DefaultExcludeDirs())
	entries, err := w.FileTree()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "keep.txt", entries[0].Path)
}
