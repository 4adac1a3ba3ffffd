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

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/justinjdev/shire/pkg/hashing"
)

func TestDiffHashesPartitions(t *testing.T) {
	current := map[string]string{
		"a/go.mod": "h1",
		"b/go.mod": "h2changed",
		"d/go.mod": "h4",
	}
	stored := map[string]string{
		"a/go.mod": "h1",
		"b/go.mod": "h2",
		"c/go.mod": "h3",
	}

	diff := DiffHashes(current, stored)
	require.Equal(t, []string{"d/go.mod"}, diff.New)
	require.Equal(t, []string{"b/go.mod"}, diff.Changed)
	require.Equal(t, []string{"c/go.mod"}, diff.Removed)
	require.Equal(t, []string{"a/go.mod"}, diff.Unchanged)
	require.True(t, diff.HasChanges())
}

func TestDiffHashesOrderIndependent(t *testing.T) {
	current := map[string]string{"x": "1", "y": "2"}
	stored := map[string]string{"y": "2", "x": "1"}
	diff := DiffHashes(current, stored)
	require.False(t, diff.HasChanges())
	require.ElementsMatch(t, []string{"x", "y"}, diff.Unchanged)
}

func TestToReparseCombinesNewAndChanged(t *testing.T) {
	diff := HashDiff{New: []string{"b"}, Changed: []string{"a"}}
	require.Equal(t, []string{"a", "b"}, diff.ToReparse())
}

func TestClassifySourceMtimeShortcut(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("package a"), 0o644))

	future := time.Now().Add(time.Hour)
	verdict, err := ClassifySource([]string{path}, map[string]string{"a.go": path}, "anything", future, true)
	require.NoError(t, err)
	require.Equal(t, ActionSkip, verdict.Action)
}

func TestClassifySourceTouchWhenHashUnchanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("package a"), 0o644))

	rel := map[string]string{"a.go": path}
	hash, err := hashing.AggregateSourceHash(rel)
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)
	verdict, err := ClassifySource([]string{path}, rel, hash, past, true)
	require.NoError(t, err)
	require.Equal(t, ActionTouch, verdict.Action)
}

func TestClassifySourceReextractWhenHashChanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("package a"), 0o644))

	past := time.Now().Add(-time.Hour)
	verdict, err := ClassifySource([]string{path}, map[string]string{"a.go": path}, "stale-hash", past, true)
	require.NoError(t, err)
	require.Equal(t, ActionReextract, verdict.Action)
	require.NotEmpty(t, verdict.NewHash)
}

func TestClassifySourceNoPriorRowAlwaysExtracts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("package a"), 0o644))

	verdict, err := ClassifySource([]string{path}, map[string]string{"a.go": path}, "", time.Time{}, false)
	require.NoError(t, err)
	require.Equal(t, ActionReextract, verdict.Action)
}

func TestFileTreeUnchanged(t *testing.T) {
	require.True(t, FileTreeUnchanged("abc", "abc", true))
	require.False(t, FileTreeUnchanged("abc", "abc", false))
	require.False(t, FileTreeUnchanged("abc", "def", true))
}

func TestOwningPackageLongestPrefixMatch(t *testing.T) {
	dirs := []string{"", "cmd", "cmd/shire"}
	pkg, ok := OwningPackage("cmd/shire/main.go", dirs)
	require.True(t, ok)
	require.Equal(t, "cmd/shire", pkg)

	pkg, ok = OwningPackage("README.md", dirs)
	require.True(t, ok)
	require.Equal(t, "", pkg)
}

func TestOwningPackageRejectsPartialSegmentMatch(t *testing.T) {
	dirs := []string{"cmd"}
	_, ok := OwningPackage("cmdline/main.go", dirs)
	require.False(t, ok)
}
