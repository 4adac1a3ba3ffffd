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

package hashing

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHashFileDeterministic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	h1, err := HashFile(path)
	require.NoError(t, err)
	h2, err := HashFile(path)
	require.NoError(t, err)
	require.Equal(t, h1, h2)
	require.Len(t, h1, 64)
}

func TestAggregateSourceHashOrderIndependentOfMapIteration(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.go")
	pathB := filepath.Join(dir, "b.go")
	require.NoError(t, os.WriteFile(pathA, []byte("package a"), 0o644))
	require.NoError(t, os.WriteFile(pathB, []byte("package b"), 0o644))

	h1, err := AggregateSourceHash(map[string]string{"a.go": pathA, "b.go": pathB})
	require.NoError(t, err)
	h2, err := AggregateSourceHash(map[string]string{"b.go": pathB, "a.go": pathA})
	require.NoError(t, err)
	require.Equal(t, h1, h2)
}

func TestAggregateSourceHashChangesWithContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("package a"), 0o644))

	h1, err := AggregateSourceHash(map[string]string{"a.go": path})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("package a // changed"), 0o644))
	h2, err := AggregateSourceHash(map[string]string{"a.go": path})
	require.NoError(t, err)

	require.NotEqual(t, h1, h2)
}

func TestFileTreeHashOrderInsensitive(t *testing.T) {
	a := []TreeEntry{{Path: "a.txt", Size: 1}, {Path: "b.txt", Size: 2}}
	b := []TreeEntry{{Path: "b.txt", Size: 2}, {Path: "a.txt", Size: 1}}
	require.Equal(t, FileTreeHash(a), FileTreeHash(b))
}

func TestFileTreeHashChangesWithSize(t *testing.T) {
	a := []TreeEntry{{Path: "a.txt", Size: 1}}
	b := []TreeEntry{{Path: "a.txt", Size: 2}}
	require.NotEqual(t, FileTreeHash(a), FileTreeHash(b))
}

func TestHasNewerSourceFilesDetectsNewerMtime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("package a"), 0o644))

	since := time.Now().Add(-time.Hour)
	require.True(t, HasNewerSourceFiles([]string{path}, since))

	future := time.Now().Add(time.Hour)
	require.False(t, HasNewerSourceFiles([]string{path}, future))
}

func TestHasNewerSourceFilesConservativeOnStatError(t *testing.T) {
	require.True(t, HasNewerSourceFiles([]string{"/does/not/exist"}, time.Now()))
}
