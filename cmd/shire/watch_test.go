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

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"
)

func TestWatchStateRoundTrip(t *testing.T) {
	root := t.TempDir()

	_, ok := readWatchState(root)
	require.False(t, ok)

	want := watchState{PID: 1234, InstanceID: "abc-123", Root: root, StartedAt: "2026-01-01T00:00:00Z"}
	require.NoError(t, writeWatchState(root, want))

	got, ok := readWatchState(root)
	require.True(t, ok)
	require.Equal(t, want, got)

	require.NoError(t, os.Remove(watchStateFile(root)))
	_, ok = readWatchState(root)
	require.False(t, ok)
}

func TestProcessAliveForCurrentProcess(t *testing.T) {
	require.True(t, processAlive(os.Getpid()))
}

func TestAddDirsRecursiveSkipsExcluded(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules", "dep"), 0o755))

	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer watcher.Close()

	exclude := map[string]struct{}{"node_modules": {}}
	require.NoError(t, addDirsRecursive(watcher, root, exclude))

	watched := watcher.WatchList()
	require.Contains(t, watched, root)
	require.Contains(t, watched, filepath.Join(root, "src"))
	require.NotContains(t, watched, filepath.Join(root, "node_modules"))
	require.NotContains(t, watched, filepath.Join(root, "node_modules", "dep"))
}
