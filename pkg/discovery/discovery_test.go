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

package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/justinjdev/shire/pkg/manifest"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestDiscoverMatchesDirectChildrenAndPrunesSubtree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "proto", "svc", "svc.proto"))
	writeFile(t, filepath.Join(root, "proto", "svc", "BUILD"))
	writeFile(t, filepath.Join(root, "proto", "svc", "nested", "svc.proto"))
	writeFile(t, filepath.Join(root, "proto", "svc", "nested", "BUILD"))

	rule := Rule{
		Name:     "proto-service",
		Kind:     "proto",
		Requires: []string{"*.proto", "BUILD"},
	}

	pkgs, err := Discover(root, nil, []Rule{rule})
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	require.Equal(t, "proto/svc", pkgs[0].Path)
	require.Equal(t, "proto", pkgs[0].Kind)
	require.Equal(t, "proto-service", pkgs[0].Metadata["discovery_rule"])
}

func TestDiscoverHonorsExcludeAndGlobalExclude(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "vendor", "pkg", "BUILD"))
	writeFile(t, filepath.Join(root, "skip", "pkg", "BUILD"))
	writeFile(t, filepath.Join(root, "keep", "pkg", "BUILD"))

	rule := Rule{Name: "build-files", Kind: "bazel", Requires: []string{"BUILD"}, Exclude: []string{"skip"}}
	global := map[string]struct{}{"vendor": {}}

	pkgs, err := Discover(root, global, []Rule{rule})
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	require.Equal(t, "keep/pkg", pkgs[0].Path)
}

func TestDiscoverRespectsMaxDepth(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "b", "c", "BUILD"))

	rule := Rule{Name: "shallow", Kind: "bazel", Requires: []string{"BUILD"}, MaxDepth: 1}
	pkgs, err := Discover(root, nil, []Rule{rule})
	require.NoError(t, err)
	require.Empty(t, pkgs)
}

func TestDiscoverMissingPathsEntrySilentlySkipped(t *testing.T) {
	root := t.TempDir()
	rule := Rule{Name: "missing", Kind: "bazel", Requires: []string{"BUILD"}, Paths: []string{"does-not-exist"}}
	pkgs, err := Discover(root, nil, []Rule{rule})
	require.NoError(t, err)
	require.Empty(t, pkgs)
}

func TestDiscoverMultipleRulesCanMatchSameDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "svc", "BUILD"))
	writeFile(t, filepath.Join(root, "svc", "Dockerfile"))

	rules := []Rule{
		{Name: "bazel", Kind: "bazel", Requires: []string{"BUILD"}},
		{Name: "docker", Kind: "docker", Requires: []string{"Dockerfile"}},
	}
	pkgs, err := Discover(root, nil, rules)
	require.NoError(t, err)
	require.Len(t, pkgs, 2)
}

func TestDiscoverNamePrefix(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "svc", "BUILD"))

	rule := Rule{Name: "bazel", Kind: "bazel", Requires: []string{"BUILD"}, NamePrefix: "virtual:"}
	pkgs, err := Discover(root, nil, []Rule{rule})
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	require.Equal(t, "virtual:svc", pkgs[0].Name)
}

func TestMergeVirtualCustomWinsOverManifest(t *testing.T) {
	manifestPkgs := []manifest.Package{{Name: "svc-npm", Path: "svc", Kind: "npm"}}
	virtualPkgs := []manifest.Package{{Name: "svc-bazel", Path: "svc", Kind: "bazel"}}

	merged := MergeVirtual(manifestPkgs, virtualPkgs)
	require.Len(t, merged, 1)
	require.Equal(t, "bazel", merged[0].Kind)
}

func TestMergeVirtualKeepsDistinctPaths(t *testing.T) {
	manifestPkgs := []manifest.Package{{Name: "a", Path: "a"}}
	virtualPkgs := []manifest.Package{{Name: "b", Path: "b"}}

	merged := MergeVirtual(manifestPkgs, virtualPkgs)
	require.Len(t, merged, 2)
}

func TestEffectiveExtensionsFallback(t *testing.T) {
	require.Equal(t, []string{"go"}, EffectiveExtensions(Rule{}, []string{"go"}))
	require.Equal(t, []string{"proto"}, EffectiveExtensions(Rule{Extensions: []string{"proto"}}, []string{"go"}))
}
