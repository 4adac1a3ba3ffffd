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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, DefaultDBPath, cfg.DBPath)
	require.Equal(t, DefaultManifests, cfg.Discovery.Manifests)
	require.Equal(t, DefaultExcludeDirs, cfg.Discovery.Exclude)
}

func TestLoadOverridesDBPathAndManifests(t *testing.T) {
	dir := t.TempDir()
	content := `
db_path = "custom/index.db"

[discovery]
manifests = ["go.mod"]
exclude = ["vendor"]

[[discovery.custom]]
name = "bazel"
kind = "bazel"
requires = ["BUILD"]
max_depth = 2

[symbols]
exclude_extensions = ["proto"]

[[packages]]
name = "widgets"
description = "override"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shire.toml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, "custom/index.db", cfg.DBPath)
	require.Equal(t, []string{"go.mod"}, cfg.Discovery.Manifests)
	require.Equal(t, []string{"vendor"}, cfg.Discovery.Exclude)
	require.Len(t, cfg.Discovery.Custom, 1)
	require.Equal(t, "bazel", cfg.Discovery.Custom[0].Name)
	require.Equal(t, 2, cfg.Discovery.Custom[0].MaxDepth)
	require.Equal(t, []string{"proto"}, cfg.Symbols.ExcludeExtensions)
	require.Len(t, cfg.Packages, 1)
	require.Equal(t, "widgets", cfg.Packages[0].Name)
}

func TestResolveDBPathJoinsRelativeAgainstRoot(t *testing.T) {
	cfg := Default()
	resolved, err := cfg.ResolveDBPath("/repo")
	require.NoError(t, err)
	require.Equal(t, "/repo/.shire/index.db", resolved)
}

func TestResolveDBPathExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg := Default()
	cfg.DBPath = "~/shire-index.db"
	resolved, err := cfg.ResolveDBPath("/repo")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "shire-index.db"), resolved)
}

func TestSymbolExtensionsDropsExcluded(t *testing.T) {
	cfg := Default()
	cfg.Symbols.ExcludeExtensions = []string{"rb"}
	out := cfg.SymbolExtensions([]string{"go", "rb", "py"})
	_, hasRuby := out["rb"]
	require.False(t, hasRuby)
	require.Len(t, out, 2)
}

func TestDiscoveryRulesConvertsCustomTables(t *testing.T) {
	cfg := Default()
	cfg.Discovery.Custom = []CustomRule{
		{Name: "proto", Kind: "proto", Requires: []string{"*.proto"}, NamePrefix: "virtual:"},
	}
	rules := cfg.DiscoveryRules()
	require.Len(t, rules, 1)
	require.Equal(t, "proto", rules[0].Name)
	require.Equal(t, "virtual:", rules[0].NamePrefix)
}
