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

// Package config loads shire.toml and assembles the defaults the build
// pipeline runs with when no configuration file is present (spec.md §6).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	homedir "github.com/mitchellh/go-homedir"

	"github.com/justinjdev/shire/pkg/discovery"
)

// DefaultManifests is the default enabled-manifests set (spec.md §6).
var DefaultManifests = []string{
	"package.json", "go.mod", "go.work", "Cargo.toml", "pyproject.toml",
	"pom.xml", "build.gradle", "build.gradle.kts", "settings.gradle",
	"settings.gradle.kts", "cpanfile", "Gemfile",
}

// DefaultExcludeDirs is the default global exclude-set directory names
// (spec.md §6).
var DefaultExcludeDirs = []string{
	"node_modules", "vendor", "dist", ".build", "target", "third_party",
	".shire", ".gradle", "build",
}

// DefaultDBPath is the default database location, relative to repo root.
const DefaultDBPath = ".shire/index.db"

// CustomRule is the TOML shape of one `[[discovery.custom]]` table
// (spec.md §4.13).
type CustomRule struct {
	Name       string   `toml:"name"`
	Kind       string   `toml:"kind"`
	Requires   []string `toml:"requires"`
	Paths      []string `toml:"paths"`
	Exclude    []string `toml:"exclude"`
	MaxDepth   int      `toml:"max_depth"`
	NamePrefix string   `toml:"name_prefix"`
	Extensions []string `toml:"extensions"`
}

// DiscoveryConfig is the `[discovery]` table.
type DiscoveryConfig struct {
	Manifests []string     `toml:"manifests"`
	Exclude   []string     `toml:"exclude"`
	Custom    []CustomRule `toml:"custom"`
}

// SymbolsConfig is the `[symbols]` table.
type SymbolsConfig struct {
	ExcludeExtensions []string `toml:"exclude_extensions"`
}

// PackageOverride is one `[[packages]]` entry (spec.md §6: "post-index
// overrides").
type PackageOverride struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
}

// Config is the parsed and defaulted shire.toml (spec.md §6). Every field
// is optional in the file; zero values are filled in by Default.
type Config struct {
	DBPath    string            `toml:"db_path"`
	Discovery DiscoveryConfig   `toml:"discovery"`
	Symbols   SymbolsConfig     `toml:"symbols"`
	Packages  []PackageOverride `toml:"packages"`
}

// Default returns a Config populated entirely with spec.md §6 defaults, as
// if shire.toml were absent.
func Default() *Config {
	return &Config{
		DBPath: DefaultDBPath,
		Discovery: DiscoveryConfig{
			Manifests: append([]string(nil), DefaultManifests...),
			Exclude:   append([]string(nil), DefaultExcludeDirs...),
		},
	}
}

// Load reads shire.toml from repoRoot if present, merging it over
// Default(). A missing file is not an error — it is equivalent to an empty
// file, per spec.md §6 "all fields optional".
func Load(repoRoot string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(repoRoot, "shire.toml")
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read shire.toml: %w", err)
	}

	var fromFile Config
	if _, err := toml.Decode(string(content), &fromFile); err != nil {
		return nil, fmt.Errorf("parse shire.toml: %w", err)
	}

	if fromFile.DBPath != "" {
		cfg.DBPath = fromFile.DBPath
	}
	if len(fromFile.Discovery.Manifests) > 0 {
		cfg.Discovery.Manifests = fromFile.Discovery.Manifests
	}
	if len(fromFile.Discovery.Exclude) > 0 {
		cfg.Discovery.Exclude = fromFile.Discovery.Exclude
	}
	cfg.Discovery.Custom = fromFile.Discovery.Custom
	cfg.Symbols.ExcludeExtensions = fromFile.Symbols.ExcludeExtensions
	cfg.Packages = fromFile.Packages

	return cfg, nil
}

// ResolveDBPath expands a leading `~` in cfg.DBPath and joins a relative
// path against repoRoot, producing the absolute on-disk database location.
func (c *Config) ResolveDBPath(repoRoot string) (string, error) {
	path := c.DBPath
	if path == "" {
		path = DefaultDBPath
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("expand db_path %q: %w", path, err)
	}
	if filepath.IsAbs(expanded) {
		return expanded, nil
	}
	return filepath.Join(repoRoot, expanded), nil
}

// ManifestSet returns the enabled-manifests basenames as a lookup set, for
// pkg/walker.Manifests.
func (c *Config) ManifestSet() map[string]struct{} {
	out := make(map[string]struct{}, len(c.Discovery.Manifests))
	for _, m := range c.Discovery.Manifests {
		out[m] = struct{}{}
	}
	return out
}

// ExcludeDirSet returns the global exclude directory names as the slice
// pkg/walker.New expects.
func (c *Config) ExcludeDirSet() []string {
	return c.Discovery.Exclude
}

// SymbolExtensions returns universal minus excluded extensions (spec.md
// §4.12), from a caller-supplied universal set (pkg/symbols.DefaultExtensions).
func (c *Config) SymbolExtensions(universal []string) map[string]struct{} {
	excluded := make(map[string]struct{}, len(c.Symbols.ExcludeExtensions))
	for _, e := range c.Symbols.ExcludeExtensions {
		excluded[e] = struct{}{}
	}
	out := make(map[string]struct{}, len(universal))
	for _, ext := range universal {
		if _, skip := excluded[ext]; skip {
			continue
		}
		out[ext] = struct{}{}
	}
	return out
}

// DiscoveryRules converts the configured `[[discovery.custom]]` tables into
// pkg/discovery.Rule values.
func (c *Config) DiscoveryRules() []discovery.Rule {
	rules := make([]discovery.Rule, 0, len(c.Discovery.Custom))
	for _, r := range c.Discovery.Custom {
		rules = append(rules, discovery.Rule{
			Name:       r.Name,
			Kind:       r.Kind,
			Requires:   r.Requires,
			Paths:      r.Paths,
			Exclude:    r.Exclude,
			MaxDepth:   r.MaxDepth,
			NamePrefix: r.NamePrefix,
			Extensions: r.Extensions,
		})
	}
	return rules
}
