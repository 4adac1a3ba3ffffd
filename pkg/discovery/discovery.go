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

// Package discovery implements the custom-discovery rule engine (M2,
// spec.md §4.13): user-declared rules that recognize packages a manifest
// parser would never see — a directory tree that signals "package" purely
// by the shape of its direct children.
package discovery

import (
	"os"
	"path/filepath"
	"sort"

	zglob "github.com/mattn/go-zglob"

	"github.com/justinjdev/shire/pkg/manifest"
)

// Rule is one `[[discovery.custom]]` table (spec.md §4.13).
type Rule struct {
	Name       string
	Kind       string
	Requires   []string // glob patterns every direct child filename set must satisfy
	Paths      []string // repo-relative roots to walk; repo root if empty
	Exclude    []string // directory names to prune, in addition to the global exclude set
	MaxDepth   int      // 0 means unlimited
	NamePrefix string
	Extensions []string // overrides the universal extension set for this rule's packages
}

// Discover runs every rule over root and returns the virtual packages it
// matches. Rules are independent: the same directory may be matched by
// more than one rule, producing more than one package (spec.md §4.13).
func Discover(root string, globalExclude map[string]struct{}, rules []Rule) ([]manifest.Package, error) {
	var out []manifest.Package
	for _, rule := range rules {
		paths := rule.Paths
		if len(paths) == 0 {
			paths = []string{""}
		}
		exclude := mergeExclude(globalExclude, rule.Exclude)
		for _, p := range paths {
			pkgs, err := discoverUnderRoot(root, p, rule, exclude)
			if err != nil {
				continue // spec.md §7: missing paths entries are silently skipped
			}
			out = append(out, pkgs...)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func mergeExclude(global map[string]struct{}, extra []string) map[string]struct{} {
	merged := make(map[string]struct{}, len(global)+len(extra))
	for k := range global {
		merged[k] = struct{}{}
	}
	for _, e := range extra {
		merged[e] = struct{}{}
	}
	return merged
}

// discoverUnderRoot walks ruleRoot (repo-relative) within repoRoot, pruning
// excluded directories and anything past rule.MaxDepth measured from
// ruleRoot. A matched directory is not descended into further by the same
// rule (spec.md §4.13 "prune the subtree").
func discoverUnderRoot(repoRoot, ruleRoot string, rule Rule, exclude map[string]struct{}) ([]manifest.Package, error) {
	absRoot := filepath.Join(repoRoot, ruleRoot)
	if _, err := os.Stat(absRoot); err != nil {
		return nil, err
	}

	var out []manifest.Package
	var walk func(dir string, depth int) error
	walk = func(dir string, depth int) error {
		absDir := filepath.Join(repoRoot, dir)
		entries, err := os.ReadDir(absDir)
		if err != nil {
			return nil //nolint:nilerr // non-fatal per spec.md §7 I/O errors
		}

		if matchesRequires(entries, rule.Requires) {
			relPath := filepath.ToSlash(dir)
			out = append(out, manifest.Package{
				Name:     rule.NamePrefix + relPath,
				Path:     relPath,
				Kind:     rule.Kind,
				Metadata: map[string]string{"discovery_rule": rule.Name},
			})
			return nil // pruned: no descendant of a matched directory is evaluated
		}

		if rule.MaxDepth > 0 && depth >= rule.MaxDepth {
			return nil
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			if _, excluded := exclude[e.Name()]; excluded {
				continue
			}
			childDir := e.Name()
			if dir != "" {
				childDir = dir + "/" + e.Name()
			}
			if err := walk(childDir, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(filepath.ToSlash(ruleRoot), 0); err != nil {
		return nil, err
	}
	return out, nil
}

// matchesRequires reports whether every glob in requires matches at least
// one direct child filename.
func matchesRequires(entries []os.DirEntry, requires []string) bool {
	if len(requires) == 0 {
		return false
	}
	for _, pattern := range requires {
		matched := false
		for _, e := range entries {
			if ok, _ := zglob.Match(pattern, e.Name()); ok {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// MergeVirtual combines manifest-discovered packages with custom-discovery
// virtual packages, deduplicating by directory path with last-writer-wins
// semantics favoring custom rules (spec.md §4.13 "custom wins").
func MergeVirtual(manifestPkgs, virtualPkgs []manifest.Package) []manifest.Package {
	byPath := make(map[string]manifest.Package, len(manifestPkgs)+len(virtualPkgs))
	var order []string
	add := func(p manifest.Package) {
		if _, exists := byPath[p.Path]; !exists {
			order = append(order, p.Path)
		}
		byPath[p.Path] = p
	}
	for _, p := range manifestPkgs {
		add(p)
	}
	for _, p := range virtualPkgs {
		add(p)
	}
	out := make([]manifest.Package, 0, len(order))
	for _, path := range order {
		out = append(out, byPath[path])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// EffectiveExtensions returns rule.Extensions if set, otherwise fallback
// (the universal symbol-extraction extension set, spec.md §4.12).
func EffectiveExtensions(rule Rule, fallback []string) []string {
	if len(rule.Extensions) > 0 {
		return rule.Extensions
	}
	return fallback
}
