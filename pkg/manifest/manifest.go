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

// Package manifest holds the per-ecosystem manifest parsers: each inputs a
// manifest's raw text and its repo-relative directory, and outputs a
// package record plus its dependency edges (spec.md §3, §6).
package manifest

// Package is one parsed manifest's package record.
type Package struct {
	Name        string
	Path        string // directory, relative to repo root
	Kind        string
	Version     string
	Description string
	Metadata    map[string]string
}

// DependencyEdge is one dependency relationship emitted by a parser, prior
// to is_internal resolution (done relationally by the store once every
// package is known).
type DependencyEdge struct {
	Dependency string
	Kind       string // runtime | dev | peer | build
	VersionReq string
}

// ParseResult is everything one manifest parse yields.
type ParseResult struct {
	Package Package
	Edges   []DependencyEdge
}

// WorkspaceContext carries the cross-manifest facts the Phase 1 pre-scan
// (M1, spec.md §4.4) collects before dependents are parsed.
type WorkspaceContext struct {
	// CargoWorkspaceDeps maps dep-name -> version string, from
	// [workspace.dependencies] tables of Cargo workspace roots.
	CargoWorkspaceDeps map[string]string
	// GoWorkMembers is the set of directory paths named by go.work `use`
	// directives.
	GoWorkMembers map[string]struct{}
	// GradleMembers is the set of directory paths named by settings.gradle(.kts)
	// `include` directives, translated from colon-form to directory form.
	GradleMembers map[string]struct{}
	// GradleRootNames maps a settings file's directory to its
	// rootProject.name, if declared.
	GradleRootNames map[string]string
	// MavenParents maps "groupId:artifactId" -> parent POM facts, for
	// inheriting groupId/version/dependencyManagement.
	MavenParents map[string]MavenParent
}

// MavenParent is the subset of an aggregator/parent POM's facts a child POM
// may inherit (spec.md §4.4).
type MavenParent struct {
	GroupID              string
	Version              string
	DependencyManagement map[string]string // groupId:artifactId -> version
}

// NewWorkspaceContext returns an empty, ready-to-populate context.
func NewWorkspaceContext() *WorkspaceContext {
	return &WorkspaceContext{
		CargoWorkspaceDeps: make(map[string]string),
		GoWorkMembers:      make(map[string]struct{}),
		GradleMembers:      make(map[string]struct{}),
		GradleRootNames:    make(map[string]string),
		MavenParents:       make(map[string]MavenParent),
	}
}

// Parser parses one manifest's raw contents into a ParseResult. dir is the
// manifest's repo-relative owning directory (used as a name fallback for
// ecosystems without an explicit package name field).
type Parser func(content []byte, dir string, ws *WorkspaceContext) (*ParseResult, error)

// registry maps manifest basenames to their parser.
// Workspace-only files (go.work, settings.gradle*) are intentionally
// absent — the pre-scan reads them directly and the parse phase skips them
// (spec.md §4.4).
var registry = map[string]Parser{
	"package.json":     parseNPM,
	"go.mod":           parseGo,
	"Cargo.toml":       parseCargo,
	"pyproject.toml":   parsePython,
	"pom.xml":          parseMaven,
	"build.gradle":     parseGradle,
	"build.gradle.kts": parseGradle,
	"cpanfile":         parsePerl,
	"Gemfile":          parseRuby,
}

// IsWorkspaceOnly reports whether basename is a workspace file the parse
// phase must skip (spec.md §4.4: "the downstream parse phase skips them").
func IsWorkspaceOnly(basename string) bool {
	switch basename {
	case "go.work", "settings.gradle", "settings.gradle.kts":
		return true
	default:
		return false
	}
}

// ParserFor returns the registered parser for a manifest basename, or nil
// if none is registered (including workspace-only files).
func ParserFor(basename string) Parser {
	if IsWorkspaceOnly(basename) {
		return nil
	}
	return registry[basename]
}

// Parse dispatches content to the registered parser for basename and
// annotates the resulting package's metadata with the go_workspace /
// gradle_workspace flags (spec.md §4.6) when dir is a member directory
// named by the corresponding workspace file. Returns (nil, nil) for
// workspace-only basenames and for ecosystems whose parser declines to
// produce a package (e.g. a Cargo workspace root with no [package]).
func Parse(basename string, content []byte, dir string, ws *WorkspaceContext) (*ParseResult, error) {
	parser := ParserFor(basename)
	if parser == nil {
		return nil, nil
	}
	result, err := parser(content, dir, ws)
	if err != nil || result == nil {
		return result, err
	}

	if _, ok := ws.GoWorkMembers[dir]; ok && result.Package.Kind == "go" {
		setMetadata(&result.Package, "go_workspace", "true")
	}
	if _, ok := ws.GradleMembers[dir]; ok && result.Package.Kind == "gradle" {
		setMetadata(&result.Package, "gradle_workspace", "true")
	}
	return result, nil
}

func setMetadata(pkg *Package, key, value string) {
	if pkg.Metadata == nil {
		pkg.Metadata = make(map[string]string)
	}
	pkg.Metadata[key] = value
}

// DefaultEnabledManifests is the default enabled-manifests set (spec.md
// §6), including workspace files so the differ counts them.
func DefaultEnabledManifests() []string {
	return []string{
		"package.json", "go.mod", "go.work", "Cargo.toml", "pyproject.toml",
		"pom.xml", "build.gradle", "build.gradle.kts", "settings.gradle",
		"settings.gradle.kts", "cpanfile", "Gemfile",
	}
}

// dirPackageName derives a fallback package name from a directory path for
// ecosystems whose manifest carries no explicit name (spec.md §6: "dir-path").
func dirPackageName(dir string) string {
	if dir == "" {
		return "root"
	}
	return dir
}
