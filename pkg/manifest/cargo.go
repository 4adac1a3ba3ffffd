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

package manifest

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// cargoDependency covers both the short `name = "1.0"` form and the long
// inline-table form `name = { version = "1.0", workspace = true, ... }`.
type cargoDependency struct {
	version   string
	workspace bool
}

func (d *cargoDependency) UnmarshalTOML(v interface{}) error {
	switch t := v.(type) {
	case string:
		d.version = t
	case map[string]interface{}:
		if ver, ok := t["version"].(string); ok {
			d.version = ver
		}
		if ws, ok := t["workspace"].(bool); ok {
			d.workspace = ws
		}
	}
	return nil
}

type cargoManifest struct {
	Package *struct {
		Name        string `toml:"name"`
		Version     string `toml:"version"`
		Description string `toml:"description"`
	} `toml:"package"`
	Workspace *struct {
		Members      []string                   `toml:"members"`
		Dependencies map[string]cargoDependency `toml:"dependencies"`
	} `toml:"workspace"`
	Dependencies      map[string]cargoDependency `toml:"dependencies"`
	DevDependencies   map[string]cargoDependency `toml:"dev-dependencies"`
	BuildDependencies map[string]cargoDependency `toml:"build-dependencies"`
}

// parseCargo parses Cargo.toml (spec.md §6 Cargo row). A workspace root with
// no [package] section contributes its [workspace.dependencies] table to ws
// and yields no package of its own; a member crate resolves `workspace =
// true` dependency entries against that table.
func parseCargo(content []byte, dir string, ws *WorkspaceContext) (*ParseResult, error) {
	var m cargoManifest
	if _, err := toml.Decode(string(content), &m); err != nil {
		return nil, fmt.Errorf("parse Cargo.toml: %w", err)
	}

	if m.Workspace != nil {
		for dep, spec := range m.Workspace.Dependencies {
			if spec.version != "" {
				ws.CargoWorkspaceDeps[dep] = spec.version
			}
		}
	}

	if m.Package == nil {
		// Workspace-only root: no package record, only the dependency table
		// feed into ws above.
		return nil, nil
	}

	name := m.Package.Name
	if name == "" {
		name = dirPackageName(dir)
	}

	var edges []DependencyEdge
	edges = append(edges, cargoEdges(m.Dependencies, "runtime", ws)...)
	edges = append(edges, cargoEdges(m.DevDependencies, "dev", ws)...)
	edges = append(edges, cargoEdges(m.BuildDependencies, "build", ws)...)

	return &ParseResult{
		Package: Package{
			Name:        name,
			Path:        dir,
			Kind:        "cargo",
			Version:     m.Package.Version,
			Description: m.Package.Description,
		},
		Edges: edges,
	}, nil
}

func cargoEdges(deps map[string]cargoDependency, kind string, ws *WorkspaceContext) []DependencyEdge {
	var edges []DependencyEdge
	for dep, spec := range deps {
		version := spec.version
		if spec.workspace {
			if v, ok := ws.CargoWorkspaceDeps[dep]; ok {
				version = v
			}
		}
		edges = append(edges, DependencyEdge{Dependency: dep, Kind: kind, VersionReq: version})
	}
	return edges
}
