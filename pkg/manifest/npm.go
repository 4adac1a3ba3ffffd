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
	"encoding/json"
	"fmt"
	"strings"
)

type npmManifest struct {
	Name             string            `json:"name"`
	Version          string            `json:"version"`
	Description      string            `json:"description"`
	Dependencies     map[string]string `json:"dependencies"`
	DevDependencies  map[string]string `json:"devDependencies"`
	PeerDependencies map[string]string `json:"peerDependencies"`
}

// parseNPM parses package.json (spec.md §6 npm row).
func parseNPM(content []byte, dir string, _ *WorkspaceContext) (*ParseResult, error) {
	var m npmManifest
	if err := json.Unmarshal(content, &m); err != nil {
		return nil, fmt.Errorf("parse package.json: %w", err)
	}

	name := m.Name
	if name == "" {
		name = strings.ReplaceAll(dirPackageName(dir), "/", "-")
	}

	var edges []DependencyEdge
	for dep, ver := range m.Dependencies {
		edges = append(edges, DependencyEdge{Dependency: dep, Kind: "runtime", VersionReq: stripWorkspacePrefix(ver)})
	}
	for dep, ver := range m.DevDependencies {
		edges = append(edges, DependencyEdge{Dependency: dep, Kind: "dev", VersionReq: stripWorkspacePrefix(ver)})
	}
	for dep, ver := range m.PeerDependencies {
		edges = append(edges, DependencyEdge{Dependency: dep, Kind: "peer", VersionReq: stripWorkspacePrefix(ver)})
	}

	return &ParseResult{
		Package: Package{
			Name:        name,
			Path:        dir,
			Kind:        "npm",
			Version:     m.Version,
			Description: m.Description,
		},
		Edges: edges,
	}, nil
}

// stripWorkspacePrefix removes npm/yarn/pnpm workspace-linking prefixes
// from a version requirement string (spec.md §6 npm row).
func stripWorkspacePrefix(ver string) string {
	return strings.TrimPrefix(ver, "workspace:")
}
