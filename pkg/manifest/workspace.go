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
	"github.com/BurntSushi/toml"

	"github.com/justinjdev/shire/pkg/walker"
)

// cargoWorkspaceRoot is the narrow shape needed to detect and extract a
// Cargo workspace root manifest: a [workspace] table with no [package].
type cargoWorkspaceRoot struct {
	Package   *struct{} `toml:"package"`
	Workspace *struct {
		Dependencies map[string]cargoDependency `toml:"dependencies"`
	} `toml:"workspace"`
}

// BuildWorkspaceContext runs the Phase 1 targeted second pass (spec.md
// §4.4): scanning the walked manifest set for Cargo workspace roots, Go
// workspace files, Gradle settings files, and Maven parent/aggregator POMs,
// and collecting the cross-manifest facts later parses consult.
func BuildWorkspaceContext(manifests []walker.ManifestFile) *WorkspaceContext {
	ws := NewWorkspaceContext()

	for _, m := range manifests {
		switch m.Base {
		case "Cargo.toml":
			var root cargoWorkspaceRoot
			if _, err := toml.Decode(string(m.Content), &root); err != nil {
				continue
			}
			if root.Package == nil && root.Workspace != nil {
				for dep, spec := range root.Workspace.Dependencies {
					if spec.version != "" {
						ws.CargoWorkspaceDeps[dep] = spec.version
					}
				}
			}

		case "go.work":
			for member := range parseGoWork(m.Content, m.Dir) {
				ws.GoWorkMembers[member] = struct{}{}
			}

		case "settings.gradle", "settings.gradle.kts":
			parseGradleSettings(m.Content, m.Dir, ws)

		case "pom.xml":
			scanMavenParent(m.Content, ws)
		}
	}

	return ws
}
