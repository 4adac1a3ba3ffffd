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
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
)

type pyprojectManifest struct {
	Project *struct {
		Name         string              `toml:"name"`
		Version      string              `toml:"version"`
		Description  string              `toml:"description"`
		Dependencies []string            `toml:"dependencies"`
		OptionalDeps map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
	Tool *struct {
		Poetry *struct {
			Name         string                 `toml:"name"`
			Version      string                 `toml:"version"`
			Description  string                 `toml:"description"`
			Dependencies map[string]interface{} `toml:"dependencies"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// pep508Name extracts the distribution name from a PEP 508 dependency
// specifier, stopping at the first version/environment-marker delimiter.
var pep508Name = regexp.MustCompile(`^[A-Za-z0-9._-]+`)

// parsePython parses pyproject.toml (spec.md §6 Python row): PEP 621
// [project] metadata takes precedence, falling back to Poetry's
// [tool.poetry] table when present. [project.optional-dependencies] entries
// become dev edges; anything else in [project] dependencies is runtime.
func parsePython(content []byte, dir string, _ *WorkspaceContext) (*ParseResult, error) {
	var m pyprojectManifest
	if _, err := toml.Decode(string(content), &m); err != nil {
		return nil, fmt.Errorf("parse pyproject.toml: %w", err)
	}

	pkg := Package{Path: dir, Kind: "python"}
	var edges []DependencyEdge

	switch {
	case m.Project != nil:
		pkg.Name = m.Project.Name
		pkg.Version = m.Project.Version
		pkg.Description = m.Project.Description
		for _, spec := range m.Project.Dependencies {
			if name, ver, ok := parsePEP508(spec); ok {
				edges = append(edges, DependencyEdge{Dependency: name, Kind: "runtime", VersionReq: ver})
			}
		}
		for _, specs := range m.Project.OptionalDeps {
			for _, spec := range specs {
				if name, ver, ok := parsePEP508(spec); ok {
					edges = append(edges, DependencyEdge{Dependency: name, Kind: "dev", VersionReq: ver})
				}
			}
		}

	case m.Tool != nil && m.Tool.Poetry != nil:
		pkg.Name = m.Tool.Poetry.Name
		pkg.Version = m.Tool.Poetry.Version
		pkg.Description = m.Tool.Poetry.Description
		for dep, spec := range m.Tool.Poetry.Dependencies {
			if strings.EqualFold(dep, "python") {
				continue
			}
			edges = append(edges, DependencyEdge{Dependency: dep, Kind: "runtime", VersionReq: poetryVersionString(spec)})
		}
	}

	if pkg.Name == "" {
		pkg.Name = dirPackageName(dir)
	}

	return &ParseResult{Package: pkg, Edges: edges}, nil
}

// parsePEP508 splits a PEP 508 dependency specifier such as
// `requests>=2.0,<3.0; python_version >= "3.8"` into a name and the
// remaining raw version/marker text.
func parsePEP508(spec string) (name, rest string, ok bool) {
	spec = strings.TrimSpace(spec)
	name = pep508Name.FindString(spec)
	if name == "" {
		return "", "", false
	}
	rest = strings.TrimSpace(spec[len(name):])
	if idx := strings.Index(rest, ";"); idx >= 0 {
		rest = strings.TrimSpace(rest[:idx])
	}
	rest = strings.Trim(rest, "[]")
	return name, rest, true
}

func poetryVersionString(spec interface{}) string {
	switch v := spec.(type) {
	case string:
		return v
	case map[string]interface{}:
		if ver, ok := v["version"].(string); ok {
			return ver
		}
	}
	return ""
}
