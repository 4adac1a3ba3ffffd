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
	"bufio"
	"bytes"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	gradleGroupRe    = regexp.MustCompile(`^\s*group\s*=?\s*['"]([^'"]+)['"]`)
	gradleRootNameRe = regexp.MustCompile(`^\s*rootProject\.name\s*=\s*['"]([^'"]+)['"]`)
	gradleIncludeRe  = regexp.MustCompile(`^\s*include\s*\(?\s*['"]([^'"]+)['"]`)
	// gradleDepRe matches `configuration "group:artifact:version"` or
	// `configuration('group:artifact:version')`, the short-form dependency
	// notation used by the vast majority of real build.gradle(.kts) files.
	gradleDepRe = regexp.MustCompile(`^\s*(\w+)\s*[\(]?\s*['"]([^'":]+):([^'":]+)(?::([^'"]+))?['"]`)
)

// gradleConfigKind maps a Gradle dependency configuration name to an edge
// kind (spec.md §6 Gradle row).
func gradleConfigKind(config string) (string, bool) {
	switch {
	case strings.HasPrefix(config, "compileOnly"), strings.HasPrefix(config, "testCompileOnly"):
		return "peer", true
	case strings.HasPrefix(config, "testImplementation"), strings.HasPrefix(config, "testRuntimeOnly"),
		strings.HasPrefix(config, "testCompile"), strings.HasPrefix(config, "androidTestImplementation"):
		return "dev", true
	case strings.HasPrefix(config, "implementation"), strings.HasPrefix(config, "api"),
		strings.HasPrefix(config, "compile"), strings.HasPrefix(config, "runtimeOnly"):
		return "runtime", true
	case strings.HasPrefix(config, "annotationProcessor"):
		return "build", true
	default:
		return "", false
	}
}

// parseGradle parses build.gradle / build.gradle.kts (spec.md §6 Gradle
// row). Name is `group:project` when a group declaration is present, else
// the rootProject.name a settings file in the same directory declares, else
// the directory path; project is that rootProject.name or the directory's
// last segment. Settings files are read by the workspace pre-scan, not here.
func parseGradle(content []byte, dir string, ws *WorkspaceContext) (*ParseResult, error) {
	group := ""
	var edges []DependencyEdge

	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		if m := gradleGroupRe.FindStringSubmatch(line); m != nil {
			group = m[1]
			continue
		}
		if m := gradleDepRe.FindStringSubmatch(line); m != nil {
			config, depGroup, artifact, version := m[1], m[2], m[3], m[4]
			kind, ok := gradleConfigKind(config)
			if !ok {
				continue
			}
			edges = append(edges, DependencyEdge{
				Dependency: depGroup + ":" + artifact,
				Kind:       kind,
				VersionReq: version,
			})
		}
	}

	projectName := filepath.Base(dir)
	if dir == "" {
		projectName = dirPackageName(dir)
	}
	rootName, hasRootName := ws.GradleRootNames[dir]
	if hasRootName {
		projectName = rootName
	}
	name := dirPackageName(dir)
	switch {
	case group != "":
		name = group + ":" + projectName
	case hasRootName:
		name = rootName
	}

	return &ParseResult{
		Package: Package{Name: name, Path: dir, Kind: "gradle"},
		Edges:   edges,
	}, nil
}

// parseGradleSettings extracts rootProject.name and `include` directives
// from settings.gradle(.kts), populating ws.GradleMembers (translated from
// colon form, e.g. ":sub:mod", to directory form) and ws.GradleRootNames
// (spec.md §4.4).
func parseGradleSettings(content []byte, settingsDir string, ws *WorkspaceContext) {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		if m := gradleRootNameRe.FindStringSubmatch(line); m != nil {
			ws.GradleRootNames[settingsDir] = m[1]
			continue
		}
		if m := gradleIncludeRe.FindStringSubmatch(line); m != nil {
			rel := strings.ReplaceAll(strings.TrimPrefix(m[1], ":"), ":", "/")
			joined := filepath.ToSlash(filepath.Join(settingsDir, rel))
			ws.GradleMembers[joined] = struct{}{}
		}
	}
}
