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
	"fmt"
	"path/filepath"
	"strings"
)

// parseGo parses go.mod (spec.md §6 Go row): name is the last segment of
// the module directive, the full module path is kept as description for
// is_internal module-path matching, and require directives (both inline
// and block form) become runtime edges.
func parseGo(content []byte, dir string, _ *WorkspaceContext) (*ParseResult, error) {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var modulePath string
	var edges []DependencyEdge
	inRequireBlock := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		line = stripInlineComment(line)

		switch {
		case strings.HasPrefix(line, "module "):
			modulePath = strings.TrimSpace(strings.TrimPrefix(line, "module "))
			modulePath = strings.Trim(modulePath, `"`)

		case line == "require (":
			inRequireBlock = true

		case inRequireBlock && line == ")":
			inRequireBlock = false

		case inRequireBlock:
			if edge, ok := parseGoRequireLine(line); ok {
				edges = append(edges, edge)
			}

		case strings.HasPrefix(line, "require "):
			rest := strings.TrimSpace(strings.TrimPrefix(line, "require "))
			if edge, ok := parseGoRequireLine(rest); ok {
				edges = append(edges, edge)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parse go.mod: %w", err)
	}

	name := modulePath
	if idx := strings.LastIndex(modulePath, "/"); idx >= 0 {
		name = modulePath[idx+1:]
	}
	if name == "" {
		name = dirPackageName(dir)
	}

	return &ParseResult{
		Package: Package{
			Name:        name,
			Path:        dir,
			Kind:        "go",
			Description: modulePath,
		},
		Edges: edges,
	}, nil
}

// parseGoRequireLine parses one require-directive line of the form
// `module/path v1.2.3` or `module/path v1.2.3 // indirect`.
func parseGoRequireLine(line string) (DependencyEdge, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return DependencyEdge{}, false
	}
	return DependencyEdge{Dependency: fields[0], Kind: "runtime", VersionReq: fields[1]}, true
}

func stripInlineComment(line string) string {
	if idx := strings.Index(line, "//"); idx >= 0 {
		return strings.TrimSpace(line[:idx])
	}
	return line
}

// parseGoWork extracts the set of member directories from a go.work file's
// `use` directives (spec.md §4.4), resolved relative to the workspace
// file's own directory.
func parseGoWork(content []byte, workDir string) map[string]struct{} {
	members := make(map[string]struct{})
	scanner := bufio.NewScanner(bytes.NewReader(content))
	inUseBlock := false

	for scanner.Scan() {
		line := strings.TrimSpace(stripInlineComment(scanner.Text()))
		if line == "" {
			continue
		}
		switch {
		case line == "use (":
			inUseBlock = true
		case inUseBlock && line == ")":
			inUseBlock = false
		case inUseBlock:
			addGoWorkMember(members, workDir, line)
		case strings.HasPrefix(line, "use "):
			addGoWorkMember(members, workDir, strings.TrimSpace(strings.TrimPrefix(line, "use ")))
		}
	}
	return members
}

func addGoWorkMember(members map[string]struct{}, workDir, rel string) {
	rel = strings.Trim(rel, `"`)
	if rel == "" {
		return
	}
	joined := filepath.ToSlash(filepath.Join(workDir, rel))
	members[joined] = struct{}{}
}
