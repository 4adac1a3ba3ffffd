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
	"regexp"
	"strings"
)

var (
	rubyGemRe     = regexp.MustCompile(`^\s*gem\s+['"]([^'"]+)['"]\s*(?:,\s*['"]([^'"]*)['"])?`)
	rubyGroupRe   = regexp.MustCompile(`^\s*group\s+(.+?)\s*(?:do)?\s*$`)
	rubyGroupSyms = regexp.MustCompile(`:(\w+)`)
)

// parseRuby parses a Gemfile (spec.md §6 Ruby row): top-level `gem` lines
// are runtime edges; `gem` lines inside a `group :test` or `group
// :development` block are dev edges. Name always falls back to the
// directory path, since Gemfile carries no package-identity field.
func parseRuby(content []byte, dir string, _ *WorkspaceContext) (*ParseResult, error) {
	var edges []DependencyEdge
	depth := 0
	inDevBlock := false

	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if m := rubyGroupRe.FindStringSubmatch(trimmed); m != nil && strings.Contains(trimmed, "do") {
			inDevBlock = isDevGroup(m[1])
			depth = 1
			continue
		}
		if depth > 0 {
			depth += strings.Count(trimmed, "do") - strings.Count(trimmed, "end")
			if depth <= 0 {
				depth = 0
				inDevBlock = false
			}
		}

		if m := rubyGemRe.FindStringSubmatch(trimmed); m != nil {
			kind := "runtime"
			if inDevBlock {
				kind = "dev"
			}
			edges = append(edges, DependencyEdge{Dependency: m[1], Kind: kind, VersionReq: m[2]})
		}
	}

	return &ParseResult{
		Package: Package{Name: dirPackageName(dir), Path: dir, Kind: "ruby"},
		Edges:   edges,
	}, nil
}

func isDevGroup(symbols string) bool {
	for _, m := range rubyGroupSyms.FindAllStringSubmatch(symbols, -1) {
		switch m[1] {
		case "test", "development":
			return true
		}
	}
	return false
}
