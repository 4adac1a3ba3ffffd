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
	perlRequiresRe = regexp.MustCompile(`^\s*requires\s+['"]([^'"]+)['"]\s*(?:,\s*['"]([^'"]*)['"])?`)
	perlOnBlockRe  = regexp.MustCompile(`^\s*on\s+['"](\w+)['"]\s*=>\s*sub\s*\{`)
)

// parsePerl parses a cpanfile (spec.md §6 Perl row): top-level `requires`
// lines are runtime edges; `requires` lines inside an `on 'test' => sub {
// ... }` block are dev edges. Name always falls back to the directory path,
// since cpanfile carries no package-identity field of its own.
func parsePerl(content []byte, dir string, _ *WorkspaceContext) (*ParseResult, error) {
	var edges []DependencyEdge
	depth := 0
	inTestBlock := false

	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if m := perlOnBlockRe.FindStringSubmatch(trimmed); m != nil {
			inTestBlock = m[1] == "test"
			depth = 1
			continue
		}
		if inTestBlock {
			depth += strings.Count(trimmed, "{") - strings.Count(trimmed, "}")
			if depth <= 0 {
				inTestBlock = false
			}
		}

		if m := perlRequiresRe.FindStringSubmatch(trimmed); m != nil {
			kind := "runtime"
			if inTestBlock {
				kind = "dev"
			}
			edges = append(edges, DependencyEdge{Dependency: m[1], Kind: kind, VersionReq: m[2]})
		}
	}

	return &ParseResult{
		Package: Package{Name: dirPackageName(dir), Path: dir, Kind: "perl"},
		Edges:   edges,
	}, nil
}
