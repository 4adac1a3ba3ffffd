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

package symbols

import (
	"bufio"
	"bytes"
	"regexp"
)

var (
	rubyDefRe         = regexp.MustCompile(`^(\s*)def\s+(self\.)?([a-zA-Z_][a-zA-Z0-9_?!=]*)`)
	rubyClassRe       = regexp.MustCompile(`^\s*class\s+([A-Z][A-Za-z0-9_:]*)`)
	rubyModuleRe      = regexp.MustCompile(`^\s*module\s+([A-Z][A-Za-z0-9_:]*)`)
	rubyPrivateMark   = regexp.MustCompile(`^\s*private\s*$`)
	rubyProtectedMark = regexp.MustCompile(`^\s*protected\s*$`)
	rubyPublicMark    = regexp.MustCompile(`^\s*public\s*$`)
)

// extractRuby extracts class/module definitions and methods. No tree-sitter
// grammar for Ruby is available in the pack's dependency surface, so this
// scans lines the same way the Gradle settings parser and the cpanfile
// parser do. `private`/`protected` bareword markers toggle visibility for
// subsequent methods until the next marker or the next class/module line
// (a closing `end` does not reset it), and any method name
// starting with an underscore is dropped regardless of marker state
// (spec.md §4.12 "private-underscore filtered for Perl/Ruby").
func extractRuby(source []byte, filePath string) ([]Record, error) {
	var records []Record
	var parentStack []string

	scanner := bufio.NewScanner(bytes.NewReader(source))
	line := 0
	visibility := "public"
	for scanner.Scan() {
		line++
		text := scanner.Text()

		switch {
		case rubyPrivateMark.MatchString(text):
			visibility = "private"
			continue
		case rubyProtectedMark.MatchString(text):
			visibility = "protected"
			continue
		case rubyPublicMark.MatchString(text):
			visibility = "public"
			continue
		}

		if m := rubyClassRe.FindStringSubmatch(text); m != nil {
			records = append(records, Record{Name: m[1], Kind: "class", Visibility: "public", FilePath: filePath, Line: line})
			parentStack = append(parentStack, m[1])
			visibility = "public"
			continue
		}
		if m := rubyModuleRe.FindStringSubmatch(text); m != nil {
			records = append(records, Record{Name: m[1], Kind: "module", Visibility: "public", FilePath: filePath, Line: line})
			parentStack = append(parentStack, m[1])
			visibility = "public"
			continue
		}

		if m := rubyDefRe.FindStringSubmatch(text); m != nil {
			name := m[3]
			if isPrivateByUnderscore(name) || visibility != "public" {
				continue
			}
			kind := "method"
			var parent string
			if len(parentStack) > 0 {
				parent = parentStack[len(parentStack)-1]
			}
			records = append(records, Record{
				Name:       name,
				Kind:       kind,
				Visibility: "public",
				FilePath:   filePath,
				Line:       line,
				Parent:     parent,
			})
			continue
		}

		if bytes.Equal(bytes.TrimSpace([]byte(text)), []byte("end")) && len(parentStack) > 0 {
			parentStack = parentStack[:len(parentStack)-1]
		}
	}
	return records, nil
}
