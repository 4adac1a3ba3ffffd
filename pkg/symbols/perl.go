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

var perlSubRe = regexp.MustCompile(`^\s*sub\s+(\w+)`)

// extractPerl extracts top-level `sub` declarations. No tree-sitter grammar
// for Perl was found among the pack's dependency surface, so this is a
// line-scanning extractor, matching the regexp approach already used for
// cpanfile manifest parsing. Names with a leading underscore are filtered
// (spec.md §4.12 "private-underscore filtered for Perl/Ruby").
func extractPerl(source []byte, filePath string) ([]Record, error) {
	var records []Record
	scanner := bufio.NewScanner(bytes.NewReader(source))
	line := 0
	for scanner.Scan() {
		line++
		m := perlSubRe.FindStringSubmatch(scanner.Text())
		if m == nil || isPrivateByUnderscore(m[1]) {
			continue
		}
		records = append(records, Record{
			Name:       m[1],
			Kind:       "function",
			Visibility: "public",
			FilePath:   filePath,
			Line:       line,
		})
	}
	return records, nil
}
