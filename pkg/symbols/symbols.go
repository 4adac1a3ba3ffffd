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

// Package symbols holds the per-language source symbol extractors: each
// inputs one file's source text and repo-relative path, and outputs the
// symbol records it declares (spec.md §4.12). Extractors are re-entrant —
// every call constructs its own parser state, so a single extractor value
// may be invoked concurrently from a worker pool.
package symbols

// Param is one structured parameter of a function/method symbol.
type Param struct {
	Name string
	Type string
}

// Record is one extracted symbol (spec.md §3 "Symbol record").
type Record struct {
	Name       string
	Kind       string // function | class | struct | interface | type | enum | trait | method | constant
	Visibility string // defaults to "public"
	Signature  string
	FilePath   string
	Line       int
	Parent     string // owning type, for methods and nested types
	ReturnType string
	Params     []Param
}

// Extractor parses one file's source text into symbol records. filePath is
// repo-relative, used only to populate Record.FilePath.
type Extractor func(source []byte, filePath string) ([]Record, error)

// registry maps a lowercase file extension (without the leading dot) to its
// extractor.
var registry = map[string]Extractor{
	"go":   extractGo,
	"ts":   extractTypeScript,
	"tsx":  extractTypeScript,
	"js":   extractTypeScript,
	"jsx":  extractTypeScript,
	"mjs":  extractTypeScript,
	"py":   extractPython,
	"rs":   extractRust,
	"java": extractJava,
	"pl":   extractPerl,
	"pm":   extractPerl,
	"rb":   extractRuby,
}

// ExtractorFor returns the registered extractor for a lowercase extension
// (without the leading dot), or nil if the extension has no extractor.
func ExtractorFor(extension string) Extractor {
	return registry[extension]
}

// DefaultExtensions is the universal extension set scanned for every
// package regardless of its kind (spec.md §4.12: symbol extraction is
// kind-agnostic by default).
func DefaultExtensions() []string {
	exts := make([]string, 0, len(registry))
	for ext := range registry {
		exts = append(exts, ext)
	}
	return exts
}

// Extract dispatches to the extractor registered for path's extension. It
// returns (nil, nil) for an unregistered extension rather than an error,
// since the universal scan (spec.md §4.12) expects most extensions in a
// mixed-language tree to have no extractor at all.
func Extract(source []byte, filePath, extension string) ([]Record, error) {
	extractor := ExtractorFor(extension)
	if extractor == nil {
		return nil, nil
	}
	return extractor(source, filePath)
}

func isExportedGoName(name string) bool {
	if name == "" {
		return false
	}
	r := name[0]
	return r >= 'A' && r <= 'Z'
}

func isPrivateByUnderscore(name string) bool {
	return len(name) > 0 && name[0] == '_'
}
