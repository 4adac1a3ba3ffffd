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
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

var pyTypeNodeKinds = map[string]string{"class_definition": "class"}

// extractPython extracts functions, methods, and classes. Dunder methods
// are filtered except __init__ (spec.md §4.12 "dunder-except-__init__
// filtered for Python"); single-underscore-prefixed names are kept, since
// Python's underscore convention is advisory, not enforced, unlike Go's
// capitalization rule.
func extractPython(source []byte, filePath string) ([]Record, error) {
	root, err := parseTree(python.GetLanguage(), source)
	if err != nil {
		return nil, err
	}

	var records []Record
	walkNodes(root, func(n *sitter.Node) {
		switch n.Type() {
		case "function_definition":
			nameNode := n.ChildByFieldName("name")
			if nameNode == nil {
				return
			}
			name := nodeText(nameNode, source)
			if isPythonDunder(name) && name != "__init__" {
				return
			}
			parent := enclosingTypeName(n, source, pyTypeNodeKinds, "name")
			kind := "function"
			if parent != "" {
				kind = "method"
			}
			records = append(records, Record{
				Name:       name,
				Kind:       kind,
				Visibility: "public",
				FilePath:   filePath,
				Line:       nodeLine(n),
				Parent:     parent,
				Params:     pythonParams(n, source),
			})

		case "class_definition":
			nameNode := n.ChildByFieldName("name")
			if nameNode == nil {
				return
			}
			records = append(records, Record{
				Name:       nodeText(nameNode, source),
				Kind:       "class",
				Visibility: "public",
				FilePath:   filePath,
				Line:       nodeLine(n),
			})
		}
	})
	return records, nil
}

func isPythonDunder(name string) bool {
	return strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__")
}

func pythonParams(n *sitter.Node, source []byte) []Param {
	paramsNode := n.ChildByFieldName("parameters")
	if paramsNode == nil {
		return nil
	}
	var params []Param
	for i := 0; i < int(paramsNode.NamedChildCount()); i++ {
		p := paramsNode.NamedChild(i)
		switch p.Type() {
		case "identifier":
			params = append(params, Param{Name: nodeText(p, source)})
		case "typed_parameter", "default_parameter", "typed_default_parameter":
			nameNode := p.NamedChild(0)
			typeNode := p.ChildByFieldName("type")
			params = append(params, Param{Name: nodeText(nameNode, source), Type: nodeText(typeNode, source)})
		}
	}
	return params
}
