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
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

var tsTypeNodeKinds = map[string]string{
	"class_declaration":     "class",
	"interface_declaration": "interface",
}

// extractTypeScript extracts functions, methods, classes, and interfaces
// from TypeScript/JavaScript source. TS/JS has no visibility keyword at the
// file-scope level analogous to Go's capitalization convention, so every
// declaration is recorded (spec.md §4.12 names no TS/JS-specific filter).
func extractTypeScript(source []byte, filePath string) ([]Record, error) {
	root, err := parseTree(typescript.GetLanguage(), source)
	if err != nil {
		return nil, err
	}

	var records []Record
	walkNodes(root, func(n *sitter.Node) {
		switch n.Type() {
		case "function_declaration":
			nameNode := n.ChildByFieldName("name")
			if nameNode == nil {
				return
			}
			records = append(records, Record{
				Name:       nodeText(nameNode, source),
				Kind:       "function",
				Visibility: "public",
				FilePath:   filePath,
				Line:       nodeLine(n),
				Params:     tsParams(n, source),
				ReturnType: tsReturnType(n, source),
			})

		case "method_definition":
			nameNode := n.ChildByFieldName("name")
			if nameNode == nil {
				return
			}
			records = append(records, Record{
				Name:       nodeText(nameNode, source),
				Kind:       "method",
				Visibility: "public",
				FilePath:   filePath,
				Line:       nodeLine(n),
				Parent:     enclosingTypeName(n, source, tsTypeNodeKinds, "name"),
				Params:     tsParams(n, source),
				ReturnType: tsReturnType(n, source),
			})

		case "class_declaration":
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

		case "interface_declaration":
			nameNode := n.ChildByFieldName("name")
			if nameNode == nil {
				return
			}
			records = append(records, Record{
				Name:       nodeText(nameNode, source),
				Kind:       "interface",
				Visibility: "public",
				FilePath:   filePath,
				Line:       nodeLine(n),
			})
		}
	})
	return records, nil
}

func tsParams(n *sitter.Node, source []byte) []Param {
	paramsNode := n.ChildByFieldName("parameters")
	if paramsNode == nil {
		return nil
	}
	var params []Param
	for i := 0; i < int(paramsNode.NamedChildCount()); i++ {
		p := paramsNode.NamedChild(i)
		nameNode := p.ChildByFieldName("pattern")
		if nameNode == nil {
			nameNode = p
		}
		typeNode := p.ChildByFieldName("type")
		params = append(params, Param{Name: nodeText(nameNode, source), Type: nodeText(typeNode, source)})
	}
	return params
}

func tsReturnType(n *sitter.Node, source []byte) string {
	return nodeText(n.ChildByFieldName("return_type"), source)
}
