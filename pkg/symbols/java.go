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
	"github.com/smacker/go-tree-sitter/java"
)

var javaTypeNodeKinds = map[string]string{
	"class_declaration":     "class",
	"interface_declaration": "interface",
	"enum_declaration":      "enum",
}

// extractJava extracts public classes, interfaces, enums, and methods
// (spec.md §4.12 "public-only for Java").
func extractJava(source []byte, filePath string) ([]Record, error) {
	root, err := parseTree(java.GetLanguage(), source)
	if err != nil {
		return nil, err
	}

	var records []Record
	walkNodes(root, func(n *sitter.Node) {
		if !javaHasPublicModifier(n, source) {
			return
		}
		nameNode := n.ChildByFieldName("name")
		if nameNode == nil {
			return
		}
		name := nodeText(nameNode, source)

		switch n.Type() {
		case "method_declaration":
			records = append(records, Record{
				Name:       name,
				Kind:       "method",
				Visibility: "public",
				FilePath:   filePath,
				Line:       nodeLine(n),
				Parent:     enclosingTypeName(n, source, javaTypeNodeKinds, "name"),
				Params:     javaParams(n, source),
				ReturnType: nodeText(n.ChildByFieldName("type"), source),
			})

		case "class_declaration":
			records = append(records, Record{Name: name, Kind: "class", Visibility: "public", FilePath: filePath, Line: nodeLine(n)})
		case "interface_declaration":
			records = append(records, Record{Name: name, Kind: "interface", Visibility: "public", FilePath: filePath, Line: nodeLine(n)})
		case "enum_declaration":
			records = append(records, Record{Name: name, Kind: "enum", Visibility: "public", FilePath: filePath, Line: nodeLine(n)})
		}
	})
	return records, nil
}

func javaHasPublicModifier(n *sitter.Node, source []byte) bool {
	modifiers := childOfType(n, "modifiers")
	if modifiers == nil {
		return false
	}
	return nodeText(modifiers, source) != "" && containsWord(nodeText(modifiers, source), "public")
}

func containsWord(s, word string) bool {
	for i := 0; i+len(word) <= len(s); i++ {
		if s[i:i+len(word)] == word {
			before := i == 0 || s[i-1] == ' ' || s[i-1] == '\n' || s[i-1] == '\t'
			after := i+len(word) == len(s) || s[i+len(word)] == ' ' || s[i+len(word)] == '\n' || s[i+len(word)] == '\t'
			if before && after {
				return true
			}
		}
	}
	return false
}

func javaParams(n *sitter.Node, source []byte) []Param {
	paramsNode := n.ChildByFieldName("parameters")
	if paramsNode == nil {
		return nil
	}
	var params []Param
	for i := 0; i < int(paramsNode.NamedChildCount()); i++ {
		p := paramsNode.NamedChild(i)
		if p.Type() != "formal_parameter" {
			continue
		}
		nameNode := p.ChildByFieldName("name")
		typeNode := p.ChildByFieldName("type")
		params = append(params, Param{Name: nodeText(nameNode, source), Type: nodeText(typeNode, source)})
	}
	return params
}
