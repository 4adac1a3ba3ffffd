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
	"github.com/smacker/go-tree-sitter/rust"
)

var rustTypeNodeKinds = map[string]string{
	"struct_item": "struct",
	"enum_item":   "enum",
	"trait_item":  "trait",
	"impl_item":   "impl",
}

// extractRust extracts pub items only (spec.md §4.12 "Rust-style pub"):
// functions, structs, enums, traits, and impl-block methods.
func extractRust(source []byte, filePath string) ([]Record, error) {
	root, err := parseTree(rust.GetLanguage(), source)
	if err != nil {
		return nil, err
	}

	var records []Record
	walkNodes(root, func(n *sitter.Node) {
		if !rustIsPub(n) {
			return
		}
		nameNode := n.ChildByFieldName("name")
		if nameNode == nil {
			return
		}
		name := nodeText(nameNode, source)

		switch n.Type() {
		case "function_item":
			parent := enclosingTypeName(n, source, rustTypeNodeKinds, "type")
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
				Params:     rustParams(n, source),
				ReturnType: nodeText(n.ChildByFieldName("return_type"), source),
			})

		case "struct_item":
			records = append(records, Record{Name: name, Kind: "struct", Visibility: "public", FilePath: filePath, Line: nodeLine(n)})
		case "enum_item":
			records = append(records, Record{Name: name, Kind: "enum", Visibility: "public", FilePath: filePath, Line: nodeLine(n)})
		case "trait_item":
			records = append(records, Record{Name: name, Kind: "trait", Visibility: "public", FilePath: filePath, Line: nodeLine(n)})
		}
	})
	return records, nil
}

func rustIsPub(n *sitter.Node) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == "visibility_modifier" {
			return true
		}
	}
	return false
}

func rustParams(n *sitter.Node, source []byte) []Param {
	paramsNode := n.ChildByFieldName("parameters")
	if paramsNode == nil {
		return nil
	}
	var params []Param
	for i := 0; i < int(paramsNode.NamedChildCount()); i++ {
		p := paramsNode.NamedChild(i)
		if p.Type() != "parameter" {
			continue
		}
		nameNode := p.ChildByFieldName("pattern")
		typeNode := p.ChildByFieldName("type")
		params = append(params, Param{Name: nodeText(nameNode, source), Type: nodeText(typeNode, source)})
	}
	return params
}
