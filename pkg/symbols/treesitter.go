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
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// parseTree parses source with the given tree-sitter grammar. Each call
// builds a fresh parser, matching the extractor re-entrancy contract
// (spec.md §4.12): no parser state is shared across invocations.
func parseTree(lang *sitter.Language, source []byte) (*sitter.Node, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	return tree.RootNode(), nil
}

func nodeText(n *sitter.Node, source []byte) string {
	if n == nil {
		return ""
	}
	return n.Content(source)
}

func nodeLine(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

// walkNodes visits every named node in the tree in depth-first order,
// invoking fn for each; anonymous nodes are not visited.
func walkNodes(n *sitter.Node, fn func(*sitter.Node)) {
	if n == nil {
		return
	}
	fn(n)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		walkNodes(n.NamedChild(i), fn)
	}
}

// childOfType returns the first named child of n whose type equals want, or
// nil if none matches.
func childOfType(n *sitter.Node, want string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == want {
			return child
		}
	}
	return nil
}

// enclosingTypeName walks up the node's ancestor chain via Parent() and
// resolves the nearest enclosing class/struct/impl name, or "" at the top
// level.
func enclosingTypeName(n *sitter.Node, source []byte, typeNodeKinds map[string]string, nameField string) string {
	for parent := n.Parent(); parent != nil; parent = parent.Parent() {
		if _, ok := typeNodeKinds[parent.Type()]; ok {
			if nameNode := parent.ChildByFieldName(nameField); nameNode != nil {
				return nodeText(nameNode, source)
			}
		}
	}
	return ""
}
