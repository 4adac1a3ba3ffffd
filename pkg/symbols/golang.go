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
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
)

// extractGo parses Go source with the standard library's own AST tooling
// rather than tree-sitter: for Go specifically, go/parser is the canonical,
// exact parser every other Go tool in the ecosystem is built on, and a
// grammar-approximation parser would be strictly worse here. Only exported
// (capitalized) top-level declarations are recorded (spec.md §4.12
// "exported-only for Go").
func extractGo(source []byte, filePath string) ([]Record, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filePath, source, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parse go source: %w", err)
	}

	var records []Record
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if !isExportedGoName(d.Name.Name) {
				continue
			}
			records = append(records, goFuncRecord(d, fset, filePath))

		case *ast.GenDecl:
			records = append(records, goGenDeclRecords(d, fset, filePath)...)
		}
	}
	return records, nil
}

func goFuncRecord(d *ast.FuncDecl, fset *token.FileSet, filePath string) Record {
	rec := Record{
		Name:       d.Name.Name,
		Kind:       "function",
		Visibility: "public",
		FilePath:   filePath,
		Line:       fset.Position(d.Pos()).Line,
		Signature:  goFuncSignature(d),
		Params:     goParams(d.Type),
	}
	if d.Recv != nil && len(d.Recv.List) > 0 {
		rec.Kind = "method"
		rec.Parent = goReceiverTypeName(d.Recv.List[0].Type)
	}
	if d.Type.Results != nil && len(d.Type.Results.List) > 0 {
		rec.ReturnType = goTypeString(d.Type.Results.List[0].Type)
	}
	return rec
}

func goGenDeclRecords(d *ast.GenDecl, fset *token.FileSet, filePath string) []Record {
	var records []Record
	for _, spec := range d.Specs {
		switch s := spec.(type) {
		case *ast.TypeSpec:
			if !isExportedGoName(s.Name.Name) {
				continue
			}
			records = append(records, Record{
				Name:       s.Name.Name,
				Kind:       goTypeKind(s.Type),
				Visibility: "public",
				FilePath:   filePath,
				Line:       fset.Position(s.Pos()).Line,
			})

		case *ast.ValueSpec:
			if d.Tok != token.CONST {
				continue
			}
			for _, name := range s.Names {
				if !isExportedGoName(name.Name) {
					continue
				}
				records = append(records, Record{
					Name:       name.Name,
					Kind:       "constant",
					Visibility: "public",
					FilePath:   filePath,
					Line:       fset.Position(name.Pos()).Line,
				})
			}
		}
	}
	return records
}

func goTypeKind(expr ast.Expr) string {
	switch expr.(type) {
	case *ast.StructType:
		return "struct"
	case *ast.InterfaceType:
		return "interface"
	default:
		return "type"
	}
}

func goReceiverTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return goReceiverTypeName(t.X)
	case *ast.Ident:
		return t.Name
	default:
		return ""
	}
}

func goParams(ft *ast.FuncType) []Param {
	if ft.Params == nil {
		return nil
	}
	var params []Param
	for _, field := range ft.Params.List {
		typeStr := goTypeString(field.Type)
		if len(field.Names) == 0 {
			params = append(params, Param{Type: typeStr})
			continue
		}
		for _, name := range field.Names {
			params = append(params, Param{Name: name.Name, Type: typeStr})
		}
	}
	return params
}

func goTypeString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return "*" + goTypeString(t.X)
	case *ast.ArrayType:
		return "[]" + goTypeString(t.Elt)
	case *ast.SelectorExpr:
		return goTypeString(t.X) + "." + t.Sel.Name
	case *ast.MapType:
		return "map[" + goTypeString(t.Key) + "]" + goTypeString(t.Value)
	case *ast.Ellipsis:
		return "..." + goTypeString(t.Elt)
	case *ast.InterfaceType:
		return "interface{}"
	default:
		return ""
	}
}

func goFuncSignature(d *ast.FuncDecl) string {
	sig := d.Name.Name + "("
	for i, p := range goParams(d.Type) {
		if i > 0 {
			sig += ", "
		}
		if p.Name != "" {
			sig += p.Name + " "
		}
		sig += p.Type
	}
	sig += ")"
	return sig
}
