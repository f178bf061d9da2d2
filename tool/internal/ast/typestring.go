// Copyright The Augmentum Authors
// SPDX-License-Identifier: Apache-2.0

package ast

import (
	"fmt"
	"strings"

	"github.com/dave/dst"
)

// TypeString renders a type expression the way it reads in source. The
// rewriter keys its per-function type maps on this form, and unclassifiable
// types carry it as their Unknown signature.
func TypeString(expr dst.Expr) string {
	switch t := expr.(type) {
	case *dst.Ident:
		return t.Name
	case *dst.SelectorExpr:
		return TypeString(t.X) + "." + t.Sel.Name
	case *dst.StarExpr:
		return "*" + TypeString(t.X)
	case *dst.ArrayType:
		if t.Len == nil {
			return "[]" + TypeString(t.Elt)
		}
		return "[" + TypeString(t.Len) + "]" + TypeString(t.Elt)
	case *dst.Ellipsis:
		return "..." + TypeString(t.Elt)
	case *dst.MapType:
		return "map[" + TypeString(t.Key) + "]" + TypeString(t.Value)
	case *dst.ChanType:
		switch t.Dir {
		case dst.SEND:
			return "chan<- " + TypeString(t.Value)
		case dst.RECV:
			return "<-chan " + TypeString(t.Value)
		default:
			return "chan " + TypeString(t.Value)
		}
	case *dst.FuncType:
		return "func" + funcTypeString(t)
	case *dst.StructType:
		return "struct{" + fieldListString(t.Fields, "; ") + "}"
	case *dst.InterfaceType:
		if t.Methods == nil || len(t.Methods.List) == 0 {
			return "interface{}"
		}
		return "interface{" + fieldListString(t.Methods, "; ") + "}"
	case *dst.BasicLit:
		return t.Value
	case *dst.ParenExpr:
		return "(" + TypeString(t.X) + ")"
	case *dst.IndexExpr:
		return TypeString(t.X) + "[" + TypeString(t.Index) + "]"
	case *dst.IndexListExpr:
		parts := make([]string, 0, len(t.Indices))
		for _, idx := range t.Indices {
			parts = append(parts, TypeString(idx))
		}
		return TypeString(t.X) + "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprintf("<%T>", expr)
	}
}

func funcTypeString(t *dst.FuncType) string {
	s := "(" + fieldListString(t.Params, ", ") + ")"
	if t.Results == nil || len(t.Results.List) == 0 {
		return s
	}
	if len(t.Results.List) == 1 && len(t.Results.List[0].Names) == 0 {
		return s + " " + TypeString(t.Results.List[0].Type)
	}
	return s + " (" + fieldListString(t.Results, ", ") + ")"
}

func fieldListString(fields *dst.FieldList, sep string) string {
	if fields == nil {
		return ""
	}
	parts := make([]string, 0, len(fields.List))
	for _, field := range fields.List {
		typ := TypeString(field.Type)
		if len(field.Names) == 0 {
			parts = append(parts, typ)
			continue
		}
		names := make([]string, 0, len(field.Names))
		for _, name := range field.Names {
			names = append(names, name.Name)
		}
		parts = append(parts, strings.Join(names, ", ")+" "+typ)
	}
	return strings.Join(parts, sep)
}

// FuncDeclString renders a function declaration header, which is what the
// statistics sink reports as the readable name.
func FuncDeclString(decl *dst.FuncDecl) string {
	return "func " + decl.Name.Name + funcTypeString(decl.Type)
}
