// Copyright The Augmentum Authors
// SPDX-License-Identifier: Apache-2.0

package ast

import (
	"fmt"
	"go/token"
	"strconv"

	"github.com/dave/dst"
)

const (
	IdentNil    = "nil"
	IdentIgnore = "_"
)

func Ident(name string) *dst.Ident {
	return &dst.Ident{
		Name: name,
	}
}

func AddressOf(expr dst.Expr) *dst.UnaryExpr {
	return &dst.UnaryExpr{Op: token.AND, X: dst.Clone(expr).(dst.Expr)}
}

func CallTo(name string, args []dst.Expr) *dst.CallExpr {
	return &dst.CallExpr{
		Fun:  &dst.Ident{Name: name},
		Args: args,
	}
}

func CallExpr(fun dst.Expr, args ...dst.Expr) *dst.CallExpr {
	return &dst.CallExpr{
		Fun:  dst.Clone(fun).(dst.Expr),
		Args: args,
	}
}

func StringLit(value string) *dst.BasicLit {
	return &dst.BasicLit{
		Kind:  token.STRING,
		Value: fmt.Sprintf("%q", value),
	}
}

func IntLit(value int) *dst.BasicLit {
	return &dst.BasicLit{
		Kind:  token.INT,
		Value: strconv.Itoa(value),
	}
}

func BlockStmts(stmts ...dst.Stmt) *dst.BlockStmt {
	return &dst.BlockStmt{
		List: stmts,
	}
}

func Exprs(exprs ...dst.Expr) []dst.Expr {
	return exprs
}

func SelectorExpr(x dst.Expr, sel string) *dst.SelectorExpr {
	return &dst.SelectorExpr{
		X:   dst.Clone(x).(dst.Expr),
		Sel: Ident(sel),
	}
}

func IndexExpr(x dst.Expr, index dst.Expr) *dst.IndexExpr {
	return &dst.IndexExpr{
		X:     dst.Clone(x).(dst.Expr),
		Index: dst.Clone(index).(dst.Expr),
	}
}

func ParenExpr(x dst.Expr) *dst.ParenExpr {
	return &dst.ParenExpr{
		X: dst.Clone(x).(dst.Expr),
	}
}

func CompositeLit(typ dst.Expr, elts ...dst.Expr) *dst.CompositeLit {
	return &dst.CompositeLit{
		Type: dst.Clone(typ).(dst.Expr),
		Elts: elts,
	}
}

func ExprStmt(expr dst.Expr) *dst.ExprStmt {
	return &dst.ExprStmt{X: dst.Clone(expr).(dst.Expr)}
}

func ReturnStmt(results []dst.Expr) *dst.ReturnStmt {
	return &dst.ReturnStmt{Results: results}
}

func AssignStmt(lhs, rhs dst.Expr) *dst.AssignStmt {
	return &dst.AssignStmt{
		Lhs: []dst.Expr{lhs},
		Tok: token.ASSIGN,
		Rhs: []dst.Expr{rhs},
	}
}

func DefineStmt(lhs, rhs dst.Expr) *dst.AssignStmt {
	return &dst.AssignStmt{
		Lhs: []dst.Expr{lhs},
		Tok: token.DEFINE,
		Rhs: []dst.Expr{rhs},
	}
}

func DereferenceOf(expr dst.Expr) *dst.StarExpr {
	return &dst.StarExpr{X: expr}
}

func Field(name string, typ dst.Expr) *dst.Field {
	newField := &dst.Field{
		Names: []*dst.Ident{Ident(name)},
		Type:  typ,
	}
	return newField
}

func ImportDecl(alias, path string) *dst.GenDecl {
	spec := &dst.ImportSpec{
		Path: &dst.BasicLit{Kind: token.STRING, Value: fmt.Sprintf("%q", path)},
	}
	if alias != "" {
		spec.Name = dst.NewIdent(alias)
	}
	return &dst.GenDecl{
		Tok:   token.IMPORT,
		Specs: []dst.Spec{spec},
	}
}

func VarDecl(name string, value dst.Expr) *dst.GenDecl {
	return &dst.GenDecl{
		Tok: token.VAR,
		Specs: []dst.Spec{
			&dst.ValueSpec{
				Names: []*dst.Ident{
					{Name: name},
				},
				Values: []dst.Expr{
					value,
				},
			},
		},
	}
}

func TypedVarDecl(name string, typ dst.Expr) *dst.GenDecl {
	return &dst.GenDecl{
		Tok: token.VAR,
		Specs: []dst.Spec{
			&dst.ValueSpec{
				Names: []*dst.Ident{
					{Name: name},
				},
				Type: dst.Clone(typ).(dst.Expr),
			},
		},
	}
}
