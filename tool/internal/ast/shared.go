// Copyright The Augmentum Authors
// SPDX-License-Identifier: Apache-2.0

package ast

import (
	"github.com/dave/dst"
)

// FindFuncDecl returns the receiver-less function named funcName, or nil.
func FindFuncDecl(root *dst.File, funcName string) (*dst.FuncDecl, error) {
	for _, decl := range root.Decls {
		funcDecl, ok := decl.(*dst.FuncDecl)
		if !ok {
			continue
		}
		if funcDecl.Name.Name == funcName && !HasReceiver(funcDecl) {
			return funcDecl, nil
		}
	}
	//nolint:nilnil // no function declaration found is not an error
	return nil, nil
}

func HasReceiver(fn *dst.FuncDecl) bool {
	return fn.Recv != nil && len(fn.Recv.List) > 0
}

func IsUnusedIdent(ident *dst.Ident) bool {
	return ident.Name == IdentIgnore
}

func IsEllipsis(typ dst.Expr) bool {
	_, ok := typ.(*dst.Ellipsis)
	return ok
}
