// Copyright The Augmentum Authors
// SPDX-License-Identifier: Apache-2.0

package rewrite

import (
	"strconv"

	"github.com/dave/dst"
)

// Integer classification. Go's implementation-sized integers are modelled
// at 64 bits, matching the targets this tool runs on.
var intWidths = map[string]int{
	"bool":    1,
	"int8":    8,
	"uint8":   8,
	"byte":    8,
	"int16":   16,
	"uint16":  16,
	"int32":   32,
	"uint32":  32,
	"rune":    32,
	"int":     64,
	"uint":    64,
	"int64":   64,
	"uint64":  64,
	"uintptr": 64,
}

var floatWidths = map[string]int{
	"float32": 32,
	"float64": 64,
}

// typeIndex records the type declarations of the package under rewrite so
// named types can be resolved to their underlying type without loading full
// type information. Generic declarations are not indexed; uses of them fall
// through to Unknown.
type typeIndex struct {
	module string
	decls  map[string]dst.Expr
}

func newTypeIndex(module string) *typeIndex {
	return &typeIndex{module: module, decls: make(map[string]dst.Expr)}
}

func (ti *typeIndex) addFile(root *dst.File) {
	for _, decl := range root.Decls {
		genDecl, ok := decl.(*dst.GenDecl)
		if !ok {
			continue
		}
		for _, spec := range genDecl.Specs {
			typeSpec, ok := spec.(*dst.TypeSpec)
			if !ok {
				continue
			}
			if typeSpec.TypeParams != nil && len(typeSpec.TypeParams.List) > 0 {
				continue
			}
			ti.decls[typeSpec.Name.Name] = typeSpec.Type
		}
	}
}

// ResolveNamed returns the underlying type expression of a package-local
// named type.
func (ti *typeIndex) ResolveNamed(name string) (dst.Expr, bool) {
	expr, ok := ti.decls[name]
	return expr, ok
}

// arrayLen extracts a literal array length. Lengths given through constant
// expressions are not folded; such arrays classify as Unknown.
func arrayLen(expr *dst.ArrayType) (int, bool) {
	lit, ok := expr.Len.(*dst.BasicLit)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(lit.Value)
	if err != nil {
		return 0, false
	}
	return n, true
}

// isAggregate reports whether a parameter of this type is passed as a
// by-value aggregate: its argument slot holds the address of the aggregate
// itself rather than the address of a scalar copy. Named types resolve
// through the index.
func (ti *typeIndex) isAggregate(expr dst.Expr) bool {
	switch t := expr.(type) {
	case *dst.StructType:
		return true
	case *dst.ArrayType:
		return t.Len != nil
	case *dst.Ident:
		underlying, ok := ti.ResolveNamed(t.Name)
		if !ok {
			return false
		}
		return ti.isAggregate(underlying)
	default:
		return false
	}
}
