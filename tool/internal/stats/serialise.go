// Copyright The Augmentum Authors
// SPDX-License-Identifier: Apache-2.0

package stats

import (
	"strings"

	"github.com/dave/dst"

	"github.com/augmentum-project/augmentum-go/tool/internal/ast"
)

// TypeResolver resolves package-local named types to their underlying type
// expression. The rewriter's type index satisfies it.
type TypeResolver interface {
	ResolveNamed(name string) (dst.Expr, bool)
}

// SerialisationContext distinguishes the top-level function position and
// by-value aggregate arguments, which serialise without their indirection.
type SerialisationContext int

const (
	CtxNA SerialisationContext = iota
	CtxFunction
	CtxByValArg
)

type lookupKey struct {
	sig string
	ctx SerialisationContext
}

type namedStructEntry struct {
	layout string
	goName string
	extra  string
}

// TypeSerialiser renders types into the statistics grammar and caches the
// result. Named structs it encounters are collected for the struct sink.
type TypeSerialiser struct {
	lookup       map[lookupKey]string
	namedStructs map[string]namedStructEntry
}

func NewTypeSerialiser() *TypeSerialiser {
	return &TypeSerialiser{
		lookup:       make(map[lookupKey]string),
		namedStructs: make(map[string]namedStructEntry),
	}
}

var scalarSerialisation = map[string]string{
	"bool":    "i1",
	"int8":    "i8",
	"uint8":   "i8",
	"byte":    "i8",
	"int16":   "i16",
	"uint16":  "i16",
	"int32":   "i32",
	"uint32":  "i32",
	"rune":    "i32",
	"int":     "i64",
	"uint":    "i64",
	"int64":   "i64",
	"uint64":  "i64",
	"uintptr": "i64",
	"float32": "f32",
	"float64": "f64",
}

// SerialiseFunc renders a function declaration's type at function level,
// marking by-value aggregate parameters.
func (ts *TypeSerialiser) SerialiseFunc(module string, resolver TypeResolver, decl *dst.FuncDecl) string {
	var sb strings.Builder
	sb.WriteString("@$ ")
	if results := decl.Type.Results; results != nil && len(results.List) > 0 {
		parts := make([]string, 0, len(results.List))
		for _, field := range results.List {
			rendered := ts.SerialiseType(module, resolver, field.Type, CtxNA)
			for range max(len(field.Names), 1) {
				parts = append(parts, rendered)
			}
		}
		sb.WriteString(strings.Join(parts, ", "))
	} else {
		sb.WriteString("void")
	}
	for _, field := range decl.Type.Params.List {
		ctx := CtxNA
		if isAggregateFor(resolver, field.Type) {
			ctx = CtxByValArg
		}
		rendered := ts.SerialiseType(module, resolver, field.Type, ctx)
		for range max(len(field.Names), 1) {
			sb.WriteString(", ")
			sb.WriteString(rendered)
		}
	}
	sb.WriteString(" $@")
	return sb.String()
}

// SerialiseType renders one type expression.
func (ts *TypeSerialiser) SerialiseType(module string, resolver TypeResolver, expr dst.Expr, ctx SerialisationContext) string {
	key := lookupKey{sig: ast.TypeString(expr), ctx: ctx}
	if cached, ok := ts.lookup[key]; ok {
		return cached
	}
	rendered := ts.serialise(module, resolver, expr, ctx)
	ts.lookup[key] = rendered
	return rendered
}

func (ts *TypeSerialiser) serialise(module string, resolver TypeResolver, expr dst.Expr, ctx SerialisationContext) string {
	switch t := expr.(type) {
	case *dst.Ident:
		if s, ok := scalarSerialisation[t.Name]; ok {
			return s
		}
		return ts.serialiseNamed(module, resolver, t.Name)
	case *dst.StarExpr:
		elem := ts.SerialiseType(module, resolver, t.X, CtxNA)
		if ctx == CtxByValArg {
			return elem
		}
		return elem + "*"
	case *dst.ArrayType:
		if t.Len == nil {
			break
		}
		if lit, ok := t.Len.(*dst.BasicLit); ok {
			elem := ts.SerialiseType(module, resolver, t.Elt, CtxNA)
			return "[ " + lit.Value + " x " + elem + " ]"
		}
	case *dst.StructType:
		return ts.serialiseStructBody(module, resolver, t)
	case *dst.FuncType:
		var sb strings.Builder
		sb.WriteString("@$ ")
		if t.Results != nil && len(t.Results.List) > 0 {
			sb.WriteString(ts.SerialiseType(module, resolver, t.Results.List[0].Type, CtxNA))
		} else {
			sb.WriteString("void")
		}
		for _, field := range t.Params.List {
			for range max(len(field.Names), 1) {
				sb.WriteString(", ")
				sb.WriteString(ts.SerialiseType(module, resolver, field.Type, CtxNA))
			}
		}
		sb.WriteString(" $@")
		return sb.String()
	case *dst.ParenExpr:
		return ts.SerialiseType(module, resolver, t.X, ctx)
	}
	return "@U" + ast.TypeString(expr) + "U@"
}

func (ts *TypeSerialiser) serialiseNamed(module string, resolver TypeResolver, name string) string {
	if resolver != nil {
		if underlying, ok := resolver.ResolveNamed(name); ok {
			if structType, ok := underlying.(*dst.StructType); ok {
				marker := "@% " + module + "::" + name + " %@"
				if _, seen := ts.namedStructs[marker]; !seen {
					// Record the marker before descending so recursive
					// aggregates terminate.
					ts.namedStructs[marker] = namedStructEntry{}
					ts.namedStructs[marker] = namedStructEntry{
						layout: ts.serialiseStructBody(module, resolver, structType),
						goName: name,
						extra:  structExtra(structType),
					}
				}
				return marker
			}
			return ts.SerialiseType(module, resolver, underlying, CtxNA)
		}
	}
	return "@U" + name + "U@"
}

func (ts *TypeSerialiser) serialiseStructBody(module string, resolver TypeResolver, structType *dst.StructType) string {
	parts := make([]string, 0, len(structType.Fields.List))
	for _, field := range structType.Fields.List {
		rendered := ts.SerialiseType(module, resolver, field.Type, CtxNA)
		for range max(len(field.Names), 1) {
			parts = append(parts, rendered)
		}
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

func structExtra(structType *dst.StructType) string {
	embedded := false
	tagged := false
	for _, field := range structType.Fields.List {
		if len(field.Names) == 0 {
			embedded = true
		}
		if field.Tag != nil {
			tagged = true
		}
	}
	return "named:true#embedded:" + boolString(embedded) +
		"#tagged:" + boolString(tagged) +
		"#opaque:" + boolString(len(structType.Fields.List) == 0)
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func isAggregateFor(resolver TypeResolver, expr dst.Expr) bool {
	switch t := expr.(type) {
	case *dst.StructType:
		return true
	case *dst.ArrayType:
		return t.Len != nil
	case *dst.Ident:
		if resolver == nil {
			return false
		}
		underlying, ok := resolver.ResolveNamed(t.Name)
		if !ok {
			return false
		}
		return isAggregateFor(resolver, underlying)
	default:
		return false
	}
}
