// Copyright The Augmentum Authors
// SPDX-License-Identifier: Apache-2.0

package rewrite

import (
	"github.com/dave/dst"

	"github.com/augmentum-project/augmentum-go/tool/internal/ast"
)

// Names of the runtime's internal ABI. These are frozen: generated code
// links against exactly these symbols.
const (
	symbolGetUnknownType       = "GetUnknownType"
	symbolGetVoidType          = "GetVoidType"
	symbolGetI1Type            = "GetI1Type"
	symbolGetI8Type            = "GetI8Type"
	symbolGetI16Type           = "GetI16Type"
	symbolGetI32Type           = "GetI32Type"
	symbolGetI64Type           = "GetI64Type"
	symbolGetFloatType         = "GetFloatType"
	symbolGetDoubleType        = "GetDoubleType"
	symbolGetPtrType           = "GetPtrType"
	symbolGetArrayType         = "GetArrayType"
	symbolGetAnonStructType    = "GetAnonStructType"
	symbolGetForwardStructType = "GetForwardStructType"
	symbolSetStructElemTypes   = "SetStructElemTypes"
	symbolGetFunctionType      = "GetFunctionType"
	symbolCreateExtensionPoint = "CreateExtensionPoint"
	symbolEval                 = "Eval"
	symbolFnOf                 = "FnOf"
	symbolFnType               = "Fn"
	symbolRetValType           = "RetVal"
	symbolArgValsType          = "ArgVals"
	symbolPointType            = "FnExtensionPoint"
)

var intTypeSymbols = map[int]string{
	1:  symbolGetI1Type,
	8:  symbolGetI8Type,
	16: symbolGetI16Type,
	32: symbolGetI32Type,
	64: symbolGetI64Type,
}

// descEmitter synthesises the statements of a constructor that materialise
// type descriptors bottom-up through the internal ABI. The per-function
// vars map keeps one local per distinct type, and named structs enter it as
// forward placeholders before their elements are visited, so recursive
// aggregates terminate.
type descEmitter struct {
	types        *typeIndex
	runtimeAlias string
	stmts        []dst.Stmt
	vars         map[string]string
	n            int
}

func newDescEmitter(types *typeIndex, runtimeAlias string) *descEmitter {
	return &descEmitter{
		types:        types,
		runtimeAlias: runtimeAlias,
		vars:         make(map[string]string),
	}
}

func (de *descEmitter) runtimeCall(symbol string, args ...dst.Expr) *dst.CallExpr {
	return ast.CallExpr(ast.SelectorExpr(ast.Ident(de.runtimeAlias), symbol), args...)
}

// define emits `tN := <call>` and records the local under key. A key that
// gained a local while its elements were being emitted (recursion through a
// named struct) keeps the existing one.
func (de *descEmitter) define(key string, call *dst.CallExpr) string {
	if name, ok := de.vars[key]; ok {
		return name
	}
	name := "t" + itoa(de.n)
	de.n++
	de.stmts = append(de.stmts, ast.DefineStmt(ast.Ident(name), call))
	de.vars[key] = name
	return name
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// emitFuncType materialises the descriptor of a function declaration's type
// and returns the local holding it.
func (de *descEmitter) emitFuncType(fnType *dst.FuncType) string {
	var retVar string
	if fnType.Results == nil || len(fnType.Results.List) == 0 {
		retVar = de.emitPrimitive("void", symbolGetVoidType)
	} else {
		retVar = de.emit(fnType.Results.List[0].Type)
	}
	args := []dst.Expr{ast.Ident(retVar)}
	for _, param := range fnType.Params.List {
		paramVar := de.emit(param.Type)
		count := max(len(param.Names), 1)
		for range count {
			args = append(args, ast.Ident(paramVar))
		}
	}
	key := "func:" + ast.TypeString(fnType)
	if name, ok := de.vars[key]; ok {
		return name
	}
	return de.define(key, de.runtimeCall(symbolGetFunctionType, args...))
}

func (de *descEmitter) emitPrimitive(key, symbol string) string {
	if name, ok := de.vars[key]; ok {
		return name
	}
	return de.define(key, de.runtimeCall(symbol))
}

// emit materialises the descriptor for an arbitrary type expression.
// Anything outside the recognised enumeration collapses to Unknown carrying
// the printed type; that is an extensibility seam, not a failure.
func (de *descEmitter) emit(expr dst.Expr) string {
	key := ast.TypeString(expr)
	if name, ok := de.vars[key]; ok {
		return name
	}
	switch t := expr.(type) {
	case *dst.Ident:
		if bits, ok := intWidths[t.Name]; ok {
			return de.emitPrimitive(key, intTypeSymbols[bits])
		}
		if bits, ok := floatWidths[t.Name]; ok {
			if bits == 32 {
				return de.emitPrimitive(key, symbolGetFloatType)
			}
			return de.emitPrimitive(key, symbolGetDoubleType)
		}
		return de.emitNamed(t.Name, key)
	case *dst.StarExpr:
		elemVar := de.emit(t.X)
		return de.define(key, de.runtimeCall(symbolGetPtrType, ast.Ident(elemVar)))
	case *dst.ArrayType:
		if t.Len == nil {
			break // slice: not in the enumeration
		}
		n, ok := arrayLen(t)
		if !ok {
			break
		}
		elemVar := de.emit(t.Elt)
		return de.define(key, de.runtimeCall(symbolGetArrayType, ast.Ident(elemVar), ast.IntLit(n)))
	case *dst.StructType:
		elems := de.emitStructElems(t)
		return de.define(key, de.runtimeCall(symbolGetAnonStructType, elems...))
	case *dst.FuncType:
		return de.emitFuncType(t)
	case *dst.ParenExpr:
		return de.emit(t.X)
	}
	return de.emitUnknown(key)
}

// emitNamed handles a package-local named type. Named structs are emitted
// as forward placeholders first, recorded, then completed; other named
// types resolve through their underlying type. Unresolvable names (builtins
// like string, imported types) become Unknown.
func (de *descEmitter) emitNamed(name, key string) string {
	underlying, ok := de.types.ResolveNamed(name)
	if !ok {
		return de.emitUnknown(key)
	}
	structType, ok := underlying.(*dst.StructType)
	if !ok {
		local := de.emit(underlying)
		de.vars[key] = local
		return local
	}
	fwd := de.define(key, de.runtimeCall(symbolGetForwardStructType,
		ast.StringLit(de.types.module), ast.StringLit(name)))
	elems := de.emitStructElems(structType)
	setArgs := append([]dst.Expr{ast.Ident(fwd)}, elems...)
	de.stmts = append(de.stmts, ast.ExprStmt(de.runtimeCall(symbolSetStructElemTypes, setArgs...)))
	return fwd
}

func (de *descEmitter) emitStructElems(structType *dst.StructType) []dst.Expr {
	var elems []dst.Expr
	for _, field := range structType.Fields.List {
		fieldVar := de.emit(field.Type)
		count := max(len(field.Names), 1)
		for range count {
			elems = append(elems, ast.Ident(fieldVar))
		}
	}
	return elems
}

func (de *descEmitter) emitUnknown(signature string) string {
	if name, ok := de.vars[signature]; ok {
		return name
	}
	return de.define(signature, de.runtimeCall(symbolGetUnknownType,
		ast.StringLit(de.types.module), ast.StringLit(signature)))
}
