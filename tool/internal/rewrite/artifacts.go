// Copyright The Augmentum Authors
// SPDX-License-Identifier: Apache-2.0

package rewrite

import (
	"github.com/dave/dst"

	"github.com/augmentum-project/augmentum-go/tool/internal/ast"
	"github.com/augmentum-project/augmentum-go/tool/util"
)

// funcRewriter synthesises the six artifacts for one function: the private
// clone of the original body, the mutable dispatch var plus the point var,
// the reflective trampoline, the extended stub, the rewritten entry and the
// init constructor that registers the extension point.
type funcRewriter struct {
	rw   *Rewriter
	root *dst.File
	decl *dst.FuncDecl

	params []param
	ret    dst.Expr // nil when void
}

type param struct {
	name  string
	typ   dst.Expr
	byval bool // aggregate: its slot is the argument's own address
}

func globalName(fn, suffix string) string {
	return "aug_" + fn + "_" + suffix
}

func (fr *funcRewriter) fnName() string { return fr.decl.Name.Name }
func (fr *funcRewriter) cloneName() string { return globalName(fr.fnName(), "original") }
func (fr *funcRewriter) fnVarName() string { return globalName(fr.fnName(), "fn") }
func (fr *funcRewriter) pointName() string { return globalName(fr.fnName(), "point") }
func (fr *funcRewriter) reflectName() string { return globalName(fr.fnName(), "reflect") }
func (fr *funcRewriter) extendedName() string { return globalName(fr.fnName(), "extended") }

func (fr *funcRewriter) runtimeCall(symbol string, args ...dst.Expr) *dst.CallExpr {
	return ast.CallExpr(ast.SelectorExpr(ast.Ident(runtimePkgName), symbol), args...)
}

func (fr *funcRewriter) runtimeType(symbol string) dst.Expr {
	return ast.SelectorExpr(ast.Ident(runtimePkgName), symbol)
}

func (fr *funcRewriter) addDecl(decl dst.Decl) {
	fr.root.Decls = append(fr.root.Decls, decl)
}

func (fr *funcRewriter) transform() {
	fr.ensureParamNames()
	fr.collectSignature()
	fr.makeOriginalClone()
	fr.declareGlobals()
	fr.makeReflect()
	fr.makeExtended()
	fr.rewriteEntry()
	fr.makeInit()
}

// ensureParamNames names anonymous and blank parameters so the entry and
// the extended stub can forward them. The original body never referenced
// them, so renaming is safe.
func (fr *funcRewriter) ensureParamNames() {
	i := 0
	for _, field := range fr.decl.Type.Params.List {
		if len(field.Names) == 0 {
			field.Names = []*dst.Ident{ast.Ident("p" + itoa(i))}
			i++
			continue
		}
		for j, name := range field.Names {
			if ast.IsUnusedIdent(name) {
				field.Names[j] = ast.Ident("p" + itoa(i))
			}
			i++
		}
	}
}

func (fr *funcRewriter) collectSignature() {
	for _, field := range fr.decl.Type.Params.List {
		for _, name := range field.Names {
			fr.params = append(fr.params, param{
				name:  name.Name,
				typ:   field.Type,
				byval: fr.rw.types.isAggregate(field.Type),
			})
		}
	}
	if results := fr.decl.Type.Results; results != nil && len(results.List) > 0 {
		fr.ret = results.List[0].Type
	}
}

// freshName returns base unless a parameter already uses it.
func (fr *funcRewriter) freshName(base string) string {
	for {
		clash := false
		for _, p := range fr.params {
			if p.name == base {
				clash = true
				break
			}
		}
		if !clash {
			return base
		}
		base += "_"
	}
}

// makeOriginalClone preserves the original semantics under a private name.
// Recursive calls inside the clone still go through the rewritten entry, as
// they do in the unrewritten program when advice is absent.
func (fr *funcRewriter) makeOriginalClone() {
	clone := util.AssertType[*dst.FuncDecl](dst.Clone(fr.decl))
	clone.Name = ast.Ident(fr.cloneName())
	clone.Decs = dst.FuncDeclDecorations{}
	fr.addDecl(clone)
}

// declareGlobals emits the mutable dispatch var, initialised to the clone,
// and the extension-point var the constructor fills in.
func (fr *funcRewriter) declareGlobals() {
	fr.addDecl(ast.VarDecl(fr.fnVarName(), ast.Ident(fr.cloneName())))
	fr.addDecl(ast.TypedVarDecl(fr.pointName(),
		ast.DereferenceOf(fr.runtimeType(symbolPointType))))
}

// castSlot renders *(*T)(slots[i]), the single load that turns a slot back
// into a typed value. By-value aggregates read the same way: their slot is
// the aggregate's address, so the one dereference yields the aggregate.
func (fr *funcRewriter) castSlot(argsName string, i int, typ dst.Expr) dst.Expr {
	slot := ast.IndexExpr(ast.Ident(argsName), ast.IntLit(i))
	ptrType := ast.ParenExpr(ast.DereferenceOf(util.AssertType[dst.Expr](dst.Clone(typ))))
	return ast.DereferenceOf(ast.CallExpr(ptrType, slot))
}

// makeReflect synthesises the uniform-ABI trampoline:
//
//	func aug_add_reflect(ret augmentum.RetVal, args augmentum.ArgVals) {
//		*(*int32)(ret) = aug_add_original(*(*int32)(args[0]), *(*int32)(args[1]))
//	}
func (fr *funcRewriter) makeReflect() {
	retName, argsName := "ret", "args"
	if fr.ret == nil {
		retName = ast.IdentIgnore
	}
	if len(fr.params) == 0 {
		argsName = ast.IdentIgnore
	}

	callArgs := make([]dst.Expr, 0, len(fr.params))
	for i, p := range fr.params {
		callArgs = append(callArgs, fr.castSlot(argsName, i, p.typ))
	}
	call := ast.CallTo(fr.cloneName(), callArgs)

	var body dst.Stmt
	if fr.ret == nil {
		body = ast.ExprStmt(call)
	} else {
		retPtrType := ast.ParenExpr(ast.DereferenceOf(util.AssertType[dst.Expr](dst.Clone(fr.ret))))
		store := ast.DereferenceOf(ast.CallExpr(retPtrType, ast.Ident(retName)))
		body = ast.AssignStmt(store, call)
	}

	fr.addDecl(&dst.FuncDecl{
		Name: ast.Ident(fr.reflectName()),
		Type: &dst.FuncType{
			Params: &dst.FieldList{List: []*dst.Field{
				ast.Field(retName, fr.runtimeType(symbolRetValType)),
				ast.Field(argsName, fr.runtimeType(symbolArgValsType)),
			}},
		},
		Body: ast.BlockStmts(body),
	})
}

func unsafePointerOf(target dst.Expr) dst.Expr {
	return ast.CallExpr(ast.SelectorExpr(ast.Ident("unsafe"), "Pointer"), target)
}

// makeExtended synthesises the typed stub installed while advice is
// attached:
//
//	func aug_add_extended(a int32, b int32) int32 {
//		var ret int32
//		v0 := a
//		v1 := b
//		args := augmentum.ArgVals{unsafe.Pointer(&v0), unsafe.Pointer(&v1)}
//		augmentum.Eval(aug_add_point, unsafe.Pointer(&ret), args)
//		return ret
//	}
//
// Every slot holds the address of argument storage: a stack copy for
// ordinary arguments, the incoming aggregate itself for by-value aggregate
// arguments, which take no copy and no extra indirection.
func (fr *funcRewriter) makeExtended() {
	retName := fr.freshName("ret")
	argsName := fr.freshName("args")

	var stmts []dst.Stmt
	if fr.ret != nil {
		stmts = append(stmts, &dst.DeclStmt{
			Decl: ast.TypedVarDecl(retName, util.AssertType[dst.Expr](dst.Clone(fr.ret))),
		})
	}
	slots := make([]dst.Expr, 0, len(fr.params))
	for i, p := range fr.params {
		if p.byval {
			slots = append(slots, unsafePointerOf(ast.AddressOf(ast.Ident(p.name))))
			continue
		}
		copyName := fr.freshName("v" + itoa(i))
		stmts = append(stmts, ast.DefineStmt(ast.Ident(copyName), ast.Ident(p.name)))
		slots = append(slots, unsafePointerOf(ast.AddressOf(ast.Ident(copyName))))
	}
	stmts = append(stmts, ast.DefineStmt(ast.Ident(argsName),
		ast.CompositeLit(fr.runtimeType(symbolArgValsType), slots...)))

	retSlot := dst.Expr(ast.Ident(ast.IdentNil))
	if fr.ret != nil {
		retSlot = unsafePointerOf(ast.AddressOf(ast.Ident(retName)))
	}
	stmts = append(stmts, ast.ExprStmt(fr.runtimeCall(symbolEval,
		ast.Ident(fr.pointName()), retSlot, ast.Ident(argsName))))

	if fr.ret != nil {
		stmts = append(stmts, ast.ReturnStmt(ast.Exprs(ast.Ident(retName))))
	}

	fr.addDecl(&dst.FuncDecl{
		Name: ast.Ident(fr.extendedName()),
		Type: util.AssertType[*dst.FuncType](dst.Clone(fr.decl.Type)),
		Body: ast.BlockStmts(stmts...),
	})
}

// rewriteEntry replaces the body of the public function with the minimal
// inline trampoline through the dispatch var.
func (fr *funcRewriter) rewriteEntry() {
	callArgs := make([]dst.Expr, 0, len(fr.params))
	for _, p := range fr.params {
		callArgs = append(callArgs, ast.Ident(p.name))
	}
	call := ast.CallTo(fr.fnVarName(), callArgs)
	if fr.ret == nil {
		fr.decl.Body = ast.BlockStmts(ast.ExprStmt(call))
		return
	}
	fr.decl.Body = ast.BlockStmts(ast.ReturnStmt(ast.Exprs(call)))
}

// makeInit synthesises the constructor: descriptor construction bottom-up,
// then registration, storing the created point in its global.
func (fr *funcRewriter) makeInit() {
	emitter := newDescEmitter(fr.rw.types, runtimePkgName)
	typeVar := emitter.emitFuncType(fr.decl.Type)

	fnPtr := ast.CallExpr(
		ast.ParenExpr(ast.DereferenceOf(fr.runtimeType(symbolFnType))),
		unsafePointerOf(ast.AddressOf(ast.Ident(fr.fnVarName()))))
	create := fr.runtimeCall(symbolCreateExtensionPoint,
		ast.StringLit(fr.rw.opts.ModulePath),
		ast.StringLit(fr.fnName()),
		ast.Ident(typeVar),
		fnPtr,
		fr.runtimeCall(symbolFnOf, ast.Ident(fr.cloneName())),
		fr.runtimeCall(symbolFnOf, ast.Ident(fr.extendedName())),
		ast.Ident(fr.reflectName()))

	stmts := append(emitter.stmts, ast.AssignStmt(ast.Ident(fr.pointName()), create))
	fr.addDecl(&dst.FuncDecl{
		Name: ast.Ident("init"),
		Type: &dst.FuncType{Params: &dst.FieldList{}},
		Body: ast.BlockStmts(stmts...),
	})
}
