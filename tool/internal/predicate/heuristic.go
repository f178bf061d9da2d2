// Copyright The Augmentum Authors
// SPDX-License-Identifier: Apache-2.0

package predicate

import (
	"regexp"
	"strings"

	"github.com/dave/dst"
)

// Heuristic decision tags.
const (
	decisionNotFunMain          = "not_fun_main"
	decisionNotFunStd           = "not_fun_std"
	decisionNotFunC             = "not_fun_c"
	decisionNotFunDtor          = "not_fun_dtor"
	decisionNoInterestingTypes  = "not_no_interesting_types"
	decisionReadonlyFunction    = "not_readonly_function"
)

// Symbols that belong to the toolchain's own namespaces rather than user
// code.
var stdNamespaceRegexps = []*regexp.Regexp{
	regexp.MustCompile(`^(runtime|reflect|syscall|unsafe)(/|\.)`),
	regexp.MustCompile(`^internal/`),
	regexp.MustCompile(`^golang\.org/x/`),
	regexp.MustCompile(`^vendor/`),
}

// Finalisers and teardown entry points: instrumenting them observes nothing
// the registered advice can still act on.
var dtorSuffixRegexp = regexp.MustCompile(`(Close|Shutdown|Destroy|Finalize)$`)

// Heuristic rejects functions that past sweeps showed to be useless
// extension points: entry points, toolchain namespaces, generated glue,
// teardown functions, and functions whose signature cannot carry data in or
// out.
type Heuristic struct{}

func (Heuristic) Module(ModuleInfo) bool { return true }

func (h Heuristic) Function(f FuncInfo) bool {
	return h.DecisionInfo(ModuleInfo{Path: f.Module}, f) == DecisionInstrument
}

func (h Heuristic) DecisionInfo(_ ModuleInfo, f FuncInfo) string {
	if f.Name == "main" || f.Name == "init" {
		return decisionNotFunMain
	}
	for _, re := range stdNamespaceRegexps {
		if re.MatchString(f.Symbol) {
			return decisionNotFunStd
		}
	}
	// Underscore-prefixed names are generated glue (cgo shims and the
	// like), not user code.
	if strings.HasPrefix(f.Name, "_") {
		return decisionNotFunC
	}
	if dtorSuffixRegexp.MatchString(f.Name) {
		return decisionNotFunDtor
	}
	if f.Decl != nil {
		if !hasInterestingTypes(f.Decl) {
			return decisionNoInterestingTypes
		}
		if isReadonlyVoidFunction(f.Decl) {
			return decisionReadonlyFunction
		}
	}
	return DecisionInstrument
}

// A return type is interesting when it is a scalar the advice can rewrite
// in place; a parameter is interesting when it is a pointer to such a
// scalar, since that lets advice reach back into the caller.
func isScalarIdent(expr dst.Expr) bool {
	ident, ok := expr.(*dst.Ident)
	if !ok {
		return false
	}
	switch ident.Name {
	case "bool", "int", "uint", "uintptr",
		"int8", "int16", "int32", "int64",
		"uint8", "uint16", "uint32", "uint64",
		"byte", "rune", "float32", "float64":
		return true
	}
	return false
}

func isInterestingReturn(expr dst.Expr) bool {
	if isScalarIdent(expr) {
		return true
	}
	// A struct of scalars can still be picked apart by advice.
	if structType, ok := expr.(*dst.StructType); ok {
		for _, field := range structType.Fields.List {
			if isScalarIdent(field.Type) {
				return true
			}
		}
	}
	return false
}

func isInterestingParam(expr dst.Expr) bool {
	starExpr, ok := expr.(*dst.StarExpr)
	if !ok {
		return false
	}
	if _, doublePtr := starExpr.X.(*dst.StarExpr); doublePtr {
		return false
	}
	return isScalarIdent(starExpr.X) || isInterestingReturn(starExpr.X)
}

func hasInterestingTypes(decl *dst.FuncDecl) bool {
	if results := decl.Type.Results; results != nil {
		for _, field := range results.List {
			if isInterestingReturn(field.Type) {
				return true
			}
		}
	}
	for _, field := range decl.Type.Params.List {
		if isInterestingParam(field.Type) {
			return true
		}
	}
	return false
}

// A void function that never stores through anything but plain locals and
// never calls out cannot observably carry data back to its caller.
func isReadonlyVoidFunction(decl *dst.FuncDecl) bool {
	if decl.Type.Results != nil && len(decl.Type.Results.List) > 0 {
		return false
	}
	if decl.Body == nil {
		return true
	}
	writes := false
	dst.Inspect(decl.Body, func(node dst.Node) bool {
		switch n := node.(type) {
		case *dst.AssignStmt:
			for _, lhs := range n.Lhs {
				if _, plain := lhs.(*dst.Ident); !plain {
					writes = true
				}
			}
		case *dst.IncDecStmt:
			if _, plain := n.X.(*dst.Ident); !plain {
				writes = true
			}
		case *dst.CallExpr, *dst.GoStmt, *dst.SendStmt:
			// Conservative: a callee may write through escaped pointers.
			writes = true
		}
		return !writes
	})
	return !writes
}
