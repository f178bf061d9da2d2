// Copyright The Augmentum Authors
// SPDX-License-Identifier: Apache-2.0

package predicate

import (
	"context"
	"os"
	"strings"

	"github.com/PaesslerAG/gval"
	"github.com/dave/dst"

	"github.com/augmentum-project/augmentum-go/tool/ex"
)

// Script defers the decision to an external expression loaded from a script
// file. The expression is evaluated once per candidate with the bindings
//
//	module    the package import path
//	function  the function name
//	symbol    module-qualified name
//	exported  whether the function is exported
//	params    number of parameters
//	results   number of results
//
// and must yield a boolean. Used when the pass is driven by an embedding
// that supplies the policy from outside.
type Script struct {
	source string
	eval   gval.Evaluable
}

// NewScript loads and compiles the expression in path.
func NewScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ex.Wrapf(err, "failed to read script %s", path)
	}
	source := strings.TrimSpace(string(data))
	eval, err := gval.Full().NewEvaluable(source)
	if err != nil {
		return nil, ex.Wrapf(err, "failed to compile script %s", path)
	}
	return &Script{source: source, eval: eval}, nil
}

func (s *Script) Module(ModuleInfo) bool { return true }

func (s *Script) Function(f FuncInfo) bool {
	ok, err := s.eval.EvalBool(context.Background(), map[string]any{
		"module":   f.Module,
		"function": f.Name,
		"symbol":   f.Symbol,
		"exported": isExportedName(f.Name),
		"params":   countParams(f.Decl),
		"results":  countResults(f.Decl),
	})
	if err != nil {
		// Policy errors are compile-time fatal, like malformed input IR.
		ex.Fatalf("script predicate failed on %s: %v", f.Symbol, err)
	}
	return ok
}

func (s *Script) DecisionInfo(_ ModuleInfo, f FuncInfo) string {
	if s.Function(f) {
		return "script_accept"
	}
	return "script_reject"
}

func isExportedName(name string) bool {
	if name == "" {
		return false
	}
	head := name[0]
	return head >= 'A' && head <= 'Z'
}

func countParams(decl *dst.FuncDecl) int {
	if decl == nil || decl.Type.Params == nil {
		return 0
	}
	n := 0
	for _, field := range decl.Type.Params.List {
		n += max(len(field.Names), 1)
	}
	return n
}

func countResults(decl *dst.FuncDecl) int {
	if decl == nil || decl.Type.Results == nil {
		return 0
	}
	n := 0
	for _, field := range decl.Type.Results.List {
		n += max(len(field.Names), 1)
	}
	return n
}
