// Copyright The Augmentum Authors
// SPDX-License-Identifier: Apache-2.0

// Package predicate decides which modules and functions the pass rewrites.
// Eligibility (definition, non-variadic, ...) is the rewriter's concern;
// predicates express policy on top of it.
package predicate

import (
	"github.com/dave/dst"
)

// ModuleInfo identifies the package under rewrite.
type ModuleInfo struct {
	Path string
}

// FuncInfo identifies one candidate function.
type FuncInfo struct {
	Module string
	Name   string
	Symbol string // Module + "." + Name
	Decl   *dst.FuncDecl
}

// ShouldInstrument is the callback the pass consults per module and per
// function. DecisionInfo reports a textual tag describing why a function
// was or was not chosen; it feeds the statistics sink.
type ShouldInstrument interface {
	Module(m ModuleInfo) bool
	Function(f FuncInfo) bool
	DecisionInfo(m ModuleInfo, f FuncInfo) string
}

// Decision tags shared by the variants.
const (
	DecisionNA         = "NA"
	DecisionInstrument = "instrument"
	DecisionNotModule  = "not_module"
)

// Always instruments every eligible function.
type Always struct{}

func (Always) Module(ModuleInfo) bool { return true }
func (Always) Function(FuncInfo) bool { return true }
func (Always) DecisionInfo(ModuleInfo, FuncInfo) string { return DecisionNA }
