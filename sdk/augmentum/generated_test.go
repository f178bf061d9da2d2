// Copyright The Augmentum Authors
// SPDX-License-Identifier: Apache-2.0

package augmentum_test

// This file mirrors, by hand, the artifact set the rewriting pass
// synthesises for a handful of functions. The runtime tests drive these
// exactly the way rewritten application code would.

import (
	"unsafe"

	"github.com/augmentum-project/augmentum-go/sdk/augmentum"
)

const genModule = "example.com/generated"

func init() { registerGeneratedPoints() }

// registerGeneratedPoints mirrors the generated init constructors. Re-run by
// the shutdown test to restore the registry it tore down.
func registerGeneratedPoints() {
	registerAdd()
	registerPassthrough()
	registerMakePair()
	registerBump()
	registerSum6()
}

// --- func add(a, b int32) int32 { return a + b } ------------------------

func add(a, b int32) int32 { return augAddFn(a, b) }

func augAddOriginal(a, b int32) int32 { return a + b }

func augAddExtended(a, b int32) int32 {
	var ret int32
	v0 := a
	v1 := b
	args := augmentum.ArgVals{unsafe.Pointer(&v0), unsafe.Pointer(&v1)}
	augmentum.Eval(augAddPoint, unsafe.Pointer(&ret), args)
	return ret
}

func augAddReflect(ret augmentum.RetVal, args augmentum.ArgVals) {
	*(*int32)(ret) = augAddOriginal(*(*int32)(args[0]), *(*int32)(args[1]))
}

var (
	augAddFn    = augAddOriginal
	augAddPoint *augmentum.FnExtensionPoint
)

func registerAdd() {
	t0 := augmentum.GetI32Type()
	t1 := augmentum.GetFunctionType(t0, t0, t0)
	augAddPoint = augmentum.CreateExtensionPoint(genModule, "add", t1,
		(*augmentum.Fn)(unsafe.Pointer(&augAddFn)),
		augmentum.FnOf(augAddOriginal),
		augmentum.FnOf(augAddExtended),
		augAddReflect)
}

// --- func passthrough(p *int32) *int32 { return p } ---------------------

func passthrough(p *int32) *int32 { return augPassthroughFn(p) }

func augPassthroughOriginal(p *int32) *int32 { return p }

func augPassthroughExtended(p *int32) *int32 {
	var ret *int32
	v0 := p
	args := augmentum.ArgVals{unsafe.Pointer(&v0)}
	augmentum.Eval(augPassthroughPoint, unsafe.Pointer(&ret), args)
	return ret
}

func augPassthroughReflect(ret augmentum.RetVal, args augmentum.ArgVals) {
	*(**int32)(ret) = augPassthroughOriginal(*(**int32)(args[0]))
}

var (
	augPassthroughFn    = augPassthroughOriginal
	augPassthroughPoint *augmentum.FnExtensionPoint
)

func registerPassthrough() {
	t0 := augmentum.GetPtrType(augmentum.GetI32Type())
	t1 := augmentum.GetFunctionType(t0, t0)
	augPassthroughPoint = augmentum.CreateExtensionPoint(genModule, "passthrough", t1,
		(*augmentum.Fn)(unsafe.Pointer(&augPassthroughFn)),
		augmentum.FnOf(augPassthroughOriginal),
		augmentum.FnOf(augPassthroughExtended),
		augPassthroughReflect)
}

// --- func makePair(a int64, b float64) pair -----------------------------

type pair struct {
	i int64
	f float64
}

func makePair(a int64, b float64) pair { return augMakePairFn(a, b) }

func augMakePairOriginal(a int64, b float64) pair {
	return pair{i: a, f: float64(a) + b}
}

func augMakePairExtended(a int64, b float64) pair {
	var ret pair
	v0 := a
	v1 := b
	args := augmentum.ArgVals{unsafe.Pointer(&v0), unsafe.Pointer(&v1)}
	augmentum.Eval(augMakePairPoint, unsafe.Pointer(&ret), args)
	return ret
}

func augMakePairReflect(ret augmentum.RetVal, args augmentum.ArgVals) {
	*(*pair)(ret) = augMakePairOriginal(*(*int64)(args[0]), *(*float64)(args[1]))
}

var (
	augMakePairFn    = augMakePairOriginal
	augMakePairPoint *augmentum.FnExtensionPoint
)

func registerMakePair() {
	t0 := augmentum.GetI64Type()
	t1 := augmentum.GetDoubleType()
	t2 := augmentum.GetForwardStructType(genModule, "pair")
	augmentum.SetStructElemTypes(t2, t0, t1)
	t3 := augmentum.GetFunctionType(t2, t0, t1)
	augMakePairPoint = augmentum.CreateExtensionPoint(genModule, "makePair", t3,
		(*augmentum.Fn)(unsafe.Pointer(&augMakePairFn)),
		augmentum.FnOf(augMakePairOriginal),
		augmentum.FnOf(augMakePairExtended),
		augMakePairReflect)
}

// --- func bump(n *node) *node { return n } ------------------------------

type node struct {
	v    int32
	next *node
}

func bump(n *node) *node { return augBumpFn(n) }

func augBumpOriginal(n *node) *node { return n }

func augBumpExtended(n *node) *node {
	var ret *node
	v0 := n
	args := augmentum.ArgVals{unsafe.Pointer(&v0)}
	augmentum.Eval(augBumpPoint, unsafe.Pointer(&ret), args)
	return ret
}

func augBumpReflect(ret augmentum.RetVal, args augmentum.ArgVals) {
	*(**node)(ret) = augBumpOriginal(*(**node)(args[0]))
}

var (
	augBumpFn    = augBumpOriginal
	augBumpPoint *augmentum.FnExtensionPoint
)

func registerBump() {
	// The self-referential aggregate goes through a forward placeholder,
	// and the one descriptor shows up in argument and return position.
	t0 := augmentum.GetForwardStructType(genModule, "node")
	t1 := augmentum.GetI32Type()
	augmentum.SetStructElemTypes(t0, t1, augmentum.GetPtrType(t0))
	t2 := augmentum.GetPtrType(t0)
	t3 := augmentum.GetFunctionType(t2, t2)
	augBumpPoint = augmentum.CreateExtensionPoint(genModule, "bump", t3,
		(*augmentum.Fn)(unsafe.Pointer(&augBumpFn)),
		augmentum.FnOf(augBumpOriginal),
		augmentum.FnOf(augBumpExtended),
		augBumpReflect)
}

// --- func sum6(a0..a5 int32, agg tagged) --------------------------------

type tagged struct {
	tag string
	n   int32
}

var sum6Sink int32

func sum6(a0, a1, a2, a3, a4, a5 int32, agg tagged) {
	augSum6Fn(a0, a1, a2, a3, a4, a5, agg)
}

func augSum6Original(a0, a1, a2, a3, a4, a5 int32, agg tagged) {
	sum6Sink = a0 + a1 + a2 + a3 + a4 + a5
	_ = agg
}

func augSum6Extended(a0, a1, a2, a3, a4, a5 int32, agg tagged) {
	// agg is a by-value aggregate: its slot is the address of the incoming
	// argument itself, no local copy and no extra indirection.
	v0, v1, v2 := a0, a1, a2
	v3, v4, v5 := a3, a4, a5
	args := augmentum.ArgVals{
		unsafe.Pointer(&v0), unsafe.Pointer(&v1), unsafe.Pointer(&v2),
		unsafe.Pointer(&v3), unsafe.Pointer(&v4), unsafe.Pointer(&v5),
		unsafe.Pointer(&agg),
	}
	augmentum.Eval(augSum6Point, nil, args)
}

func augSum6Reflect(_ augmentum.RetVal, args augmentum.ArgVals) {
	augSum6Original(
		*(*int32)(args[0]), *(*int32)(args[1]), *(*int32)(args[2]),
		*(*int32)(args[3]), *(*int32)(args[4]), *(*int32)(args[5]),
		*(*tagged)(args[6]))
}

var (
	augSum6Fn    = augSum6Original
	augSum6Point *augmentum.FnExtensionPoint
)

func registerSum6() {
	t0 := augmentum.GetVoidType()
	t1 := augmentum.GetI32Type()
	t2 := augmentum.GetForwardStructType(genModule, "tagged")
	augmentum.SetStructElemTypes(t2, augmentum.GetUnknownType(genModule, "string"), t1)
	t3 := augmentum.GetFunctionType(t0, t1, t1, t1, t1, t1, t1, t2)
	augSum6Point = augmentum.CreateExtensionPoint(genModule, "sum6", t3,
		(*augmentum.Fn)(unsafe.Pointer(&augSum6Fn)),
		augmentum.FnOf(augSum6Original),
		augmentum.FnOf(augSum6Extended),
		augSum6Reflect)
}
