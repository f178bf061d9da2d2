// Copyright The Augmentum Authors
// SPDX-License-Identifier: Apache-2.0

package augmentum_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/augmentum-project/augmentum-go/sdk/augmentum"
)

func TestPrimitiveSignatures(t *testing.T) {
	assert.Equal(t, "void", augmentum.GetVoidType().Signature())
	assert.Equal(t, "int1", augmentum.GetI1Type().Signature())
	assert.Equal(t, "int8", augmentum.GetI8Type().Signature())
	assert.Equal(t, "int16", augmentum.GetI16Type().Signature())
	assert.Equal(t, "int32", augmentum.GetI32Type().Signature())
	assert.Equal(t, "int64", augmentum.GetI64Type().Signature())
	assert.Equal(t, "float", augmentum.GetFloatType().Signature())
	assert.Equal(t, "double", augmentum.GetDoubleType().Signature())
}

func TestPrimitivesAreSingletons(t *testing.T) {
	assert.Same(t, augmentum.GetI32Type(), augmentum.GetI32Type())
	assert.Same(t, augmentum.GetI32Type(), augmentum.GetIntType(32))
	assert.Same(t, augmentum.GetDoubleType(), augmentum.GetFloatNType(64))
}

func TestPointerInternedOnElement(t *testing.T) {
	i32 := augmentum.GetI32Type()
	p1 := augmentum.GetPtrType(i32)
	p2 := augmentum.GetPtrType(i32)
	assert.Same(t, p1, p2)
	assert.Same(t, p1, i32.Ptr())
	assert.Equal(t, "int32*", p1.Signature())
	assert.Same(t, i32, p1.Elem())

	pp := augmentum.GetPtrType(p1)
	assert.Equal(t, "int32**", pp.Signature())
}

func TestArrayAndVectorInterning(t *testing.T) {
	f64 := augmentum.GetDoubleType()
	a1 := augmentum.GetArrayType(f64, 4)
	a2 := augmentum.GetArrayType(f64, 4)
	assert.Same(t, a1, a2)
	assert.Equal(t, "[4 x double]", a1.Signature())
	assert.Equal(t, 4, a1.Len())

	v := augmentum.GetVectorType(f64, 4)
	assert.NotSame(t, a1, v)
	assert.Equal(t, "<4 x double>", v.Signature())
	assert.Same(t, v, augmentum.GetVectorType(f64, 4))
}

func TestAnonStructKeyedBySignature(t *testing.T) {
	i64 := augmentum.GetI64Type()
	f64 := augmentum.GetDoubleType()
	s1 := augmentum.GetAnonStructType(i64, f64)
	s2 := augmentum.GetAnonStructType(i64, f64)
	assert.Same(t, s1, s2)
	assert.True(t, s1.IsAnonymous())
	assert.Equal(t, "{int64, double}", s1.Signature())

	s3 := augmentum.GetAnonStructType(f64, i64)
	assert.NotSame(t, s1, s3)
}

func TestNamedStructForwardAndCompletion(t *testing.T) {
	const mod = "example.com/typetest"
	fwd := augmentum.GetForwardStructType(mod, "Widget")
	require.True(t, fwd.IsForward())
	assert.Equal(t, "'example.com/typetest::Widget' ", fwd.Signature())

	// Completing the forward placeholder upgrades it in place.
	i32 := augmentum.GetI32Type()
	done := augmentum.GetNamedStructType(mod, "Widget", i32, i32)
	assert.Same(t, fwd, done)
	assert.False(t, done.IsForward())
	assert.Equal(t, 2, done.NumElems())
	assert.Same(t, i32, done.ElemType(0))

	// Re-declaration with the same layout is fine.
	again := augmentum.GetNamedStructType(mod, "Widget", i32, i32)
	assert.Same(t, done, again)
}

func TestNamedStructRedefinitionMismatchPanics(t *testing.T) {
	const mod = "example.com/typetest"
	i32 := augmentum.GetI32Type()
	f64 := augmentum.GetDoubleType()
	augmentum.GetNamedStructType(mod, "Fixed", i32)
	assert.Panics(t, func() {
		augmentum.GetNamedStructType(mod, "Fixed", f64)
	})
}

func TestRecursiveNamedStruct(t *testing.T) {
	const mod = "example.com/typetest"
	node := augmentum.GetForwardStructType(mod, "Node")
	augmentum.SetStructElemTypes(node, augmentum.GetI32Type(), augmentum.GetPtrType(node))
	assert.False(t, node.IsForward())
	assert.Same(t, node, node.ElemType(1).Elem())
	// The signature is the name, not the body, so rendering terminates.
	assert.Equal(t, "'example.com/typetest::Node' ", node.Signature())
}

func TestFunctionTypeInterning(t *testing.T) {
	i32 := augmentum.GetI32Type()
	fn1 := augmentum.GetFunctionType(i32, i32, i32)
	fn2 := augmentum.GetFunctionType(i32, i32, i32)
	assert.Same(t, fn1, fn2)
	assert.Equal(t, "int32 (int32, int32)", fn1.Signature())
	assert.Equal(t, 2, fn1.NumArgs())
	assert.Same(t, i32, fn1.ReturnType())

	void := augmentum.GetVoidType()
	fn3 := augmentum.GetFunctionType(void)
	assert.Equal(t, "void ()", fn3.Signature())
}

func TestUnknownTypeInterning(t *testing.T) {
	u1 := augmentum.GetUnknownType("example.com/typetest", "map[string]int")
	u2 := augmentum.GetUnknownType("example.com/typetest", "map[string]int")
	assert.Same(t, u1, u2)
	assert.Equal(t, augmentum.KindUnknown, u1.Kind())
	assert.Equal(t, "map[string]int", u1.Signature())
	assert.Equal(t, "example.com/typetest", u1.Module())

	u3 := augmentum.GetUnknownType("example.com/other", "map[string]int")
	assert.NotSame(t, u1, u3)
}

func TestUniqueAdviceIdStrictlyIncreasing(t *testing.T) {
	a := augmentum.GetUniqueAdviceId()
	b := augmentum.GetUniqueAdviceId()
	require.NotZero(t, a)
	assert.Greater(t, b, a)
}
