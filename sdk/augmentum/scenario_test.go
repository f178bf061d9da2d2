// Copyright The Augmentum Authors
// SPDX-License-Identifier: Apache-2.0

package augmentum_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/augmentum-project/augmentum-go/sdk/augmentum"
)

// End-to-end behaviour of instrumented functions, driven exactly the way
// rewritten application code drives the runtime.

func incReturn(p *augmentum.FnExtensionPoint, h augmentum.AroundHandle, ret augmentum.RetVal, args augmentum.ArgVals) {
	p.CallPrevious(h, ret, args)
	*(*int32)(ret)++
}

func TestAroundAdviceAddsOneToReturn(t *testing.T) {
	pt := augAddPoint
	h := pt.ExtendAround(incReturn, 0)
	assert.Equal(t, int32(31), add(10, 20))

	pt.RemoveAround(h)
	assert.Equal(t, int32(30), add(10, 20))
}

func TestStackedAroundAdvice(t *testing.T) {
	pt := augAddPoint
	defer pt.Reset()
	pt.ExtendAround(incReturn, 0)
	pt.ExtendAround(incReturn, 0)

	assert.Equal(t, int32(302), add(100, 200))

	fp := pt.OriginalDirect()
	direct := *(*func(int32, int32) int32)(unsafe.Pointer(&fp))
	assert.Equal(t, int32(300), direct(100, 200))
}

func TestPointerReturnAdvice(t *testing.T) {
	pt := augPassthroughPoint
	defer pt.Reset()

	// Post-increment the pointee of the returned pointer.
	pt.ExtendAround(func(p *augmentum.FnExtensionPoint, h augmentum.AroundHandle, ret augmentum.RetVal, args augmentum.ArgVals) {
		p.CallPrevious(h, ret, args)
		r := *(**int32)(ret)
		*r++
	}, 0)

	v := int32(5)
	out := passthrough(&v)
	require.Same(t, &v, out)
	assert.Equal(t, int32(6), *out)

	// Additionally increment the pointee of the first pointer argument
	// before the chain below runs.
	h2 := pt.ExtendAround(func(p *augmentum.FnExtensionPoint, h augmentum.AroundHandle, ret augmentum.RetVal, args augmentum.ArgVals) {
		arg := *(**int32)(args[0])
		*arg++
		p.CallPrevious(h, ret, args)
	}, 0)
	_ = h2

	v = 5
	out = passthrough(&v)
	assert.Equal(t, int32(7), *out)
	assert.Equal(t, int32(7), v)
}

func TestAggregateReturnAdvice(t *testing.T) {
	pt := augMakePairPoint
	defer pt.Reset()

	pt.ExtendAround(func(p *augmentum.FnExtensionPoint, h augmentum.AroundHandle, ret augmentum.RetVal, args augmentum.ArgVals) {
		p.CallPrevious(h, ret, args)
		(*pair)(ret).i++
	}, 0)

	got := makePair(10, 20)
	assert.Equal(t, pair{i: 11, f: 30.0}, got)
}

func TestRecursiveNodeTypeDescriptor(t *testing.T) {
	pt := augBumpPoint
	// One descriptor, exposed in both argument and return position.
	require.Equal(t, 1, pt.NumArgs())
	assert.Same(t, pt.ReturnType(), pt.ArgType(0))
	nodeDesc := pt.ArgType(0).Elem()
	assert.False(t, nodeDesc.IsForward())
	assert.Same(t, nodeDesc, nodeDesc.ElemType(1).Elem())

	defer pt.Reset()
	pt.ExtendAfter(func(_ *augmentum.FnExtensionPoint, ret augmentum.RetVal, _ augmentum.ArgVals) {
		n := *(**node)(ret)
		n.v++
	}, 0)

	n := &node{v: 41}
	out := bump(n)
	require.Same(t, n, out)
	assert.Equal(t, int32(42), out.v)
}

func TestByValueAggregateSlots(t *testing.T) {
	pt := augSum6Point
	defer pt.Reset()

	var observed []int32
	var observedTag string
	pt.ExtendBefore(func(_ *augmentum.FnExtensionPoint, args augmentum.ArgVals) {
		for i := range 6 {
			observed = append(observed, *(*int32)(args[i]))
		}
		// The aggregate slot is the aggregate's address, one load only.
		agg := (*tagged)(args[6])
		observedTag = agg.tag
	}, 0)

	sum6(0, 1, 2, 3, 4, 5, tagged{tag: "s", n: 9})
	assert.Equal(t, int32(15), sum6Sink)
	assert.Equal(t, []int32{0, 1, 2, 3, 4, 5}, observed)
	assert.Equal(t, "s", observedTag)
}

func TestVoidReflectiveCall(t *testing.T) {
	sum6Sink = 0
	a := [6]int32{1, 2, 3, 4, 5, 6}
	agg := tagged{tag: "x", n: 1}
	args := augmentum.ArgVals{
		unsafe.Pointer(&a[0]), unsafe.Pointer(&a[1]), unsafe.Pointer(&a[2]),
		unsafe.Pointer(&a[3]), unsafe.Pointer(&a[4]), unsafe.Pointer(&a[5]),
		unsafe.Pointer(&agg),
	}
	augSum6Point.CallOriginal(nil, args)
	assert.Equal(t, int32(21), sum6Sink)
}
