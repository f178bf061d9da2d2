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

func requireOriginal(t *testing.T, pt *augmentum.FnExtensionPoint) {
	t.Helper()
	require.True(t, pt.IsOriginal())
	require.False(t, pt.IsExtended())
	require.False(t, pt.IsReplaced())
}

func TestLookupFindsRegisteredPoint(t *testing.T) {
	pt := augmentum.Lookup(genModule, "add")
	require.NotNil(t, pt)
	assert.Same(t, augAddPoint, pt)
	assert.Equal(t, "add", pt.Name())
	assert.Equal(t, genModule, pt.ModuleName())
	assert.Equal(t, "int32 (int32, int32)", pt.Signature())
	assert.Equal(t, 2, pt.NumArgs())
	assert.Same(t, augmentum.GetI32Type(), pt.ReturnType())
	assert.Same(t, augmentum.GetI32Type(), pt.ArgType(1))

	assert.Nil(t, augmentum.Lookup(genModule, "nosuch"))
}

func TestStatesAreDisjoint(t *testing.T) {
	pt := augAddPoint
	requireOriginal(t, pt)

	h := pt.ExtendBefore(func(*augmentum.FnExtensionPoint, augmentum.ArgVals) {}, 0)
	assert.False(t, pt.IsOriginal())
	assert.True(t, pt.IsExtended())
	assert.False(t, pt.IsReplaced())

	pt.RemoveBefore(h)
	requireOriginal(t, pt)

	var replacement = func(a, b int32) int32 { return -1 }
	pt.Replace(augmentum.FnOf(replacement))
	assert.False(t, pt.IsOriginal())
	assert.False(t, pt.IsExtended())
	assert.True(t, pt.IsReplaced())

	pt.Reset()
	requireOriginal(t, pt)
}

func TestReplaceAndReset(t *testing.T) {
	pt := augAddPoint
	sub := func(a, b int32) int32 { return a - b }
	pt.Replace(augmentum.FnOf(sub))
	assert.Equal(t, int32(-10), add(10, 20))

	// Reset restores the observable behaviour of the original clone.
	pt.Reset()
	assert.Equal(t, int32(30), add(10, 20))
}

func TestExtendingReplacedPointPanics(t *testing.T) {
	pt := augAddPoint
	pt.Replace(augmentum.FnOf(func(a, b int32) int32 { return 0 }))
	defer pt.Reset()
	assert.Panics(t, func() {
		pt.ExtendBefore(func(*augmentum.FnExtensionPoint, augmentum.ArgVals) {}, 0)
	})
}

func TestBeforeAdviceOrderAndArgMutation(t *testing.T) {
	pt := augAddPoint
	defer pt.Reset()

	var order []string
	pt.ExtendBefore(func(_ *augmentum.FnExtensionPoint, args augmentum.ArgVals) {
		order = append(order, "first")
		*(*int32)(args[0]) += 1
	}, 0)
	pt.ExtendBefore(func(_ *augmentum.FnExtensionPoint, args augmentum.ArgVals) {
		order = append(order, "second")
		*(*int32)(args[1]) += 2
	}, 0)

	// Most recently attached before-advice runs first; slot mutations are
	// seen by the original.
	assert.Equal(t, int32(33), add(10, 20))
	assert.Equal(t, []string{"second", "first"}, order)
}

func TestAfterAdviceObservesReturnSlot(t *testing.T) {
	pt := augAddPoint
	defer pt.Reset()

	var seen int32
	pt.ExtendAfter(func(_ *augmentum.FnExtensionPoint, ret augmentum.RetVal, _ augmentum.ArgVals) {
		seen = *(*int32)(ret)
		*(*int32)(ret) *= 2
	}, 0)

	assert.Equal(t, int32(60), add(10, 20))
	assert.Equal(t, int32(30), seen)
}

func TestAroundAdviceMaySkipOriginal(t *testing.T) {
	pt := augAddPoint
	defer pt.Reset()

	pt.ExtendAround(func(_ *augmentum.FnExtensionPoint, _ augmentum.AroundHandle, ret augmentum.RetVal, _ augmentum.ArgVals) {
		// Never calls previous: the original must not run.
		*(*int32)(ret) = 77
	}, 0)

	assert.Equal(t, int32(77), add(10, 20))
}

func TestAroundChainTraversal(t *testing.T) {
	pt := augAddPoint
	defer pt.Reset()

	var order []string
	mk := func(tag string) augmentum.AroundAdvice {
		return func(p *augmentum.FnExtensionPoint, h augmentum.AroundHandle, ret augmentum.RetVal, args augmentum.ArgVals) {
			order = append(order, tag+"-in")
			p.CallPrevious(h, ret, args)
			order = append(order, tag+"-out")
		}
	}
	pt.ExtendAround(mk("a1"), 0)
	pt.ExtendAround(mk("a2"), 0)
	pt.ExtendAround(mk("a3"), 0)

	assert.Equal(t, int32(30), add(10, 20))
	// Outermost frame is the most recently attached.
	assert.Equal(t, []string{"a3-in", "a2-in", "a1-in", "a1-out", "a2-out", "a3-out"}, order)
}

func TestRemoveByHandleResetsWhenEmpty(t *testing.T) {
	pt := augAddPoint
	h1 := pt.ExtendAround(func(p *augmentum.FnExtensionPoint, h augmentum.AroundHandle, ret augmentum.RetVal, args augmentum.ArgVals) {
		p.CallPrevious(h, ret, args)
		*(*int32)(ret)++
	}, 0)

	assert.Equal(t, int32(31), add(10, 20))
	pt.RemoveAround(h1)
	requireOriginal(t, pt)
	assert.Equal(t, int32(30), add(10, 20))
}

func TestRemoveByID(t *testing.T) {
	pt := augAddPoint
	id := augmentum.GetUniqueAdviceId()
	pt.ExtendBefore(func(*augmentum.FnExtensionPoint, augmentum.ArgVals) {}, id)
	pt.ExtendAround(func(p *augmentum.FnExtensionPoint, h augmentum.AroundHandle, ret augmentum.RetVal, args augmentum.ArgVals) {
		p.CallPrevious(h, ret, args)
	}, id)
	pt.ExtendAfter(func(*augmentum.FnExtensionPoint, augmentum.RetVal, augmentum.ArgVals) {}, id)
	require.True(t, pt.IsExtended())

	pt.Remove(id)
	requireOriginal(t, pt)
}

func TestRemoveUnknownIDIsNoop(t *testing.T) {
	pt := augAddPoint
	pt.Remove(augmentum.GetUniqueAdviceId())
	requireOriginal(t, pt)

	id := augmentum.GetUniqueAdviceId()
	pt.ExtendBefore(func(*augmentum.FnExtensionPoint, augmentum.ArgVals) {}, id)
	defer pt.Reset()
	pt.Remove(id + 1000)
	assert.True(t, pt.IsExtended())
}

func TestZeroIDDisablesIdRemoval(t *testing.T) {
	pt := augAddPoint
	pt.ExtendBefore(func(*augmentum.FnExtensionPoint, augmentum.ArgVals) {}, 0)
	defer pt.Reset()

	pt.Remove(0)
	assert.True(t, pt.IsExtended())
}

func TestResetIdempotent(t *testing.T) {
	pt := augAddPoint
	pt.Reset()
	pt.Reset()
	requireOriginal(t, pt)
}

func TestCallOriginalRoundTrip(t *testing.T) {
	// With no advice attached, a reflective call equals a direct call.
	var ret int32
	a, b := int32(7), int32(35)
	args := augmentum.ArgVals{unsafe.Pointer(&a), unsafe.Pointer(&b)}
	augAddPoint.CallOriginal(unsafe.Pointer(&ret), args)
	assert.Equal(t, add(7, 35), ret)
}

func TestCallCurrentNilHandleCallsOriginal(t *testing.T) {
	var ret int32
	a, b := int32(2), int32(3)
	args := augmentum.ArgVals{unsafe.Pointer(&a), unsafe.Pointer(&b)}
	augAddPoint.CallCurrent(nil, unsafe.Pointer(&ret), args)
	assert.Equal(t, int32(5), ret)
}

func TestOriginalDirect(t *testing.T) {
	fp := augAddPoint.OriginalDirect()
	direct := *(*func(int32, int32) int32)(unsafe.Pointer(&fp))
	assert.Equal(t, int32(300), direct(100, 200))
}

func TestGetFunctionTracksState(t *testing.T) {
	pt := augAddPoint
	assert.Equal(t, pt.OriginalDirect(), pt.GetFunction())
	pt.ExtendBefore(func(*augmentum.FnExtensionPoint, augmentum.ArgVals) {}, 0)
	assert.NotEqual(t, pt.OriginalDirect(), pt.GetFunction())
	pt.Reset()
	assert.Equal(t, pt.OriginalDirect(), pt.GetFunction())
}
