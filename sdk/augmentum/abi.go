// Copyright The Augmentum Authors
// SPDX-License-Identifier: Apache-2.0

package augmentum

import "unsafe"

// Fn is a type-erased function value. A Go function value is a pointer to
// its underlying funcval, so erasing it to unsafe.Pointer keeps identity
// comparisons meaningful: a point is original exactly when the erased value
// stored in its dispatch var equals the erased clone.
type Fn = unsafe.Pointer

// FnOf erases a concrete function value to Fn. F must be a function type;
// anything else corrupts the dispatch var it is later stored into.
func FnOf[F any](fn F) Fn {
	return *(*Fn)(unsafe.Pointer(&fn))
}

// RetVal points at storage for the return value of a reflective call. It is
// nil when the return type is void.
type RetVal = unsafe.Pointer

// ArgVals is the uniform argument view: one slot per argument, each slot
// pointing at storage holding that argument's bit-exact value. For a
// by-value aggregate argument the slot is the address of the aggregate
// itself; there is no extra indirection to skip.
type ArgVals = []unsafe.Pointer

// ReflectFn converts the uniform view back into a direct typed call of the
// preserved original clone.
type ReflectFn func(ret RetVal, args ArgVals)

// BeforeAdvice runs before arguments flow to the original. It may mutate
// the argument slots.
type BeforeAdvice func(pt *FnExtensionPoint, args ArgVals)

// AroundAdvice wraps the original call. It receives its own handle and
// decides whether and when to invoke pt.CallPrevious(handle, ret, args); if
// it never does, the original is not executed.
type AroundAdvice func(pt *FnExtensionPoint, handle AroundHandle, ret RetVal, args ArgVals)

// AfterAdvice observes the return slot after the around chain finishes. The
// slot may be uninitialised when no around advice wrote it and the original
// was skipped.
type AfterAdvice func(pt *FnExtensionPoint, ret RetVal, args ArgVals)

// Advice handles identify one attached advice node. They are valid until
// the advice is removed and must not be used afterwards.
type (
	BeforeHandle = *adviceNode[BeforeAdvice]
	AroundHandle = *adviceNode[AroundAdvice]
	AfterHandle  = *adviceNode[AfterAdvice]
)
