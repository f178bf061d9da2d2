// Copyright The Augmentum Authors
// SPDX-License-Identifier: Apache-2.0

package augmentum

import "fmt"

// adviceNode is one entry of a singly linked advice list. The node pointer
// doubles as the public handle, and for around advice "previous in chain"
// is simply the next node.
type adviceNode[T any] struct {
	fn   T
	id   AdviceId
	next *adviceNode[T]
}

type adviceList[T any] struct {
	head *adviceNode[T]
}

// pushFront keeps most-recent-first ordering.
func (l *adviceList[T]) pushFront(fn T, id AdviceId) *adviceNode[T] {
	l.head = &adviceNode[T]{fn: fn, id: id, next: l.head}
	return l.head
}

func (l *adviceList[T]) empty() bool { return l.head == nil }

func (l *adviceList[T]) erase(node *adviceNode[T]) {
	var prev *adviceNode[T]
	for curr := l.head; curr != nil; curr = curr.next {
		if curr == node {
			if prev == nil {
				l.head = curr.next
			} else {
				prev.next = curr.next
			}
			return
		}
		prev = curr
	}
}

func (l *adviceList[T]) removeID(id AdviceId) {
	var prev *adviceNode[T]
	for curr := l.head; curr != nil; {
		next := curr.next
		if curr.id == id {
			if prev == nil {
				l.head = next
			} else {
				prev.next = next
			}
		} else {
			prev = curr
		}
		curr = next
	}
}

// extensionData exists iff at least one advice list is non-empty.
type extensionData struct {
	befores adviceList[BeforeAdvice]
	arounds adviceList[AroundAdvice]
	afters  adviceList[AfterAdvice]
}

func (d *extensionData) empty() bool {
	return d.befores.empty() && d.arounds.empty() && d.afters.empty()
}

// FnExtensionPoint represents one instrumented function: its identity, its
// type, its mutable dispatch slot and its advice state. Points are created
// by generated init constructors through CreateExtensionPoint; user code
// obtains them with Lookup and never constructs them.
//
// At any instant the dispatch slot holds the original clone, the extended
// stub, or an arbitrary replacement, and exactly one of IsOriginal,
// IsExtended and IsReplaced reports true.
type FnExtensionPoint struct {
	module   string
	name     string
	typeDesc *TypeDesc
	fn       *Fn
	original Fn
	extended Fn
	reflect  ReflectFn
	data     *extensionData
}

// Name returns the symbol the rewriter registered, i.e. the function name
// within its package.
func (pt *FnExtensionPoint) Name() string { return pt.name }

// ModuleName returns the import path of the package defining the function.
func (pt *FnExtensionPoint) ModuleName() string { return pt.module }

// Type returns the function type descriptor.
func (pt *FnExtensionPoint) Type() *TypeDesc { return pt.typeDesc }

func (pt *FnExtensionPoint) Signature() string { return pt.typeDesc.Signature() }
func (pt *FnExtensionPoint) ReturnType() *TypeDesc { return pt.typeDesc.ReturnType() }
func (pt *FnExtensionPoint) NumArgs() int { return pt.typeDesc.NumArgs() }
func (pt *FnExtensionPoint) ArgType(i int) *TypeDesc { return pt.typeDesc.ArgType(i) }
func (pt *FnExtensionPoint) ArgTypes() []*TypeDesc { return pt.typeDesc.ArgTypes() }

func (pt *FnExtensionPoint) String() string { return pt.module + "::" + pt.name }

// IsOriginal reports whether the point dispatches straight to the clone.
func (pt *FnExtensionPoint) IsOriginal() bool { return *pt.fn == pt.original }

// IsExtended reports whether the point dispatches through the evaluator.
func (pt *FnExtensionPoint) IsExtended() bool { return *pt.fn == pt.extended }

// IsReplaced reports whether the dispatch slot holds a user replacement.
func (pt *FnExtensionPoint) IsReplaced() bool { return !pt.IsOriginal() && !pt.IsExtended() }

// GetFunction returns the erased function currently installed in the
// dispatch slot. Low level; rarely useful.
func (pt *FnExtensionPoint) GetFunction() Fn { return *pt.fn }

// OriginalDirect returns the erased original clone. The caller must restore
// the concrete type. This subverts the around stack.
func (pt *FnExtensionPoint) OriginalDirect() Fn { return pt.original }

// Replace installs f, which must have the same concrete type as the
// original function, as a full replacement. Any attached advice is dropped
// first.
func (pt *FnExtensionPoint) Replace(f Fn) {
	pt.Reset()
	*pt.fn = f
}

// Reset drops all advice and restores the original clone. A reset of an
// already-original point is a no-op.
func (pt *FnExtensionPoint) Reset() {
	pt.data = nil
	*pt.fn = pt.original
}

func (pt *FnExtensionPoint) prepareForExtend() *extensionData {
	if pt.data == nil {
		if *pt.fn != pt.original {
			panic(fmt.Sprintf("augmentum: extending replaced point %s; reset it first", pt))
		}
		pt.data = &extensionData{}
		*pt.fn = pt.extended
		return pt.data
	}
	if *pt.fn != pt.extended {
		panic(fmt.Sprintf("augmentum: point %s has advice but is not extended", pt))
	}
	return pt.data
}

func (pt *FnExtensionPoint) maybeReset() {
	if pt.data != nil && pt.data.empty() {
		pt.Reset()
	}
}

// ExtendBefore attaches advice to run before the original. Most recently
// attached advice runs first.
func (pt *FnExtensionPoint) ExtendBefore(advice BeforeAdvice, id AdviceId) BeforeHandle {
	return pt.prepareForExtend().befores.pushFront(advice, id)
}

// ExtendAround attaches advice wrapping the original. Most recently
// attached advice runs outermost.
func (pt *FnExtensionPoint) ExtendAround(advice AroundAdvice, id AdviceId) AroundHandle {
	return pt.prepareForExtend().arounds.pushFront(advice, id)
}

// ExtendAfter attaches advice to observe the return slot. Most recently
// attached advice runs first.
func (pt *FnExtensionPoint) ExtendAfter(advice AfterAdvice, id AdviceId) AfterHandle {
	return pt.prepareForExtend().afters.pushFront(advice, id)
}

// RemoveBefore unlinks the advice behind handle. No-op on a point that is
// not extended.
func (pt *FnExtensionPoint) RemoveBefore(handle BeforeHandle) {
	if pt.IsExtended() {
		pt.data.befores.erase(handle)
		pt.maybeReset()
	}
}

// RemoveBeforeByID removes every before advice carrying the non-zero id.
func (pt *FnExtensionPoint) RemoveBeforeByID(id AdviceId) {
	if id != 0 && pt.IsExtended() {
		pt.data.befores.removeID(id)
		pt.maybeReset()
	}
}

func (pt *FnExtensionPoint) RemoveAround(handle AroundHandle) {
	if pt.IsExtended() {
		pt.data.arounds.erase(handle)
		pt.maybeReset()
	}
}

func (pt *FnExtensionPoint) RemoveAroundByID(id AdviceId) {
	if id != 0 && pt.IsExtended() {
		pt.data.arounds.removeID(id)
		pt.maybeReset()
	}
}

func (pt *FnExtensionPoint) RemoveAfter(handle AfterHandle) {
	if pt.IsExtended() {
		pt.data.afters.erase(handle)
		pt.maybeReset()
	}
}

func (pt *FnExtensionPoint) RemoveAfterByID(id AdviceId) {
	if id != 0 && pt.IsExtended() {
		pt.data.afters.removeID(id)
		pt.maybeReset()
	}
}

// Remove removes advice carrying the non-zero id from all three lists.
func (pt *FnExtensionPoint) Remove(id AdviceId) {
	if id != 0 && pt.IsExtended() {
		pt.data.befores.removeID(id)
		pt.data.arounds.removeID(id)
		pt.data.afters.removeID(id)
		pt.maybeReset()
	}
}

// CallOriginal invokes the preserved clone through the reflective
// trampoline, bypassing all advice.
func (pt *FnExtensionPoint) CallOriginal(ret RetVal, args ArgVals) {
	pt.reflect(ret, args)
}

// CallCurrent invokes the around advice behind handle, or the original when
// handle is nil.
func (pt *FnExtensionPoint) CallCurrent(handle AroundHandle, ret RetVal, args ArgVals) {
	if handle != nil {
		handle.fn(pt, handle, ret, args)
		return
	}
	pt.CallOriginal(ret, args)
}

// CallPrevious invokes the around advice attached just before handle's, or
// the original at the end of the chain. handle must not be nil.
func (pt *FnExtensionPoint) CallPrevious(handle AroundHandle, ret RetVal, args ArgVals) {
	if handle == nil {
		panic("augmentum: call_previous with nil handle")
	}
	pt.CallCurrent(handle.next, ret, args)
}

// eval composes the advice chains. Invoked exclusively by the generated
// extended stub, so the point is necessarily extended.
func (pt *FnExtensionPoint) eval(ret RetVal, args ArgVals) {
	if !pt.IsExtended() || pt.data == nil {
		panic(fmt.Sprintf("augmentum: eval on non-extended point %s", pt))
	}
	data := pt.data
	for n := data.befores.head; n != nil; n = n.next {
		n.fn(pt, args)
	}
	pt.CallCurrent(data.arounds.head, ret, args)
	for n := data.afters.head; n != nil; n = n.next {
		n.fn(pt, ret, args)
	}
}
