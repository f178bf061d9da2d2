// Copyright The Augmentum Authors
// SPDX-License-Identifier: Apache-2.0

package augmentum

import (
	"fmt"

	"github.com/puzpuzpuz/xsync/v4"
)

// The process-wide registry of extension points, keyed module::symbol. The
// map is concurrent so Lookup is safe from any goroutine; mutation happens
// from generated init constructors and from Shutdown, which are
// single-threaded by contract.
var registry = xsync.NewMap[string, *FnExtensionPoint]()

// listeners is ordered by attachment. Mutated only under the
// single-threaded attach/detach contract.
var listeners []Listener

func pointKey(module, name string) string { return module + "::" + name }

// Lookup returns the extension point registered for (module, symbol), or
// nil when that function was not instrumented.
func Lookup(module, name string) *FnExtensionPoint {
	pt, _ := registry.Load(pointKey(module, name))
	return pt
}

// NumExtensionPoints reports how many points are currently registered.
func NumExtensionPoints() int { return registry.Size() }

// RangeExtensionPoints visits every registered point in unspecified order
// until fn returns false.
func RangeExtensionPoints(fn func(pt *FnExtensionPoint) bool) {
	registry.Range(func(_ string, pt *FnExtensionPoint) bool {
		return fn(pt)
	})
}

func registerExtensionPoint(pt *FnExtensionPoint) {
	registry.Store(pointKey(pt.module, pt.name), pt)
	// Notify after the insert so lookups from inside a callback succeed.
	for _, l := range listeners {
		l.OnExtensionPointRegister(pt)
	}
}

func unregisterExtensionPoint(pt *FnExtensionPoint) {
	// Notify before the remove and before the reset, while the point is
	// still observable.
	for _, l := range listeners {
		l.OnExtensionPointUnregister(pt)
	}
	pt.Reset()
	registry.Delete(pointKey(pt.module, pt.name))
}

// Unregister removes pt from the registry, notifying listeners first and
// restoring the original dispatch target.
func Unregister(pt *FnExtensionPoint) {
	unregisterExtensionPoint(pt)
}

// Shutdown tears the registry down: for every registered point it notifies
// every listener, resets the dispatch slot to the original clone and drops
// the point. Resetting before dropping matters; dropping first would leave
// in-flight callers dispatching through a stub whose point is gone. Type
// descriptors outlive the registry and are never released.
//
// Safe to call when nothing was instrumented, and idempotent.
func Shutdown() {
	registry.Range(func(key string, pt *FnExtensionPoint) bool {
		for _, l := range listeners {
			l.OnExtensionPointUnregister(pt)
		}
		pt.Reset()
		registry.Delete(key)
		return true
	})
}

// CreateExtensionPoint is called by the generated per-function constructor.
// fn must already point at the original clone. The returned point is
// registered and listeners have been notified by the time this returns.
func CreateExtensionPoint(module, name string, typeDesc *TypeDesc, fn *Fn, original, extended Fn, reflect ReflectFn) *FnExtensionPoint {
	if typeDesc == nil || typeDesc.Kind() != KindFunction {
		panic(fmt.Sprintf("augmentum: extension point %s::%s needs a function type descriptor", module, name))
	}
	if *fn != original {
		panic(fmt.Sprintf("augmentum: extension point %s::%s created with live dispatch slot", module, name))
	}
	pt := &FnExtensionPoint{
		module:   module,
		name:     name,
		typeDesc: typeDesc,
		fn:       fn,
		original: original,
		extended: extended,
		reflect:  reflect,
	}
	registerExtensionPoint(pt)
	return pt
}

// Eval is the evaluator entry point invoked by generated extended stubs.
func Eval(pt *FnExtensionPoint, ret RetVal, args ArgVals) {
	pt.eval(ret, args)
}
