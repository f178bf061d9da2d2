// Copyright The Augmentum Authors
// SPDX-License-Identifier: Apache-2.0

package augmentum

// Listener observes extension-point lifecycle events. It is the principal
// mechanism by which bulk advice is attached: add a listener with replay and
// it sees every already-registered point as well as every future one.
type Listener interface {
	OnExtensionPointRegister(pt *FnExtensionPoint)
	OnExtensionPointUnregister(pt *FnExtensionPoint)
}

// ListenerFuncs adapts two closures to the Listener interface. Either field
// may be nil.
type ListenerFuncs struct {
	Register   func(pt *FnExtensionPoint)
	Unregister func(pt *FnExtensionPoint)
}

func (l *ListenerFuncs) OnExtensionPointRegister(pt *FnExtensionPoint) {
	if l.Register != nil {
		l.Register(pt)
	}
}

func (l *ListenerFuncs) OnExtensionPointUnregister(pt *FnExtensionPoint) {
	if l.Unregister != nil {
		l.Unregister(pt)
	}
}

// AddListener starts delivering lifecycle events to l. A listener is held at
// most once; adding it again is a no-op. With replay, the register callback
// fires for every currently registered point, in unspecified order.
func AddListener(l Listener, replay bool) {
	for _, held := range listeners {
		if held == l {
			return
		}
	}
	listeners = append(listeners, l)
	if replay {
		registry.Range(func(_ string, pt *FnExtensionPoint) bool {
			l.OnExtensionPointRegister(pt)
			return true
		})
	}
}

// RemoveListener stops delivering events to l. With replayInverse, the
// unregister callback fires for every registered point after removal; a
// listener that attached advice keyed by id typically calls Remove(id) from
// that callback to clean up after itself.
func RemoveListener(l Listener, replayInverse bool) {
	found := false
	for i, held := range listeners {
		if held == l {
			listeners = append(listeners[:i], listeners[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		return
	}
	if replayInverse {
		registry.Range(func(_ string, pt *FnExtensionPoint) bool {
			l.OnExtensionPointUnregister(pt)
			return true
		})
	}
}
