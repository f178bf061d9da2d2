// Copyright The Augmentum Authors
// SPDX-License-Identifier: Apache-2.0

// Package augmentum is the runtime half of the instrumentation framework.
// The compile-time pass rewrites every eligible function so that calls are
// dispatched through a mutable function value; at program start a generated
// init constructor registers one FnExtensionPoint per rewritten function.
// User code looks points up by (module, symbol) and attaches before, around
// and after advice to them.
//
// Attaching and removing advice is not safe for concurrent use. It is meant
// to happen at program start-up, before worker goroutines exist, and at
// shutdown. Calls through instrumented functions may run concurrently with
// each other provided no attach or detach is in flight.
package augmentum

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"
)

// TypeKind discriminates the TypeDesc variants.
type TypeKind uint8

const (
	KindUnknown TypeKind = iota
	KindVoid
	KindInt
	KindFloat
	KindPointer
	KindArray
	KindVector
	KindStruct
	KindFunction
)

// TypeDesc describes one runtime-reachable type of an instrumented function.
// Descriptors are interned: two structurally equal non-forward descriptors
// share identity, so identity comparison is type equality. They are created
// during program initialisation and live until process exit; nothing deletes
// a descriptor individually.
type TypeDesc struct {
	kind TypeKind

	bits  int       // Int, Float
	elem  *TypeDesc // Pointer, Array, Vector
	count int       // Array, Vector

	module  string      // named Struct, Unknown
	name    string      // named Struct; Unknown stores its signature here
	elems   []*TypeDesc // Struct
	forward bool        // named Struct before completion

	ret  *TypeDesc   // Function
	args []*TypeDesc // Function

	ptr atomic.Pointer[TypeDesc] // the unique pointer-to-this descriptor
}

func (t *TypeDesc) Kind() TypeKind { return t.kind }

// Bits reports the width of an Int or Float descriptor.
func (t *TypeDesc) Bits() int { return t.bits }

// Elem returns the element descriptor of a Pointer, Array or Vector.
func (t *TypeDesc) Elem() *TypeDesc { return t.elem }

// Len reports the element count of an Array or Vector.
func (t *TypeDesc) Len() int { return t.count }

// Module reports the owning module of a named Struct or Unknown descriptor.
func (t *TypeDesc) Module() string { return t.module }

// Name reports the name of a named Struct. Empty for anonymous structs.
func (t *TypeDesc) Name() string { return t.name }

// IsForward reports whether a named struct is still a forward placeholder,
// i.e. its element list has not been populated yet.
func (t *TypeDesc) IsForward() bool { return t.forward }

// IsAnonymous reports whether a struct descriptor has no name.
func (t *TypeDesc) IsAnonymous() bool { return t.kind == KindStruct && t.name == "" }

func (t *TypeDesc) NumElems() int { return len(t.elems) }
func (t *TypeDesc) ElemType(i int) *TypeDesc { return t.elems[i] }
func (t *TypeDesc) ElemTypes() []*TypeDesc { return t.elems }

func (t *TypeDesc) ReturnType() *TypeDesc { return t.ret }
func (t *TypeDesc) NumArgs() int { return len(t.args) }
func (t *TypeDesc) ArgType(i int) *TypeDesc { return t.args[i] }
func (t *TypeDesc) ArgTypes() []*TypeDesc { return t.args }

// Ptr returns the unique pointer-to-t descriptor, allocating it on first use.
// At most one pointer descriptor exists per element descriptor.
func (t *TypeDesc) Ptr() *TypeDesc {
	if p := t.ptr.Load(); p != nil {
		return p
	}
	p := &TypeDesc{kind: KindPointer, elem: t}
	if t.ptr.CompareAndSwap(nil, p) {
		return p
	}
	return t.ptr.Load()
}

// Signature renders the canonical textual form of the descriptor. Named
// structs render as their name, not their body; that is what lets recursive
// aggregates terminate.
func (t *TypeDesc) Signature() string {
	switch t.kind {
	case KindVoid:
		return "void"
	case KindInt:
		return "int" + strconv.Itoa(t.bits)
	case KindFloat:
		if t.bits == 32 {
			return "float"
		}
		return "double"
	case KindPointer:
		return t.elem.Signature() + "*"
	case KindArray:
		return "[" + strconv.Itoa(t.count) + " x " + t.elem.Signature() + "]"
	case KindVector:
		return "<" + strconv.Itoa(t.count) + " x " + t.elem.Signature() + ">"
	case KindStruct:
		if t.name == "" {
			var sb strings.Builder
			sb.WriteString("{")
			for i, e := range t.elems {
				if i > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(e.Signature())
			}
			sb.WriteString("}")
			return sb.String()
		}
		return "'" + t.module + "::" + t.name + "' "
	case KindFunction:
		var sb strings.Builder
		sb.WriteString(t.ret.Signature())
		sb.WriteString(" (")
		for i, a := range t.args {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(a.Signature())
		}
		sb.WriteString(")")
		return sb.String()
	default:
		return t.name
	}
}

func (t *TypeDesc) String() string { return t.Signature() }

// Primitive singletons.
var (
	voidType   = &TypeDesc{kind: KindVoid}
	i1Type     = &TypeDesc{kind: KindInt, bits: 1}
	i8Type     = &TypeDesc{kind: KindInt, bits: 8}
	i16Type    = &TypeDesc{kind: KindInt, bits: 16}
	i32Type    = &TypeDesc{kind: KindInt, bits: 32}
	i64Type    = &TypeDesc{kind: KindInt, bits: 64}
	floatType  = &TypeDesc{kind: KindFloat, bits: 32}
	doubleType = &TypeDesc{kind: KindFloat, bits: 64}
)

type seqKey struct {
	elem *TypeDesc
	n    int
}

// Interning tables. Process-wide; descriptors are never removed. The maps
// are concurrent so that constructors running during initialisation and
// lookups from advice never need an external lock.
var (
	unknownTypes     = xsync.NewMap[string, *TypeDesc]()
	arrayTypes       = xsync.NewMap[seqKey, *TypeDesc]()
	vectorTypes      = xsync.NewMap[seqKey, *TypeDesc]()
	anonStructTypes  = xsync.NewMap[string, *TypeDesc]()
	namedStructTypes = xsync.NewMap[string, *TypeDesc]()
	functionTypes    = xsync.NewMap[string, *TypeDesc]()
)

func internInt(bits int) *TypeDesc {
	switch bits {
	case 1:
		return i1Type
	case 8:
		return i8Type
	case 16:
		return i16Type
	case 32:
		return i32Type
	case 64:
		return i64Type
	default:
		panic(fmt.Sprintf("augmentum: unsupported integer width %d", bits))
	}
}

func internFloat(bits int) *TypeDesc {
	switch bits {
	case 32:
		return floatType
	case 64:
		return doubleType
	default:
		panic(fmt.Sprintf("augmentum: unsupported float width %d", bits))
	}
}

func internSequential(table *xsync.Map[seqKey, *TypeDesc], kind TypeKind, elem *TypeDesc, n int) *TypeDesc {
	td, _ := table.LoadOrStore(seqKey{elem: elem, n: n}, &TypeDesc{kind: kind, elem: elem, count: n})
	return td
}

func internUnknown(module, signature string) *TypeDesc {
	key := module + "::" + signature
	td, _ := unknownTypes.LoadOrStore(key, &TypeDesc{kind: KindUnknown, module: module, name: signature})
	return td
}

// internAnonStruct keys on the canonical signature: construct, canonicalise,
// look up; the freshly built value is discarded when a canonical one exists.
func internAnonStruct(elems []*TypeDesc) *TypeDesc {
	cand := &TypeDesc{kind: KindStruct, elems: elems}
	td, _ := anonStructTypes.LoadOrStore(cand.Signature(), cand)
	return td
}

func internForwardStruct(module, name string) *TypeDesc {
	key := module + "::" + name
	td, _ := namedStructTypes.LoadOrStore(key, &TypeDesc{kind: KindStruct, module: module, name: name, forward: true})
	return td
}

// internNamedStruct upgrades a forward placeholder in place; re-declaration
// with a different element list is a fatal consistency error.
func internNamedStruct(module, name string, elems []*TypeDesc) *TypeDesc {
	td := internForwardStruct(module, name)
	td.setElemTypes(elems)
	return td
}

func (t *TypeDesc) setElemTypes(elems []*TypeDesc) {
	if t.kind != KindStruct {
		panic("augmentum: set_struct_elem_types on a non-struct descriptor")
	}
	if t.forward {
		t.elems = elems
		t.forward = false
		return
	}
	if !sameTypes(t.elems, elems) {
		panic(fmt.Sprintf("augmentum: struct %s::%s redefined with mismatched elements", t.module, t.name))
	}
}

func internFunction(ret *TypeDesc, args []*TypeDesc) *TypeDesc {
	cand := &TypeDesc{kind: KindFunction, ret: ret, args: args}
	td, _ := functionTypes.LoadOrStore(cand.Signature(), cand)
	return td
}

func sameTypes(a, b []*TypeDesc) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// AdviceId names an advice for removal without keeping its handle. Zero
// means unnamed and disables id-based removal.
type AdviceId uint32

var adviceIdCounter atomic.Uint32

// GetUniqueAdviceId returns a fresh non-zero id. Successive calls return
// strictly increasing values.
func GetUniqueAdviceId() AdviceId {
	return AdviceId(adviceIdCounter.Add(1))
}
