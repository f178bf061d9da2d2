// Copyright The Augmentum Authors
// SPDX-License-Identifier: Apache-2.0

package augmentum

// The internal ABI used by generated code. The rewriter hard-codes these
// names when it synthesises descriptor construction and registration, so
// their signatures are frozen: any reimplementation of the runtime must
// expose exactly this set for rewritten code to build.

func GetUnknownType(module, signature string) *TypeDesc { return internUnknown(module, signature) }

func GetVoidType() *TypeDesc { return voidType }

func GetI1Type() *TypeDesc { return i1Type }
func GetI8Type() *TypeDesc { return i8Type }
func GetI16Type() *TypeDesc { return i16Type }
func GetI32Type() *TypeDesc { return i32Type }
func GetI64Type() *TypeDesc { return i64Type }

func GetFloatType() *TypeDesc { return floatType }
func GetDoubleType() *TypeDesc { return doubleType }

func GetIntType(bits int) *TypeDesc { return internInt(bits) }
func GetFloatNType(bits int) *TypeDesc { return internFloat(bits) }

func GetPtrType(elem *TypeDesc) *TypeDesc { return elem.Ptr() }

func GetArrayType(elem *TypeDesc, numElems int) *TypeDesc {
	return internSequential(arrayTypes, KindArray, elem, numElems)
}

func GetVectorType(elem *TypeDesc, numElems int) *TypeDesc {
	return internSequential(vectorTypes, KindVector, elem, numElems)
}

func GetAnonStructType(elems ...*TypeDesc) *TypeDesc { return internAnonStruct(elems) }

func GetForwardStructType(module, name string) *TypeDesc {
	return internForwardStruct(module, name)
}

func GetNamedStructType(module, name string, elems ...*TypeDesc) *TypeDesc {
	return internNamedStruct(module, name, elems)
}

func SetStructElemTypes(t *TypeDesc, elems ...*TypeDesc) { t.setElemTypes(elems) }

func GetFunctionType(ret *TypeDesc, args ...*TypeDesc) *TypeDesc {
	return internFunction(ret, args)
}
