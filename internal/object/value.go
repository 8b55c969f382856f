// Package object implements the PEBBL runtime value representation, the
// garbage-collected heap, and the lexical environment shared by the
// tree-walking evaluator and the bytecode virtual machine.
package object

import (
	"fmt"
	"math"
	"strconv"
)

// NaN-box layout: any bit pattern whose exponent field is not all ones is a
// plain IEEE-754 double. Boxed values live in the quiet-NaN space, carrying a
// 3-bit tag at bit 48 and a 48-bit payload below it.
const (
	expMask     uint64 = 0x7FF0000000000000
	qnanMask    uint64 = 0x0008000000000000
	boxedBase   uint64 = expMask | qnanMask
	tagMask     uint64 = 0x0007000000000000
	tagShift           = 48
	payloadMask uint64 = 0x0000FFFFFFFFFFFF
)

// Tag identifies the boxed representation of a non-double Value.
type Tag uint8

const (
	TagGCPtr Tag = iota + 1
	TagInt32
	TagBool
	TagNil
	TagUndefined
)

// Value is a fixed-size tagged scalar. Scalars (double, int32, bool, nil,
// undefined) use the exact NaN-box bit encoding in bits; heap references keep
// the GC_PTR tag in bits but carry the object in a typed field, since the Go
// runtime does not allow live pointers to hide inside integers. Values are
// non-owning: holding one does not keep its object alive unless the Value is
// reachable from a registered GC root.
type Value struct {
	bits uint64
	obj  Obj
}

// Constructors. Each produces the canonical bit pattern for its type.

func MakeDouble(v float64) Value {
	return Value{bits: math.Float64bits(v)}
}

func MakeInt32(v int32) Value {
	return Value{bits: boxedBase | uint64(TagInt32)<<tagShift | uint64(uint32(v))}
}

func MakeBool(v bool) Value {
	var payload uint64
	if v {
		payload = 1
	}
	return Value{bits: boxedBase | uint64(TagBool)<<tagShift | payload}
}

func MakeNull() Value {
	return Value{bits: boxedBase | uint64(TagNil)<<tagShift}
}

func MakeUndefined() Value {
	return Value{bits: boxedBase | uint64(TagUndefined)<<tagShift}
}

func MakeGCPtr(o Obj) Value {
	return Value{bits: boxedBase | uint64(TagGCPtr)<<tagShift, obj: o}
}

// Inspectors. Total: never panic, mutually exclusive except IsDouble versus
// the boxed kinds.

func (v Value) IsDouble() bool { return v.bits&expMask != expMask }
func (v Value) isBoxed() bool  { return v.bits&boxedBase == boxedBase }

func (v Value) tag() Tag { return Tag((v.bits & tagMask) >> tagShift) }

func (v Value) IsInt32() bool     { return v.isBoxed() && v.tag() == TagInt32 }
func (v Value) IsBool() bool      { return v.isBoxed() && v.tag() == TagBool }
func (v Value) IsNull() bool      { return v.isBoxed() && v.tag() == TagNil }
func (v Value) IsUndefined() bool { return v.isBoxed() && v.tag() == TagUndefined }
func (v Value) IsGCPtr() bool     { return v.isBoxed() && v.tag() == TagGCPtr }

// Extractors. Calling the wrong one is a contract violation, not a
// recoverable error.

func (v Value) AsDouble() float64 {
	if !v.IsDouble() {
		panic("object: AsDouble on non-double Value")
	}
	return math.Float64frombits(v.bits)
}

func (v Value) AsInt32() int32 {
	if !v.IsInt32() {
		panic("object: AsInt32 on non-int32 Value")
	}
	return int32(uint32(v.bits & payloadMask))
}

func (v Value) AsBool() bool {
	if !v.IsBool() {
		panic("object: AsBool on non-bool Value")
	}
	return v.bits&payloadMask != 0
}

func (v Value) AsGCPtr() Obj {
	if !v.IsGCPtr() {
		panic("object: AsGCPtr on non-pointer Value")
	}
	return v.obj
}

// IsTruthy applies the language's truthiness coercion: booleans are
// themselves, nil is false, numbers are false iff zero, everything else
// (including all heap objects) is true.
func IsTruthy(v Value) bool {
	switch {
	case v.IsBool():
		return v.AsBool()
	case v.IsNull():
		return false
	case v.IsInt32():
		return v.AsInt32() != 0
	case v.IsDouble():
		return v.AsDouble() != 0.0
	}
	return true
}

// Equal implements language equality: nil equals only nil, booleans by
// value, numbers by numeric value with int/double promotion, heap objects by
// identity.
func Equal(left, right Value) bool {
	if left.IsNull() && right.IsNull() {
		return true
	}
	if left.IsNull() || right.IsNull() {
		return false
	}

	if left.IsBool() && right.IsBool() {
		return left.AsBool() == right.AsBool()
	}

	if left.IsInt32() && right.IsInt32() {
		return left.AsInt32() == right.AsInt32()
	}
	if left.IsDouble() && right.IsDouble() {
		return left.AsDouble() == right.AsDouble()
	}
	if (left.IsInt32() && right.IsDouble()) || (left.IsDouble() && right.IsInt32()) {
		return numericOf(left) == numericOf(right)
	}

	if left.IsGCPtr() && right.IsGCPtr() {
		return left.AsGCPtr() == right.AsGCPtr()
	}
	return false
}

func numericOf(v Value) float64 {
	if v.IsInt32() {
		return float64(v.AsInt32())
	}
	return v.AsDouble()
}

// Stringify renders a Value for printing: nil, true/false, decimal numbers,
// raw string contents, bracketed arrays, braced dicts with quoted keys, and
// <function NAME> / <builtin NAME> for callables.
func Stringify(v Value) string {
	switch {
	case v.IsNull():
		return "nil"
	case v.IsUndefined():
		return "undefined"
	case v.IsBool():
		if v.AsBool() {
			return "true"
		}
		return "false"
	case v.IsInt32():
		return strconv.FormatInt(int64(v.AsInt32()), 10)
	case v.IsDouble():
		return strconv.FormatFloat(v.AsDouble(), 'g', -1, 64)
	case v.IsGCPtr():
		return v.AsGCPtr().Inspect()
	}
	return fmt.Sprintf("<unknown %#x>", v.bits)
}
