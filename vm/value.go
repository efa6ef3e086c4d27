package vm

import (
	"math"
)

// Value represents a Kestrel value using NaN-boxing.
//
// All values are represented as 64-bit IEEE 754 doubles. Non-float values
// are encoded in the NaN (Not-a-Number) space using the quiet NaN prefix
// and tag bits to distinguish types.
//
// Encoding scheme:
//   - Number: Native IEEE 754 double (if not a NaN, it's a number)
//   - SmallInt: Quiet NaN + tagInt + 48-bit signed payload
//   - Special: Quiet NaN + tagSpecial + special value ID (nil/true/false)
//   - String/Table/Function/Userdata/Thread: Quiet NaN + kind tag + 32-bit
//     registry ID. The referenced objects live in the GlobalState's
//     ObjectRegistry; the Value itself is only an opaque handle.
type Value uint64

// NaN-boxing constants
const (
	// Quiet NaN prefix: exponent all 1s, quiet bit set, sign bit 0
	// 0x7FF8_0000_0000_0000
	nanBits uint64 = 0x7FF8000000000000

	// Tag mask: 3 bits within the NaN mantissa space
	// 0x0007_0000_0000_0000
	tagMask uint64 = 0x0007000000000000

	// Payload mask: 48 bits for int/registry ID
	// 0x0000_FFFF_FFFF_FFFF
	payloadMask uint64 = 0x0000FFFFFFFFFFFF

	// Tag values (shifted into position)
	tagInt      uint64 = 0x0001000000000000 // 48-bit signed integer
	tagSpecial  uint64 = 0x0002000000000000 // nil, true, false
	tagString   uint64 = 0x0003000000000000 // Interned string ID
	tagTable    uint64 = 0x0004000000000000 // Table registry ID
	tagFunc     uint64 = 0x0005000000000000 // Function registry ID
	tagUserdata uint64 = 0x0006000000000000 // Userdata registry ID
	tagThread   uint64 = 0x0007000000000000 // ExecutionContext registry ID

	// Sign bit for 48-bit integer sign extension
	intSignBit uint64 = 0x0000800000000000

	// Mask for sign extension
	intSignExtend uint64 = 0xFFFF000000000000
)

// Special value payloads
const (
	specialNil   uint64 = 0
	specialTrue  uint64 = 1
	specialFalse uint64 = 2
)

// Pre-defined special values
const (
	Nil   Value = Value(nanBits | tagSpecial | specialNil)
	True  Value = Value(nanBits | tagSpecial | specialTrue)
	False Value = Value(nanBits | tagSpecial | specialFalse)
)

// SmallInt range (48-bit signed)
const (
	MaxSmallInt int64 = (1 << 47) - 1
	MinSmallInt int64 = -(1 << 47)
)

// Function registry IDs carry a marker distinguishing interpreted closures
// from native Go functions (the registry ID space is split the same way the
// IDs themselves are allocated).
const (
	closureMarker uint32 = 1 << 24
	goFuncMarker  uint32 = 2 << 24
	funcKindMask  uint32 = 0xFF << 24
)

// ---------------------------------------------------------------------------
// Type checking
// ---------------------------------------------------------------------------

// IsFloat returns true if v represents a float64 value.
// A value is a float if it's not one of our tagged NaN values.
// This includes regular numbers, infinities, and "real" NaN values.
func (v Value) IsFloat() bool {
	bits := uint64(v)

	if (bits & 0x7FF0000000000000) != 0x7FF0000000000000 {
		// Exponent is not all 1s, so it's a regular float
		return true
	}

	// Exponent is all 1s. Could be Infinity or NaN.
	mantissa := bits & 0x000FFFFFFFFFFFFF
	if mantissa == 0 {
		// +Inf or -Inf, valid floats
		return true
	}

	if (bits & nanBits) != nanBits {
		// Quiet NaN bit not set - signaling NaN, treat as float
		return true
	}

	tag := bits & tagMask
	if tag == 0 {
		// A "real" quiet NaN, treat as float
		return true
	}

	return false
}

func (v Value) hasTag(tag uint64) bool {
	return (uint64(v) & (nanBits | tagMask)) == (nanBits | tag)
}

// IsSmallInt returns true if v represents a small integer.
func (v Value) IsSmallInt() bool { return v.hasTag(tagInt) }

// IsNumber returns true if v is a float or a small integer.
func (v Value) IsNumber() bool { return v.IsFloat() || v.IsSmallInt() }

// IsString returns true if v references an interned string.
func (v Value) IsString() bool { return v.hasTag(tagString) }

// IsTable returns true if v references a table.
func (v Value) IsTable() bool { return v.hasTag(tagTable) }

// IsFunction returns true if v references a closure or a native function.
func (v Value) IsFunction() bool { return v.hasTag(tagFunc) }

// IsClosure returns true if v references an interpreted closure.
func (v Value) IsClosure() bool {
	return v.IsFunction() && (v.refID()&funcKindMask) == closureMarker
}

// IsGoFunc returns true if v references a native Go function.
func (v Value) IsGoFunc() bool {
	return v.IsFunction() && (v.refID()&funcKindMask) == goFuncMarker
}

// IsUserdata returns true if v references a userdata object.
func (v Value) IsUserdata() bool { return v.hasTag(tagUserdata) }

// IsThread returns true if v references an ExecutionContext.
func (v Value) IsThread() bool { return v.hasTag(tagThread) }

// IsNil returns true if v is the nil value.
func (v Value) IsNil() bool { return v == Nil }

// IsBool returns true if v is true or false.
func (v Value) IsBool() bool { return v == True || v == False }

// ---------------------------------------------------------------------------
// Number operations
// ---------------------------------------------------------------------------

// Float64 returns v as a float64.
// Panics if v is not a float.
func (v Value) Float64() float64 {
	if !v.IsFloat() {
		panic("Value.Float64: not a float")
	}
	return math.Float64frombits(uint64(v))
}

// FromFloat64 creates a Value from a float64.
func FromFloat64(f float64) Value {
	return Value(math.Float64bits(f))
}

// SmallInt returns v as an int64.
// Panics if v is not a small integer.
func (v Value) SmallInt() int64 {
	if !v.IsSmallInt() {
		panic("Value.SmallInt: not a small integer")
	}
	payload := uint64(v) & payloadMask

	// Sign extend from 48 bits to 64 bits
	if (payload & intSignBit) != 0 {
		payload |= intSignExtend
	}
	return int64(payload)
}

// FromSmallInt creates a Value from an int64.
// Panics if n is outside the SmallInt range.
func FromSmallInt(n int64) Value {
	if n > MaxSmallInt || n < MinSmallInt {
		panic("FromSmallInt: value out of range")
	}
	return Value(nanBits | tagInt | (uint64(n) & payloadMask))
}

// ---------------------------------------------------------------------------
// Reference operations
// ---------------------------------------------------------------------------

// refID returns the 32-bit registry ID of a tagged reference.
func (v Value) refID() uint32 {
	return uint32(uint64(v) & payloadMask)
}

func fromRef(tag uint64, id uint32) Value {
	return Value(nanBits | tag | uint64(id))
}

// ---------------------------------------------------------------------------
// Boolean operations
// ---------------------------------------------------------------------------

// Bool returns v as a bool.
// Panics if v is not true or false.
func (v Value) Bool() bool {
	switch v {
	case True:
		return true
	case False:
		return false
	default:
		panic("Value.Bool: not a boolean")
	}
}

// FromBool creates a Value from a bool.
func FromBool(b bool) Value {
	if b {
		return True
	}
	return False
}

// IsTruthy returns true if v is considered "truthy" in conditionals.
// Only false and nil are falsy; everything else is truthy.
func (v Value) IsTruthy() bool {
	return v != False && v != Nil
}
