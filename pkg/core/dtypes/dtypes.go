// Package dtypes includes the DType enum for all element types supported by arrs.
//
// The set is closed: bool, uint8, int8, int16, int32, float32 and float64, the element kinds
// the IDX file format can describe. Each DType knows its IDX id, its width in bytes and the
// corresponding Go type.
//
// It also includes the constraint interfaces to be used with generics (Supported, Number).
package dtypes

import (
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// panicf panics with the formatted description.
//
// It is only used for "bugs in the code" -- when parameters break the API contract.
// In principle, it should never happen -- the same way nil-pointer panics should never happen.
func panicf(format string, args ...any) {
	panic(errors.Errorf(format, args...))
}

func init() {
	// Add a mapping to the lower-case version of dtypes.
	keys := slices.Collect(maps.Keys(MapOfNames))
	for _, key := range keys {
		lowerKey := strings.ToLower(key)
		if lowerKey == key {
			continue
		}
		if _, found := MapOfNames[lowerKey]; found {
			continue
		}
		MapOfNames[lowerKey] = MapOfNames[key]
	}
}

// FromName returns the DType for the given name or alias (case-insensitive), or InvalidDType if unknown.
// Aliases follow the usual short forms: "f32", "i16" (or "s16"), "u8", "pred" for Bool, etc.
func FromName(name string) DType {
	if dtype, found := MapOfNames[name]; found {
		return dtype
	}
	if dtype, found := MapOfNames[strings.ToLower(name)]; found {
		return dtype
	}
	return InvalidDType
}

// FromGenericsType returns the DType enum for the given type that this package knows about.
func FromGenericsType[T Supported]() DType {
	var t T
	switch (any(t)).(type) {
	case float64:
		return Float64
	case float32:
		return Float32
	case int32:
		return Int32
	case int16:
		return Int16
	case int8:
		return Int8
	case uint8:
		return Uint8
	case bool:
		return Bool
	}
	return InvalidDType
}

// FromIdxID returns the DType whose IDX id is the given byte, or InvalidDType if there is none.
func FromIdxID(id uint8) DType {
	if id == 0 {
		return InvalidDType
	}
	for dtype, dtypeID := range idxIDs {
		if dtypeID == id {
			return DType(dtype)
		}
	}
	return InvalidDType
}

// IdxID returns the id used for the dtype in the header of IDX files.
// It returns 0 for InvalidDType or unknown values.
func (dtype DType) IdxID() uint8 {
	if dtype < 0 || int(dtype) >= len(idxIDs) {
		return 0
	}
	return idxIDs[dtype]
}

// Size returns the number of bytes for the given DType.
// Bool is stored in one byte.
func (dtype DType) Size() int {
	return int(dtype.GoType().Size())
}

// Memory returns the number of bytes for the given DType.
// It's an alias to Size, converted to uintptr.
func (dtype DType) Memory() uintptr {
	return uintptr(dtype.Size())
}

// Pre-generate constant reflect.TypeOf for convenience.
var (
	boolType    = reflect.TypeOf(false)
	uint8Type   = reflect.TypeOf(uint8(0))
	int8Type    = reflect.TypeOf(int8(0))
	int16Type   = reflect.TypeOf(int16(0))
	int32Type   = reflect.TypeOf(int32(0))
	float32Type = reflect.TypeOf(float32(0))
	float64Type = reflect.TypeOf(float64(0))
)

// GoType returns the Go `reflect.Type` corresponding to the DType.
func (dtype DType) GoType() reflect.Type {
	switch dtype {
	case Bool:
		return boolType
	case Uint8:
		return uint8Type
	case Int8:
		return int8Type
	case Int16:
		return int16Type
	case Int32:
		return int32Type
	case Float32:
		return float32Type
	case Float64:
		return float64Type
	default:
		// This should never happen, except if someone entered an invalid DType number beyond the values
		// defined.
		panicf("unknown dtype %q (%d) in DType.GoType", dtype, dtype)
		panic(nil)
	}
}

// IsFloat returns whether dtype is a float.
func (dtype DType) IsFloat() bool {
	return dtype == Float32 || dtype == Float64
}

// IsInt returns whether dtype is an integer type, signed or not.
func (dtype DType) IsInt() bool {
	return dtype == Uint8 || dtype == Int8 || dtype == Int16 || dtype == Int32
}

// IsUnsigned returns whether dtype is one of the unsigned types.
func (dtype DType) IsUnsigned() bool {
	return dtype == Uint8
}

// IsSupported returns whether dtype is one of the valid dtypes.
func (dtype DType) IsSupported() bool {
	return dtype != InvalidDType && dtype.IsADType()
}

// Supported lists the Go types that can be used as array elements.
// Used as traits for generics.
type Supported interface {
	bool | uint8 | int8 | int16 | int32 | float32 | float64
}

// Number represents the Go numeric types corresponding to supported DType's.
// Used as traits for generics.
type Number interface {
	uint8 | int8 | int16 | int32 | float32 | float64
}
