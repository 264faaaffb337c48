// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tensors

import (
	"github.com/QnnOkabayashi/arrs/pkg/core/dtypes"
)

// AsType returns a new Array with the values of v converted to To.
//
// Conversions follow Go's conversion rules, and for bool: true becomes 1, and any non-zero
// value becomes true. Between integer types values wrap around, and floats are truncated
// towards zero.
func AsType[From, To dtypes.Supported](v View[From]) *Array[To] {
	data := make([]To, len(v.data))
	for ii, value := range v.data {
		data[ii] = convert[From, To](value)
	}
	return &Array[To]{shape: v.shape.Base(), data: data}
}

// scalar holds a value of any supported dtype, widened to either int64 or float64.
type scalar struct {
	i       int64
	f       float64
	isFloat bool
}

func widen[T dtypes.Supported](value T) scalar {
	switch x := any(value).(type) {
	case bool:
		if x {
			return scalar{i: 1}
		}
		return scalar{}
	case uint8:
		return scalar{i: int64(x)}
	case int8:
		return scalar{i: int64(x)}
	case int16:
		return scalar{i: int64(x)}
	case int32:
		return scalar{i: int64(x)}
	case float32:
		return scalar{f: float64(x), isFloat: true}
	case float64:
		return scalar{f: x, isFloat: true}
	}
	return scalar{}
}

func convert[From, To dtypes.Supported](value From) To {
	s := widen(value)
	var to To
	switch p := any(&to).(type) {
	case *bool:
		*p = s.i != 0 || s.f != 0
	case *uint8:
		*p = narrow[uint8](s)
	case *int8:
		*p = narrow[int8](s)
	case *int16:
		*p = narrow[int16](s)
	case *int32:
		*p = narrow[int32](s)
	case *float32:
		if s.isFloat {
			*p = float32(s.f)
		} else {
			*p = float32(s.i)
		}
	case *float64:
		if s.isFloat {
			*p = s.f
		} else {
			*p = float64(s.i)
		}
	}
	return to
}

func narrow[T uint8 | int8 | int16 | int32](s scalar) T {
	if s.isFloat {
		return T(int64(s.f))
	}
	return T(s.i)
}
