/*
 *	Copyright 2023 Jan Pfeifer
 *
 *	Licensed under the Apache License, Version 2.0 (the "License");
 *	you may not use this file except in compliance with the License.
 *	You may obtain a copy of the License at
 *
 *	http://www.apache.org/licenses/LICENSE-2.0
 *
 *	Unless required by applicable law or agreed to in writing, software
 *	distributed under the License is distributed on an "AS IS" BASIS,
 *	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *	See the License for the specific language governing permissions and
 *	limitations under the License.
 */

// Package tensors implement `Array[T]`, a dense N-dimensional array, its zero-copy `View[T]`, and
// the elementwise binary operations over them with NumPy-style implicit broadcasting.
//
// Dimensions are always listed innermost (fastest-varying) axis first: an array with dims [2, 3]
// has 3 rows of 2 elements each, and its flat data is laid out row-major.
//
// There are various ways to construct an Array:
//
//   - New[T](dims []int, data []T): checks the dimensions and that the data matches their volume.
//
//   - Make[T](data []T, dims ...int): same as New, but panics on invalid input.
//
//   - FromScalar[T](value T): creates an Array of shape [1].
//
//   - FromShape[T](shape shapes.Base): creates an Array with the given shape, filled with zeros.
//
// Views are taken with Array.View, and reduced with View.Derank and View.Slice, none of which copy
// the data. Binary operations (Add, Sub, LessThan, ..., or BroadcastCombine with an arbitrary
// function) take two views and return a newly allocated Array.
//
// An Array is not safe for concurrent mutation, but any number of views can read it concurrently.
package tensors

import (
	"github.com/QnnOkabayashi/arrs/pkg/core/dtypes"
	"github.com/QnnOkabayashi/arrs/pkg/core/shapes"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
)

// Tensor is the dtype-agnostic interface implemented by every *Array[T].
//
// It is used where the element type is only known at runtime, for instance when reading a file.
type Tensor interface {
	// DType of the elements.
	DType() dtypes.DType

	// Shape returns the dimensions of the array, innermost first.
	Shape() shapes.Base

	// Rank is the number of axes.
	Rank() int

	// Size is the number of elements.
	Size() int

	// Memory is the number of bytes used by the elements.
	Memory() uintptr

	// AsDType converts the tensor to an Array of the given dtype.
	AsDType(dtype dtypes.DType) (Tensor, error)

	// Summary pretty-prints the contents, with the given precision for floats (-1 for the shortest exact one).
	Summary(precision int) string

	String() string
}

// Array is a dense N-dimensional array of elements of type T, stored row-major in a flat slice.
//
// Invariant: shape.Volume() == len(data).
type Array[T dtypes.Supported] struct {
	shape shapes.Base
	data  []T
}

var (
	_ Tensor = (*Array[bool])(nil)
	_ Tensor = (*Array[float32])(nil)
)

// New creates an Array with the given dimensions (innermost first) and flat data.
//
// The Array takes ownership of data, the caller shouldn't modify it afterward.
//
// It fails with the errors of shapes.New if the dimensions are invalid, and with
// *ShapeDataMisalignmentError if len(data) doesn't match the volume of the dimensions.
func New[T dtypes.Supported](dims []int, data []T) (*Array[T], error) {
	shape, err := shapes.New(dims...)
	if err != nil {
		return nil, err
	}
	if shape.Volume() != len(data) {
		return nil, errors.WithStack(&ShapeDataMisalignmentError{Volume: shape.Volume(), DataLen: len(data)})
	}
	return &Array[T]{shape: shape, data: data}, nil
}

// Make is like New, but it panics (with an error) if the dimensions or the data are invalid.
// The dimensions are given innermost first.
func Make[T dtypes.Supported](data []T, dims ...int) *Array[T] {
	a, err := New(dims, data)
	if err != nil {
		exceptions.Panicf("tensors.Make(len(data)=%d, dims=%v): %+v", len(data), dims, err)
	}
	return a
}

// FromScalar returns an Array of shape [1] holding value.
func FromScalar[T dtypes.Supported](value T) *Array[T] {
	return &Array[T]{shape: shapes.Make(1), data: []T{value}}
}

// FromShape returns an Array with the given shape, filled with the zero value of T.
func FromShape[T dtypes.Supported](shape shapes.Base) *Array[T] {
	if !shape.Ok() {
		exceptions.Panicf("tensors.FromShape(%s): invalid shape", shape)
	}
	return &Array[T]{shape: shape, data: make([]T, shape.Volume())}
}

// Shape returns the shape of the array.
func (a *Array[T]) Shape() shapes.Base { return a.shape }

// DType returns the dtype of the elements.
func (a *Array[T]) DType() dtypes.DType { return dtypes.FromGenericsType[T]() }

// Rank returns the number of axes.
func (a *Array[T]) Rank() int { return a.shape.Rank() }

// Size returns the number of elements.
func (a *Array[T]) Size() int { return len(a.data) }

// Memory returns the number of bytes used by the elements.
func (a *Array[T]) Memory() uintptr { return a.DType().Memory() * uintptr(len(a.data)) }

// View returns a view over the whole array.
func (a *Array[T]) View() View[T] {
	return View[T]{shape: a.shape.View(), data: a.data}
}

// Flat returns the flat data of the array, row-major.
//
// The returned slice is shared with the array: it should be treated as read-only, since other
// views may be reading it.
func (a *Array[T]) Flat() []T { return a.data }

// Clone returns a deep copy of the array.
func (a *Array[T]) Clone() *Array[T] {
	data := make([]T, len(a.data))
	copy(data, a.data)
	return &Array[T]{shape: a.shape, data: data}
}

// Equal returns whether both arrays have the same shape and elements.
// As usual for floats, NaN values are never equal.
func (a *Array[T]) Equal(other *Array[T]) bool {
	if a == other {
		return true
	}
	if !a.shape.Equal(other.shape) {
		return false
	}
	for ii, value := range a.data {
		if value != other.data[ii] {
			return false
		}
	}
	return true
}

// AsDType implements Tensor. It returns an error if dtype is not one of the supported dtypes.
func (a *Array[T]) AsDType(dtype dtypes.DType) (Tensor, error) {
	view := a.View()
	switch dtype {
	case dtypes.Bool:
		return AsType[T, bool](view), nil
	case dtypes.Uint8:
		return AsType[T, uint8](view), nil
	case dtypes.Int8:
		return AsType[T, int8](view), nil
	case dtypes.Int16:
		return AsType[T, int16](view), nil
	case dtypes.Int32:
		return AsType[T, int32](view), nil
	case dtypes.Float32:
		return AsType[T, float32](view), nil
	case dtypes.Float64:
		return AsType[T, float64](view), nil
	default:
		return nil, errors.Errorf("cannot convert %s array to unsupported dtype %s", a.DType(), dtype)
	}
}

// String implements fmt.Stringer, printing all values with the shortest exact precision.
func (a *Array[T]) String() string {
	return a.Summary(-1)
}
