// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tensors

import (
	"iter"

	"github.com/QnnOkabayashi/arrs/pkg/core/dtypes"
	"github.com/QnnOkabayashi/arrs/pkg/core/shapes"
	"github.com/pkg/errors"
)

// View is a read-only window over the data of an Array, possibly reduced by Derank and Slice.
//
// Views are cheap values: they share the data and the shape tables of the Array they come from,
// and none of their methods copy elements, except Array.
//
// Invariant: len(data) == shape.Volume().
type View[T dtypes.Supported] struct {
	shape shapes.Shape
	data  []T
}

// Shape returns the shape of the view.
func (v View[T]) Shape() shapes.Shape { return v.shape }

// Rank returns the number of unreduced axes.
func (v View[T]) Rank() int { return v.shape.Rank() }

// Len returns the length of the outermost unreduced axis.
func (v View[T]) Len() int { return v.shape.Len() }

// Flat returns the data covered by the view, row-major. It must not be modified.
func (v View[T]) Flat() []T { return v.data }

// At returns the value at index of a rank-1 view.
//
// It fails with *ReadNDimError if the view has rank > 1 and with
// *shapes.DerankIndexOutOfBoundsError if index is not in [0, Len()).
func (v View[T]) At(index int) (T, error) {
	var zero T
	if rank := v.shape.Rank(); rank > 1 {
		return zero, errors.WithStack(&ReadNDimError{NDims: rank})
	}
	if index < 0 || index >= v.shape.Len() {
		return zero, errors.WithStack(&shapes.DerankIndexOutOfBoundsError{Len: v.shape.Len(), Index: index})
	}
	return v.data[index], nil
}

// Derank returns the sub-view at index of the outermost axis, one rank lower.
//
// It fails with shapes.ErrDerank1D for rank-1 views and with *shapes.DerankIndexOutOfBoundsError
// if index is not in [0, Len()).
func (v View[T]) Derank(index int) (View[T], error) {
	shape, err := v.shape.Derank(index)
	if err != nil {
		return View[T]{}, err
	}
	return View[T]{shape: shape, data: chunk(v.data, v.shape.Stride(), index)}, nil
}

// Slice returns the view restricted to [start, stop) along the outermost axis, with the same rank.
//
// See shapes.Shape.Slice for the errors returned.
func (v View[T]) Slice(start, stop int) (View[T], error) {
	shape, err := v.shape.Slice(start, stop)
	if err != nil {
		return View[T]{}, err
	}
	stride := v.shape.Stride()
	lo, hi := start*stride, stop*stride
	return View[T]{shape: shape, data: v.data[lo:hi:hi]}, nil
}

// Array returns a deep copy of the view as a new Array.
func (v View[T]) Array() *Array[T] {
	data := make([]T, len(v.data))
	copy(data, v.data)
	return &Array[T]{shape: v.shape.Base(), data: data}
}

// Iter iterates over the sub-views of the outermost axis, yielding the index and the
// deranked view. Rank-1 views yield nothing: their values are read with At.
func (v View[T]) Iter() iter.Seq2[int, View[T]] {
	return func(yield func(int, View[T]) bool) {
		if v.shape.Rank() < 2 {
			return
		}
		stride := v.shape.Stride()
		for ii := range v.shape.Len() {
			sub := View[T]{shape: v.shape.Subview(), data: chunk(v.data, stride, ii)}
			if !yield(ii, sub) {
				return
			}
		}
	}
}

// chunk returns the index-th block of stride elements of data, with its capacity capped so
// appends never reach the following blocks.
func chunk[T any](data []T, stride, index int) []T {
	lo := stride * index
	hi := lo + stride
	return data[lo:hi:hi]
}
