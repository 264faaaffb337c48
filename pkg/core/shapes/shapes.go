// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package shapes defines the shape of an N-dimensional array, its views and the broadcasting planner.
//
// Dimensions are always listed **innermost (fastest-varying) axis first**: the shape [2, 3] describes
// 3 rows of 2 elements each, laid out as [r0c0, r0c1, r1c0, r1c1, r2c0, r2c1].
//
// ## Glossary
//
//   - Rank: number of axes of a shape. A valid shape has rank >= 1; scalars use the shape [1].
//   - Base: the owned dimensions plus the cumulative-volume table derived from them.
//   - Shape: a view of a Base "as seen after k rank-reductions". It exposes the length of the
//     outermost unreduced axis (Len), the stride to step along it (Stride), and the inner axes.
//   - Derank: fix the outermost axis to one index, reducing the rank by one.
//   - Slice: restrict the outermost axis to a sub-range, keeping the rank.
//   - Broadcast: reconcile two shapes into one, stretching axes of length 1 and padding
//     missing outer axes. See Broadcast.
//
// Example:
//
//	base := shapes.Make(2, 3)    // 3 rows of 2.
//	view := base.View()          // Len() == 3, Stride() == 2.
//	row, _ := view.Derank(1)     // Shape [2].
package shapes

import (
	"fmt"
	"iter"
	"math"
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
)

// Base owns the dimensions of an array (innermost first) and the table of cumulative volumes:
// volumes[0] = 1 and volumes[i] = volumes[i-1] * dims[i-1].
//
// It is immutable after creation. Use New or Make to create one.
type Base struct {
	dims    []int
	volumes []int
}

// newBase computes the volumes table. It assumes dims are valid and owned.
func newBase(dims []int) Base {
	volumes := make([]int, len(dims)+1)
	volumes[0] = 1
	for ii, dim := range dims {
		volumes[ii+1] = volumes[ii] * dim
	}
	return Base{dims: dims, volumes: volumes}
}

// New returns a Base for the given dimensions, innermost first.
//
// It fails with ErrZeroDims if no dimension is given, with a *ZeroLenDimError if any
// dimension is not positive, and with a *VolumeOverflowError if the number of elements
// doesn't fit an int.
func New(dims ...int) (Base, error) {
	if len(dims) == 0 {
		return Base{}, errors.WithStack(ErrZeroDims)
	}
	for _, dim := range dims {
		if dim <= 0 {
			return Base{}, errors.WithStack(&ZeroLenDimError{Dims: slices.Clone(dims)})
		}
	}
	volume := 1
	for _, dim := range dims {
		if volume > math.MaxInt/dim {
			return Base{}, errors.WithStack(&VolumeOverflowError{Dims: slices.Clone(dims)})
		}
		volume *= dim
	}
	return newBase(slices.Clone(dims)), nil
}

// Make is like New, but panics (with exceptions.Panicf) on invalid dimensions.
func Make(dims ...int) Base {
	base, err := New(dims...)
	if err != nil {
		exceptions.Panicf("shapes.Make(%v): %v", dims, err)
	}
	return base
}

// Ok returns whether this is a valid Base. A zero Base{} is invalid.
func (b Base) Ok() bool { return len(b.dims) > 0 }

// Rank of the shape, that is, the number of dimensions.
func (b Base) Rank() int { return len(b.dims) }

// Volume returns the total number of elements, the product of all dimensions.
func (b Base) Volume() int {
	if !b.Ok() {
		return 0
	}
	return b.volumes[len(b.dims)]
}

// Dims returns a copy of the dimensions, innermost first.
func (b Base) Dims() []int { return slices.Clone(b.dims) }

// Dim returns the dimension of the given axis, where axis 0 is the innermost.
// Negative axes count from the outermost, so -1 refers to the outermost axis.
// Like with a slice indexing, it panics for an out-of-bound axis.
func (b Base) Dim(axis int) int {
	adjustedAxis := axis
	if adjustedAxis < 0 {
		adjustedAxis += b.Rank()
	}
	if adjustedAxis < 0 || adjustedAxis >= b.Rank() {
		exceptions.Panicf("Base.Dim(%d) out-of-bounds for rank %d (shape=%s)", axis, b.Rank(), b)
	}
	return b.dims[adjustedAxis]
}

// Equal compares the dimensions of two shapes.
func (b Base) Equal(other Base) bool {
	return slices.Equal(b.dims, other.dims)
}

// String implements fmt.Stringer. Dimensions are printed innermost first.
func (b Base) String() string {
	if !b.Ok() {
		return "[invalid]"
	}
	return fmt.Sprintf("%v", b.dims)
}

// View returns the Shape view of the whole Base, with no axes reduced.
//
// The view shares the Base's tables. It panics for an invalid Base.
func (b Base) View() Shape {
	if !b.Ok() {
		exceptions.Panicf("Base.View() called on an invalid (zero) shape")
	}
	last := len(b.dims) - 1
	return Shape{
		len:        b.dims[last],
		volume:     b.volumes[last+1],
		subDims:    b.dims[:last],
		subVolumes: b.volumes[:last+1],
	}
}

// Iter iterates sequentially over all indices of the shape, in memory order (the innermost
// index changes fastest).
//
// It yields the flat index and a slice of indices, innermost first. The yielded slice is
// owned by the iteration: don't change it inside the loop.
func (b Base) Iter() iter.Seq2[int, []int] {
	return func(yield func(int, []int) bool) {
		if !b.Ok() {
			return
		}
		indices := make([]int, len(b.dims))
		volume := b.Volume()
		for flatIdx := 0; flatIdx < volume; flatIdx++ {
			if !yield(flatIdx, indices) {
				return
			}
			// Increment indices with carry-over, innermost axis first.
			for axis, dim := range b.dims {
				indices[axis]++
				if indices[axis] < dim {
					break
				}
				indices[axis] = 0
			}
		}
	}
}
