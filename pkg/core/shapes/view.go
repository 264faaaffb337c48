// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package shapes

import (
	"fmt"
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
)

// Shape is a borrowed view of a Base, after zero or more rank-reductions and slices.
//
// It exposes the length of the outermost unreduced axis (Len), the number of elements spanned
// by one step along it (Stride), and the inner axes that are still unreduced.
//
// Invariant: len(subVolumes) == len(subDims)+1, subVolumes[0] == 1, and volume == len*Stride().
// A Shape never modifies the tables it shares with its Base.
type Shape struct {
	len, volume int
	subDims     []int
	subVolumes  []int
}

// Rank returns the number of unreduced axes.
func (s Shape) Rank() int { return len(s.subDims) + 1 }

// Len returns the length of the outermost unreduced axis.
func (s Shape) Len() int { return s.len }

// Volume returns the number of elements covered by the view.
func (s Shape) Volume() int { return s.volume }

// Stride returns the number of elements spanned by one step along the outermost axis.
func (s Shape) Stride() int { return s.subVolumes[len(s.subVolumes)-1] }

// Dims returns the dimensions of the view, innermost first. It allocates a new slice.
func (s Shape) Dims() []int {
	dims := make([]int, 0, s.Rank())
	dims = append(dims, s.subDims...)
	return append(dims, s.len)
}

// Base returns a new owned Base with the dimensions of the view.
func (s Shape) Base() Base {
	return newBase(s.Dims())
}

// Equal returns whether both views have the same dimensions.
func (s Shape) Equal(other Shape) bool {
	return s.len == other.len && slices.Equal(s.subDims, other.subDims)
}

// String implements fmt.Stringer. Dimensions are printed innermost first.
func (s Shape) String() string {
	return fmt.Sprintf("%v", s.Dims())
}

// axisDim returns the dimension of the given axis (0 is the innermost), or false if the
// view has no such axis.
func (s Shape) axisDim(axis int) (int, bool) {
	switch {
	case axis < len(s.subDims):
		return s.subDims[axis], true
	case axis == len(s.subDims):
		return s.len, true
	default:
		return 0, false
	}
}

// Derank returns the view with the outermost axis fixed to index, one rank lower.
//
// It fails with ErrDerank1D for a rank-1 view, and with *DerankIndexOutOfBoundsError if
// index >= Len(). The caller is responsible for offsetting the data by index*Stride().
func (s Shape) Derank(index int) (Shape, error) {
	if len(s.subDims) == 0 {
		return Shape{}, errors.WithStack(ErrDerank1D)
	}
	if index < 0 || index >= s.len {
		return Shape{}, errors.WithStack(&DerankIndexOutOfBoundsError{Len: s.len, Index: index})
	}
	return s.derank(), nil
}

// Subview returns the shape shared by all sub-views along the outermost axis, as Derank would
// return it for any valid index. It panics for rank-1 views.
func (s Shape) Subview() Shape {
	if len(s.subDims) == 0 {
		exceptions.Panicf("Shape.Subview(): %+v", errors.WithStack(ErrDerank1D))
	}
	return s.derank()
}

// derank drops the outermost axis. It assumes Rank() > 1.
func (s Shape) derank() Shape {
	lastDim := len(s.subDims) - 1
	lastVolume := len(s.subVolumes) - 1
	return Shape{
		len:        s.subDims[lastDim],
		volume:     s.subVolumes[lastVolume],
		subDims:    s.subDims[:lastDim],
		subVolumes: s.subVolumes[:lastVolume],
	}
}

// Slice returns the view with the outermost axis restricted to [start, stop), keeping the rank.
//
// Errors are checked in order: *SliceZeroWidthError if start == stop, *SliceStopBeforeStartError
// if start > stop, and *SliceStopPastEndError if stop > Len().
func (s Shape) Slice(start, stop int) (Shape, error) {
	switch {
	case start == stop:
		return Shape{}, errors.WithStack(&SliceZeroWidthError{Index: start})
	case start > stop:
		return Shape{}, errors.WithStack(&SliceStopBeforeStartError{Start: start, Stop: stop})
	case stop > s.len:
		return Shape{}, errors.WithStack(&SliceStopPastEndError{Stop: stop, Len: s.len})
	case start < 0:
		return Shape{}, errors.WithStack(&DerankIndexOutOfBoundsError{Len: s.len, Index: start})
	}
	n := stop - start
	return Shape{
		len:        n,
		volume:     n * s.Stride(),
		subDims:    s.subDims,
		subVolumes: s.subVolumes,
	}, nil
}

// BroadcastCompatible returns whether the two views can be broadcast together, without allocating.
func (s Shape) BroadcastCompatible(other Shape) bool {
	rank := max(s.Rank(), other.Rank())
	for axis := range rank {
		dimA, okA := s.axisDim(axis)
		dimB, okB := other.axisDim(axis)
		if okA && okB && dimA != dimB && dimA != 1 && dimB != 1 {
			return false
		}
	}
	return true
}
