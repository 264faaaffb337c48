// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package shapes

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrZeroDims is returned when a shape is constructed with no dimensions.
	// Scalars are represented with the shape [1].
	ErrZeroDims = errors.New("shape cannot be constructed with 0 dims")

	// ErrDerank1D is returned when deranking a rank-1 shape: its values are read with At instead.
	ErrDerank1D = errors.New("cannot derank a 1-dimensional shape")
)

// ZeroLenDimError is returned when a shape is constructed with a dimension <= 0.
type ZeroLenDimError struct {
	Dims []int
}

func (e *ZeroLenDimError) Error() string {
	return fmt.Sprintf("shape cannot have a dim of width 0, received %v", e.Dims)
}

// VolumeOverflowError is returned when the number of elements of a shape doesn't fit an int.
type VolumeOverflowError struct {
	Dims []int
}

func (e *VolumeOverflowError) Error() string {
	return fmt.Sprintf("shape %v has more elements than can be addressed", e.Dims)
}

// BroadcastError is returned when two shapes cannot be broadcast together.
// Dimensions are listed innermost first.
type BroadcastError struct {
	Dims1, Dims2 []int
}

func (e *BroadcastError) Error() string {
	return fmt.Sprintf("operands could not be broadcast together with shapes %v, %v", e.Dims1, e.Dims2)
}

// DerankIndexOutOfBoundsError is returned when indexing past the length of the outermost axis.
type DerankIndexOutOfBoundsError struct {
	Len, Index int
}

func (e *DerankIndexOutOfBoundsError) Error() string {
	return fmt.Sprintf("cannot derank at index %d when len is %d", e.Index, e.Len)
}

// SliceZeroWidthError is returned when slicing with start == stop.
type SliceZeroWidthError struct {
	Index int
}

func (e *SliceZeroWidthError) Error() string {
	return fmt.Sprintf("slice cannot have 0 size, start: %d, stop: %d", e.Index, e.Index)
}

// SliceStopBeforeStartError is returned when slicing with start > stop.
type SliceStopBeforeStartError struct {
	Start, Stop int
}

func (e *SliceStopBeforeStartError) Error() string {
	return fmt.Sprintf("slice start, %d, cannot be greater than stop, %d", e.Start, e.Stop)
}

// SliceStopPastEndError is returned when slicing past the length of the outermost axis.
type SliceStopPastEndError struct {
	Stop, Len int
}

func (e *SliceStopPastEndError) Error() string {
	return fmt.Sprintf("cannot slice array of len %d with a slice stopping at %d", e.Len, e.Stop)
}
