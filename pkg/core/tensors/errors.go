// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tensors

import "fmt"

// ShapeDataMisalignmentError is returned when the data given to construct an Array doesn't match
// the volume of its dimensions.
type ShapeDataMisalignmentError struct {
	Volume, DataLen int
}

func (e *ShapeDataMisalignmentError) Error() string {
	return fmt.Sprintf("shape volume %d doesn't match data length %d", e.Volume, e.DataLen)
}

// ReadNDimError is returned when reading a single value from a view of rank > 1.
type ReadNDimError struct {
	NDims int
}

func (e *ReadNDimError) Error() string {
	return fmt.Sprintf("cannot read a value from a %d-dimensional view, derank it first", e.NDims)
}
