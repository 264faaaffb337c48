// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package shapes

import (
	"fmt"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
)

// InstructionKind describes how one axis of a broadcast output is traversed.
type InstructionKind uint8

//go:generate go tool enumer -type=InstructionKind -text -output=gen_instructionkind_enumer.go broadcast.go

const (
	// PushLinear zips the flat data of both operands elementwise. Innermost axis only.
	PushLinear InstructionKind = iota

	// PushStretchA reuses the single element of A against every element of B. Innermost axis only.
	PushStretchA

	// PushStretchB reuses the single element of B against every element of A. Innermost axis only.
	PushStretchB

	// RecurseLinear chunks A by StrideA and B by StrideB and recurses over the pairs of chunks.
	RecurseLinear

	// RecurseStretchA recurses A (whose axis has length 1) against every StrideB chunk of B.
	RecurseStretchA

	// RecurseStretchB recurses B (whose axis has length 1) against every StrideA chunk of A.
	RecurseStretchB

	// RecursePadA recurses all of A (which has no such axis) against every StrideB chunk of B.
	RecursePadA

	// RecursePadB recurses all of B (which has no such axis) against every StrideA chunk of A.
	RecursePadB
)

// IsPush returns whether the kind is one of the terminal Push* kinds.
func (k InstructionKind) IsPush() bool {
	return k <= PushStretchB
}

// Instruction for one axis of a broadcast. StrideA and StrideB are the chunk sizes, in elements,
// used to split each operand before recursing one axis inward. Only the strides the kind uses
// are set, the others are 0.
type Instruction struct {
	Kind             InstructionKind
	StrideA, StrideB int
}

// String implements fmt.Stringer.
func (inst Instruction) String() string {
	switch inst.Kind {
	case RecurseLinear:
		return fmt.Sprintf("%s(%d, %d)", inst.Kind, inst.StrideA, inst.StrideB)
	case RecurseStretchA, RecursePadA:
		return fmt.Sprintf("%s(%d)", inst.Kind, inst.StrideB)
	case RecurseStretchB, RecursePadB:
		return fmt.Sprintf("%s(%d)", inst.Kind, inst.StrideA)
	default:
		return inst.Kind.String()
	}
}

// toPush converts the instruction of the innermost axis to its terminal form.
func (inst Instruction) toPush() Instruction {
	switch inst.Kind {
	case RecurseLinear:
		return Instruction{Kind: PushLinear}
	case RecurseStretchA:
		return Instruction{Kind: PushStretchA}
	case RecurseStretchB:
		return Instruction{Kind: PushStretchB}
	default:
		// Padding on the innermost axis would require a shape with zero dims.
		exceptions.Panicf("broadcast instruction %s cannot be used on the innermost axis", inst)
		panic(nil)
	}
}

// Broadcast computes the shape resulting from broadcasting a and b together, and the list of
// instructions on how to traverse each axis of the result.
//
// It follows NumPy's rule, from the innermost axis outwards: two axes are compatible if they
// are equal, if one of them is 1 (it is stretched), or if one of the operands has no more axes
// (it is padded). Equal axes, including 1 == 1, are always traversed linearly.
//
// The instructions are ordered innermost first, one per axis of the result: the first one is
// always a Push* kind, and the others are Recurse* kinds. The traversal consumes them from the
// end (outermost) to the start.
//
// It returns a *BroadcastError if the shapes are not compatible.
func Broadcast(a, b Shape) (Base, []Instruction, error) {
	rank := max(a.Rank(), b.Rank())
	dims := make([]int, 0, rank)
	instructions := make([]Instruction, 0, rank)

	// Running strides: the product of the axes consumed so far on each operand.
	strideA, strideB := 1, 1
	for axis := range rank {
		dimA, okA := a.axisDim(axis)
		dimB, okB := b.axisDim(axis)
		var inst Instruction
		switch {
		case okA && okB && dimA == dimB:
			inst = Instruction{Kind: RecurseLinear, StrideA: strideA, StrideB: strideB}
			dims = append(dims, dimA)
		case okA && okB && dimB == 1:
			inst = Instruction{Kind: RecurseStretchB, StrideA: strideA}
			dims = append(dims, dimA)
		case okA && okB && dimA == 1:
			inst = Instruction{Kind: RecurseStretchA, StrideB: strideB}
			dims = append(dims, dimB)
		case okA && !okB:
			inst = Instruction{Kind: RecursePadB, StrideA: strideA}
			dims = append(dims, dimA)
		case !okA && okB:
			inst = Instruction{Kind: RecursePadA, StrideB: strideB}
			dims = append(dims, dimB)
		default:
			return Base{}, nil, errors.WithStack(&BroadcastError{Dims1: a.Dims(), Dims2: b.Dims()})
		}
		instructions = append(instructions, inst)
		if okA {
			strideA *= dimA
		}
		if okB {
			strideB *= dimB
		}
	}
	instructions[0] = instructions[0].toPush()
	return newBase(dims), instructions, nil
}
