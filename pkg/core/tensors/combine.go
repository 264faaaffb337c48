// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tensors

import (
	"sync"

	"github.com/QnnOkabayashi/arrs/internal/workerspool"
	"github.com/QnnOkabayashi/arrs/pkg/core/dtypes"
	"github.com/QnnOkabayashi/arrs/pkg/core/shapes"
	"github.com/gomlx/exceptions"
	"k8s.io/klog/v2"
)

// BroadcastCombine applies op elementwise to a and b, broadcasting them together, and returns
// the result in a newly allocated Array.
//
// The shape of the result is given by shapes.Broadcast, and if the views are not compatible its
// *shapes.BroadcastError is returned unchanged. The operands are never copied: stretched and
// padded axes simply reuse the same data.
//
// op is called exactly once per element of the result, in row-major order of the result, with
// the element of a as its first argument. If parallelism is enabled (see SetParallelism), op may
// be called concurrently from different goroutines for large results.
func BroadcastCombine[A, B, R dtypes.Supported](a View[A], b View[B], op func(A, B) R) (*Array[R], error) {
	shape, instructions, err := shapes.Broadcast(a.shape, b.shape)
	if err != nil {
		return nil, err
	}
	volume := shape.Volume()
	var data []R
	if pool := parallelPool(volume, instructions); pool != nil {
		data = combineParallel(pool, a.data, b.data, instructions, op, volume)
	} else {
		data = combine(a.data, b.data, instructions, op, make([]R, 0, volume))
	}
	return &Array[R]{shape: shape, data: data}, nil
}

// combine interprets the instructions from the last one (the outermost axis) to the first one
// (the innermost), appending the results to out.
func combine[A, B, R dtypes.Supported](a []A, b []B, instructions []shapes.Instruction, op func(A, B) R, out []R) []R {
	last := len(instructions) - 1
	inst, inner := instructions[last], instructions[:last]
	switch inst.Kind {
	case shapes.PushLinear:
		for ii, valueA := range a {
			out = append(out, op(valueA, b[ii]))
		}
	case shapes.PushStretchA:
		valueA := a[0]
		for _, valueB := range b {
			out = append(out, op(valueA, valueB))
		}
	case shapes.PushStretchB:
		valueB := b[0]
		for _, valueA := range a {
			out = append(out, op(valueA, valueB))
		}
	default:
		for ii := range numChunks(inst, len(a), len(b)) {
			chunkA, chunkB := split(inst, a, b, ii)
			out = combine(chunkA, chunkB, inner, op, out)
		}
	}
	return out
}

// numChunks returns the number of iterations of a Recurse* instruction, that is, the length of the
// output axis it traverses.
func numChunks(inst shapes.Instruction, lenA, lenB int) int {
	switch inst.Kind {
	case shapes.RecurseLinear, shapes.RecurseStretchB, shapes.RecursePadB:
		return lenA / inst.StrideA
	case shapes.RecurseStretchA, shapes.RecursePadA:
		return lenB / inst.StrideB
	default:
		exceptions.Panicf("numChunks(): unexpected instruction %s", inst)
		panic(nil)
	}
}

// split returns the operands of the index-th iteration of a Recurse* instruction.
// The operand being stretched or padded is passed whole.
func split[A, B any](inst shapes.Instruction, a []A, b []B, index int) ([]A, []B) {
	switch inst.Kind {
	case shapes.RecurseLinear:
		return chunk(a, inst.StrideA, index), chunk(b, inst.StrideB, index)
	case shapes.RecurseStretchA, shapes.RecursePadA:
		return a, chunk(b, inst.StrideB, index)
	case shapes.RecurseStretchB, shapes.RecursePadB:
		return chunk(a, inst.StrideA, index), b
	default:
		exceptions.Panicf("split(): unexpected instruction %s", inst)
		panic(nil)
	}
}

// combineParallel splits the outermost instruction across the pool: each iteration writes its
// own disjoint segment of the output.
func combineParallel[A, B, R dtypes.Supported](pool *workerspool.Pool, a []A, b []B, instructions []shapes.Instruction,
	op func(A, B) R, volume int) []R {
	out := make([]R, volume)
	last := len(instructions) - 1
	inst, inner := instructions[last], instructions[:last]
	n := numChunks(inst, len(a), len(b))
	segment := volume / n
	klog.V(2).Infof("BroadcastCombine: running %d chunks of %d elements in parallel (%s)", n, segment, inst)

	var wg sync.WaitGroup
	wg.Add(n)
	for ii := range n {
		chunkA, chunkB := split(inst, a, b, ii)
		dst := out[ii*segment : ii*segment : (ii+1)*segment]
		pool.WaitToStart(func() {
			defer wg.Done()
			combine(chunkA, chunkB, inner, op, dst)
		})
	}
	wg.Wait()
	return out
}
