// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tensors

import (
	"sync/atomic"

	"github.com/QnnOkabayashi/arrs/internal/workerspool"
	"github.com/QnnOkabayashi/arrs/pkg/core/shapes"
)

// DefaultParallelMinVolume is the initial value of ParallelMinVolume.
const DefaultParallelMinVolume = 1 << 16

var (
	// pool is nil while parallelism is disabled.
	pool atomic.Pointer[workerspool.Pool]

	parallelMinVolume atomic.Int64
)

func init() {
	parallelMinVolume.Store(DefaultParallelMinVolume)
}

// SetParallelMinVolume sets the minimum number of elements of a result for BroadcastCombine to
// split its outermost axis across goroutines, when parallelism is enabled.
// It is safe to call concurrently with running operations.
func SetParallelMinVolume(volume int) {
	parallelMinVolume.Store(int64(volume))
}

// ParallelMinVolume returns the value set with SetParallelMinVolume, DefaultParallelMinVolume by default.
func ParallelMinVolume() int {
	return int(parallelMinVolume.Load())
}

// SetParallelism configures the parallelism of BroadcastCombine (and all the operations built on it).
//
// If n is 0 (the default), everything runs sequentially in the calling goroutine. If n < 0 the
// number of goroutines is unlimited. Otherwise, n is a soft target on the number of operations
// running in parallel.
//
// Results are the same with or without parallelism, but op functions passed to BroadcastCombine
// must then be safe to call concurrently.
func SetParallelism(n int) {
	if n == 0 {
		pool.Store(nil)
		return
	}
	pool.Store(workerspool.New(n))
}

// Parallelism returns the value last configured with SetParallelism.
func Parallelism() int {
	p := pool.Load()
	if p == nil {
		return 0
	}
	return p.MaxParallelism()
}

// parallelPool returns the pool to use for a result of the given volume, or nil if it should be
// computed sequentially.
func parallelPool(volume int, instructions []shapes.Instruction) *workerspool.Pool {
	p := pool.Load()
	if p == nil || volume < ParallelMinVolume() {
		return nil
	}
	if instructions[len(instructions)-1].Kind.IsPush() {
		// Rank-1 results have no outer axis to split.
		return nil
	}
	return p
}
