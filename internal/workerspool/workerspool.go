// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package workerspool limits the number of goroutines computing parts of an array at the same time.
//
// It is used to split large broadcast operations across cores.
package workerspool

// goroutinesPerWorker is how many tasks may run for each unit of parallelism, so that a worker
// finishing a part never waits for the next one to be started.
const goroutinesPerWorker = 2

// Pool starts tasks in their own goroutines, with at most goroutinesPerWorker*MaxParallelism of
// them running at a time.
type Pool struct {
	maxParallelism int

	// slots holds one token per running task. It is nil unless maxParallelism > 0.
	slots chan struct{}
}

// New returns a Pool with the given parallelism. See MaxParallelism.
func New(maxParallelism int) *Pool {
	p := &Pool{maxParallelism: maxParallelism}
	if maxParallelism > 0 {
		p.slots = make(chan struct{}, goroutinesPerWorker*maxParallelism)
	}
	return p
}

// MaxParallelism is a soft-target for parallelism.
// If 0 parallelism is disabled, and if negative it is unlimited.
func (p *Pool) MaxParallelism() int {
	return p.maxParallelism
}

// WaitToStart waits until there is a free slot to run the task, and starts it in a goroutine.
//
// If parallelism is disabled, it runs the task inline and returns when it is finished.
// If it is unlimited, it never waits.
func (p *Pool) WaitToStart(task func()) {
	switch {
	case p.maxParallelism == 0:
		task()
		return
	case p.maxParallelism < 0:
		go task()
		return
	}
	p.slots <- struct{}{}
	go func() {
		defer func() { <-p.slots }()
		task()
	}()
}
