// internal/worker/pool.go
package worker

import (
	"context"
	"sync"
)

// Pool runs tasks on at most size goroutines at a time
type Pool struct {
	wg      sync.WaitGroup
	workers chan struct{}
}

// NewPool creates a new worker pool with the specified number of workers
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		workers: make(chan struct{}, size),
	}
}

// Size returns the maximum number of concurrent tasks.
func (p *Pool) Size() int {
	return cap(p.workers)
}

// Submit blocks until a worker is free, then runs task on it. If ctx is
// done first the task is not run and ctx.Err() is returned.
func (p *Pool) Submit(ctx context.Context, task func()) error {
	// Prefer cancellation over a free slot when both are ready
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case p.workers <- struct{}{}: // Acquire a worker
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		<-p.workers
		return err
	}

	p.wg.Add(1)
	go func() {
		defer func() {
			<-p.workers // Release the worker
			p.wg.Done()
		}()

		task()
	}()
	return nil
}

// Wait waits for all submitted tasks to complete
func (p *Pool) Wait() {
	p.wg.Wait()
}
