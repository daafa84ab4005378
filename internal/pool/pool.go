// Package pool runs handlers with bounded parallelism and hands their
// results back to a single consumer.
package pool

import (
	"context"
	"sync"
)

// WorkerPool runs at most maxWorkers handlers at once. Every handler that runs
// delivers exactly one result on Results.
type WorkerPool[T any, R any] struct {
	sem     chan struct{}
	wg      sync.WaitGroup
	results chan R
	once    sync.Once
}

// NewWorkerPool creates a pool with maxWorkers slots. Values below 1 are treated as 1.
func NewWorkerPool[T any, R any](maxWorkers int) *WorkerPool[T, R] {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &WorkerPool[T, R]{
		sem:     make(chan struct{}, maxWorkers),
		results: make(chan R, maxWorkers),
	}
}

// Submit schedules handler(ctx, item). It does not block. If ctx is cancelled
// before a slot frees up the item is dropped and produces no result.
func (p *WorkerPool[T, R]) Submit(ctx context.Context, item T, handler func(context.Context, T) R) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		select {
		case p.sem <- struct{}{}:
		case <-ctx.Done():
			return
		}

		// A slot can win the race against cancellation, check again
		if ctx.Err() != nil {
			<-p.sem
			return
		}

		result := handler(ctx, item)
		<-p.sem
		p.results <- result
	}()
}

// Results returns the channel results are delivered on. It is closed by Close.
func (p *WorkerPool[T, R]) Results() <-chan R {
	return p.results
}

// Close waits for every submitted item to finish, then closes Results.
// Results must be drained concurrently or Close can block.
func (p *WorkerPool[T, R]) Close() {
	p.once.Do(func() {
		p.wg.Wait()
		close(p.results)
	})
}
