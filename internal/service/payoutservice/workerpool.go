package payoutservice

import (
	"context"
)

type WorkerPoolI interface {
	Do(ctx context.Context, task Task) error
	Close()
}

type Task func() error

// WorkerPool bounds how many payouts run against the processor at once.
type WorkerPool struct {
	pool chan func()
}

func NewWorkerPool(size int) *WorkerPool {
	pool := make(chan func(), size)
	wp := &WorkerPool{pool: pool}

	for i := 0; i < size; i++ {
		go wp.worker()
	}
	return wp
}

func (wp *WorkerPool) worker() {
	for task := range wp.pool {
		task()
	}
}

// Do runs the task on a pool worker and waits for it to finish.
func (wp *WorkerPool) Do(ctx context.Context, task Task) error {
	done := make(chan error, 1)
	wrapped := func() {
		done <- task()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case wp.pool <- wrapped:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func (wp *WorkerPool) Close() {
	select {
	case <-wp.pool:
	default:
		close(wp.pool)
	}
}
