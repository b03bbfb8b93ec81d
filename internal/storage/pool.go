package storage

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// PooledMirror runs disk operations of the wrapped Mirror on a bounded set of worker goroutines,
// so a slow or stuck disk ties up at most `workers` operations.
// Once an operation has started it runs to completion even if the caller's context is cancelled.
type PooledMirror struct {
	next Mirror
	sem  *semaphore.Weighted
}

// NewPooledMirror wraps next with a pool of the given size (minimum 1).
func NewPooledMirror(next Mirror, workers int) *PooledMirror {
	if workers < 1 {
		workers = 1
	}
	return &PooledMirror{next: next, sem: semaphore.NewWeighted(int64(workers))}
}

func (p *PooledMirror) Remove(ctx context.Context, path string) error {
	return p.run(ctx, func(ctx context.Context) error {
		return p.next.Remove(ctx, path)
	})
}

func (p *PooledMirror) RemoveAll(ctx context.Context, path string) error {
	return p.run(ctx, func(ctx context.Context) error {
		return p.next.RemoveAll(ctx, path)
	})
}

func (p *PooledMirror) Exists(ctx context.Context, path string) (exists bool, err error) {
	err = p.run(ctx, func(ctx context.Context) error {
		exists, err = p.next.Exists(ctx, path)
		return err
	})
	return exists, err
}

func (p *PooledMirror) run(ctx context.Context, op func(context.Context) error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() {
		defer p.sem.Release(1)
		done <- op(context.WithoutCancel(ctx))
	}()
	return <-done
}
