// Package limiter provides the process-wide admission gate that bounds how
// many ranking fetches are in flight at once.
package limiter

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// DefaultMultiplier scales available parallelism into the admission size.
const DefaultMultiplier = 4

// Limiter admits at most Size tasks at a time. Waiting tasks are admitted in
// the order they asked.
type Limiter struct {
	sem  *semaphore.Weighted
	size int
}

// New builds a limiter with the given number of slots (at least one).
func New(size int) *Limiter {
	if size < 1 {
		size = 1
	}
	return &Limiter{
		sem:  semaphore.NewWeighted(int64(size)),
		size: size,
	}
}

// FromParallelism sizes the limiter as NumCPU * multiplier.
func FromParallelism(multiplier int) *Limiter {
	if multiplier < 1 {
		multiplier = DefaultMultiplier
	}
	return New(runtime.NumCPU() * multiplier)
}

// Size returns the number of concurrent slots.
func (l *Limiter) Size() int { return l.size }

// Do waits for a free slot, runs task, and returns its error unchanged. It
// only fails on its own when ctx ends before a slot frees up.
func (l *Limiter) Do(ctx context.Context, task func(context.Context) error) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer l.sem.Release(1)
	return task(ctx)
}

// Submit is the value-returning form of Do.
func Submit[T any](ctx context.Context, l *Limiter, task func(context.Context) (T, error)) (T, error) {
	var out T
	err := l.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = task(ctx)
		return err
	})
	return out, err
}
