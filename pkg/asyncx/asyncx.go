// Package asyncx holds small generic helpers for goroutine-based work:
// futures, detached tasks, bounded fan-out and retries.
package asyncx

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type result[T any] struct {
	value T
	err   error
}

// Future is the pending result of Run.
type Future[T any] struct {
	ch  chan result[T]
	res *result[T]
	mu  sync.Mutex
}

// Run starts fn on a new goroutine.
func Run[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{ch: make(chan result[T], 1)}
	go func() {
		v, err := fn()
		f.ch <- result[T]{value: v, err: err}
	}()
	return f
}

// Await blocks for the result. Later calls return the cached value.
func (f *Future[T]) Await() (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.res == nil {
		r := <-f.ch
		f.res = &r
	}
	return f.res.value, f.res.err
}

// Do runs fn detached.
func Do(fn func()) {
	go fn()
}

// DoCtx runs fn detached unless ctx is already done.
func DoCtx(ctx context.Context, fn func(context.Context)) {
	go func() {
		select {
		case <-ctx.Done():
			return
		default:
			fn(ctx)
		}
	}()
}

// Safe converts a panic inside fn into an error.
func Safe(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// Pool maps items through fn with at most workers goroutines, keeping
// input order. The first error wins.
func Pool[T any, R any](
	ctx context.Context,
	workers int,
	items []T,
	fn func(context.Context, T) (R, error),
) ([]R, error) {
	if workers <= 0 {
		workers = 1
	}

	type indexed struct {
		i    int
		item T
	}

	work := make(chan indexed, len(items))
	for i, item := range items {
		work <- indexed{i: i, item: item}
	}
	close(work)

	results := make([]R, len(items))
	errs := make([]error, len(items))

	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for w := range work {
				if err := ctx.Err(); err != nil {
					errs[w.i] = err
					continue
				}
				results[w.i], errs[w.i] = fn(ctx, w.item)
			}
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// RetryWithBackoff calls fn up to attempts times, doubling the delay
// after each failure.
func RetryWithBackoff[T any](
	ctx context.Context,
	attempts int,
	initialDelay time.Duration,
	fn func(context.Context) (T, error),
) (T, error) {
	var (
		zero  T
		val   T
		err   error
		delay = initialDelay
	)
	for i := range attempts {
		if cerr := ctx.Err(); cerr != nil {
			return zero, cerr
		}

		val, err = fn(ctx)
		if err == nil {
			return val, nil
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return zero, err
}

// WithTimeout runs fn under a deadline of d.
func WithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	f := Run(func() (T, error) { return fn(ctx) })
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-f.ch:
		return r.value, r.err
	}
}
