// Package perf provides concurrency utilities
package perf

import (
	"context"
	"fmt"
	"sync"
)

// RateLimiter bounds the number of concurrently running operations.
// A limit of zero or less means unbounded.
type RateLimiter struct {
	sem   chan struct{}
	close chan struct{}
	once  sync.Once
	wg    sync.WaitGroup // Tracks active operations
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(maxConcurrent int) *RateLimiter {
	r := &RateLimiter{close: make(chan struct{})}
	if maxConcurrent > 0 {
		r.sem = make(chan struct{}, maxConcurrent)
	}
	return r
}

// Limit returns the configured bound, or 0 when unbounded.
func (r *RateLimiter) Limit() int {
	return cap(r.sem)
}

// Do executes a function with rate limiting
// The context can be used to cancel the wait for a slot; it is not passed to fn.
func (r *RateLimiter) Do(ctx context.Context, fn func() error) error {
	select {
	case <-r.close:
		return fmt.Errorf("rate limiter is closed")
	default:
	}

	if r.sem == nil {
		r.wg.Add(1)
		defer r.wg.Done()
		return fn()
	}

	select {
	case r.sem <- struct{}{}:
		r.wg.Add(1)
		defer func() {
			<-r.sem
			r.wg.Done()
		}()
		return fn()
	case <-r.close:
		return fmt.Errorf("rate limiter is closed")
	case <-ctx.Done():
		return fmt.Errorf("rate limiter: %w", ctx.Err())
	}
}

// Close closes the rate limiter and waits for all active operations to complete
func (r *RateLimiter) Close() error {
	r.once.Do(func() {
		close(r.close)
	})
	r.wg.Wait()
	return nil
}
