// Package ratelimit gates outgoing page requests so a fetch run cannot
// overload the public data.gov.in service. It caps the number of in-flight
// requests across all pagination drivers and optionally enforces a minimum
// spacing between request starts.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter bounds concurrent in-flight requests. The zero value is unusable;
// use New.
type Limiter struct {
	tokens chan struct{}

	mu        sync.Mutex
	minGap    time.Duration
	lastStart time.Time
}

// New creates a limiter allowing at most maxInFlight concurrent requests,
// with at least minGap between consecutive request starts. maxInFlight
// values below 1 are treated as 1; a zero minGap disables spacing.
func New(maxInFlight int, minGap time.Duration) *Limiter {
	if maxInFlight < 1 {
		maxInFlight = 1
	}
	return &Limiter{
		tokens: make(chan struct{}, maxInFlight),
		minGap: minGap,
	}
}

// Acquire blocks until a request slot is available or the context is done.
// Callers must Release the slot when the request completes.
func (l *Limiter) Acquire(ctx context.Context) error {
	select {
	case l.tokens <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	if l.minGap > 0 {
		if err := l.pace(ctx); err != nil {
			<-l.tokens
			return err
		}
	}
	return nil
}

// Release frees a slot acquired with Acquire.
func (l *Limiter) Release() {
	select {
	case <-l.tokens:
	default:
	}
}

// InFlight returns the number of currently held slots.
func (l *Limiter) InFlight() int {
	return len(l.tokens)
}

// pace sleeps until minGap has elapsed since the previous request start.
func (l *Limiter) pace(ctx context.Context) error {
	l.mu.Lock()
	now := time.Now()
	wait := l.minGap - now.Sub(l.lastStart)
	if wait < 0 {
		wait = 0
	}
	l.lastStart = now.Add(wait)
	l.mu.Unlock()

	if wait == 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
