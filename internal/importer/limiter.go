package importer

// limiter.go implements concurrency control for import processing. A
// semaphore restricts parallel imports to a configurable maximum; when all
// slots are occupied, new requests wait up to maxWait before failing with
// ErrTooManyImports. WaitForDrain supports graceful shutdown.

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxConcurrentImports bounds parallel imports when no limit is
// configured.
const DefaultMaxConcurrentImports = 4

// DefaultMaxWait is how long to wait for a slot before rejecting.
const DefaultMaxWait = 10 * time.Second

// Limiter controls how many imports run at once.
type Limiter struct {
	sem     chan struct{}
	maxWait time.Duration

	mu     sync.Mutex
	active int
}

// NewLimiter creates a limiter allowing at most maxConcurrent simultaneous
// imports. Requests that cannot acquire a slot within maxWait receive
// ErrTooManyImports.
func NewLimiter(maxConcurrent int, maxWait time.Duration) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentImports
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return &Limiter{
		sem:     make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire blocks until a slot is available, the wait timeout expires, or
// ctx is cancelled. The caller must Release exactly once per successful
// Acquire.
func (l *Limiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.sem <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyImports
	}
}

// Release frees a previously acquired slot.
func (l *Limiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()
	<-l.sem
}

// Active returns the number of imports currently holding a slot.
func (l *Limiter) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// WaitForDrain blocks until all active imports complete or ctx is
// cancelled. Used during shutdown so in-flight imports finish their
// batches before the process exits.
func (l *Limiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if l.Active() == 0 {
				return nil
			}
		}
	}
}
