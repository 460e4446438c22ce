package lifecycle

import (
	"context"
	"time"
)

// Handle is given to one goroutine by a Manager.
type Handle struct {
	ctx context.Context
	// Close tells the Manager the goroutine has finished. Safe to call more
	// than once; defer it at the top of the goroutine.
	Close func()
}

// Ctx is cancelled when the Manager shuts down.
func (h *Handle) Ctx() context.Context {
	return h.ctx
}

// Done is closed when the Manager shuts down.
func (h *Handle) Done() <-chan struct{} {
	return h.ctx.Done()
}

// Err reports why Done was closed.
func (h *Handle) Err() error {
	return h.ctx.Err()
}

// Sleep waits for d, returning early with the context error on shutdown.
func (h *Handle) Sleep(d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-h.Done():
		return h.Err()
	case <-timer.C:
		return nil
	}
}
