package shutdown

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/livepoll/livepoll/pkg/lifecycle"
)

const (
	httpTimeout    = 15 * time.Second
	serviceTimeout = 5 * time.Second
)

type finalizer struct {
	name string
	fn   func() error
}

// Coordinator orchestrates a graceful shutdown: stop accepting requests,
// stop background services and live connections, then release resources.
type Coordinator struct {
	manager    *lifecycle.Manager
	finalizers []finalizer
}

// NewCoordinator creates a coordinator for the services registered on m.
func NewCoordinator(m *lifecycle.Manager) *Coordinator {
	return &Coordinator{manager: m}
}

// OnShutdown registers fn to run after every service has stopped.
// Finalizers run in registration order.
func (c *Coordinator) OnShutdown(name string, fn func() error) {
	c.finalizers = append(c.finalizers, finalizer{name: name, fn: fn})
}

// ListenForSignalsAndShutdown blocks until SIGINT or SIGTERM, then shuts
// down.
func (c *Coordinator) ListenForSignalsAndShutdown(server *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	sig := <-sigChan
	slog.Info("shutdown signal received", "signal", sig.String())
	c.Shutdown(server)
}

// Shutdown runs the shutdown sequence. server may be nil.
func (c *Coordinator) Shutdown(server *http.Server) {
	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), httpTimeout)
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("http server shutdown failed", "error", err)
		} else {
			slog.Info("http server stopped")
		}
		cancel()
	}

	// Hijacked websocket connections are not tracked by http.Server; they
	// stop when the manager cancels their handles.
	c.manager.Shutdown()
	if remaining := c.manager.WaitWithTimeout(serviceTimeout); len(remaining) > 0 {
		slog.Warn("services did not stop in time", "remaining", remaining)
	} else {
		slog.Info("all services stopped")
	}

	for _, f := range c.finalizers {
		if err := f.fn(); err != nil {
			slog.Error("shutdown step failed", "step", f.name, "error", err)
		}
	}
	slog.Info("shutdown complete")
}
