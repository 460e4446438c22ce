package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Manager hands out Handles to long-running goroutines and waits for them to
// finish once Shutdown is called.
type Manager struct {
	wg       sync.WaitGroup
	mu       sync.Mutex
	services map[string]struct{}
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager returns a Manager whose handles are cancelled when parent is
// cancelled or Shutdown is called.
func NewManager(parent context.Context) *Manager {
	m := &Manager{services: make(map[string]struct{})}
	m.ctx, m.cancel = context.WithCancel(parent)
	return m
}

// NewServiceHandle registers a goroutine under a unique name. The caller must
// call Handle.Close when the goroutine exits.
func (m *Manager) NewServiceHandle(name string) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, fmt.Errorf("lifecycle: manager is shutting down, refusing %q", name)
	}
	if _, ok := m.services[name]; ok {
		return nil, fmt.Errorf("lifecycle: service %q already registered", name)
	}
	m.services[name] = struct{}{}
	m.wg.Add(1)
	slog.Debug("lifecycle: service registered", "service", name)

	var once sync.Once
	return &Handle{
		ctx: m.ctx,
		Close: func() {
			once.Do(func() {
				m.mu.Lock()
				delete(m.services, name)
				m.mu.Unlock()
				m.wg.Done()
			})
		},
	}, nil
}

// Active returns the number of registered, still-running services.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.services)
}

// Shutdown cancels every handle's context. New handles are refused afterwards.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	slog.Info("lifecycle: broadcasting shutdown")
	m.cancel()
}

// WaitWithTimeout blocks until every service has closed its handle or the
// timeout elapses. It returns the names still running on timeout.
func (m *Manager) WaitWithTimeout(timeout time.Duration) []string {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		m.mu.Lock()
		defer m.mu.Unlock()
		remaining := make([]string, 0, len(m.services))
		for name := range m.services {
			remaining = append(remaining, name)
		}
		sort.Strings(remaining)
		return remaining
	}
}
