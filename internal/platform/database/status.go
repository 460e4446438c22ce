package database

import (
	"log/slog"
	"sync"
)

// Status tracks whether Redis answered the last health check.
type Status struct {
	mu      sync.RWMutex
	healthy bool
}

// NewStatus starts out healthy; OpenRedis has just pinged successfully.
func NewStatus() *Status {
	return &Status{healthy: true}
}

// IsRedisHealthy returns the last recorded state.
func (s *Status) IsRedisHealthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.healthy
}

// Update records a check result and logs transitions only. It reports
// whether Redis just went from unhealthy to healthy.
func (s *Status) Update(healthy bool) (recovered bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.healthy == healthy {
		return false
	}
	s.healthy = healthy
	if healthy {
		slog.Info("health check: redis is available again")
		return true
	}
	slog.Warn("health check: redis is unavailable, mirror paused")
	return false
}
