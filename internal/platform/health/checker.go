package health

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/livepoll/livepoll/internal/platform/database"
	"github.com/livepoll/livepoll/pkg/lifecycle"
)

const (
	checkInterval = 5 * time.Second
	pingTimeout   = 2 * time.Second
)

var runIDPattern = regexp.MustCompile(`run_id:([a-f0-9]+)`)

// Probe returns an identifier of the running Redis instance. A changed
// identifier means Redis restarted and lost the mirrored keys.
type Probe func(ctx context.Context) (string, error)

// Checker periodically checks Redis and records the outcome in a
// database.Status. When Redis comes back from an outage or restarts, it calls
// the resync hook so the mirror can be rebuilt.
type Checker struct {
	probe     Probe
	status    *database.Status
	resync    func(ctx context.Context)
	lastRunID string
}

// NewChecker checks rdb using its INFO server run_id.
func NewChecker(rdb *redis.Client, status *database.Status, resync func(ctx context.Context)) *Checker {
	return NewCheckerWithProbe(RunIDProbe(rdb), status, resync)
}

// NewCheckerWithProbe is NewChecker with a custom probe.
func NewCheckerWithProbe(probe Probe, status *database.Status, resync func(ctx context.Context)) *Checker {
	return &Checker{probe: probe, status: status, resync: resync}
}

// RunIDProbe reads run_id from INFO server, falling back to PING for servers
// that do not report one.
func RunIDProbe(rdb *redis.Client) Probe {
	return func(ctx context.Context) (string, error) {
		info, err := rdb.Info(ctx, "server").Result()
		if err == nil {
			if m := runIDPattern.FindStringSubmatch(info); len(m) == 2 {
				return m[1], nil
			}
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			return "", err
		}
		return "", nil
	}
}

// Initialize records the run_id at startup. It fails if Redis is unreachable.
func (c *Checker) Initialize(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	runID, err := c.probe(ctx)
	if err != nil {
		return err
	}
	if runID == "" {
		return errors.New("health: redis did not identify itself")
	}
	c.lastRunID = runID
	slog.Info("health check: initial redis run id", "run_id", runID)
	return nil
}

// PerformCheck runs one check and triggers a resync when needed.
func (c *Checker) PerformCheck(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	runID, err := c.probe(probeCtx)
	cancel()
	if err != nil {
		c.status.Update(false)
		return
	}

	restarted := c.lastRunID != "" && runID != "" && runID != c.lastRunID
	if restarted {
		slog.Warn("health check: redis restarted", "old_run_id", c.lastRunID, "new_run_id", runID)
	}
	if runID != "" {
		c.lastRunID = runID
	}

	recovered := c.status.Update(true)
	if (recovered || restarted) && c.resync != nil {
		c.resync(ctx)
	}
}

// Run checks every few seconds until the handle is shut down.
func (c *Checker) Run(h *lifecycle.Handle) {
	defer h.Close()
	slog.Info("redis health checker started")

	for {
		if err := h.Sleep(checkInterval); err != nil {
			slog.Info("redis health checker stopped")
			return
		}
		c.PerformCheck(h.Ctx())
	}
}
