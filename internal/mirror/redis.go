package mirror

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/livepoll/livepoll/internal/event"
)

const publishTimeout = 2 * time.Second

// HealthReporter tells the mirror whether Redis is currently reachable.
type HealthReporter interface {
	IsRedisHealthy() bool
}

// Redis copies push messages into Redis for consumers outside this process:
// every message is PUBLISHed on a channel and the latest results_update is
// kept under a key.
type Redis struct {
	rdb     *redis.Client
	key     string
	channel string
	health  HealthReporter
}

// NewRedis returns a mirror writing to rdb. health may be nil.
func NewRedis(rdb *redis.Client, key, channel string, health HealthReporter) *Redis {
	return &Redis{rdb: rdb, key: key, channel: channel, health: health}
}

// Publish mirrors one encoded message. Writes are skipped while Redis is
// reported unhealthy; the health checker resyncs the results key on recovery.
func (m *Redis) Publish(ctx context.Context, t event.Type, msg []byte) error {
	if m.health != nil && !m.health.IsRedisHealthy() {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	_, err := m.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if t == event.TypeResultsUpdate {
			pipe.Set(ctx, m.key, msg, 0)
		}
		pipe.Publish(ctx, m.channel, msg)
		return nil
	})
	if err != nil {
		return fmt.Errorf("mirror %s to redis: %w", t, err)
	}
	return nil
}

// Latest returns the last mirrored results_update message.
func (m *Redis) Latest(ctx context.Context) ([]byte, bool, error) {
	msg, err := m.rdb.Get(ctx, m.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read mirrored results: %w", err)
	}
	return msg, true, nil
}
