package live

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Subscriber is one open push connection.
type Subscriber interface {
	// Send delivers one message. It must give up once ctx is done.
	Send(ctx context.Context, msg []byte) error
	Close() error
}

// Hub is the registry of open subscribers. Broadcasts are serialized: two
// broadcasts never interleave their per-subscriber sends, and a subscriber
// whose send fails is evicted before the broadcast returns.
type Hub struct {
	mu          sync.Mutex
	subs        map[Subscriber]struct{}
	closed      bool
	sendTimeout time.Duration
}

// NewHub returns an empty hub. sendTimeout bounds each individual send.
func NewHub(sendTimeout time.Duration) *Hub {
	return &Hub{
		subs:        make(map[Subscriber]struct{}),
		sendTimeout: sendTimeout,
	}
}

// Connect registers sub. Registering twice is a no-op. After Close, the
// subscriber is closed immediately and false is returned.
func (h *Hub) Connect(sub Subscriber) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		sub.Close()
		return false
	}
	h.subs[sub] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()

	slog.Info("subscriber connected", "active", n)
	return true
}

// Disconnect removes sub. Unknown subscribers are ignored.
func (h *Hub) Disconnect(sub Subscriber) {
	h.mu.Lock()
	_, ok := h.subs[sub]
	delete(h.subs, sub)
	n := len(h.subs)
	h.mu.Unlock()

	if ok {
		slog.Info("subscriber disconnected", "active", n)
	}
}

// Broadcast sends msg to every registered subscriber and returns how many
// accepted it. Failed subscribers are removed and closed; they are not
// retried and do not stop delivery to the others.
func (h *Hub) Broadcast(ctx context.Context, msg []byte) int {
	h.mu.Lock()
	var failed []Subscriber
	for sub := range h.subs {
		sendCtx, cancel := context.WithTimeout(ctx, h.sendTimeout)
		err := sub.Send(sendCtx, msg)
		cancel()
		if err != nil {
			slog.Warn("broadcast send failed, evicting subscriber", "error", err)
			failed = append(failed, sub)
		}
	}
	for _, sub := range failed {
		delete(h.subs, sub)
	}
	delivered := len(h.subs)
	h.mu.Unlock()

	for _, sub := range failed {
		sub.Close()
	}
	if len(failed) > 0 {
		slog.Info("evicted subscribers after broadcast", "evicted", len(failed), "active", delivered)
	}
	return delivered
}

// Count returns the number of registered subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close drops and closes every subscriber without sending anything. Later
// Connect calls are refused.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[Subscriber]struct{})
	h.closed = true
	h.mu.Unlock()

	for sub := range subs {
		sub.Close()
	}
	slog.Info("hub closed", "dropped", len(subs))
}
