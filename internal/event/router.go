package event

import (
	"context"
	"log/slog"
	"sync"

	"github.com/livepoll/livepoll/internal/store"
)

// Source is the read side of the store the router needs.
type Source interface {
	Tally(ctx context.Context) ([]store.Result, int64, error)
	GetCandidate(ctx context.Context, id uint) (store.Candidate, bool, error)
}

// Broadcaster fans an encoded message out to subscribers.
type Broadcaster interface {
	Broadcast(ctx context.Context, msg []byte) int
}

// Mirror receives a copy of every broadcast message.
type Mirror interface {
	Publish(ctx context.Context, t Type, msg []byte) error
}

// Router turns committed store mutations into push messages.
//
// Each method must be called after the mutation it reports has committed. It
// reads the current state from the store, releases the store, and only then
// broadcasts. The router's own lock is held from the read until the broadcast
// returns, so messages go out in the order their state was read.
type Router struct {
	mu     sync.Mutex
	src    Source
	hub    Broadcaster
	mirror Mirror
}

// NewRouter wires a store and a hub. mirror may be nil.
func NewRouter(src Source, hub Broadcaster, mirror Mirror) *Router {
	return &Router{src: src, hub: hub, mirror: mirror}
}

// Snapshot encodes an initial_snapshot for a newly registered subscriber.
func (r *Router) Snapshot(ctx context.Context) ([]byte, error) {
	results, total, err := r.src.Tally(ctx)
	if err != nil {
		return nil, err
	}
	return Encode(TypeInitialSnapshot, Results{Results: results, TotalVotes: total})
}

// CandidatesChanged reports an added or edited candidate.
func (r *Router) CandidatesChanged(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	r.mu.Lock()
	defer r.mu.Unlock()

	r.publish(ctx, TypeCandidatesUpdate, Notice{Message: candidatesNotice})
}

// CandidateDeleted reports a deleted candidate; its votes went with it.
func (r *Router) CandidateDeleted(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	r.mu.Lock()
	defer r.mu.Unlock()

	r.publish(ctx, TypeCandidatesUpdate, Notice{Message: candidatesNotice})
	r.publishResults(ctx)
}

// VoteCast reports an accepted vote for candidateID.
func (r *Router) VoteCast(ctx context.Context, candidateID uint) {
	ctx = context.WithoutCancel(ctx)
	r.mu.Lock()
	defer r.mu.Unlock()

	c, found, err := r.src.GetCandidate(ctx, candidateID)
	switch {
	case err != nil:
		slog.Error("failed to load voted candidate", "candidate_id", candidateID, "error", err)
	case found:
		r.publish(ctx, TypeVoteCast, VoteCast{CandidateID: c.ID, CandidateName: c.Name})
	}
	r.publishResults(ctx)
}

// VotesReset reports that every vote was deleted.
func (r *Router) VotesReset(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	r.mu.Lock()
	defer r.mu.Unlock()

	r.publish(ctx, TypeReset, Notice{Message: resetNotice})
	r.publishResults(ctx)
}

// ClientsUnlocked reports a new voting round.
func (r *Router) ClientsUnlocked(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	r.mu.Lock()
	defer r.mu.Unlock()

	r.publish(ctx, TypeUnlock, Notice{Message: unlockNotice})
}

// PollCleared reports that candidates, votes and clients were all wiped.
func (r *Router) PollCleared(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	r.mu.Lock()
	defer r.mu.Unlock()

	r.publish(ctx, TypeCandidatesUpdate, Notice{Message: candidatesNotice})
	r.publishResults(ctx)
}

// Resync pushes the current results to the mirror only, e.g. after the
// mirror's backend came back from an outage.
func (r *Router) Resync(ctx context.Context) {
	if r.mirror == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	results, total, err := r.src.Tally(ctx)
	if err != nil {
		slog.Error("failed to read results for mirror resync", "error", err)
		return
	}
	msg, err := Encode(TypeResultsUpdate, Results{Results: results, TotalVotes: total})
	if err != nil {
		slog.Error("failed to encode results for mirror resync", "error", err)
		return
	}
	if err := r.mirror.Publish(ctx, TypeResultsUpdate, msg); err != nil {
		slog.Warn("mirror resync failed", "error", err)
	}
}

func (r *Router) publishResults(ctx context.Context) {
	results, total, err := r.src.Tally(ctx)
	if err != nil {
		slog.Error("failed to read results for broadcast", "error", err)
		return
	}
	r.publish(ctx, TypeResultsUpdate, Results{Results: results, TotalVotes: total})
}

func (r *Router) publish(ctx context.Context, t Type, data any) {
	msg, err := Encode(t, data)
	if err != nil {
		slog.Error("failed to encode event", "type", t, "error", err)
		return
	}

	delivered := r.hub.Broadcast(ctx, msg)
	slog.Debug("event broadcast", "type", t, "delivered", delivered)

	if r.mirror != nil {
		if err := r.mirror.Publish(ctx, t, msg); err != nil {
			slog.Warn("failed to mirror event", "type", t, "error", err)
		}
	}
}
