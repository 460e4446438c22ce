package testutil

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/livepoll/livepoll/internal/platform/config"
	"github.com/livepoll/livepoll/internal/platform/database"
	"github.com/livepoll/livepoll/internal/store"
)

// NewDB opens a fresh SQLite database in a temp dir, closed on cleanup.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "poll.db"),
	}
	db, err := database.Open(cfg, slog.LevelError)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		database.Close(db)
	})
	return db
}

// NewStore returns a migrated store over db.
func NewStore(t *testing.T, db *gorm.DB) *store.Store {
	t.Helper()

	st := store.New(db)
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return st
}

// SetupStore is NewStore over a fresh NewDB.
func SetupStore(t *testing.T) *store.Store {
	t.Helper()
	return NewStore(t, NewDB(t))
}

// AddCandidates creates one candidate per name and returns them in order.
func AddCandidates(t *testing.T, st *store.Store, names ...string) []store.Candidate {
	t.Helper()

	out := make([]store.Candidate, 0, len(names))
	for _, name := range names {
		c, err := st.AddCandidate(context.Background(), name, "")
		if err != nil {
			t.Fatalf("Failed to add candidate %q: %v", name, err)
		}
		out = append(out, c)
	}
	return out
}

// CastVotes casts n votes for candidateID from distinct clients named
// prefix-a, prefix-b and so on.
func CastVotes(t *testing.T, st *store.Store, prefix string, candidateID uint, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		client := prefix + "-" + string(rune('a'+i))
		ok, err := st.CastVote(context.Background(), client, candidateID)
		if err != nil {
			t.Fatalf("CastVote(%s) failed: %v", client, err)
		}
		if !ok {
			t.Fatalf("CastVote(%s) was rejected", client)
		}
	}
}
