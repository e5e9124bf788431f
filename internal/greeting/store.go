package greeting

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// StateStore tracks the date-scoped first-access flag. Unlike the
// per-session greeted flags it survives session turnover: the first-access
// greeting fires once per calendar day no matter how many sessions open.
type StateStore interface {
	FirstAccessDone(ctx context.Context, userID, date string) (bool, error)
	MarkFirstAccess(ctx context.Context, userID, date string) error
}

// InMemoryStateStore keeps first-access flags in process memory.
type InMemoryStateStore struct {
	mu   sync.RWMutex
	seen map[string]bool
}

func NewInMemoryStateStore() *InMemoryStateStore {
	return &InMemoryStateStore{seen: make(map[string]bool)}
}

func (s *InMemoryStateStore) FirstAccessDone(_ context.Context, userID, date string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seen[userID+"|"+date], nil
}

func (s *InMemoryStateStore) MarkFirstAccess(_ context.Context, userID, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[userID+"|"+date] = true
	return nil
}

// NewStateStore creates a postgres-backed store when a pool is provided,
// otherwise in-memory.
func NewStateStore(ctx context.Context, pool *pgxpool.Pool) (StateStore, error) {
	if pool == nil {
		return NewInMemoryStateStore(), nil
	}
	return NewPostgresStateStore(ctx, pool)
}
