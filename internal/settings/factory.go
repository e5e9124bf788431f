package settings

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewStore creates a postgres-backed store when a pool is provided,
// otherwise in-memory.
func NewStore(ctx context.Context, pool *pgxpool.Pool, voiceDefault bool) (Store, error) {
	if pool == nil {
		return NewInMemoryStore(voiceDefault), nil
	}
	return NewPostgresStore(ctx, pool, voiceDefault)
}
