package finance

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewProvider creates a postgres-backed provider when a pool is provided,
// otherwise in-memory fixtures.
func NewProvider(ctx context.Context, pool *pgxpool.Pool, salaryDay int) (Provider, error) {
	if pool == nil {
		return NewInMemoryProvider(salaryDay), nil
	}
	return NewPostgresProvider(ctx, pool, salaryDay)
}
