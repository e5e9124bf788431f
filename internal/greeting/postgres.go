package greeting

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStateStore persists first-access flags in PostgreSQL so the
// once-a-day greeting holds across restarts and instances. The pool is
// shared and owned by the caller.
type PostgresStateStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStateStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStateStore, error) {
	if err := initSchema(ctx, pool); err != nil {
		return nil, err
	}
	return &PostgresStateStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS greeting_first_access (
			user_id TEXT NOT NULL,
			access_date DATE NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (user_id, access_date)
		);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStateStore) FirstAccessDone(ctx context.Context, userID, date string) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx,
		`SELECT 1 FROM greeting_first_access WHERE user_id=$1 AND access_date=$2`,
		userID, date,
	).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read first-access flag: %w", err)
	}
	return true, nil
}

func (s *PostgresStateStore) MarkFirstAccess(ctx context.Context, userID, date string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO greeting_first_access (user_id, access_date)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id, access_date) DO NOTHING`,
		userID, date,
	)
	if err != nil {
		return fmt.Errorf("mark first access: %w", err)
	}
	return nil
}
