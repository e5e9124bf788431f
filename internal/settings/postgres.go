package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists preferences in PostgreSQL. The pool is shared and
// owned by the caller.
type PostgresStore struct {
	pool         *pgxpool.Pool
	voiceDefault bool
}

func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool, voiceDefault bool) (*PostgresStore, error) {
	if err := initSchema(ctx, pool); err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool, voiceDefault: voiceDefault}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS assistant_settings (
			user_id TEXT PRIMARY KEY,
			voice_enabled BOOLEAN NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

// singleUserID scopes settings until multi-account support lands.
const singleUserID = "default"

func (s *PostgresStore) VoiceEnabled(ctx context.Context) (bool, error) {
	var enabled bool
	err := s.pool.QueryRow(ctx,
		`SELECT voice_enabled FROM assistant_settings WHERE user_id=$1`,
		singleUserID,
	).Scan(&enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return s.voiceDefault, nil
	}
	if err != nil {
		return false, fmt.Errorf("read voice flag: %w", err)
	}
	return enabled, nil
}

func (s *PostgresStore) SetVoiceEnabled(ctx context.Context, enabled bool) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO assistant_settings (user_id, voice_enabled, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (user_id) DO UPDATE SET voice_enabled=EXCLUDED.voice_enabled, updated_at=now()`,
		singleUserID,
		enabled,
	)
	if err != nil {
		return fmt.Errorf("write voice flag: %w", err)
	}
	return nil
}
