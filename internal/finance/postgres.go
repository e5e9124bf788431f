package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresProvider assembles snapshots from the banking schema. The pool is
// shared and owned by the caller.
type PostgresProvider struct {
	pool      *pgxpool.Pool
	salaryDay int
	now       func() time.Time
}

func NewPostgresProvider(ctx context.Context, pool *pgxpool.Pool, salaryDay int) (*PostgresProvider, error) {
	if err := initSchema(ctx, pool); err != nil {
		return nil, err
	}
	return &PostgresProvider{pool: pool, salaryDay: salaryDay, now: time.Now}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS accounts (
			user_id TEXT PRIMARY KEY REFERENCES profiles(user_id),
			debit_balance_cents BIGINT NOT NULL DEFAULT 0,
			credit_limit_cents BIGINT NOT NULL DEFAULT 0,
			credit_used_cents BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES profiles(user_id),
			amount_cents BIGINT NOT NULL,
			occurred_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user_occurred ON transactions (user_id, occurred_at);`,
		`CREATE TABLE IF NOT EXISTS goals (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES profiles(user_id),
			name TEXT NOT NULL,
			target_cents BIGINT NOT NULL,
			saved_cents BIGINT NOT NULL DEFAULT 0,
			active BOOLEAN NOT NULL DEFAULT TRUE
		);`,
		`CREATE TABLE IF NOT EXISTS scheduled_payments (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES profiles(user_id),
			description TEXT NOT NULL,
			amount_cents BIGINT NOT NULL,
			due_day SMALLINT NOT NULL
		);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (p *PostgresProvider) Snapshot(ctx context.Context, userID string) (Snapshot, error) {
	now := p.now()
	snap := Snapshot{DaysToSalary: DaysToNextSalary(now, p.salaryDay)}

	err := p.pool.QueryRow(ctx,
		`SELECT pr.display_name, a.debit_balance_cents, a.credit_limit_cents, a.credit_used_cents
		 FROM profiles pr JOIN accounts a ON a.user_id = pr.user_id
		 WHERE pr.user_id = $1`,
		userID,
	).Scan(&snap.UserName, &snap.DebitBalance, &snap.CreditLimit, &snap.CreditUsed)
	if errors.Is(err, pgx.ErrNoRows) {
		snap.UserName = "cliente"
	} else if err != nil {
		return Snapshot{}, fmt.Errorf("read account: %w", err)
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	err = p.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(-amount_cents), 0)
		 FROM transactions
		 WHERE user_id = $1 AND amount_cents < 0 AND occurred_at >= $2`,
		userID, dayStart,
	).Scan(&snap.SpentToday)
	if err != nil {
		return Snapshot{}, fmt.Errorf("sum today's spend: %w", err)
	}

	err = p.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(amount_cents), 0)
		 FROM scheduled_payments
		 WHERE user_id = $1 AND due_day = $2`,
		userID, now.Day(),
	).Scan(&snap.DueTodayCount, &snap.DueTodayTotal)
	if err != nil {
		return Snapshot{}, fmt.Errorf("count due payments: %w", err)
	}

	err = p.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE saved_cents = 0)
		 FROM goals
		 WHERE user_id = $1 AND active`,
		userID,
	).Scan(&snap.ActiveGoals, &snap.GoalsWithoutProgress)
	if err != nil {
		return Snapshot{}, fmt.Errorf("count goals: %w", err)
	}

	err = p.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM scheduled_payments WHERE user_id = $1`,
		userID,
	).Scan(&snap.MonthlyObligations)
	if err != nil {
		return Snapshot{}, fmt.Errorf("sum obligations: %w", err)
	}

	return snap, nil
}
