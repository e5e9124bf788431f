// Package finance exposes the account snapshot the assistant narrates:
// balances, card usage, today's spend and obligations, goal progress.
package finance

import (
	"context"
	"fmt"
	"time"
)

// Money is an amount in centavos. Integer cents avoid float drift in
// balances and in spoken amounts.
type Money int64

// BRL renders the amount as a pt-BR currency string, e.g. "R$ 1.234,56".
func (m Money) BRL() string {
	neg := m < 0
	if neg {
		m = -m
	}
	reais := int64(m) / 100
	cents := int64(m) % 100

	digits := fmt.Sprintf("%d", reais)
	var grouped []byte
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped = append(grouped, '.')
		}
		grouped = append(grouped, byte(r))
	}

	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%sR$ %s,%02d", sign, grouped, cents)
}

// Snapshot is a point-in-time view of the user's finances. It carries only
// what the greeting copy needs.
type Snapshot struct {
	UserName string

	DebitBalance Money
	CreditLimit  Money
	CreditUsed   Money

	SpentToday    Money
	DueTodayCount int
	DueTodayTotal Money

	ActiveGoals          int
	GoalsWithoutProgress int

	MonthlyObligations Money
	// DaysToSalary is -1 when the salary day is unknown.
	DaysToSalary int
}

// CreditAvailable is the remaining card limit, floored at zero.
func (s Snapshot) CreditAvailable() Money {
	if s.CreditUsed >= s.CreditLimit {
		return 0
	}
	return s.CreditLimit - s.CreditUsed
}

// Provider resolves the current snapshot for a user.
type Provider interface {
	Snapshot(ctx context.Context, userID string) (Snapshot, error)
}

// DaysToNextSalary counts calendar days from now until the next occurrence
// of salaryDay. Returns 0 on the salary day itself and -1 when salaryDay is
// out of range.
func DaysToNextSalary(now time.Time, salaryDay int) int {
	if salaryDay < 1 || salaryDay > 28 {
		return -1
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	next := time.Date(now.Year(), now.Month(), salaryDay, 0, 0, 0, 0, now.Location())
	if next.Before(today) {
		next = next.AddDate(0, 1, 0)
	}
	return int(next.Sub(today).Hours() / 24)
}
