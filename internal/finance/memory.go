package finance

import (
	"context"
	"sync"
	"time"
)

// InMemoryProvider serves fixture snapshots. Used when no database is
// configured and in tests.
type InMemoryProvider struct {
	mu        sync.RWMutex
	snapshots map[string]Snapshot
	salaryDay int
	now       func() time.Time
}

func NewInMemoryProvider(salaryDay int) *InMemoryProvider {
	return &InMemoryProvider{
		snapshots: make(map[string]Snapshot),
		salaryDay: salaryDay,
		now:       time.Now,
	}
}

// SetSnapshot installs or replaces the fixture for a user.
func (p *InMemoryProvider) SetSnapshot(userID string, snap Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots[userID] = snap
}

func (p *InMemoryProvider) Snapshot(_ context.Context, userID string) (Snapshot, error) {
	p.mu.RLock()
	snap, ok := p.snapshots[userID]
	p.mu.RUnlock()
	if !ok {
		snap = Snapshot{UserName: "cliente"}
	}
	snap.DaysToSalary = DaysToNextSalary(p.now(), p.salaryDay)
	return snap, nil
}
