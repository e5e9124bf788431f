// Package settings persists user-facing assistant preferences, currently the
// single voice-enabled switch that gates all speech output.
package settings

import (
	"context"
	"sync"
)

// Store reads and writes assistant preferences. Implementations satisfy the
// speech voice gate.
type Store interface {
	VoiceEnabled(ctx context.Context) (bool, error)
	SetVoiceEnabled(ctx context.Context, enabled bool) error
}

// InMemoryStore keeps preferences in process memory. Used when no database
// is configured and in tests.
type InMemoryStore struct {
	mu           sync.RWMutex
	voiceEnabled bool
}

func NewInMemoryStore(voiceDefault bool) *InMemoryStore {
	return &InMemoryStore{voiceEnabled: voiceDefault}
}

func (s *InMemoryStore) VoiceEnabled(context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.voiceEnabled, nil
}

func (s *InMemoryStore) SetVoiceEnabled(_ context.Context, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voiceEnabled = enabled
	return nil
}
