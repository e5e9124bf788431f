package settings

import (
	"context"
	"testing"
)

func TestInMemoryStoreDefaultsAndToggle(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore(true)

	enabled, err := s.VoiceEnabled(ctx)
	if err != nil {
		t.Fatalf("VoiceEnabled error = %v", err)
	}
	if !enabled {
		t.Fatalf("VoiceEnabled = false, want default true")
	}

	if err := s.SetVoiceEnabled(ctx, false); err != nil {
		t.Fatalf("SetVoiceEnabled error = %v", err)
	}
	enabled, _ = s.VoiceEnabled(ctx)
	if enabled {
		t.Fatalf("VoiceEnabled = true after disable")
	}
}

func TestNewStoreWithoutPoolFallsBackToMemory(t *testing.T) {
	s, err := NewStore(context.Background(), nil, false)
	if err != nil {
		t.Fatalf("NewStore error = %v", err)
	}
	if _, ok := s.(*InMemoryStore); !ok {
		t.Fatalf("NewStore(nil pool) = %T, want *InMemoryStore", s)
	}
	enabled, _ := s.VoiceEnabled(context.Background())
	if enabled {
		t.Fatalf("VoiceEnabled = true, want default false")
	}
}
