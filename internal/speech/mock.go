package speech

import (
	"context"
	"sync"
	"time"

	"github.com/inovabank/nina/internal/playback"
)

// MockBackend is a silent backend for development hosts without a speech
// endpoint or audio output, and for tests.
type MockBackend struct {
	// Duration each utterance "plays" before completing.
	Duration time.Duration

	mu     sync.Mutex
	spoken []string
}

func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

func (b *MockBackend) Name() string    { return "mock" }
func (b *MockBackend) Available() bool { return true }

func (b *MockBackend) Synthesize(_ context.Context, text string) (playback.Playable, error) {
	b.mu.Lock()
	b.spoken = append(b.spoken, text)
	b.mu.Unlock()
	return &mockUtterance{duration: b.Duration}, nil
}

// Spoken returns every text this backend has synthesized, in order.
func (b *MockBackend) Spoken() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.spoken))
	copy(out, b.spoken)
	return out
}

type mockUtterance struct {
	duration time.Duration

	mu      sync.Mutex
	stop    chan struct{}
	stopped bool
}

func (u *mockUtterance) Play(ctx context.Context) error {
	u.mu.Lock()
	if u.stopped {
		u.mu.Unlock()
		return nil
	}
	u.stop = make(chan struct{})
	stop := u.stop
	u.mu.Unlock()

	if u.duration <= 0 {
		return nil
	}
	timer := time.NewTimer(u.duration)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-stop:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (u *mockUtterance) Stop() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.stopped {
		return
	}
	u.stopped = true
	if u.stop != nil {
		close(u.stop)
	}
}
