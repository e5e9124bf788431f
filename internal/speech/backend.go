package speech

import (
	"context"
	"errors"
	"fmt"

	"github.com/inovabank/nina/internal/playback"
)

var (
	// ErrCacheMiss is the cache backend's non-fatal "not here, try the next
	// tier" result.
	ErrCacheMiss = errors.New("speech cache miss")
	// ErrUnavailable marks a backend whose platform capability is absent
	// (no synthesis command, no endpoint configured).
	ErrUnavailable = errors.New("speech backend unavailable")
)

// Backend is one interchangeable speech strategy: given normalized text it
// resolves an utterance the playback coordinator can make audible. Backends
// are tried in priority order until one succeeds.
type Backend interface {
	Name() string
	Available() bool
	Synthesize(ctx context.Context, text string) (playback.Playable, error)
}

// RemoteError is an error payload returned by the speech endpoint itself,
// distinguishable from a transport-level failure.
type RemoteError struct {
	Code      string
	Detail    string
	Transient bool
}

func (e *RemoteError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("speech endpoint error: %s", e.Code)
	}
	return fmt.Sprintf("speech endpoint error: %s: %s", e.Code, e.Detail)
}
