package playback

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inovabank/nina/internal/observability"
)

var (
	// ErrSuperseded marks a request preempted by a newer one. Callers treat it
	// as silent: the newest request reflects the latest user intent.
	ErrSuperseded = errors.New("playback superseded by newer request")
	// ErrStopped marks a playback cut off by an explicit stop.
	ErrStopped = errors.New("playback stopped")
	// ErrPolicyRejected marks playback denied by the output device/policy
	// before any audio was produced. Distinguishable so callers can fall back
	// to a different backend.
	ErrPolicyRejected = errors.New("playback rejected by output policy")
)

// Playable is one audible resource: pre-rendered audio or a native synthesis
// utterance. Play blocks until natural completion; after Stop it must return
// promptly.
type Playable interface {
	Play(ctx context.Context) error
	Stop()
}

// Token orders playback requests. Newer tokens win; a Play carrying a stale
// token is refused even if its backing fetch resolves late.
type Token uint64

// Options carries optional per-request callbacks.
type Options struct {
	// OnStarted fires once the handle has won the playback slot, just before
	// the playable is started. It never fires for stale tokens.
	OnStarted func()
	// OnEnded fires after natural completion.
	OnEnded func()
	// OnError fires on playback failure (not on supersession or stop).
	OnError func(error)
	// Cleanup runs exactly once when the handle is discarded for any reason.
	Cleanup func()
}

type handle struct {
	id       string
	token    Token
	playable Playable
	cleanup  func()
	// Why the handle was interrupted, if it was. Set before Stop so the
	// waking Play can classify its result without guessing from the
	// generation counter, which StopAll also bumps.
	superseded atomic.Bool
	halted     atomic.Bool
	finish     sync.Once
}

func (h *handle) discard() {
	h.finish.Do(func() {
		if h.cleanup != nil {
			h.cleanup()
		}
	})
}

// Coordinator is the single-flight arbiter of what is audible. At most one
// handle is active per Coordinator; starting a new one always stops the
// previous one first. There is no queue.
type Coordinator struct {
	mu      sync.Mutex
	gen     atomic.Uint64
	active  *handle
	metrics *observability.Metrics
	log     *zap.SugaredLogger
}

func NewCoordinator(metrics *observability.Metrics, log *zap.SugaredLogger) *Coordinator {
	return &Coordinator{metrics: metrics, log: log}
}

// BeginRequest claims the next playback slot. Issuing a token does not make
// any sound, but it invalidates every earlier token, so callers should claim
// one before starting slow work (such as a remote synthesis fetch).
func (c *Coordinator) BeginRequest() Token {
	return Token(c.gen.Add(1))
}

// PlayExclusively claims a fresh token and plays p under it.
func (c *Coordinator) PlayExclusively(ctx context.Context, p Playable, opts Options) error {
	return c.Play(ctx, c.BeginRequest(), p, opts)
}

// Play makes p audible under token, stopping whatever was playing first.
// It blocks until p completes, is stopped, or fails. A stale token returns
// ErrSuperseded without producing audio; cleanup still runs.
func (c *Coordinator) Play(ctx context.Context, token Token, p Playable, opts Options) error {
	h := &handle{
		id:       uuid.NewString(),
		token:    token,
		playable: p,
		cleanup:  opts.Cleanup,
	}

	c.mu.Lock()
	if uint64(token) != c.gen.Load() {
		c.mu.Unlock()
		h.discard()
		c.observeEvent("stale_dropped")
		return ErrSuperseded
	}
	if prev := c.active; prev != nil {
		prev.superseded.Store(true)
		prev.playable.Stop()
		prev.discard()
		c.observeEvent("preempted")
	}
	c.active = h
	c.mu.Unlock()

	c.observeEvent("started")
	if opts.OnStarted != nil {
		opts.OnStarted()
	}
	err := p.Play(ctx)

	c.mu.Lock()
	if c.active == h {
		c.active = nil
	}
	c.mu.Unlock()
	h.discard()

	switch {
	case h.superseded.Load():
		return ErrSuperseded
	case h.halted.Load():
		return ErrStopped
	case err != nil:
		c.observeEvent("error")
		if opts.OnError != nil {
			opts.OnError(err)
		}
		return err
	default:
		c.observeEvent("completed")
		if opts.OnEnded != nil {
			opts.OnEnded()
		}
		return nil
	}
}

// StopAll stops the active handle, runs its cleanup, and invalidates every
// outstanding token so pending requests cannot start late. Idempotent and
// safe with nothing active.
func (c *Coordinator) StopAll() {
	c.gen.Add(1)

	c.mu.Lock()
	h := c.active
	c.active = nil
	c.mu.Unlock()

	if h == nil {
		return
	}
	h.halted.Store(true)
	h.playable.Stop()
	h.discard()
	c.observeEvent("stopped")
	if c.log != nil {
		c.log.Debugw("playback stopped", "handle_id", h.id)
	}
}

// IsPlaying reports whether any audio or synthesis utterance is active.
func (c *Coordinator) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}

func (c *Coordinator) observeEvent(event string) {
	if c.metrics == nil {
		return
	}
	c.metrics.PlaybackEvents.WithLabelValues(event).Inc()
}
