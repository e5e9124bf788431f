package greeting

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/inovabank/nina/internal/finance"
	"github.com/inovabank/nina/internal/observability"
	"github.com/inovabank/nina/internal/session"
)

// Voicer is the slice of the speech façade the sequencer needs.
type Voicer interface {
	Speak(ctx context.Context, text string) error
}

// VoiceGate exposes the persisted voice-enabled flag.
type VoiceGate interface {
	VoiceEnabled(ctx context.Context) (bool, error)
}

// Sequencer triggers at most one automatic spoken greeting per page per
// session, plus a distinct first-access greeting once per calendar day.
// Greeting failures never propagate: a page load must not break because the
// assistant could not speak.
type Sequencer struct {
	sessions      *session.Manager
	voicer        Voicer
	provider      finance.Provider
	state         StateStore
	gate          VoiceGate
	assistantName string
	metrics       *observability.Metrics
	log           *zap.SugaredLogger
	now           func() time.Time
}

func NewSequencer(sessions *session.Manager, voicer Voicer, provider finance.Provider, state StateStore, gate VoiceGate, assistantName string, metrics *observability.Metrics, log *zap.SugaredLogger) *Sequencer {
	return &Sequencer{
		sessions:      sessions,
		voicer:        voicer,
		provider:      provider,
		state:         state,
		gate:          gate,
		assistantName: assistantName,
		metrics:       metrics,
		log:           log,
		now:           time.Now,
	}
}

// Greet runs the greeting decision for one page visit. The only error it
// returns is session.ErrNotFound; everything else ends in a logged no-op so
// future pages can still greet.
func (s *Sequencer) Greet(ctx context.Context, sessionID, page string) error {
	pt := ParsePageType(page)
	if pt == PageOther {
		s.observe("no_op")
		return nil
	}

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}

	if s.gate != nil {
		enabled, gateErr := s.gate.VoiceEnabled(ctx)
		if gateErr != nil {
			s.logw("voice flag read failed, skipping greeting", "err", gateErr)
			return nil
		}
		if !enabled {
			s.observe("voice_disabled")
			return nil
		}
	}

	claimed, err := s.sessions.BeginGreeting(sessionID, string(pt))
	if err != nil {
		return err
	}
	if !claimed {
		s.observe("suppressed")
		return nil
	}

	greeted := s.run(ctx, sess.UserID, pt)
	s.sessions.FinishGreeting(sessionID, string(pt), greeted)
	return nil
}

// run gathers the snapshot and speaks. It reports whether the page should be
// considered greeted for the rest of the session.
func (s *Sequencer) run(ctx context.Context, userID string, pt PageType) bool {
	snap, err := s.provider.Snapshot(ctx, userID)
	if err != nil {
		s.observe("snapshot_failed")
		s.logw("financial snapshot failed, greeting skipped", "page", string(pt), "err", err)
		return false
	}

	if pt == PageDashboard {
		s.firstAccess(ctx, userID, snap)
	}

	text := ComposeGreeting(pt, snap)
	if text == "" {
		return true
	}
	if err := s.voicer.Speak(ctx, text); err != nil {
		s.observe("speak_failed")
		s.logw("greeting speech failed", "page", string(pt), "err", err)
		return false
	}
	s.observe("greeted")
	return true
}

// firstAccess speaks the once-a-day opener before the regular dashboard
// greeting. Store errors degrade to skipping the opener, never to blocking
// the page greeting.
func (s *Sequencer) firstAccess(ctx context.Context, userID string, snap finance.Snapshot) {
	now := s.now()
	date := now.Format("2006-01-02")

	done, err := s.state.FirstAccessDone(ctx, userID, date)
	if err != nil {
		s.logw("first-access flag read failed", "err", err)
		return
	}
	if done {
		return
	}
	if err := s.state.MarkFirstAccess(ctx, userID, date); err != nil {
		s.logw("first-access flag write failed", "err", err)
	}
	if err := s.voicer.Speak(ctx, ComposeFirstAccess(s.assistantName, snap, now)); err != nil {
		s.logw("first-access greeting speech failed", "err", err)
		return
	}
	s.observe("first_access")
}

func (s *Sequencer) observe(event string) {
	if s.metrics == nil {
		return
	}
	s.metrics.GreetingEvents.WithLabelValues(event).Inc()
}

func (s *Sequencer) logw(msg string, kv ...any) {
	if s.log == nil {
		return
	}
	s.log.Warnw(msg, kv...)
}
