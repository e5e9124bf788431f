package greeting

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/inovabank/nina/internal/finance"
	"github.com/inovabank/nina/internal/session"
)

type recordingVoicer struct {
	mu     sync.Mutex
	spoken []string
}

func (v *recordingVoicer) Speak(_ context.Context, text string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.spoken = append(v.spoken, text)
	return nil
}

func (v *recordingVoicer) Spoken() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.spoken...)
}

type stubProvider struct {
	snap finance.Snapshot
	err  error
}

func (p *stubProvider) Snapshot(context.Context, string) (finance.Snapshot, error) {
	return p.snap, p.err
}

type stubGate struct {
	enabled bool
	err     error
}

func (g *stubGate) VoiceEnabled(context.Context) (bool, error) {
	return g.enabled, g.err
}

func newTestSequencer(voicer Voicer, provider finance.Provider, gate VoiceGate) (*Sequencer, *session.Manager) {
	sessions := session.NewManager(time.Minute)
	seq := NewSequencer(sessions, voicer, provider, NewInMemoryStateStore(), gate, "Nina", nil, nil)
	return seq, sessions
}

func TestGreetOncePerPagePerSession(t *testing.T) {
	voicer := &recordingVoicer{}
	seq, sessions := newTestSequencer(voicer, &stubProvider{snap: finance.Snapshot{UserName: "Maria", ActiveGoals: 2}}, &stubGate{enabled: true})
	s := sessions.Create("u1")

	for i := 0; i < 3; i++ {
		if err := seq.Greet(context.Background(), s.ID, "goals"); err != nil {
			t.Fatalf("Greet #%d error = %v", i+1, err)
		}
	}
	if got := voicer.Spoken(); len(got) != 1 {
		t.Fatalf("spoken %d greetings, want 1: %q", len(got), got)
	}

	// A fresh session starts clean.
	s2 := sessions.Create("u1")
	if err := seq.Greet(context.Background(), s2.ID, "goals"); err != nil {
		t.Fatalf("Greet in new session error = %v", err)
	}
	if got := voicer.Spoken(); len(got) != 2 {
		t.Fatalf("spoken %d greetings after new session, want 2", len(got))
	}
}

func TestDashboardFirstAccessFiresOncePerDay(t *testing.T) {
	voicer := &recordingVoicer{}
	seq, sessions := newTestSequencer(voicer, &stubProvider{snap: finance.Snapshot{UserName: "Maria"}}, &stubGate{enabled: true})

	day1 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	seq.now = func() time.Time { return day1 }

	s1 := sessions.Create("u1")
	if err := seq.Greet(context.Background(), s1.ID, "dashboard"); err != nil {
		t.Fatalf("Greet error = %v", err)
	}
	got := voicer.Spoken()
	if len(got) != 2 {
		t.Fatalf("first dashboard visit spoke %d utterances, want opener + greeting: %q", len(got), got)
	}
	if !strings.Contains(got[0], "Eu sou a Nina") {
		t.Fatalf("first utterance %q is not the first-access opener", got[0])
	}

	// Same day, new session: page greeting refires, opener does not.
	s2 := sessions.Create("u1")
	if err := seq.Greet(context.Background(), s2.ID, "dashboard"); err != nil {
		t.Fatalf("Greet error = %v", err)
	}
	if got := voicer.Spoken(); len(got) != 3 {
		t.Fatalf("same-day new session spoke %d utterances total, want 3: %q", len(got), got)
	}

	// Next day: opener fires again.
	seq.now = func() time.Time { return day1.AddDate(0, 0, 1) }
	s3 := sessions.Create("u1")
	if err := seq.Greet(context.Background(), s3.ID, "dashboard"); err != nil {
		t.Fatalf("Greet error = %v", err)
	}
	if got := voicer.Spoken(); len(got) != 5 {
		t.Fatalf("next-day visit spoke %d utterances total, want 5: %q", len(got), got)
	}
}

func TestGreetVoiceDisabledLeavesStateUntouched(t *testing.T) {
	voicer := &recordingVoicer{}
	gate := &stubGate{enabled: false}
	seq, sessions := newTestSequencer(voicer, &stubProvider{snap: finance.Snapshot{ActiveGoals: 1}}, gate)
	s := sessions.Create("u1")

	if err := seq.Greet(context.Background(), s.ID, "goals"); err != nil {
		t.Fatalf("Greet error = %v", err)
	}
	if got := voicer.Spoken(); len(got) != 0 {
		t.Fatalf("spoke %q while voice disabled", got)
	}

	// Re-enabling later still allows the greeting: nothing was marked greeted.
	gate.enabled = true
	if err := seq.Greet(context.Background(), s.ID, "goals"); err != nil {
		t.Fatalf("Greet error = %v", err)
	}
	if got := voicer.Spoken(); len(got) != 1 {
		t.Fatalf("spoken %d greetings after re-enable, want 1", len(got))
	}
}

func TestGreetSnapshotFailureAllowsRetry(t *testing.T) {
	voicer := &recordingVoicer{}
	provider := &stubProvider{err: errors.New("backend down")}
	seq, sessions := newTestSequencer(voicer, provider, &stubGate{enabled: true})
	s := sessions.Create("u1")

	if err := seq.Greet(context.Background(), s.ID, "card"); err != nil {
		t.Fatalf("Greet with failing snapshot error = %v", err)
	}
	if got := voicer.Spoken(); len(got) != 0 {
		t.Fatalf("spoke %q despite snapshot failure", got)
	}

	provider.err = nil
	provider.snap = finance.Snapshot{CreditLimit: 100000}
	if err := seq.Greet(context.Background(), s.ID, "card"); err != nil {
		t.Fatalf("Greet retry error = %v", err)
	}
	if got := voicer.Spoken(); len(got) != 1 {
		t.Fatalf("spoken %d greetings after recovery, want 1", len(got))
	}
}

func TestGreetUnknownPageIsNoOp(t *testing.T) {
	voicer := &recordingVoicer{}
	seq, sessions := newTestSequencer(voicer, &stubProvider{}, &stubGate{enabled: true})
	s := sessions.Create("u1")

	if err := seq.Greet(context.Background(), s.ID, "admin"); err != nil {
		t.Fatalf("Greet error = %v", err)
	}
	if got := voicer.Spoken(); len(got) != 0 {
		t.Fatalf("spoke %q for an unknown page", got)
	}
}

func TestGreetUnknownSession(t *testing.T) {
	seq, _ := newTestSequencer(&recordingVoicer{}, &stubProvider{}, &stubGate{enabled: true})
	if err := seq.Greet(context.Background(), "missing", "dashboard"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("Greet(missing session) error = %v, want ErrNotFound", err)
	}
}
