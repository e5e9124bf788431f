package speech

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/inovabank/nina/internal/observability"
	"github.com/inovabank/nina/internal/playback"
)

type stubGate struct {
	enabled bool
	err     error
}

func (g *stubGate) VoiceEnabled(context.Context) (bool, error) {
	return g.enabled, g.err
}

func fakeNativeBackend(invoked *atomic.Int64) *NativeBackend {
	return &NativeBackend{
		command:  "espeak",
		lookPath: func(name string) (string, error) { return name, nil },
		run: func(context.Context, string, ...string) error {
			invoked.Add(1)
			return nil
		},
	}
}

func newTestSpeaker(backends []Backend, gate VoiceGate) *Speaker {
	return NewSpeaker(playback.NewCoordinator(nil, nil), backends, gate, nil, nil)
}

func TestSpeakTwiceHitsRemoteOnce(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("mp3"))
	}))
	defer srv.Close()

	player := testPlayer(nil)
	cache := NewCache()
	s := newTestSpeaker([]Backend{
		NewCacheBackend(cache, player),
		NewRemoteBackend(RemoteConfig{URL: srv.URL}, player, cache, nil, nil),
	}, nil)

	if err := s.Speak(context.Background(), "Olá, Maria"); err != nil {
		t.Fatalf("first Speak error = %v", err)
	}
	if err := s.Speak(context.Background(), "  olá, maria  "); err != nil {
		t.Fatalf("second Speak error = %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("remote synthesis calls = %d, want 1", got)
	}
}

func TestSpeakFallsBackToNativeWhenRemoteFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var native atomic.Int64
	cache := NewCache()
	s := newTestSpeaker([]Backend{
		NewCacheBackend(cache, testPlayer(nil)),
		NewRemoteBackend(RemoteConfig{URL: srv.URL}, testPlayer(nil), cache, nil, nil),
		fakeNativeBackend(&native),
	}, nil)

	if err := s.Speak(context.Background(), "saldo atual"); err != nil {
		t.Fatalf("Speak error = %v", err)
	}
	if got := native.Load(); got != 1 {
		t.Fatalf("native synthesis runs = %d, want 1", got)
	}
}

func TestSpeakFallsBackWhenPlaybackRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("mp3"))
	}))
	defer srv.Close()

	// No player command at all: remote synthesis succeeds but the rendered
	// clip cannot be made audible, so the native tier must take over.
	mute := &Player{lookPath: func(string) (string, error) { return "", errors.New("not found") }}

	var native atomic.Int64
	s := newTestSpeaker([]Backend{
		NewRemoteBackend(RemoteConfig{URL: srv.URL}, mute, NewCache(), nil, nil),
		fakeNativeBackend(&native),
	}, nil)

	if err := s.Speak(context.Background(), "fatura fechada"); err != nil {
		t.Fatalf("Speak error = %v", err)
	}
	if got := native.Load(); got != 1 {
		t.Fatalf("native synthesis runs = %d, want 1", got)
	}
}

func TestSpeakVoiceDisabledSkipsAllBackends(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	var native atomic.Int64
	s := newTestSpeaker([]Backend{
		NewRemoteBackend(RemoteConfig{URL: srv.URL}, testPlayer(nil), NewCache(), nil, nil),
		fakeNativeBackend(&native),
	}, &stubGate{enabled: false})

	if err := s.Speak(context.Background(), "bom dia"); err != nil {
		t.Fatalf("Speak error = %v", err)
	}
	if calls.Load() != 0 || native.Load() != 0 {
		t.Fatalf("backends touched while voice disabled: remote=%d native=%d", calls.Load(), native.Load())
	}
}

func TestSpeakGateErrorIsSilentNoOp(t *testing.T) {
	var native atomic.Int64
	s := newTestSpeaker([]Backend{fakeNativeBackend(&native)}, &stubGate{err: errors.New("store down")})

	if err := s.Speak(context.Background(), "bom dia"); err != nil {
		t.Fatalf("Speak error = %v", err)
	}
	if native.Load() != 0 {
		t.Fatalf("native synthesis ran despite gate failure")
	}
}

func TestSpeakEmptyTextIsNoOp(t *testing.T) {
	var native atomic.Int64
	s := newTestSpeaker([]Backend{fakeNativeBackend(&native)}, nil)

	for _, text := range []string{"", "   ", "\n\t"} {
		if err := s.Speak(context.Background(), text); err != nil {
			t.Fatalf("Speak(%q) error = %v", text, err)
		}
	}
	if native.Load() != 0 {
		t.Fatalf("native synthesis ran for empty text")
	}
}

func TestSpeakNoUsableBackendIsSilentNoOp(t *testing.T) {
	s := newTestSpeaker(nil, nil)
	if err := s.Speak(context.Background(), "sem backend"); err != nil {
		t.Fatalf("Speak error = %v", err)
	}
	if s.IsSpeaking() {
		t.Fatalf("IsSpeaking() = true with no backends")
	}
}

func TestSpeakRecordsAudibleStageOnPlaybackStart(t *testing.T) {
	metrics := observability.NewMetrics("test_speaker_stage_" + time.Now().Format("150405000000000"))
	s := NewSpeaker(playback.NewCoordinator(nil, nil), []Backend{NewMockBackend()}, nil, metrics, nil)

	if err := s.Speak(context.Background(), "resumo do dia"); err != nil {
		t.Fatalf("Speak error = %v", err)
	}

	snap := metrics.SpeechLatencySnapshot()
	found := false
	for _, stage := range snap.Stages {
		if stage.Stage == "speak_to_audible" {
			found = true
			if stage.Samples != 1 {
				t.Fatalf("speak_to_audible samples = %d, want 1", stage.Samples)
			}
		}
	}
	if !found {
		t.Fatalf("speak_to_audible stage missing from snapshot: %+v", snap.Stages)
	}
}

func TestSpeakSkippedRequestRecordsNoAudibleStage(t *testing.T) {
	metrics := observability.NewMetrics("test_speaker_stage_skip_" + time.Now().Format("150405000000000"))
	s := NewSpeaker(playback.NewCoordinator(nil, nil), []Backend{NewMockBackend()}, &stubGate{enabled: false}, metrics, nil)

	if err := s.Speak(context.Background(), "resumo do dia"); err != nil {
		t.Fatalf("Speak error = %v", err)
	}
	for _, stage := range metrics.SpeechLatencySnapshot().Stages {
		if stage.Stage == "speak_to_audible" {
			t.Fatalf("speak_to_audible recorded for a skipped request")
		}
	}
}
