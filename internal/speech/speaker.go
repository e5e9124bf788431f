package speech

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/inovabank/nina/internal/observability"
	"github.com/inovabank/nina/internal/playback"
)

// VoiceGate exposes the persisted voice-enabled flag. When the flag is off,
// Speak is a silent no-op: no network call, no synthesis.
type VoiceGate interface {
	VoiceEnabled(ctx context.Context) (bool, error)
}

// Speaker is the TTS façade: it normalizes application text, walks the
// backend chain in priority order (cache, remote, native) and hands the
// winning utterance to the playback coordinator. Backend failures are masked
// from callers; if nothing can speak, the request is logged and dropped.
type Speaker struct {
	coordinator *playback.Coordinator
	backends    []Backend
	gate        VoiceGate
	metrics     *observability.Metrics
	log         *zap.SugaredLogger
}

func NewSpeaker(coordinator *playback.Coordinator, backends []Backend, gate VoiceGate, metrics *observability.Metrics, log *zap.SugaredLogger) *Speaker {
	return &Speaker{
		coordinator: coordinator,
		backends:    backends,
		gate:        gate,
		metrics:     metrics,
		log:         log,
	}
}

// Speak voices text, blocking until playback completes or the request is
// superseded by a newer one. It never returns an error for speech failures;
// those end in a logged fallback or a logged no-op.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	text = NormalizeForSpeech(text)
	if text == "" {
		return nil
	}

	if s.gate != nil {
		enabled, err := s.gate.VoiceEnabled(ctx)
		if err != nil {
			s.logw("voice flag read failed, skipping speech", "err", err)
			return nil
		}
		if !enabled {
			s.observeIndicator("voice_disabled")
			return nil
		}
	}

	start := time.Now()
	// Claim the playback slot before any fetch so a newer request invalidates
	// this one even while its synthesis is still in flight.
	token := s.coordinator.BeginRequest()

	for _, backend := range s.backends {
		if !backend.Available() {
			continue
		}
		utterance, err := backend.Synthesize(ctx, text)
		if err != nil {
			if errors.Is(err, ErrCacheMiss) {
				s.observeIndicator("cache_miss")
				continue
			}
			s.observeRequest(backend.Name(), "synthesis_failed")
			s.logw("speech backend failed, trying next tier", "backend", backend.Name(), "err", err)
			continue
		}
		if backend.Name() == "cache" {
			s.observeIndicator("cache_hit")
		}

		err = s.coordinator.Play(ctx, token, utterance, playback.Options{
			// Measured at playback start, so a superseded request that never
			// becomes audible does not pollute the window.
			OnStarted: func() {
				if s.metrics != nil {
					s.metrics.ObserveSynthesisLatency(time.Since(start))
					s.metrics.ObserveSpeechStage("speak_to_audible", time.Since(start))
				}
			},
		})
		switch {
		case errors.Is(err, playback.ErrSuperseded), errors.Is(err, playback.ErrStopped):
			// A newer utterance won, or the host asked for silence. Not an error.
			s.observeRequest(backend.Name(), "superseded")
			return nil
		case errors.Is(err, playback.ErrPolicyRejected):
			s.observeRequest(backend.Name(), "playback_rejected")
			s.logw("playback rejected by output policy, trying next tier", "backend", backend.Name())
			continue
		case err != nil:
			s.observeRequest(backend.Name(), "playback_failed")
			s.logw("playback failed, trying next tier", "backend", backend.Name(), "err", err)
			continue
		default:
			s.observeRequest(backend.Name(), "ok")
			return nil
		}
	}

	s.observeIndicator("speech_skipped")
	s.logw("no speech backend could voice the text, skipping")
	return nil
}

// Stop silences any active or pending utterance.
func (s *Speaker) Stop() {
	s.coordinator.StopAll()
}

// IsSpeaking reports whether any utterance is currently audible.
func (s *Speaker) IsSpeaking() bool {
	return s.coordinator.IsPlaying()
}

func (s *Speaker) observeRequest(backend, result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.SpeechRequests.WithLabelValues(backend, result).Inc()
}

func (s *Speaker) observeIndicator(name string) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveSpeechIndicator(name)
}

func (s *Speaker) logw(msg string, kv ...any) {
	if s.log == nil {
		return
	}
	s.log.Warnw(msg, kv...)
}
