// Package app wires configuration into the running assistant: stores, the
// speech backend chain, the playback coordinator and the HTTP surface.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/inovabank/nina/internal/config"
	"github.com/inovabank/nina/internal/finance"
	"github.com/inovabank/nina/internal/greeting"
	"github.com/inovabank/nina/internal/httpapi"
	"github.com/inovabank/nina/internal/observability"
	"github.com/inovabank/nina/internal/playback"
	"github.com/inovabank/nina/internal/session"
	"github.com/inovabank/nina/internal/settings"
	"github.com/inovabank/nina/internal/speech"
)

type SpeechInfo struct {
	Provider string
	Detail   string
	Backends []string
}

type BuildResult struct {
	Config   config.Config
	API      *httpapi.Server
	Sessions *session.Manager
	Speaker  *speech.Speaker
	Metrics  *observability.Metrics
	Speech   SpeechInfo

	// Cleanup should be called on shutdown to release external resources.
	Cleanup func() error
}

func Build(ctx context.Context, cfg config.Config, log *zap.SugaredLogger) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	var pool *pgxpool.Pool
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		var err error
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
	}

	settingsStore, err := settings.NewStore(ctx, pool, cfg.VoiceEnabledDefault)
	if err != nil {
		closePool(pool)
		return nil, fmt.Errorf("settings store init failed: %w", err)
	}
	stateStore, err := greeting.NewStateStore(ctx, pool)
	if err != nil {
		closePool(pool)
		return nil, fmt.Errorf("greeting state store init failed: %w", err)
	}
	provider, err := finance.NewProvider(ctx, pool, cfg.SalaryDay)
	if err != nil {
		closePool(pool)
		return nil, fmt.Errorf("finance provider init failed: %w", err)
	}

	player := speech.NewPlayer(cfg.AudioPlayerCommand)
	chain, err := resolveSpeechBackends(cfg, player, metrics, log)
	if err != nil {
		closePool(pool)
		return nil, err
	}

	coordinator := playback.NewCoordinator(metrics, log)
	speaker := speech.NewSpeaker(coordinator, chain.backends, settingsStore, metrics, log)

	sessions := session.NewManager(cfg.SessionInactivityTimeout)
	sessions.SetExpireHook(func(_ *session.Session) {
		metrics.SessionEvents.WithLabelValues("expired").Inc()
		metrics.ActiveSessions.Set(float64(sessions.ActiveCount()))
	})

	sequencer := greeting.NewSequencer(sessions, speaker, provider, stateStore, settingsStore, cfg.AssistantName, metrics, log)

	api := httpapi.New(cfg, sessions, speaker, sequencer, settingsStore, metrics, log)

	cleanup := func() error {
		speaker.Stop()
		closePool(pool)
		return nil
	}

	return &BuildResult{
		Config:   cfg,
		API:      api,
		Sessions: sessions,
		Speaker:  speaker,
		Metrics:  metrics,
		Speech: SpeechInfo{
			Provider: chain.provider,
			Detail:   chain.detail,
			Backends: chain.names,
		},
		Cleanup: cleanup,
	}, nil
}

func closePool(pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
	}
}

type speechChain struct {
	provider string
	detail   string
	names    []string
	backends []speech.Backend
}

// resolveSpeechBackends builds the fallback chain in priority order. The
// remote tier is always fronted by the in-process audio cache.
func resolveSpeechBackends(cfg config.Config, player *speech.Player, metrics *observability.Metrics, log *zap.SugaredLogger) (speechChain, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.SpeechProvider))
	cache := speech.NewCache()

	remote := func() speech.Backend {
		if strings.EqualFold(strings.TrimSpace(cfg.SpeechAPIMode), "stream") {
			return speech.NewStreamBackend(speech.StreamConfig{
				APIKey:       cfg.SpeechAPIKey,
				WSBaseURL:    cfg.SpeechWSBaseURL,
				VoiceID:      cfg.SpeechVoiceID,
				ModelID:      cfg.SpeechModelID,
				OutputFormat: cfg.SpeechOutputFormat,
			}, player, cache)
		}
		return speech.NewRemoteBackend(speech.RemoteConfig{
			URL:     cfg.SpeechAPIURL,
			APIKey:  cfg.SpeechAPIKey,
			VoiceID: cfg.SpeechVoiceID,
			ModelID: cfg.SpeechModelID,
			Timeout: cfg.SpeechRequestTimeout,
		}, player, cache, metrics, log)
	}
	native := func() speech.Backend {
		return speech.NewNativeBackend(cfg.NativeTTSCommand)
	}
	withCache := func(backends ...speech.Backend) []speech.Backend {
		return append([]speech.Backend{speech.NewCacheBackend(cache, player)}, backends...)
	}

	var chain speechChain
	switch provider {
	case "remote":
		if strings.TrimSpace(cfg.SpeechAPIURL) == "" && strings.TrimSpace(cfg.SpeechAPIKey) == "" {
			return speechChain{}, fmt.Errorf("SPEECH_PROVIDER=remote requires SPEECH_API_URL or SPEECH_API_KEY")
		}
		chain = speechChain{provider: "remote", detail: "remote synthesis with cache", backends: withCache(remote())}
	case "native":
		chain = speechChain{provider: "native", detail: "on-device synthesis only", backends: []speech.Backend{native()}}
	case "mock":
		chain = speechChain{provider: "mock", detail: "mock synthesis", backends: []speech.Backend{speech.NewMockBackend()}}
	case "", "auto":
		if strings.TrimSpace(cfg.SpeechAPIURL) != "" || strings.TrimSpace(cfg.SpeechAPIKey) != "" {
			chain = speechChain{provider: "remote", detail: "remote synthesis with cache and native fallback", backends: withCache(remote(), native())}
			break
		}
		nb := native()
		if nb.Available() {
			chain = speechChain{provider: "native", detail: "no remote endpoint configured, on-device synthesis", backends: []speech.Backend{nb}}
			break
		}
		if log != nil {
			log.Warnw("no speech capability detected, using mock synthesis")
		}
		chain = speechChain{provider: "mock", detail: "no remote endpoint or synthesis command, mock synthesis", backends: []speech.Backend{speech.NewMockBackend()}}
	default:
		return speechChain{}, fmt.Errorf("unknown SPEECH_PROVIDER %q", cfg.SpeechProvider)
	}

	for _, b := range chain.backends {
		chain.names = append(chain.names, b.Name())
	}
	return chain, nil
}
