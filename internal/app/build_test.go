package app

import (
	"strings"
	"testing"

	"github.com/inovabank/nina/internal/config"
	"github.com/inovabank/nina/internal/speech"
)

func TestResolveSpeechBackendsMock(t *testing.T) {
	chain, err := resolveSpeechBackends(config.Config{SpeechProvider: "mock"}, speech.NewPlayer("auto"), nil, nil)
	if err != nil {
		t.Fatalf("resolveSpeechBackends error = %v", err)
	}
	if len(chain.names) != 1 || chain.names[0] != "mock" {
		t.Fatalf("backends = %v, want [mock]", chain.names)
	}
}

func TestResolveSpeechBackendsRemoteRequiresEndpoint(t *testing.T) {
	_, err := resolveSpeechBackends(config.Config{SpeechProvider: "remote"}, speech.NewPlayer("auto"), nil, nil)
	if err == nil {
		t.Fatalf("expected error for remote provider without endpoint")
	}
}

func TestResolveSpeechBackendsAutoWithEndpoint(t *testing.T) {
	cfg := config.Config{
		SpeechProvider: "auto",
		SpeechAPIURL:   "http://localhost:9999/tts",
	}
	chain, err := resolveSpeechBackends(cfg, speech.NewPlayer("auto"), nil, nil)
	if err != nil {
		t.Fatalf("resolveSpeechBackends error = %v", err)
	}
	if got := strings.Join(chain.names, ","); got != "cache,remote,native" {
		t.Fatalf("backends = %q, want cache,remote,native", got)
	}
}

func TestResolveSpeechBackendsUnknownProvider(t *testing.T) {
	if _, err := resolveSpeechBackends(config.Config{SpeechProvider: "carrier-pigeon"}, speech.NewPlayer("auto"), nil, nil); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}
