package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_BIND_ADDR", ":9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.SpeechProvider != "auto" {
		t.Fatalf("SpeechProvider = %q, want %q", cfg.SpeechProvider, "auto")
	}
	if cfg.SpeechAPIURL != "" {
		t.Fatalf("SpeechAPIURL = %q, want empty default", cfg.SpeechAPIURL)
	}
	if cfg.SpeechRequestTimeout != 0 {
		t.Fatalf("SpeechRequestTimeout = %v, want 0 (transport default)", cfg.SpeechRequestTimeout)
	}
	if !cfg.VoiceEnabledDefault {
		t.Fatalf("VoiceEnabledDefault = false, want true")
	}
	if cfg.SalaryDay != 5 {
		t.Fatalf("SalaryDay = %d, want 5", cfg.SalaryDay)
	}
}

func TestLoadUsesExplicitSpeechAPIURL(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("SPEECH_API_URL", "https://speech.inovabank.local/v1/tts")
	t.Setenv("SPEECH_REQUEST_TIMEOUT", "8s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SpeechAPIURL != "https://speech.inovabank.local/v1/tts" {
		t.Fatalf("SpeechAPIURL = %q, want explicit value", cfg.SpeechAPIURL)
	}
	if cfg.SpeechRequestTimeout != 8*time.Second {
		t.Fatalf("SpeechRequestTimeout = %v, want 8s", cfg.SpeechRequestTimeout)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad api mode", key: "SPEECH_API_MODE", value: "udp"},
		{name: "salary day out of range", key: "SALARY_DAY", value: "31"},
		{name: "short inactivity timeout", key: "APP_SESSION_INACTIVITY_TIMEOUT", value: "1s"},
		{name: "bad voice enabled flag", key: "VOICE_ENABLED_DEFAULT", value: "maybe"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			setCoreEnvEmpty(t)
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("Load() with %s=%q succeeded, want error", tc.key, tc.value)
			}
		})
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_SESSION_INACTIVITY_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"SPEECH_PROVIDER",
		"SPEECH_API_URL",
		"SPEECH_API_KEY",
		"SPEECH_API_MODE",
		"SPEECH_WS_BASE_URL",
		"SPEECH_VOICE_ID",
		"SPEECH_MODEL_ID",
		"SPEECH_OUTPUT_FORMAT",
		"SPEECH_REQUEST_TIMEOUT",
		"NATIVE_TTS_COMMAND",
		"AUDIO_PLAYER_COMMAND",
		"ASSISTANT_NAME",
		"SALARY_DAY",
		"VOICE_ENABLED_DEFAULT",
		"DATABASE_URL",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
