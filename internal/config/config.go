package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the assistant voice core.
type Config struct {
	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	MetricsNamespace         string

	AllowAnyOrigin bool

	SpeechProvider string

	SpeechAPIURL         string
	SpeechAPIKey         string
	SpeechAPIMode        string
	SpeechWSBaseURL      string
	SpeechVoiceID        string
	SpeechModelID        string
	SpeechOutputFormat   string
	SpeechRequestTimeout time.Duration

	NativeTTSCommand   string
	AudioPlayerCommand string

	AssistantName       string
	SalaryDay           int
	VoiceEnabledDefault bool

	DatabaseURL string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "nina"),
		AllowAnyOrigin:   false,
		SpeechProvider:   envOrDefault("SPEECH_PROVIDER", "auto"),
		SpeechAPIURL:     stringsTrimSpace("SPEECH_API_URL"),
		SpeechAPIKey:     stringsTrimSpace("SPEECH_API_KEY"),
		SpeechAPIMode:    envOrDefault("SPEECH_API_MODE", "http"),
		SpeechWSBaseURL:  envOrDefault("SPEECH_WS_BASE_URL", "wss://api.elevenlabs.io"),
		// Default to the warm female premade voice used for the assistant persona.
		SpeechVoiceID:      envOrDefault("SPEECH_VOICE_ID", "cgSgspJ2msm6clMCkdW9"),
		SpeechModelID:      envOrDefault("SPEECH_MODEL_ID", "eleven_multilingual_v2"),
		SpeechOutputFormat: envOrDefault("SPEECH_OUTPUT_FORMAT", "pcm_16000"),
		// 0 means no explicit deadline: a slow remote call delays fallback until
		// the transport itself fails.
		SpeechRequestTimeout: 0,
		NativeTTSCommand:     envOrDefault("NATIVE_TTS_COMMAND", "auto"),
		AudioPlayerCommand:   envOrDefault("AUDIO_PLAYER_COMMAND", "auto"),
		AssistantName:        envOrDefault("ASSISTANT_NAME", "Nina"),
		SalaryDay:            5,
		VoiceEnabledDefault:  true,
		DatabaseURL:          stringsTrimSpace("DATABASE_URL"),
		ShutdownTimeout:      15 * time.Second,
		// A session models one client tab; greeting flags live for its lifetime.
		SessionInactivityTimeout: 30 * time.Minute,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv("APP_SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SpeechRequestTimeout, err = durationFromEnv("SPEECH_REQUEST_TIMEOUT", cfg.SpeechRequestTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.VoiceEnabledDefault, err = boolFromEnv("VOICE_ENABLED_DEFAULT", cfg.VoiceEnabledDefault)
	if err != nil {
		return Config{}, err
	}
	cfg.SalaryDay, err = intFromEnv("SALARY_DAY", cfg.SalaryDay)
	if err != nil {
		return Config{}, err
	}

	if cfg.SessionInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}
	if cfg.SpeechRequestTimeout < 0 {
		return Config{}, fmt.Errorf("SPEECH_REQUEST_TIMEOUT must be >= 0")
	}
	if cfg.SalaryDay < 1 || cfg.SalaryDay > 28 {
		return Config{}, fmt.Errorf("SALARY_DAY must be between 1 and 28")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.SpeechAPIMode)) {
	case "http", "stream":
	default:
		return Config{}, fmt.Errorf("invalid SPEECH_API_MODE: %q (expected http|stream)", cfg.SpeechAPIMode)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return trimSpace(os.Getenv(key))
}

func trimSpace(v string) string {
	for len(v) > 0 && (v[0] == ' ' || v[0] == '\n' || v[0] == '\t' || v[0] == '\r') {
		v = v[1:]
	}
	for len(v) > 0 {
		c := v[len(v)-1]
		if c == ' ' || c == '\n' || c == '\t' || c == '\r' {
			v = v[:len(v)-1]
			continue
		}
		break
	}
	return v
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
