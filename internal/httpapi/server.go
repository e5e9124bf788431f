package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/inovabank/nina/internal/config"
	"github.com/inovabank/nina/internal/greeting"
	"github.com/inovabank/nina/internal/observability"
	"github.com/inovabank/nina/internal/session"
	"github.com/inovabank/nina/internal/settings"
)

// Speaker is the slice of the speech façade the API exposes.
type Speaker interface {
	Speak(ctx context.Context, text string) error
	Stop()
	IsSpeaking() bool
}

// Greeter runs the page-greeting decision.
type Greeter interface {
	Greet(ctx context.Context, sessionID, page string) error
}

type Server struct {
	cfg      config.Config
	sessions *session.Manager
	speaker  Speaker
	greeter  Greeter
	settings settings.Store
	metrics  *observability.Metrics
	log      *zap.SugaredLogger
}

func New(cfg config.Config, sessions *session.Manager, speaker Speaker, greeter Greeter, store settings.Store, metrics *observability.Metrics, log *zap.SugaredLogger) *Server {
	return &Server{
		cfg:      cfg,
		sessions: sessions,
		speaker:  speaker,
		greeter:  greeter,
		settings: store,
		metrics:  metrics,
		log:      log,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	if s.cfg.AllowAnyOrigin {
		r.Use(allowAnyOrigin)
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/sessions", s.handleCreateSession)
	r.Post("/v1/sessions/{id}/end", s.handleEndSession)
	r.Post("/v1/sessions/{id}/greet/{page}", s.handleGreet)

	r.Post("/v1/speech/say", s.handleSay)
	r.Post("/v1/speech/stop", s.handleStop)
	r.Get("/v1/speech/status", s.handleSpeechStatus)
	r.Get("/v1/speech/latency", s.handleSpeechLatency)

	r.Get("/v1/settings/voice", s.handleGetVoiceSetting)
	r.Put("/v1/settings/voice", s.handlePutVoiceSetting)

	return r
}

func allowAnyOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ready",
		"speech_provider": s.cfg.SpeechProvider,
	})
}

type createSessionRequest struct {
	UserID string `json:"user_id"`
}

type createSessionResponse struct {
	SessionID       string         `json:"session_id"`
	UserID          string         `json:"user_id"`
	Status          session.Status `json:"status"`
	InactivityTTLMS int64          `json:"inactivity_ttl_ms"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		req.UserID = "anonymous"
	}

	sess := s.sessions.Create(req.UserID)
	if s.metrics != nil {
		s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
		s.metrics.SessionEvents.WithLabelValues("created").Inc()
	}

	respondJSON(w, http.StatusCreated, createSessionResponse{
		SessionID:       sess.ID,
		UserID:          sess.UserID,
		Status:          sess.Status,
		InactivityTTLMS: s.cfg.SessionInactivityTimeout.Milliseconds(),
	})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if strings.TrimSpace(id) == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return
	}

	sess, err := s.sessions.End(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	if s.metrics != nil {
		s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
		s.metrics.SessionEvents.WithLabelValues("ended").Inc()
	}
	respondJSON(w, http.StatusOK, sess)
}

func (s *Server) handleGreet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	page := chi.URLParam(r, "page")
	if strings.TrimSpace(id) == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return
	}
	if _, err := s.sessions.Get(id); err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	_ = s.sessions.Touch(id)

	// Greetings speak synchronously; never hold the page load for playback.
	go func() {
		if err := s.greeter.Greet(context.Background(), id, page); err != nil {
			s.logw("greeting failed", "session_id", id, "page", page, "err", err)
		}
	}()

	respondJSON(w, http.StatusAccepted, map[string]any{
		"status": "accepted",
		"page":   string(greeting.ParsePageType(page)),
	})
}

type sayRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleSay(w http.ResponseWriter, r *http.Request) {
	var req sayRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "empty_text", "text is required")
		return
	}

	go func() {
		if err := s.speaker.Speak(context.Background(), req.Text); err != nil {
			s.logw("speech request failed", "err", err)
		}
	}()

	respondJSON(w, http.StatusAccepted, map[string]any{"status": "accepted"})
}

func (s *Server) handleStop(w http.ResponseWriter, _ *http.Request) {
	s.speaker.Stop()
	respondJSON(w, http.StatusOK, map[string]any{"status": "stopped"})
}

func (s *Server) handleSpeechStatus(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"speaking": s.speaker.IsSpeaking()})
}

func (s *Server) handleSpeechLatency(w http.ResponseWriter, _ *http.Request) {
	if s.metrics == nil {
		respondJSON(w, http.StatusOK, map[string]any{
			"generated_at": "",
			"window_size":  0,
			"stages":       []any{},
		})
		return
	}
	respondJSON(w, http.StatusOK, s.metrics.SpeechLatencySnapshot())
}

type voiceSettingResponse struct {
	VoiceEnabled bool `json:"voice_enabled"`
}

type voiceSettingRequest struct {
	VoiceEnabled *bool `json:"voice_enabled"`
}

func (s *Server) handleGetVoiceSetting(w http.ResponseWriter, r *http.Request) {
	enabled, err := s.settings.VoiceEnabled(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "settings_unavailable", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, voiceSettingResponse{VoiceEnabled: enabled})
}

func (s *Server) handlePutVoiceSetting(w http.ResponseWriter, r *http.Request) {
	var req voiceSettingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.VoiceEnabled == nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "voice_enabled is required")
		return
	}
	if err := s.settings.SetVoiceEnabled(r.Context(), *req.VoiceEnabled); err != nil {
		respondError(w, http.StatusInternalServerError, "settings_unavailable", err.Error())
		return
	}
	if !*req.VoiceEnabled {
		// Disabling voice also silences whatever is currently audible.
		s.speaker.Stop()
	}
	respondJSON(w, http.StatusOK, voiceSettingResponse{VoiceEnabled: *req.VoiceEnabled})
}

func (s *Server) logw(msg string, kv ...any) {
	if s.log == nil {
		return
	}
	s.log.Warnw(msg, kv...)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
