package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/inovabank/nina/internal/observability"
	"github.com/inovabank/nina/internal/playback"
	"github.com/inovabank/nina/internal/reliability"
)

// RemoteConfig holds the speech-generation endpoint settings.
type RemoteConfig struct {
	URL     string
	APIKey  string
	VoiceID string
	ModelID string
	// Timeout of 0 means no explicit deadline; a stalled call delays fallback
	// until the transport itself gives up.
	Timeout time.Duration
}

// RemoteBackend synthesizes speech through the hosted speech-generation
// endpoint. Successful renders are written into the shared cache so replays
// never refetch.
type RemoteBackend struct {
	cfg     RemoteConfig
	client  *http.Client
	player  *Player
	cache   *Cache
	metrics *observability.Metrics
	log     *zap.SugaredLogger
}

func NewRemoteBackend(cfg RemoteConfig, player *Player, cache *Cache, metrics *observability.Metrics, log *zap.SugaredLogger) *RemoteBackend {
	return &RemoteBackend{
		cfg:     cfg,
		client:  &http.Client{},
		player:  player,
		cache:   cache,
		metrics: metrics,
		log:     log,
	}
}

func (b *RemoteBackend) Name() string { return "remote" }

func (b *RemoteBackend) Available() bool {
	return b != nil && strings.TrimSpace(b.cfg.URL) != ""
}

type remoteRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voice_id,omitempty"`
	ModelID string `json:"model_id,omitempty"`
}

type remoteResponse struct {
	AudioURL    string `json:"audio_url,omitempty"`
	AudioBase64 string `json:"audio_base64,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Error       *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (b *RemoteBackend) Synthesize(ctx context.Context, text string) (playback.Playable, error) {
	if !b.Available() {
		return nil, ErrUnavailable
	}

	start := time.Now()
	data, contentType, sourceURL, err := b.fetch(ctx, text)
	if err != nil {
		b.observeFailure(err)
		return nil, err
	}
	if b.metrics != nil {
		b.metrics.ObserveSpeechStage("remote_synthesis", time.Since(start))
	}

	if b.cache != nil {
		b.cache.Put(text, data, contentType, sourceURL)
	}
	return b.player.Clip(data, contentType), nil
}

func (b *RemoteBackend) fetch(ctx context.Context, text string) (data []byte, contentType, sourceURL string, err error) {
	if b.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(remoteRequest{Text: text, VoiceID: b.cfg.VoiceID, ModelID: b.cfg.ModelID})
	if err != nil {
		return nil, "", "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, "", "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if key := strings.TrimSpace(b.cfg.APIKey); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, "", "", fmt.Errorf("speech endpoint request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if remoteErr := decodeRemoteError(payload); remoteErr != nil {
			remoteErr.Transient = reliability.IsTransientHTTPStatus(resp.StatusCode)
			return nil, "", "", remoteErr
		}
		return nil, "", "", &RemoteError{
			Code:      reliability.ClassifyHTTPStatus(resp.StatusCode),
			Detail:    fmt.Sprintf("status %d", resp.StatusCode),
			Transient: reliability.IsTransientHTTPStatus(resp.StatusCode),
		}
	}

	ct := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Type")))
	if strings.HasPrefix(ct, "application/json") {
		var parsed remoteResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return nil, "", "", fmt.Errorf("decode speech response: %w", err)
		}
		switch {
		case parsed.Error != nil:
			return nil, "", "", &RemoteError{Code: parsed.Error.Code, Detail: parsed.Error.Message}
		case parsed.AudioBase64 != "":
			raw, err := base64.StdEncoding.DecodeString(parsed.AudioBase64)
			if err != nil {
				return nil, "", "", fmt.Errorf("decode inline audio: %w", err)
			}
			return raw, defaultContentType(parsed.ContentType), "", nil
		case parsed.AudioURL != "":
			raw, fetchedCT, err := b.download(ctx, parsed.AudioURL)
			if err != nil {
				return nil, "", "", err
			}
			if parsed.ContentType != "" {
				fetchedCT = parsed.ContentType
			}
			return raw, defaultContentType(fetchedCT), parsed.AudioURL, nil
		default:
			return nil, "", "", &RemoteError{Code: "empty_response", Detail: "no audio reference in payload"}
		}
	}

	// Inline audio bytes.
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", "", fmt.Errorf("read speech response: %w", err)
	}
	if len(raw) == 0 {
		return nil, "", "", &RemoteError{Code: "empty_response", Detail: "zero-length audio body"}
	}
	return raw, defaultContentType(ct), "", nil
}

func (b *RemoteBackend) download(ctx context.Context, audioURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch rendered audio: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &RemoteError{
			Code:      reliability.ClassifyHTTPStatus(resp.StatusCode),
			Detail:    fmt.Sprintf("audio fetch status %d", resp.StatusCode),
			Transient: reliability.IsTransientHTTPStatus(resp.StatusCode),
		}
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return raw, resp.Header.Get("Content-Type"), nil
}

func (b *RemoteBackend) observeFailure(err error) {
	code := "transport"
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		code = remoteErr.Code
	}
	if b.metrics != nil {
		b.metrics.BackendFailures.WithLabelValues(b.Name(), code).Inc()
	}
	if b.log != nil {
		b.log.Warnw("remote synthesis failed", "code", code, "err", err)
	}
}

func decodeRemoteError(payload []byte) *RemoteError {
	var parsed remoteResponse
	if err := json.Unmarshal(payload, &parsed); err != nil || parsed.Error == nil {
		return nil
	}
	return &RemoteError{Code: parsed.Error.Code, Detail: parsed.Error.Message}
}

func defaultContentType(ct string) string {
	if strings.TrimSpace(ct) == "" {
		return "audio/mpeg"
	}
	return ct
}
