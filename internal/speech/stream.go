package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/inovabank/nina/internal/audio"
	"github.com/inovabank/nina/internal/playback"
	"github.com/inovabank/nina/internal/reliability"
)

// StreamConfig holds settings for the websocket stream-input synthesis mode.
type StreamConfig struct {
	APIKey       string
	WSBaseURL    string
	VoiceID      string
	ModelID      string
	OutputFormat string
	SampleRate   int
}

// StreamBackend synthesizes speech over the provider's realtime websocket,
// collecting the PCM chunks into one clip. Used when SPEECH_API_MODE=stream.
type StreamBackend struct {
	cfg    StreamConfig
	player *Player
	cache  *Cache
	dial   func(ctx context.Context, urlStr string, header http.Header) (*websocket.Conn, error)
}

func NewStreamBackend(cfg StreamConfig, player *Player, cache *Cache) *StreamBackend {
	if strings.TrimSpace(cfg.WSBaseURL) == "" {
		cfg.WSBaseURL = "wss://api.elevenlabs.io"
	}
	if strings.TrimSpace(cfg.ModelID) == "" {
		cfg.ModelID = "eleven_multilingual_v2"
	}
	if strings.TrimSpace(cfg.OutputFormat) == "" {
		cfg.OutputFormat = "pcm_16000"
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	return &StreamBackend{
		cfg:    cfg,
		player: player,
		cache:  cache,
		dial: func(ctx context.Context, urlStr string, header http.Header) (*websocket.Conn, error) {
			conn, _, err := websocket.DefaultDialer.DialContext(ctx, urlStr, header)
			return conn, err
		},
	}
}

func (b *StreamBackend) Name() string { return "remote" }

func (b *StreamBackend) Available() bool {
	return b != nil && strings.TrimSpace(b.cfg.APIKey) != "" && strings.TrimSpace(b.cfg.VoiceID) != ""
}

func (b *StreamBackend) Synthesize(ctx context.Context, text string) (playback.Playable, error) {
	if !b.Available() {
		return nil, ErrUnavailable
	}

	u, err := url.Parse(strings.TrimRight(b.cfg.WSBaseURL, "/") + "/v1/text-to-speech/" + url.PathEscape(b.cfg.VoiceID) + "/stream-input")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("model_id", b.cfg.ModelID)
	q.Set("output_format", b.cfg.OutputFormat)
	q.Set("auto_mode", "true")
	u.RawQuery = q.Encode()

	headers := http.Header{}
	headers.Set("xi-api-key", b.cfg.APIKey)

	conn, err := b.dial(ctx, u.String(), headers)
	if err != nil {
		return nil, fmt.Errorf("dial synthesis websocket: %w", err)
	}
	defer conn.Close()

	// Prime the stream as documented for stream-input flows, then send the
	// whole utterance and close input.
	if err := conn.WriteJSON(map[string]any{"text": " "}); err != nil {
		return nil, fmt.Errorf("prime synthesis stream: %w", err)
	}
	if err := conn.WriteJSON(map[string]any{"text": text, "try_trigger_generation": true}); err != nil {
		return nil, fmt.Errorf("send synthesis text: %w", err)
	}
	if err := conn.WriteJSON(map[string]any{"text": ""}); err != nil {
		return nil, fmt.Errorf("close synthesis input: %w", err)
	}

	var pcm bytes.Buffer
	for {
		if deadline, ok := ctx.Deadline(); ok {
			_ = conn.SetReadDeadline(deadline)
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			if pcm.Len() > 0 {
				break
			}
			return nil, fmt.Errorf("read synthesis stream: %w", err)
		}
		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			continue
		}
		if errMsg := asString(raw["error"]); errMsg != "" {
			code := asString(raw["message_type"])
			return nil, &RemoteError{
				Code:      code,
				Detail:    errMsg,
				Transient: reliability.IsTransientStreamMessageType(code),
			}
		}
		if chunk := asString(raw["audio"]); chunk != "" {
			decoded, err := base64.StdEncoding.DecodeString(chunk)
			if err != nil {
				return nil, fmt.Errorf("decode synthesis chunk: %w", err)
			}
			pcm.Write(decoded)
		}
		if asBool(raw["isFinal"]) || asBool(raw["is_final"]) {
			break
		}
	}

	if pcm.Len() == 0 {
		return nil, &RemoteError{Code: "empty_response", Detail: "stream produced no audio"}
	}

	wav, err := audio.EncodeWAVPCM16LE(pcm.Bytes(), b.cfg.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("wrap synthesis audio: %w", err)
	}
	if b.cache != nil {
		b.cache.Put(text, wav, "audio/wav", "")
	}
	return b.player.Clip(wav, "audio/wav"), nil
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func asBool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}
