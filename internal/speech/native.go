package speech

import (
	"context"
	"os/exec"
	"strings"
	"sync"

	"github.com/inovabank/nina/internal/playback"
)

// NativeBackend speaks through an on-device synthesis command. It is the last
// fallback tier: no network, no pre-rendered audio, just whatever the host
// platform offers.
type NativeBackend struct {
	command  string
	lookPath func(string) (string, error)
	run      runCmdFunc
}

// NewNativeBackend builds the backend with explicit override or auto-detection.
func NewNativeBackend(override string) *NativeBackend {
	b := &NativeBackend{lookPath: exec.LookPath, run: execRunCmd}
	b.command = b.detect(override)
	return b
}

func (b *NativeBackend) detect(override string) string {
	override = strings.TrimSpace(override)
	if override != "" && override != "auto" {
		if _, err := b.lookPath(override); err == nil {
			return override
		}
		return ""
	}
	for _, candidate := range []string{"say", "espeak-ng", "espeak", "spd-say"} {
		if _, err := b.lookPath(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

func (b *NativeBackend) Name() string { return "native" }

// Available reports whether a usable synthesis command was detected.
func (b *NativeBackend) Available() bool {
	return b != nil && b.command != ""
}

func (b *NativeBackend) Synthesize(_ context.Context, text string) (playback.Playable, error) {
	if !b.Available() {
		return nil, ErrUnavailable
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrUnavailable
	}
	return &nativeUtterance{backend: b, args: nativeArgs(b.command, text)}, nil
}

type nativeUtterance struct {
	backend *NativeBackend
	args    []string

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped bool
}

func (u *nativeUtterance) Play(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	u.mu.Lock()
	if u.stopped {
		u.mu.Unlock()
		return nil
	}
	u.cancel = cancel
	u.mu.Unlock()

	err := u.backend.run(runCtx, u.backend.command, u.args...)

	u.mu.Lock()
	stopped := u.stopped
	u.cancel = nil
	u.mu.Unlock()

	if stopped || runCtx.Err() != nil {
		return nil
	}
	return err
}

func (u *nativeUtterance) Stop() {
	u.mu.Lock()
	u.stopped = true
	cancel := u.cancel
	u.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func nativeArgs(command, text string) []string {
	switch command {
	case "spd-say":
		// -w blocks until the utterance finishes, matching the Playable contract.
		return []string{"-w", text}
	default:
		return []string{text}
	}
}
