package speech

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/inovabank/nina/internal/playback"
)

// runCmdFunc executes a playback/synthesis command to completion. Injectable
// for tests.
type runCmdFunc func(ctx context.Context, name string, args ...string) error

func execRunCmd(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.Run()
}

// Player turns audio bytes into audible output through a system player
// command. The command is detected at construction; an empty command means
// this host cannot play audio at all.
type Player struct {
	command  string
	lookPath func(string) (string, error)
	run      runCmdFunc
}

// NewPlayer builds a player with explicit override or auto-detection.
func NewPlayer(override string) *Player {
	p := &Player{lookPath: exec.LookPath, run: execRunCmd}
	p.command = p.detect(override)
	return p
}

func (p *Player) detect(override string) string {
	override = strings.TrimSpace(override)
	if override != "" && override != "auto" {
		if _, err := p.lookPath(override); err == nil {
			return override
		}
		return ""
	}
	for _, candidate := range []string{"afplay", "paplay", "aplay", "ffplay", "mpv"} {
		if _, err := p.lookPath(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// Available reports whether a usable player command was detected.
func (p *Player) Available() bool {
	return p != nil && p.command != ""
}

// Command returns the selected player command name.
func (p *Player) Command() string {
	if p == nil {
		return ""
	}
	return p.command
}

// Clip wraps pre-rendered audio bytes as a Playable.
func (p *Player) Clip(data []byte, contentType string) playback.Playable {
	return &clip{player: p, data: data, contentType: contentType}
}

type clip struct {
	player      *Player
	data        []byte
	contentType string

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped bool
}

func (c *clip) Play(ctx context.Context) error {
	if !c.player.Available() {
		// No output device/command: the server-side analog of an autoplay
		// denial, callers fall back to a different backend.
		return playback.ErrPolicyRejected
	}
	if len(c.data) == 0 {
		return playback.ErrPolicyRejected
	}

	f, err := os.CreateTemp("", "nina-clip-*"+extForContentType(c.contentType))
	if err != nil {
		return err
	}
	path := f.Name()
	defer os.Remove(path)
	if _, err := f.Write(c.data); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.cancel = cancel
	c.mu.Unlock()

	err = c.player.run(runCtx, c.player.command, playerArgs(c.player.command, path)...)

	c.mu.Lock()
	stopped := c.stopped
	c.cancel = nil
	c.mu.Unlock()

	if stopped || runCtx.Err() != nil {
		return nil
	}
	return err
}

func (c *clip) Stop() {
	c.mu.Lock()
	c.stopped = true
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func playerArgs(command, path string) []string {
	switch command {
	case "ffplay":
		return []string{"-nodisp", "-autoexit", "-loglevel", "quiet", path}
	case "mpv":
		return []string{"--no-terminal", "--no-video", path}
	default:
		return []string{path}
	}
}

func extForContentType(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch ct {
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/ogg":
		return ".ogg"
	case "audio/aac":
		return ".aac"
	default:
		return ".audio"
	}
}
