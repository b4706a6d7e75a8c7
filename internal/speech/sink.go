package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// Sink plays audio bytes. Play blocks until playback ends or ctx is done.
type Sink interface {
	Play(ctx context.Context, audio []byte) error
}

// CommandSink plays audio through an external player binary.
type CommandSink struct {
	Binary string
	Args   []string // placed before the file path
}

// knownPlayers in detection order. ffplay and afplay handle both MP3 and
// WAV; mpg123 and paplay are narrower fallbacks.
var knownPlayers = []CommandSink{
	{Binary: "ffplay", Args: []string{"-nodisp", "-autoexit", "-loglevel", "quiet"}},
	{Binary: "afplay"},
	{Binary: "mpg123", Args: []string{"-q"}},
	{Binary: "paplay"},
}

// ErrNoPlayer is returned when no audio player is installed.
var ErrNoPlayer = errors.New("no audio player found (install ffplay, mpg123 or paplay)")

// DetectSink returns a CommandSink for the first player found on PATH.
func DetectSink() (*CommandSink, error) {
	for _, p := range knownPlayers {
		if path, err := exec.LookPath(p.Binary); err == nil {
			return &CommandSink{Binary: path, Args: p.Args}, nil
		}
	}
	return nil, ErrNoPlayer
}

// audioExt sniffs the container so players that rely on the extension
// pick the right decoder.
func audioExt(audio []byte) string {
	if len(audio) >= 12 && bytes.Equal(audio[:4], []byte("RIFF")) && bytes.Equal(audio[8:12], []byte("WAVE")) {
		return ".wav"
	}
	return ".mp3"
}

func (s *CommandSink) Play(ctx context.Context, audio []byte) error {
	if len(audio) == 0 {
		return nil
	}

	f, err := os.CreateTemp("", "lingoz-*"+audioExt(audio))
	if err != nil {
		return fmt.Errorf("create audio file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(audio); err != nil {
		f.Close()
		return fmt.Errorf("write audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close audio file: %w", err)
	}

	args := append(append([]string(nil), s.Args...), f.Name())
	cmd := exec.CommandContext(ctx, s.Binary, args...)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: %w", s.Binary, err)
	}
	return nil
}
