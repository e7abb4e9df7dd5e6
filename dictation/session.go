package dictation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"go.aimuz.me/voxkey/stt"
)

// Result is the outcome of one transcription.
type Result struct {
	Text string
	Err  error
}

// session is one utterance between chord release and the result.
type session struct {
	id         string
	sampleRate int
	channels   int
	audioPath  string
	results    chan Result
	cancel     context.CancelFunc
}

func newSession(dir string, sampleRate, channels int) *session {
	id := uuid.NewString()
	return &session{
		id:         id,
		sampleRate: sampleRate,
		channels:   channels,
		audioPath:  filepath.Join(dir, fmt.Sprintf("dictation_%d_%s.wav", os.Getpid(), id[:8])),
		results:    make(chan Result, 1),
		cancel:     func() {},
	}
}

func (s *session) duration(samples int) float64 {
	if s.sampleRate <= 0 || s.channels <= 0 {
		return 0
	}
	return float64(samples) / float64(s.sampleRate*s.channels)
}

func (s *session) removeAudio() {
	if err := os.Remove(s.audioPath); err != nil && !os.IsNotExist(err) {
		slog.Warn("remove recording", "path", s.audioPath, "error", err)
	}
}

// transcribe runs on its own goroutine and owns only out and path. It
// sends at most one result and always closes out.
func transcribe(ctx context.Context, engine stt.Engine, path string, out chan<- Result) {
	defer close(out)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("transcription worker panicked", "panic", r)
		}
	}()

	text, err := engine.Transcribe(ctx, path)
	if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
		slog.Warn("remove recording", "path", path, "error", rmErr)
	}
	out <- Result{Text: text, Err: err}
}
