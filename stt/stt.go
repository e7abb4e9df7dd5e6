// Package stt turns recorded audio files into text.
package stt

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"unicode/utf8"
)

var (
	// ErrNoSpeech is returned when the engine produced no text.
	ErrNoSpeech = errors.New("no speech detected")

	// ErrNotAvailable is returned when an engine is missing its tool, model
	// or credentials.
	ErrNotAvailable = errors.New("transcription engine not available")
)

// maxStderr bounds how much tool output is kept for display.
const maxStderr = 512

// ToolError reports a transcription tool that exited unsuccessfully.
type ToolError struct {
	Tool     string
	ExitCode int
	Stderr   string
}

func (e *ToolError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s exited with status %d", e.Tool, e.ExitCode)
	}
	return fmt.Sprintf("%s exited with status %d: %s", e.Tool, e.ExitCode, e.Stderr)
}

func newToolError(tool string, code int, stderr string) *ToolError {
	if len(stderr) > maxStderr {
		cut := maxStderr
		for cut > 0 && !utf8.RuneStart(stderr[cut]) {
			cut--
		}
		stderr = stderr[:cut] + "..."
	}
	return &ToolError{Tool: tool, ExitCode: code, Stderr: stderr}
}

// Engine transcribes a 16 kHz mono WAV file.
type Engine interface {
	// Name returns the engine identifier.
	Name() string

	// IsAvailable reports whether Transcribe can run.
	IsAvailable() bool

	// Transcribe blocks until the file has been transcribed.
	// It returns ErrNoSpeech when the result is empty.
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Registry holds engines by name.
type Registry struct {
	engines map[string]Engine
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]Engine)}
}

// Register adds e, replacing any engine with the same name.
func (r *Registry) Register(e Engine) {
	r.engines[e.Name()] = e
}

// Get returns the engine with the given name, or nil.
func (r *Registry) Get(name string) Engine {
	return r.engines[name]
}

// List returns all engines sorted by name.
func (r *Registry) List() []Engine {
	result := make([]Engine, 0, len(r.engines))
	for _, e := range r.engines {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result
}
