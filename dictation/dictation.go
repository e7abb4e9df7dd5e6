// Package dictation sequences push-to-talk dictation: chord down starts
// recording, chord up transcribes in the background, and the result is
// typed into the focused application.
package dictation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"go.aimuz.me/voxkey/audiocapture"
	"go.aimuz.me/voxkey/hotkey"
	"go.aimuz.me/voxkey/overlay"
	"go.aimuz.me/voxkey/permission"
	"go.aimuz.me/voxkey/stt"
)

var (
	// ErrEngineUnavailable is returned by Start when the engine cannot run.
	ErrEngineUnavailable = errors.New("dictation: transcription engine not available")

	// ErrWorkerDisconnected is the result of a worker that exited without
	// reporting.
	ErrWorkerDisconnected = errors.New("dictation: transcription worker disconnected")
)

// State is the orchestrator state.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateTranscribing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateTranscribing:
		return "transcribing"
	default:
		return "unknown"
	}
}

// Watcher reports chord transitions.
type Watcher interface {
	Start() error
	Stop()
	TryRecv() (hotkey.Event, bool)
}

// Recorder captures one utterance at a time.
type Recorder interface {
	Start() error
	Stop() []float32
	SaveWAV(samples []float32, path string) error
	SampleRate() int
	Channels() int
}

// Injector types text into the focused application.
type Injector interface {
	Inject(text string) error
}

// Overlay shows recording status.
type Overlay interface {
	ShowWithMode(mode overlay.Mode) error
	SetMode(mode overlay.Mode)
	Hide()
}

// Deps are the collaborators of a Manager.
type Deps struct {
	Watcher     Watcher
	NewRecorder func() (Recorder, error)
	Engine      stt.Engine
	Injector    Injector
	Overlay     Overlay

	// Permissions is optional. When set, Start checks the microphone.
	Permissions permission.Checker
}

// Config holds Manager settings.
type Config struct {
	// TempDir holds recordings while they are transcribed. Defaults to
	// os.TempDir().
	TempDir string

	// SilenceThreshold is the RMS level below which audio counts as
	// silence. Recordings with less than MinSpeech above it are dropped
	// without transcription. Zero disables the check.
	SilenceThreshold float32
	MinSpeech        time.Duration
}

// Manager is the dictation state machine. Update must be called
// periodically from a single goroutine; the other methods are safe to call
// from anywhere.
type Manager struct {
	deps    Deps
	cfg     Config

	mu       sync.Mutex
	state    State
	enabled  bool
	started  bool
	resume   bool
	recorder Recorder
	session  *session
}

// NewManager returns an enabled, idle Manager. Call Start to begin
// watching the chord.
func NewManager(cfg Config, deps Deps) *Manager {
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	return &Manager{
		deps:    deps,
		cfg:     cfg,
		enabled: true,
	}
}

// Start checks the engine and microphone and installs the chord watcher.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startLocked()
}

func (m *Manager) startLocked() error {
	if m.started {
		return nil
	}
	if !m.deps.Engine.IsAvailable() {
		return fmt.Errorf("%w: %s", ErrEngineUnavailable, m.deps.Engine.Name())
	}

	m.checkMicrophone()

	if err := m.deps.Watcher.Start(); err != nil {
		return fmt.Errorf("start hotkey watcher: %w", err)
	}
	m.started = true
	return nil
}

func (m *Manager) checkMicrophone() {
	if m.deps.Permissions == nil {
		return
	}
	status := m.deps.Permissions.Status(permission.Microphone)
	slog.Info("microphone permission", "status", status)

	switch status {
	case permission.NotDetermined:
		slog.Info("requesting microphone permission")
		m.deps.Permissions.Request(permission.Microphone)
	case permission.Denied:
		slog.Warn("microphone permission denied")
	}
}

// Stop removes the watcher and abandons any recording or transcription.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

func (m *Manager) stopLocked() {
	if m.started {
		m.deps.Watcher.Stop()
		m.started = false
	}
	if m.recorder != nil {
		m.recorder.Stop()
		m.recorder = nil
	}
	m.deps.Overlay.Hide()
	m.endSession()
	m.state = StateIdle
}

// SetEnabled turns dictation on or off. Disabling stops the manager;
// enabling restarts it if it had been started.
func (m *Manager) SetEnabled(enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if enabled == m.enabled {
		return nil
	}
	m.enabled = enabled
	if !enabled {
		m.resume = m.started
		m.stopLocked()
		return nil
	}
	if m.resume {
		m.resume = false
		return m.startLocked()
	}
	return nil
}

// Enabled reports whether dictation is enabled.
func (m *Manager) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsAvailable reports whether the transcription engine can run.
func (m *Manager) IsAvailable() bool {
	return m.deps.Engine.IsAvailable()
}

// ModelName returns the model the engine uses, if it reports one.
func (m *Manager) ModelName() string {
	if n, ok := m.deps.Engine.(interface{ ModelName() string }); ok {
		return n.ModelName()
	}
	return ""
}

// Update processes pending chord events in order, then at most one
// transcription result. It never blocks on the worker.
func (m *Manager) Update() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.enabled {
		return
	}

	for {
		ev, ok := m.deps.Watcher.TryRecv()
		if !ok {
			break
		}
		m.handleEvent(ev)
	}

	if m.state != StateTranscribing || m.session == nil {
		return
	}
	select {
	case res, ok := <-m.session.results:
		if !ok {
			res = Result{Err: ErrWorkerDisconnected}
		}
		m.finish(res)
	default:
	}
}

func (m *Manager) handleEvent(ev hotkey.Event) {
	switch ev {
	case hotkey.EventReady:
		slog.Info("dictation hotkey ready")
	case hotkey.EventStart:
		if m.state == StateIdle {
			m.startRecording()
		}
	case hotkey.EventStop:
		if m.state == StateRecording {
			m.stopAndTranscribe()
		}
	}
}

func (m *Manager) startRecording() {
	if !m.deps.Engine.IsAvailable() {
		slog.Warn("transcription engine not available", "engine", m.deps.Engine.Name())
		return
	}

	rec, err := m.deps.NewRecorder()
	if err != nil {
		slog.Error("create recorder", "error", err)
		return
	}
	if err := rec.Start(); err != nil {
		slog.Error("start recording", "error", err)
		return
	}
	m.recorder = rec

	if err := m.deps.Overlay.ShowWithMode(overlay.ModeRecording); err != nil {
		slog.Warn("show overlay", "error", err)
	}
	m.state = StateRecording
	slog.Info("recording started")
}

func (m *Manager) stopAndTranscribe() {
	rec := m.recorder
	m.recorder = nil

	samples := rec.Stop()
	if len(samples) == 0 {
		slog.Info("no audio recorded")
		m.deps.Overlay.Hide()
		m.state = StateIdle
		return
	}

	if m.isSilent(samples, rec) {
		m.deps.Overlay.Hide()
		m.state = StateIdle
		return
	}

	s := newSession(m.cfg.TempDir, rec.SampleRate(), rec.Channels())
	slog.Info("recording stopped",
		"session", s.id,
		"samples", len(samples),
		"seconds", s.duration(len(samples)),
	)

	if err := rec.SaveWAV(samples, s.audioPath); err != nil {
		slog.Error("save recording", "session", s.id, "error", err)
		s.removeAudio()
		m.deps.Overlay.Hide()
		m.state = StateIdle
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go transcribe(ctx, m.deps.Engine, s.audioPath, s.results)

	m.session = s
	m.deps.Overlay.SetMode(overlay.ModeTranscribing)
	m.state = StateTranscribing
}

func (m *Manager) isSilent(samples []float32, rec Recorder) bool {
	if m.cfg.SilenceThreshold <= 0 {
		return false
	}
	voiced := audiocapture.VoicedDuration(samples, rec.SampleRate(), rec.Channels(), m.cfg.SilenceThreshold)
	if voiced >= m.cfg.MinSpeech && voiced > 0 {
		return false
	}
	slog.Info("recording is silent", "voiced", voiced)
	return true
}

func (m *Manager) finish(res Result) {
	id := m.session.id
	m.deps.Overlay.Hide()

	switch {
	case errors.Is(res.Err, stt.ErrNoSpeech):
		slog.Info("no speech detected", "session", id)
	case res.Err != nil:
		slog.Error("transcription failed", "session", id, "error", res.Err)
	default:
		slog.Info("transcription complete", "session", id, "chars", len(res.Text))
		if err := m.deps.Injector.Inject(res.Text); err != nil {
			slog.Error("inject text", "session", id, "error", err)
		}
	}

	m.endSession()
	m.state = StateIdle
}

// endSession cancels and forgets the current session and deletes its
// recording.
func (m *Manager) endSession() {
	if m.session == nil {
		return
	}
	m.session.cancel()
	m.session.removeAudio()
	m.session = nil
}
