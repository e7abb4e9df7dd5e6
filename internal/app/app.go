package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wailsapp/wails/v3/pkg/application"

	"go.aimuz.me/voxkey/audiocapture"
	"go.aimuz.me/voxkey/config"
	"go.aimuz.me/voxkey/dictation"
	"go.aimuz.me/voxkey/hotkey"
	"go.aimuz.me/voxkey/inject"
	"go.aimuz.me/voxkey/internal/types"
	"go.aimuz.me/voxkey/overlay"
	"go.aimuz.me/voxkey/permission"
	"go.aimuz.me/voxkey/stt"
)

// Input monitoring is often granted a moment after the prompt is answered.
const (
	permissionAttempts = 3
	permissionDelay    = 500 * time.Millisecond
)

// Service provides application functionality bound to Wails.
// This struct focuses on orchestration; the pipeline lives in sub-packages.
type Service struct {
	cfg     *config.Config
	version string

	// UI reference - set via Init
	app *application.App

	perms   *permission.System
	engines *stt.Registry
	engine  stt.Engine
	manager *dictation.Manager
	loop    *Loop

	mu        sync.Mutex
	lastState dictation.State
	onStatus  func(types.DictationStatus)

	setupMu     sync.Mutex
	setupCancel context.CancelFunc

	// cfgMu guards writes to cfg and saving it.
	cfgMu      sync.Mutex
	saveConfig func(*config.Config) error
}

// New creates a new Service. Call Init() after Wails app is created.
func New(version string, cfg *config.Config) *Service {
	return &Service{version: version, cfg: cfg, saveConfig: (*config.Config).Save}
}

// GetVersion returns the application version.
func (s *Service) GetVersion() string {
	return s.version
}

// Init builds the dictation pipeline and starts it if enabled.
// Must be called after Wails application is created.
func (s *Service) Init(app *application.App) error {
	s.app = app
	s.perms = permission.NewSystem()

	engines, engine, err := NewEngines(s.cfg.Transcription)
	if err != nil {
		return err
	}
	s.engines, s.engine = engines, engine
	slog.Info("transcription engine", "engine", engine.Name(), "available", engine.IsAvailable())

	chord, err := hotkey.ParseChord(s.cfg.Hotkey.Chord)
	if err != nil {
		return fmt.Errorf("parse chord: %w", err)
	}
	watcher := hotkey.NewWatcher(chord, hotkey.WithPermissionProbe(
		func() bool { return requestIfUndetermined(s.perms, permission.InputMonitoring) },
		permissionAttempts, permissionDelay,
	))

	newRecorder, err := recorderFactory(s.cfg.Audio)
	if err != nil {
		return err
	}

	s.manager = dictation.NewManager(dictation.Config{
		SilenceThreshold: s.cfg.Audio.SilenceThreshold,
		MinSpeech:        s.cfg.Audio.MinSpeech(),
	}, dictation.Deps{
		Watcher:     watcher,
		NewRecorder: newRecorder,
		Engine:      engine,
		Injector:    inject.New(injectorOptions(s.cfg.Injection, s.trusted)...),
		Overlay:     overlay.New(overlay.WailsFactory(app, s.cfg.Overlay.Height)),
		Permissions: s.perms,
	})

	s.loop = NewLoop(s.cfg.Dictation.Tick(), s.tick)
	if err := s.loop.Start(); err != nil {
		return fmt.Errorf("start loop: %w", err)
	}

	if err := s.SetEnabled(s.cfg.Dictation.Enabled); err != nil {
		slog.Error("start dictation", "error", err)
		notifyError("Dictation unavailable", err)
	}

	requestMissing(s.perms, permission.Accessibility)

	report := capabilityReport(s.perms)
	s.emit(EventPermissions, report)
	notifyMissing(report)
	return nil
}

// Shutdown cleans up resources.
func (s *Service) Shutdown() {
	s.setupMu.Lock()
	if s.setupCancel != nil {
		s.setupCancel()
	}
	s.setupMu.Unlock()

	if s.loop != nil {
		s.loop.Stop()
	}
	if s.manager != nil {
		s.manager.Stop()
	}
}

// emit is a safe wrapper around app.Event.Emit
func (s *Service) emit(name string, data any) {
	if s.app != nil {
		s.app.Event.Emit(name, data)
	}
}

func (s *Service) trusted() bool {
	return s.perms.Status(permission.Accessibility).Allowed()
}

// tick advances the state machine and reports state changes.
func (s *Service) tick() {
	s.manager.Update()

	state := s.manager.State()
	s.mu.Lock()
	changed := state != s.lastState
	s.lastState = state
	onStatus := s.onStatus
	s.mu.Unlock()

	if !changed {
		return
	}
	st := s.Status()
	s.emit(EventDictationState, st)
	if onStatus != nil {
		onStatus(st)
	}
}

// OnStatus registers fn to be called when the dictation state changes.
func (s *Service) OnStatus(fn func(types.DictationStatus)) {
	s.mu.Lock()
	s.onStatus = fn
	s.mu.Unlock()
}

// ─────────────────────────────────────────────────────────────────────────────
// Dictation
// ─────────────────────────────────────────────────────────────────────────────

// Status returns the current dictation status.
func (s *Service) Status() types.DictationStatus {
	if s.manager == nil {
		return types.DictationStatus{State: dictation.StateIdle.String(), Chord: s.cfg.Hotkey.Chord}
	}
	return types.DictationStatus{
		State:     s.manager.State().String(),
		Enabled:   s.manager.Enabled(),
		Available: s.manager.IsAvailable(),
		Engine:    s.engine.Name(),
		Model:     s.manager.ModelName(),
		Chord:     s.cfg.Hotkey.Chord,
	}
}

// SetEnabled turns dictation on or off and remembers the choice.
func (s *Service) SetEnabled(enabled bool) error {
	if s.manager == nil {
		return errors.New("dictation not initialized")
	}
	if err := s.manager.SetEnabled(enabled); err != nil {
		return err
	}
	if enabled {
		if err := s.manager.Start(); err != nil {
			return err
		}
	}

	s.rememberEnabled(enabled)
	s.emit(EventDictationState, s.Status())
	return nil
}

// rememberEnabled persists the enabled flag if it changed. The tray handler
// and the model setup goroutine both get here.
func (s *Service) rememberEnabled(enabled bool) {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()

	if s.cfg.Dictation.Enabled == enabled {
		return
	}
	s.cfg.Dictation.Enabled = enabled
	if err := s.saveConfig(s.cfg); err != nil {
		slog.Warn("save config", "error", err)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Engines & Model Setup
// ─────────────────────────────────────────────────────────────────────────────

// GetEngines returns all registered transcription engines.
func (s *Service) GetEngines() []types.EngineInfo {
	if s.engines == nil {
		return nil
	}
	engines := s.engines.List()
	out := make([]types.EngineInfo, len(engines))
	for i, e := range engines {
		out[i] = engineInfo(e)
	}
	return out
}

// SetupModel downloads the active engine's model in the background.
// Progress is reported through events.
func (s *Service) SetupModel() error {
	if s.engine == nil {
		return errors.New("engine not initialized")
	}
	su, ok := s.engine.(setuper)
	if !ok {
		return fmt.Errorf("engine %s needs no setup", s.engine.Name())
	}

	s.setupMu.Lock()
	if s.setupCancel != nil {
		s.setupMu.Unlock()
		return errors.New("model setup already running")
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.setupCancel = cancel
	s.setupMu.Unlock()

	name := s.engine.Name()
	go func() {
		defer func() {
			s.setupMu.Lock()
			s.setupCancel = nil
			s.setupMu.Unlock()
			cancel()
		}()

		err := su.Setup(ctx, func(percent int) {
			s.emit(EventSetupProgress, types.SetupProgress{Engine: name, Progress: percent})
		})
		if err != nil {
			slog.Error("model setup failed", "engine", name, "error", err)
			s.emit(EventSetupError, types.SetupError{Engine: name, Error: err.Error()})
			notifyError("Model download failed", err)
			return
		}

		s.emit(EventSetupComplete, name)
		if err := s.SetEnabled(s.cfg.Dictation.Enabled); err != nil {
			slog.Error("start dictation", "error", err)
		}
	}()
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Permissions
// ─────────────────────────────────────────────────────────────────────────────

// GetPermissions returns the status of every capability.
func (s *Service) GetPermissions() []types.CapabilityStatus {
	return capabilityReport(s.perms)
}

// OpenPermissionSettings opens the settings pane for the named capability.
func (s *Service) OpenPermissionSettings(name string) error {
	for _, c := range permission.Capabilities {
		if c.String() == name {
			return s.perms.OpenSettings(c)
		}
	}
	return fmt.Errorf("unknown capability: %s", name)
}

// ─────────────────────────────────────────────────────────────────────────────
// Component construction
// ─────────────────────────────────────────────────────────────────────────────

// recorderFactory returns a constructor for a fresh recorder per utterance.
func recorderFactory(cfg config.AudioConfig) (func() (dictation.Recorder, error), error) {
	format, err := audiocapture.ParseSampleFormat(cfg.SampleFormat)
	if err != nil {
		return nil, err
	}
	backend := audiocapture.NewPortAudio(format, cfg.FramesPerBuffer)

	return func() (dictation.Recorder, error) {
		rec, err := audiocapture.New(backend)
		if err != nil {
			return nil, err
		}
		slog.Debug("input device",
			"name", rec.DeviceName(),
			"rate", rec.SampleRate(),
			"channels", rec.Channels(),
		)
		return rec, nil
	}, nil
}

// injectorOptions maps the injection settings onto Injector options.
func injectorOptions(cfg config.InjectionConfig, trusted func() bool) []inject.Option {
	paster := inject.NewPaster(cfg.RestoreDelay())
	opts := []inject.Option{
		inject.WithTrustCheck(trusted),
		inject.WithFallback(paster),
	}
	if cfg.Strategy == config.StrategyPaste {
		opts = append(opts, inject.WithPrimary(paster), inject.WithFallback(nil))
	}
	return opts
}
