// Package config handles application configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.aimuz.me/voxkey/audiocapture"
	"go.aimuz.me/voxkey/hotkey"
	"go.aimuz.me/voxkey/stt"
)

const (
	appName        = "voxkey"
	configFileName = "config.json"
)

// Engine names.
const (
	EngineWhisperCLI = "whisper-cli"
	EngineWhisperAPI = "whisper-api"
)

// Injection strategies.
const (
	StrategyKeys  = "keys"
	StrategyPaste = "paste"
)

// Defaults.
const (
	DefaultFramesPerBuffer = 1024
	DefaultMinSpeechMS     = 100
	DefaultRestoreDelayMS  = 150
	DefaultOverlayHeight   = 6
	DefaultTickMS          = 50
	DefaultAPIModel        = "whisper-1"
)

// DefaultSilenceThreshold leaves the silence check off. Every recording
// with audio is transcribed unless a threshold is configured.
const DefaultSilenceThreshold = 0

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid config")

// Config represents the application configuration.
type Config struct {
	Hotkey        HotkeyConfig        `json:"hotkey"`
	Audio         AudioConfig         `json:"audio"`
	Transcription TranscriptionConfig `json:"transcription"`
	Injection     InjectionConfig     `json:"injection"`
	Overlay       OverlayConfig       `json:"overlay"`
	Dictation     DictationConfig     `json:"dictation"`
}

// HotkeyConfig selects the push-to-talk chord, e.g. "ctrl+alt".
type HotkeyConfig struct {
	Chord string `json:"chord"`
}

// AudioConfig configures the capture stream.
type AudioConfig struct {
	// SampleFormat is "float32" or "int16".
	SampleFormat    string `json:"sample_format"`
	FramesPerBuffer int    `json:"frames_per_buffer"`

	// When SilenceThreshold (RMS) is set, recordings with less than
	// MinSpeechMS above it are not transcribed. Zero disables the check
	// and MinSpeechMS is ignored.
	SilenceThreshold float32 `json:"silence_threshold"`
	MinSpeechMS      int     `json:"min_speech_ms"`
}

// MinSpeech returns the shortest recording worth transcribing.
func (c AudioConfig) MinSpeech() time.Duration {
	return time.Duration(c.MinSpeechMS) * time.Millisecond
}

// TranscriptionConfig selects and configures the speech-to-text engine.
type TranscriptionConfig struct {
	Engine    string `json:"engine"`
	ModelSize string `json:"model_size,omitempty"`
	ModelDir  string `json:"model_dir,omitempty"`
	BinPath   string `json:"bin_path,omitempty"`
	Threads   int    `json:"threads,omitempty"`
	Language  string `json:"language,omitempty"`
	ExtraArgs string `json:"extra_args,omitempty"`

	// API engine only.
	APIKey   string `json:"api_key,omitempty"`
	BaseURL  string `json:"base_url,omitempty"`
	APIModel string `json:"api_model,omitempty"`
}

// InjectionConfig selects how text reaches the focused application.
type InjectionConfig struct {
	Strategy       string `json:"strategy"`
	RestoreDelayMS int    `json:"restore_delay_ms"`
}

// RestoreDelay returns the clipboard restore delay.
func (c InjectionConfig) RestoreDelay() time.Duration {
	return time.Duration(c.RestoreDelayMS) * time.Millisecond
}

// OverlayConfig sizes the status strip.
type OverlayConfig struct {
	Height int `json:"height"`
}

// DictationConfig tunes the orchestrator loop.
type DictationConfig struct {
	TickMS  int  `json:"tick_ms"`
	Enabled bool `json:"enabled"`
}

// Tick returns the orchestrator update interval.
func (c DictationConfig) Tick() time.Duration {
	return time.Duration(c.TickMS) * time.Millisecond
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Hotkey: HotkeyConfig{Chord: hotkey.DefaultChord},
		Audio: AudioConfig{
			SampleFormat:     string(audiocapture.FormatFloat32),
			FramesPerBuffer:  DefaultFramesPerBuffer,
			SilenceThreshold: DefaultSilenceThreshold,
			MinSpeechMS:      DefaultMinSpeechMS,
		},
		Transcription: TranscriptionConfig{
			Engine:    EngineWhisperCLI,
			ModelSize: stt.DefaultModelSize,
			APIModel:  DefaultAPIModel,
		},
		Injection: InjectionConfig{
			Strategy:       StrategyKeys,
			RestoreDelayMS: DefaultRestoreDelayMS,
		},
		Overlay:   OverlayConfig{Height: DefaultOverlayHeight},
		Dictation: DictationConfig{TickMS: DefaultTickMS, Enabled: true},
	}
}

// Load loads configuration from the config file.
// Returns default config if file doesn't exist.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, fmt.Errorf("get config path: %w", err)
	}
	return LoadFile(path)
}

// LoadFile loads configuration from path, filling unset fields with
// defaults. A missing file yields the default configuration.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Unmarshal over the defaults so absent keys keep them.
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save persists the configuration to disk.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return fmt.Errorf("get config path: %w", err)
	}
	return c.SaveFile(path)
}

// SaveFile writes the configuration to path.
func (c *Config) SaveFile(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	// Owner-only: the file may hold an API key.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks that every field holds a usable value.
func (c *Config) Validate() error {
	if _, err := hotkey.ParseChord(c.Hotkey.Chord); err != nil {
		return fmt.Errorf("%w: hotkey chord: %v", ErrInvalid, err)
	}
	if _, err := audiocapture.ParseSampleFormat(c.Audio.SampleFormat); err != nil {
		return fmt.Errorf("%w: audio sample format: %v", ErrInvalid, err)
	}
	if c.Audio.FramesPerBuffer < 0 {
		return fmt.Errorf("%w: audio frames per buffer must not be negative", ErrInvalid)
	}
	if c.Audio.SilenceThreshold < 0 || c.Audio.SilenceThreshold >= 1 {
		return fmt.Errorf("%w: silence threshold must be in [0, 1)", ErrInvalid)
	}
	if c.Audio.MinSpeechMS < 0 {
		return fmt.Errorf("%w: min speech must not be negative", ErrInvalid)
	}

	t := c.Transcription
	switch t.Engine {
	case EngineWhisperCLI:
		if t.ModelSize != "" && !stt.ValidModelSize(t.ModelSize) {
			return fmt.Errorf("%w: unknown model size %q", ErrInvalid, t.ModelSize)
		}
	case EngineWhisperAPI:
	default:
		return fmt.Errorf("%w: unknown engine %q", ErrInvalid, t.Engine)
	}
	if t.Threads < 0 {
		return fmt.Errorf("%w: threads must not be negative", ErrInvalid)
	}

	switch c.Injection.Strategy {
	case StrategyKeys, StrategyPaste:
	default:
		return fmt.Errorf("%w: unknown injection strategy %q", ErrInvalid, c.Injection.Strategy)
	}
	if c.Injection.RestoreDelayMS < 0 {
		return fmt.Errorf("%w: restore delay must not be negative", ErrInvalid)
	}

	if c.Overlay.Height <= 0 {
		return fmt.Errorf("%w: overlay height must be positive", ErrInvalid)
	}
	if c.Dictation.TickMS <= 0 {
		return fmt.Errorf("%w: tick interval must be positive", ErrInvalid)
	}
	return nil
}

// applyDefaults fills zero values left by an explicit empty entry in the file.
func (c *Config) applyDefaults() {
	d := Default()
	if c.Hotkey.Chord == "" {
		c.Hotkey.Chord = d.Hotkey.Chord
	}
	if c.Audio.SampleFormat == "" {
		c.Audio.SampleFormat = d.Audio.SampleFormat
	}
	if c.Audio.FramesPerBuffer == 0 {
		c.Audio.FramesPerBuffer = d.Audio.FramesPerBuffer
	}
	if c.Transcription.Engine == "" {
		c.Transcription.Engine = d.Transcription.Engine
	}
	if c.Transcription.APIModel == "" {
		c.Transcription.APIModel = d.Transcription.APIModel
	}
	if c.Injection.Strategy == "" {
		c.Injection.Strategy = d.Injection.Strategy
	}
	if c.Overlay.Height == 0 {
		c.Overlay.Height = d.Overlay.Height
	}
	if c.Dictation.TickMS == 0 {
		c.Dictation.TickMS = d.Dictation.TickMS
	}
}

// Path returns the location of the config file.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	return filepath.Join(dir, appName, configFileName), nil
}
