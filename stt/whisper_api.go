package stt

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// WhisperAPI transcribes with OpenAI's audio transcription endpoint.
type WhisperAPI struct {
	client   openai.Client
	model    string
	language string
	ready    bool
}

// WhisperAPIConfig holds configuration for WhisperAPI.
type WhisperAPIConfig struct {
	APIKey   string
	BaseURL  string // Optional, defaults to OpenAI's API
	Model    string // Optional, defaults to "whisper-1"
	Language string // Language override, "auto" to detect
}

// NewWhisperAPI creates a WhisperAPI engine. It is available only when an
// API key is set.
func NewWhisperAPI(cfg WhisperAPIConfig) *WhisperAPI {
	model := cfg.Model
	if model == "" {
		model = string(openai.AudioModelWhisper1)
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &WhisperAPI{
		client:   openai.NewClient(opts...),
		model:    model,
		language: ResolveLanguage(cfg.Language),
		ready:    cfg.APIKey != "",
	}
}

func (w *WhisperAPI) Name() string      { return "whisper-api" }
func (w *WhisperAPI) IsAvailable() bool { return w.ready }

// ModelName returns the remote model identifier.
func (w *WhisperAPI) ModelName() string { return w.model }

func (w *WhisperAPI) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if !w.ready {
		return "", ErrNotAvailable
	}

	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	params := openai.AudioTranscriptionNewParams{
		File:  f,
		Model: openai.AudioModel(w.model),
	}
	if w.language != AutoLanguage {
		params.Language = openai.String(w.language)
	}

	resp, err := w.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ErrNoSpeech
	}
	return text, nil
}
