package stt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/mattn/go-shellwords"
)

const whisperBinary = "whisper-cli"

// Directories where package managers put whisper.cpp models.
var sharedModelDirs = []string{
	"/opt/homebrew/share/whisper-cpp/models",
	"/usr/local/share/whisper-cpp/models",
}

// Fixed install locations checked before PATH.
var wellKnownBinaries = []string{
	"/opt/homebrew/bin/" + whisperBinary,
	"/usr/local/bin/" + whisperBinary,
}

// WhisperCLI transcribes with the whisper.cpp command-line tool.
type WhisperCLI struct {
	modelSize string
	modelDir  string
	binHint   string
	threads   int
	language  string
	extraArgs []string

	mu            sync.RWMutex
	binPath       string
	modelPath     string
	setupProgress int
}

// WhisperCLIConfig holds configuration for WhisperCLI.
type WhisperCLIConfig struct {
	ModelSize string // "tiny", "base", "small", "medium", "large"; default from WHISPER_MODEL
	ModelDir  string // Directory for downloaded models
	BinPath   string // Explicit whisper-cli path, skips the search
	Threads   int    // Default min(NumCPU, 8)
	Language  string // Language override, "auto" to detect
	ExtraArgs string // Additional arguments, shell quoted
}

// NewWhisperCLI creates the engine and locates its tool and model.
func NewWhisperCLI(cfg WhisperCLIConfig) (*WhisperCLI, error) {
	if cfg.ModelSize == "" {
		cfg.ModelSize = os.Getenv("WHISPER_MODEL")
	}
	if cfg.ModelSize == "" {
		cfg.ModelSize = DefaultModelSize
	}
	if !ValidModelSize(cfg.ModelSize) {
		return nil, fmt.Errorf("invalid model size: %s", cfg.ModelSize)
	}
	if cfg.ModelDir == "" {
		cfg.ModelDir = ModelsDir()
	}
	if cfg.Threads <= 0 {
		cfg.Threads = min(runtime.NumCPU(), 8)
	}

	extra, err := shellwords.Parse(cfg.ExtraArgs)
	if err != nil {
		return nil, fmt.Errorf("parse extra args: %w", err)
	}

	w := &WhisperCLI{
		modelSize:     cfg.ModelSize,
		modelDir:      cfg.ModelDir,
		binHint:       cfg.BinPath,
		threads:       cfg.Threads,
		language:      ResolveLanguage(cfg.Language),
		extraArgs:     extra,
		setupProgress: -1,
	}
	w.Refresh()
	return w, nil
}

func (w *WhisperCLI) Name() string { return "whisper-cli" }

// IsAvailable reports whether both the tool and a model were found.
func (w *WhisperCLI) IsAvailable() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.binPath != "" && w.modelPath != ""
}

// HasBinary reports whether the whisper-cli tool was found.
func (w *WhisperCLI) HasBinary() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.binPath != ""
}

// BinaryPath returns the located tool, or "".
func (w *WhisperCLI) BinaryPath() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.binPath
}

// ModelPath returns the located model file, or "".
func (w *WhisperCLI) ModelPath() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.modelPath
}

// ModelName returns the file name of the model in use, or the configured
// size when none was found.
func (w *WhisperCLI) ModelName() string {
	if p := w.ModelPath(); p != "" {
		return filepath.Base(p)
	}
	return w.modelSize
}

// ModelSize returns the configured model size.
func (w *WhisperCLI) ModelSize() string { return w.modelSize }

// Language returns the language passed to the tool.
func (w *WhisperCLI) Language() string { return w.language }

// SetupProgress returns the download progress (0-100), -1 if not started.
func (w *WhisperCLI) SetupProgress() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.setupProgress
}

// Refresh searches again for the tool and the model.
func (w *WhisperCLI) Refresh() {
	bin := w.findBinary()
	model := w.findModel()

	w.mu.Lock()
	w.binPath = bin
	w.modelPath = model
	if model != "" && w.setupProgress < 0 {
		w.setupProgress = 100
	}
	w.mu.Unlock()
}

// Setup downloads the configured model into the models directory.
func (w *WhisperCLI) Setup(ctx context.Context, progress func(percent int)) error {
	dest := filepath.Join(w.modelDir, ModelFileName(w.modelSize))
	if _, err := os.Stat(dest); err == nil {
		w.Refresh()
		return nil
	}

	w.mu.Lock()
	w.setupProgress = 0
	w.mu.Unlock()

	err := DownloadModel(ctx, ModelURL(w.modelSize), dest, func(pct int) {
		w.mu.Lock()
		w.setupProgress = pct
		w.mu.Unlock()
		if progress != nil {
			progress(pct)
		}
	})
	if err != nil {
		w.mu.Lock()
		w.setupProgress = -1
		w.mu.Unlock()
		return fmt.Errorf("download model: %w", err)
	}

	w.mu.Lock()
	w.setupProgress = 100
	w.mu.Unlock()
	w.Refresh()

	slog.Info("whisper model installed", "path", dest)
	return nil
}

// Transcribe runs whisper-cli on audioPath. The process is not killed if
// ctx ends while it runs; its output is discarded instead.
func (w *WhisperCLI) Transcribe(ctx context.Context, audioPath string) (string, error) {
	w.mu.RLock()
	bin, model := w.binPath, w.modelPath
	w.mu.RUnlock()

	if bin == "" || model == "" {
		return "", ErrNotAvailable
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	cmd := exec.Command(bin, w.args(model, audioPath)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return "", newToolError(whisperBinary, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("run %s: %w", whisperBinary, runErr)
	}

	text := cleanText(stdout.String())
	if text == "" {
		return "", ErrNoSpeech
	}
	return text, nil
}

func (w *WhisperCLI) args(model, audioPath string) []string {
	args := []string{
		"-m", model,
		"-f", audioPath,
		"-t", strconv.Itoa(w.threads),
		"--no-timestamps",
		"--suppress-nst",
		"-l", w.language,
	}
	return append(args, w.extraArgs...)
}

func (w *WhisperCLI) findBinary() string {
	if w.binHint != "" {
		if isFile(w.binHint) {
			return w.binHint
		}
		return ""
	}

	var candidates []string
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "..", "Resources", whisperBinary))
	}
	candidates = append(candidates, wellKnownBinaries...)

	for _, c := range candidates {
		if isFile(c) {
			return c
		}
	}
	if p, err := exec.LookPath(whisperBinary); err == nil {
		return p
	}
	return ""
}

// findModel prefers the configured size over the base fallback, and the
// app's own models over shared ones. Shared directories may hold a
// quantized variant, which is preferred there.
func (w *WhisperCLI) findModel() string {
	sizes := []string{w.modelSize}
	if w.modelSize != fallbackModelSize {
		sizes = append(sizes, fallbackModelSize)
	}

	for _, size := range sizes {
		if p := filepath.Join(w.modelDir, ModelFileName(size)); isFile(p) {
			return p
		}
		for _, dir := range sharedModelDirs {
			quantized := filepath.Join(dir, "ggml-"+size+"-q5_0.bin")
			if isFile(quantized) {
				return quantized
			}
			if p := filepath.Join(dir, ModelFileName(size)); isFile(p) {
				return p
			}
		}
	}
	return ""
}

func isFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}
