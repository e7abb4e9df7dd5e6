package app

import (
	"context"
	"fmt"

	"go.aimuz.me/voxkey/config"
	"go.aimuz.me/voxkey/internal/types"
	"go.aimuz.me/voxkey/stt"
)

// setuper is an engine that needs a one-off download before use.
type setuper interface {
	Setup(ctx context.Context, progress func(percent int)) error
	SetupProgress() int
}

// NewEngines registers every transcription engine built from cfg and
// returns the registry together with the configured engine.
func NewEngines(cfg config.TranscriptionConfig) (*stt.Registry, stt.Engine, error) {
	reg := stt.NewRegistry()

	cli, err := stt.NewWhisperCLI(stt.WhisperCLIConfig{
		ModelSize: cfg.ModelSize,
		ModelDir:  cfg.ModelDir,
		BinPath:   cfg.BinPath,
		Threads:   cfg.Threads,
		Language:  cfg.Language,
		ExtraArgs: cfg.ExtraArgs,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init whisper-cli: %w", err)
	}
	reg.Register(cli)

	reg.Register(stt.NewWhisperAPI(stt.WhisperAPIConfig{
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
		Model:    cfg.APIModel,
		Language: cfg.Language,
	}))

	engine := reg.Get(cfg.Engine)
	if engine == nil {
		return nil, nil, fmt.Errorf("engine not found: %s", cfg.Engine)
	}
	return reg, engine, nil
}

func engineInfo(e stt.Engine) types.EngineInfo {
	info := types.EngineInfo{
		Name:          e.Name(),
		IsReady:       e.IsAvailable(),
		SetupProgress: 100,
	}
	if m, ok := e.(interface{ ModelName() string }); ok {
		info.Model = m.ModelName()
	}
	if s, ok := e.(setuper); ok {
		info.IsLocal = true
		info.SetupProgress = s.SetupProgress()
	}
	return info
}
