package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"go.aimuz.me/voxkey/audiocapture"
	"go.aimuz.me/voxkey/internal/app"
	"go.aimuz.me/voxkey/permission"
	"go.aimuz.me/voxkey/stt"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// ─────────────────────────────────────────────────────────────────────────────
// model
// ─────────────────────────────────────────────────────────────────────────────

func modelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Manage whisper.cpp models",
	}
	cmd.AddCommand(modelDownloadCmd())
	return cmd
}

func modelDownloadCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "download [size]",
		Short: "Download a whisper.cpp model",
		Long: `Download a ggml model from Hugging Face into the models directory.

Sizes: tiny, base, small, medium, large. Defaults to the configured size.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			size := cfg.Transcription.ModelSize
			if len(args) == 1 {
				size = args[0]
			}
			if size == "" {
				size = stt.DefaultModelSize
			}
			if !stt.ValidModelSize(size) {
				return fmt.Errorf("unknown model size: %s", size)
			}

			dir := cfg.Transcription.ModelDir
			if dir == "" {
				dir = stt.ModelsDir()
			}
			dest := filepath.Join(dir, stt.ModelFileName(size))

			if _, err := os.Stat(dest); err == nil && !force {
				fmt.Fprintf(out, "Model already installed: %s\n", dest)
				return nil
			}

			ctx, cancel := signalContext()
			defer cancel()

			fmt.Fprintf(out, "Downloading %s (~%d MB) to %s\n",
				stt.ModelFileName(size), stt.ModelDownloadSize(size)>>20, dir)

			err = stt.DownloadModel(ctx, stt.ModelURL(size), dest, func(percent int) {
				fmt.Fprintf(out, "\r  %3d%%", percent)
			})
			fmt.Fprintln(out)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return errors.New("download canceled")
				}
				return err
			}

			fmt.Fprintf(out, "Installed %s\n", dest)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Download even if the model exists")
	return cmd
}

// ─────────────────────────────────────────────────────────────────────────────
// doctor
// ─────────────────────────────────────────────────────────────────────────────

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check permissions, audio input and the transcription engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			fmt.Fprintf(out, "Hotkey:      %s\n", cfg.Hotkey.Chord)

			fmt.Fprintln(out, "\nPermissions:")
			perms := permission.NewSystem()
			for _, c := range permission.Capabilities {
				fmt.Fprintf(out, "  %-18s %s\n", c, perms.Status(c))
			}

			fmt.Fprintln(out, "\nAudio input:")
			format, err := audiocapture.ParseSampleFormat(cfg.Audio.SampleFormat)
			if err != nil {
				return err
			}
			dev, err := audiocapture.NewPortAudio(format, cfg.Audio.FramesPerBuffer).DefaultInput()
			if err != nil {
				fmt.Fprintf(out, "  error: %v\n", err)
			} else {
				fmt.Fprintf(out, "  %s (%d Hz, %d ch)\n", dev.Name, dev.SampleRate, dev.Channels)
			}

			fmt.Fprintln(out, "\nTranscription engines:")
			reg, engine, err := app.NewEngines(cfg.Transcription)
			if err != nil {
				return err
			}
			for _, e := range reg.List() {
				marker := " "
				if e == engine {
					marker = "*"
				}
				fmt.Fprintf(out, " %s %-12s available=%v", marker, e.Name(), e.IsAvailable())
				if cli, ok := e.(*stt.WhisperCLI); ok {
					fmt.Fprintf(out, " binary=%q model=%q", cli.BinaryPath(), cli.ModelPath())
				}
				fmt.Fprintln(out)
			}
			if !engine.IsAvailable() {
				fmt.Fprintln(out, "\nThe active engine is not ready. Try: voxkey model download")
			}
			return nil
		},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// transcribe
// ─────────────────────────────────────────────────────────────────────────────

func transcribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transcribe <file.wav>",
		Short: "Transcribe a WAV file with the configured engine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			_, engine, err := app.NewEngines(cfg.Transcription)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			text, err := engine.Transcribe(ctx, args[0])
			if err != nil {
				return fmt.Errorf("transcribe %s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}
