package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/wailsapp/wails/v3/pkg/application"

	"go.aimuz.me/voxkey/config"
	"go.aimuz.me/voxkey/internal/app"
	"go.aimuz.me/voxkey/internal/types"
	"go.aimuz.me/voxkey/permission"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	// Global flags
	configFile string
	logLevel   string
	noColor    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "voxkey",
		Short: "Push-to-talk dictation",
		Long: `voxkey records the microphone while a modifier chord is held,
transcribes the recording with whisper.cpp and types the text into the
focused application.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging()
		},
		RunE: runApp,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config file (default: user config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored log output")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(modelCmd())
	rootCmd.AddCommand(doctorCmd())
	rootCmd.AddCommand(transcribeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	})))
	return nil
}

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.LoadFile(configFile)
	}
	return config.Load()
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the tray application (default)",
		Args:  cobra.NoArgs,
		RunE:  runApp,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Tray Application
// ─────────────────────────────────────────────────────────────────────────────

func runApp(cmd *cobra.Command, args []string) error {
	slog.Info("starting app", "version", version, "commit", commit, "date", date)

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	appService := app.New(version, cfg)

	wailsApp := application.New(application.Options{
		Name:        "voxkey",
		Description: "Push-to-talk dictation",
		Services: []application.Service{
			application.NewService(appService),
		},
		Mac: application.MacOptions{
			// Tray only: no Dock icon, keep running without windows
			ActivationPolicy: application.ActivationPolicyAccessory,
			ApplicationShouldTerminateAfterLastWindowClosed: false,
		},
	})

	if err := appService.Init(wailsApp); err != nil {
		return fmt.Errorf("init app: %w", err)
	}

	systemTray := wailsApp.SystemTray.New()
	systemTray.SetLabel(trayLabel(appService.Status()))
	appService.OnStatus(func(st types.DictationStatus) {
		systemTray.SetLabel(trayLabel(st))
	})

	trayMenu := wailsApp.NewMenu()

	enabled := trayMenu.AddCheckbox("Enable dictation", cfg.Dictation.Enabled)
	enabled.OnClick(func(ctx *application.Context) {
		if err := appService.SetEnabled(enabled.Checked()); err != nil {
			slog.Error("toggle dictation", "error", err)
		}
		systemTray.SetLabel(trayLabel(appService.Status()))
	})

	trayMenu.Add("Download model").OnClick(func(ctx *application.Context) {
		if err := appService.SetupModel(); err != nil {
			slog.Error("setup model", "error", err)
		}
	})

	permMenu := trayMenu.AddSubmenu("Permissions")
	for _, c := range permission.Capabilities {
		name := c.String()
		permMenu.Add(name).OnClick(func(ctx *application.Context) {
			if err := appService.OpenPermissionSettings(name); err != nil {
				slog.Error("open permission settings", "capability", name, "error", err)
			}
		})
	}

	trayMenu.AddSeparator()
	trayMenu.Add("Quit").
		SetAccelerator("CmdOrCtrl+Q").
		OnClick(func(ctx *application.Context) {
			appService.Shutdown()
			wailsApp.Quit()
		})

	systemTray.SetMenu(trayMenu)

	if err := wailsApp.Run(); err != nil {
		return fmt.Errorf("run app: %w", err)
	}
	return nil
}

func trayLabel(st types.DictationStatus) string {
	switch {
	case !st.Available:
		return "voxkey (no model)"
	case !st.Enabled:
		return "voxkey (off)"
	case st.State == "recording":
		return "voxkey ● rec"
	case st.State == "transcribing":
		return "voxkey …"
	default:
		return "voxkey"
	}
}
