package app

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.aimuz.me/voxkey/config"
	"go.aimuz.me/voxkey/inject"
	"go.aimuz.me/voxkey/internal/types"
	"go.aimuz.me/voxkey/permission"
)

func TestLoop(t *testing.T) {
	var ticks atomic.Int32
	l := NewLoop(time.Millisecond, func() { ticks.Add(1) })

	if err := l.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := l.Start(); err == nil {
		t.Error("second Start() should fail")
	}
	if !l.Running() {
		t.Error("Running() = false after Start")
	}

	deadline := time.Now().Add(2 * time.Second)
	for ticks.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if ticks.Load() < 3 {
		t.Fatalf("ticks = %d, want at least 3", ticks.Load())
	}

	l.Stop()
	l.Stop()
	if l.Running() {
		t.Error("Running() = true after Stop")
	}

	after := ticks.Load()
	time.Sleep(10 * time.Millisecond)
	if got := ticks.Load(); got != after {
		t.Errorf("ticked %d times after Stop", got-after)
	}
}

func TestLoopRejectsZeroInterval(t *testing.T) {
	if err := NewLoop(0, func() {}).Start(); err == nil {
		t.Error("expected error for zero interval")
	}
}

func TestNewEngines(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.TranscriptionConfig
		wantName  string
		wantReady bool
		wantErr   bool
	}{
		{
			name:     "whisper_cli",
			cfg:      config.TranscriptionConfig{Engine: config.EngineWhisperCLI, ModelSize: "base"},
			wantName: "whisper-cli",
		},
		{
			name:      "whisper_api",
			cfg:       config.TranscriptionConfig{Engine: config.EngineWhisperAPI, APIKey: "sk-test"},
			wantName:  "whisper-api",
			wantReady: true,
		},
		{
			name:    "unknown_engine",
			cfg:     config.TranscriptionConfig{Engine: "vosk", ModelSize: "base"},
			wantErr: true,
		},
		{
			name:    "bad_extra_args",
			cfg:     config.TranscriptionConfig{Engine: config.EngineWhisperCLI, ModelSize: "base", ExtraArgs: `"open`},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.ModelDir = t.TempDir()
			reg, engine, err := NewEngines(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewEngines() error: %v", err)
			}
			if engine.Name() != tt.wantName {
				t.Errorf("engine = %q, want %q", engine.Name(), tt.wantName)
			}
			if len(reg.List()) != 2 {
				t.Errorf("registered %d engines, want 2", len(reg.List()))
			}
			if tt.wantReady && !engine.IsAvailable() {
				t.Error("engine should be available")
			}
		})
	}
}

func TestEngineInfo(t *testing.T) {
	reg, _, err := NewEngines(config.TranscriptionConfig{
		Engine:    config.EngineWhisperCLI,
		ModelSize: "base",
		ModelDir:  t.TempDir(),
		APIKey:    "sk-test",
	})
	if err != nil {
		t.Fatal(err)
	}

	api := engineInfo(reg.Get("whisper-api"))
	if api.IsLocal || !api.IsReady || api.Model != "whisper-1" || api.SetupProgress != 100 {
		t.Errorf("whisper-api info = %+v", api)
	}

	cli := engineInfo(reg.Get("whisper-cli"))
	if !cli.IsLocal {
		t.Errorf("whisper-cli info = %+v, want local", cli)
	}
}

type fakeChecker map[permission.Capability]permission.Status

func (f fakeChecker) Status(c permission.Capability) permission.Status { return f[c] }
func (f fakeChecker) Request(permission.Capability)                  {}

func TestCapabilityReport(t *testing.T) {
	report := capabilityReport(fakeChecker{
		permission.Microphone:      permission.Granted,
		permission.InputMonitoring: permission.Denied,
	})

	want := []types.CapabilityStatus{
		{Name: "microphone", Status: "granted", Allowed: true},
		{Name: "input-monitoring", Status: "denied", Allowed: false},
		{Name: "accessibility", Status: "unsupported", Allowed: true},
	}
	if len(report) != len(want) {
		t.Fatalf("report = %+v", report)
	}
	for i := range want {
		if report[i] != want[i] {
			t.Errorf("report[%d] = %+v, want %+v", i, report[i], want[i])
		}
	}
}

func TestNotifyMissing(t *testing.T) {
	var messages []string
	orig := notify
	notify = func(_, msg string) error {
		messages = append(messages, msg)
		return nil
	}
	t.Cleanup(func() { notify = orig })

	notifyMissing([]types.CapabilityStatus{{Name: "microphone", Allowed: true}})
	if len(messages) != 0 {
		t.Fatalf("notified %v with nothing missing", messages)
	}

	notifyMissing([]types.CapabilityStatus{
		{Name: "microphone", Allowed: false},
		{Name: "input-monitoring", Allowed: true},
		{Name: "accessibility", Allowed: false},
	})
	if len(messages) != 1 {
		t.Fatalf("notifications = %d, want 1", len(messages))
	}
	if !strings.Contains(messages[0], "microphone, accessibility") {
		t.Errorf("message = %q", messages[0])
	}
}

func TestInjectorOptionsTrustCheck(t *testing.T) {
	for _, strategy := range []string{config.StrategyKeys, config.StrategyPaste} {
		t.Run(strategy, func(t *testing.T) {
			cfg := config.InjectionConfig{Strategy: strategy, RestoreDelayMS: 10}
			inj := inject.New(injectorOptions(cfg, func() bool { return false })...)

			if err := inj.Inject("hi"); !errors.Is(err, inject.ErrPermission) {
				t.Errorf("Inject() error = %v, want ErrPermission", err)
			}
		})
	}
}

func TestRememberEnabledSavesOnChange(t *testing.T) {
	cfg := config.Default()
	cfg.Dictation.Enabled = false
	s := New("test", cfg)

	var (
		mu    sync.Mutex
		saves []bool
	)
	s.saveConfig = func(c *config.Config) error {
		mu.Lock()
		defer mu.Unlock()
		saves = append(saves, c.Dictation.Enabled)
		return nil
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.rememberEnabled(true)
		}()
	}
	wg.Wait()

	if len(saves) != 1 || !saves[0] {
		t.Fatalf("saves = %v, want [true]", saves)
	}

	s.rememberEnabled(true)
	s.rememberEnabled(false)
	if len(saves) != 2 || saves[1] {
		t.Errorf("saves = %v, want [true false]", saves)
	}
	if cfg.Dictation.Enabled {
		t.Error("config still enabled")
	}
}

// promptChecker flips a capability to granted once it is requested.
type promptChecker struct {
	status    map[permission.Capability]permission.Status
	requested []permission.Capability
}

func (p *promptChecker) Status(c permission.Capability) permission.Status { return p.status[c] }

func (p *promptChecker) Request(c permission.Capability) {
	p.requested = append(p.requested, c)
	p.status[c] = permission.Granted
}

func TestRequestIfUndetermined(t *testing.T) {
	tests := []struct {
		name          string
		status        permission.Status
		wantAllowed   bool
		wantRequested int
	}{
		{"not_determined", permission.NotDetermined, true, 1},
		{"denied", permission.Denied, false, 0},
		{"granted", permission.Granted, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &promptChecker{status: map[permission.Capability]permission.Status{
				permission.InputMonitoring: tt.status,
			}}
			if got := requestIfUndetermined(c, permission.InputMonitoring); got != tt.wantAllowed {
				t.Errorf("allowed = %v, want %v", got, tt.wantAllowed)
			}
			if len(c.requested) != tt.wantRequested {
				t.Errorf("requests = %v, want %d", c.requested, tt.wantRequested)
			}
		})
	}
}

func TestRequestMissing(t *testing.T) {
	c := &promptChecker{status: map[permission.Capability]permission.Status{
		permission.Accessibility: permission.Denied,
	}}
	requestMissing(c, permission.Accessibility)
	requestMissing(c, permission.Accessibility)

	if len(c.requested) != 1 || c.requested[0] != permission.Accessibility {
		t.Errorf("requests = %v, want [accessibility]", c.requested)
	}
}
