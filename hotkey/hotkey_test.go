package hotkey

import (
	"errors"
	"sync"
	"testing"
	"time"
)

const (
	codeShiftL = 0x002A
	codeCtrlL  = 0x001D
	codeCtrlR  = 0x0E1D
	codeAltL   = 0x0038
	codeA      = 0x001E
)

// fakeHook feeds events from the test into the watcher.
type fakeHook struct {
	mu         sync.Mutex
	ch         chan KeyEvent
	installs   int
	installErr error
}

func (f *fakeHook) Install() (<-chan KeyEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.installErr != nil {
		return nil, f.installErr
	}
	f.installs++
	f.ch = make(chan KeyEvent, 16)
	return f.ch, nil
}

func (f *fakeHook) Uninstall() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ch != nil {
		close(f.ch)
		f.ch = nil
	}
}

func (f *fakeHook) send(ev KeyEvent) {
	f.mu.Lock()
	ch := f.ch
	f.mu.Unlock()
	ch <- ev
}

func (f *fakeHook) installCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.installs
}

func keyDown(code uint16) KeyEvent { return KeyEvent{Kind: KeyPress, Keycode: code} }
func keyUp(code uint16) KeyEvent { return KeyEvent{Kind: KeyRelease, Keycode: code} }

// recvWithin polls TryRecv until an event arrives or the timeout passes.
func recvWithin(t *testing.T, w *Watcher, d time.Duration) (Event, bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if ev, ok := w.TryRecv(); ok {
			return ev, true
		}
		time.Sleep(time.Millisecond)
	}
	return 0, false
}

func expectEvent(t *testing.T, w *Watcher, want Event) {
	t.Helper()
	got, ok := recvWithin(t, w, time.Second)
	if !ok {
		t.Fatalf("no event, want %v", want)
	}
	if got != want {
		t.Fatalf("event = %v, want %v", got, want)
	}
}

func expectNone(t *testing.T, w *Watcher) {
	t.Helper()
	if ev, ok := recvWithin(t, w, 50*time.Millisecond); ok {
		t.Fatalf("unexpected event %v", ev)
	}
}

func TestParseChord(t *testing.T) {
	tests := []struct {
		in      string
		want    Modifiers
		wantErr bool
	}{
		{"ctrl+alt", ModCtrl | ModAlt, false},
		{"Cmd + Shift", ModMeta | ModShift, false},
		{"control+option", ModCtrl | ModAlt, false},
		{"shift", ModShift, false},
		{"", 0, true},
		{"ctrl+space", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseChord(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseChord(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseChord(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDetector(t *testing.T) {
	chord := ModCtrl | ModAlt
	tests := []struct {
		name  string
		flags []Modifiers
		want  []Event
	}{
		{
			name:  "press_and_release",
			flags: []Modifiers{ModCtrl, ModCtrl | ModAlt, ModCtrl, 0},
			want:  []Event{EventStart, EventStop},
		},
		{
			name:  "repeated_snapshots_do_not_repeat_start",
			flags: []Modifiers{ModCtrl | ModAlt, ModCtrl | ModAlt, ModCtrl | ModAlt | ModShift},
			want:  []Event{EventStart},
		},
		{
			name:  "partial_chord_never_starts",
			flags: []Modifiers{ModCtrl, ModAlt, 0},
			want:  nil,
		},
		{
			name:  "two_cycles",
			flags: []Modifiers{ModCtrl | ModAlt, ModAlt, ModCtrl | ModAlt, 0},
			want:  []Event{EventStart, EventStop, EventStart, EventStop},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := detector{chord: chord}
			var got []Event
			for _, f := range tt.flags {
				if ev, ok := d.feed(f); ok {
					got = append(got, ev)
				}
			}
			if len(got) != len(tt.want) {
				t.Fatalf("events = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("event[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestWatcherChord(t *testing.T) {
	h := &fakeHook{}
	w := NewWatcher(ModCtrl|ModAlt, WithHook(h))
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer w.Stop()

	expectEvent(t, w, EventReady)

	h.send(keyDown(codeCtrlL))
	h.send(keyDown(codeA))
	expectNone(t, w)

	h.send(keyDown(codeAltL))
	expectEvent(t, w, EventStart)

	// Holding both sides and releasing one keeps the chord.
	h.send(keyDown(codeCtrlR))
	h.send(keyUp(codeCtrlL))
	expectNone(t, w)

	h.send(keyUp(codeCtrlR))
	expectEvent(t, w, EventStop)

	diag := w.Diagnostics()
	if diag.EventsSeen != 6 {
		t.Errorf("EventsSeen = %d, want 6", diag.EventsSeen)
	}
	if diag.LastFlags != ModAlt {
		t.Errorf("LastFlags = %v, want alt", diag.LastFlags)
	}
	if again := w.Diagnostics(); again.EventsSeen != 0 {
		t.Errorf("EventsSeen after read = %d, want 0", again.EventsSeen)
	}
}

func TestWatcherStartTwiceIsNoop(t *testing.T) {
	h := &fakeHook{}
	w := NewWatcher(ModShift, WithHook(h))
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := w.Start(); err != nil {
		t.Fatalf("second Start() error: %v", err)
	}
	if n := h.installCount(); n != 1 {
		t.Errorf("installs = %d, want 1", n)
	}
}

func TestWatcherRestartDropsQueuedEvents(t *testing.T) {
	h := &fakeHook{}
	w := NewWatcher(ModCtrl|ModAlt, WithHook(h))
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	expectEvent(t, w, EventReady)

	h.send(keyDown(codeCtrlL))
	h.send(keyDown(codeAltL))

	// Leave EventStart unread when the watcher stops.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		w.qmu.Lock()
		n := len(w.queue)
		w.qmu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	w.Stop()

	if err := w.Start(); err != nil {
		t.Fatalf("Start() after Stop error: %v", err)
	}
	defer w.Stop()

	expectEvent(t, w, EventReady)
	expectNone(t, w)
}

func TestWatcherStopIdempotent(t *testing.T) {
	h := &fakeHook{}
	w := NewWatcher(ModShift, WithHook(h))
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()

	if w.IsRunning() {
		t.Error("watcher still running after Stop")
	}

	// The global hook is free again.
	w2 := NewWatcher(ModShift, WithHook(&fakeHook{}))
	if err := w2.Start(); err != nil {
		t.Fatalf("Start() after Stop error: %v", err)
	}
	w2.Stop()
}

func TestWatcherExclusiveHook(t *testing.T) {
	w1 := NewWatcher(ModShift, WithHook(&fakeHook{}))
	if err := w1.Start(); err != nil {
		t.Fatal(err)
	}
	defer w1.Stop()

	w2 := NewWatcher(ModShift, WithHook(&fakeHook{}))
	if err := w2.Start(); !errors.Is(err, ErrHookBusy) {
		t.Fatalf("Start() = %v, want ErrHookBusy", err)
	}
}

func TestWatcherPermissionDenied(t *testing.T) {
	calls := 0
	probe := func() bool { calls++; return false }

	w := NewWatcher(ModShift, WithHook(&fakeHook{}), WithPermissionProbe(probe, 3, 0))
	if err := w.Start(); !errors.Is(err, ErrInputMonitoring) {
		t.Fatalf("Start() = %v, want ErrInputMonitoring", err)
	}
	if calls != 3 {
		t.Errorf("probe calls = %d, want 3", calls)
	}
}

func TestWatcherPermissionGrantedOnRetry(t *testing.T) {
	calls := 0
	probe := func() bool { calls++; return calls >= 2 }

	w := NewWatcher(ModShift, WithHook(&fakeHook{}), WithPermissionProbe(probe, 3, time.Millisecond))
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	w.Stop()
}

func TestWatcherInstallFailure(t *testing.T) {
	w := NewWatcher(ModShift, WithHook(&fakeHook{installErr: errors.New("no tap")}))
	if err := w.Start(); err == nil {
		t.Fatal("expected install error")
	}
	if w.IsRunning() {
		t.Error("watcher running after failed install")
	}

	// A failed start must not hold the global hook.
	w2 := NewWatcher(ModShift, WithHook(&fakeHook{}))
	if err := w2.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	w2.Stop()
}

func TestWatcherRecoversFromDisable(t *testing.T) {
	h := &fakeHook{}
	w := NewWatcher(ModCtrl|ModShift, WithHook(h))
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	expectEvent(t, w, EventReady)

	h.send(keyDown(codeCtrlL))
	h.send(keyDown(codeShiftL))
	expectEvent(t, w, EventStart)

	h.send(KeyEvent{Kind: HookDisabled})
	// Held keys are forgotten, so the chord ends.
	expectEvent(t, w, EventStop)

	deadline := time.Now().Add(time.Second)
	for h.installCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if n := h.installCount(); n != 2 {
		t.Fatalf("installs = %d, want 2", n)
	}

	h.send(keyDown(codeCtrlL))
	h.send(keyDown(codeShiftL))
	expectEvent(t, w, EventStart)

	if d := w.Diagnostics(); d.Disables != 1 {
		t.Errorf("Disables = %d, want 1", d.Disables)
	}
}

func TestDispatchDropsStaleToken(t *testing.T) {
	var got []KeyEvent
	token, err := acquire(func(ev KeyEvent) { got = append(got, ev) })
	if err != nil {
		t.Fatal(err)
	}
	defer release(token)

	if dispatch(token+1, keyDown(codeCtrlL)) {
		t.Error("dispatch with stale token delivered")
	}
	if !dispatch(token, keyDown(codeCtrlL)) {
		t.Error("dispatch with current token dropped")
	}
	if len(got) != 1 {
		t.Errorf("sink got %d events, want 1", len(got))
	}
}
