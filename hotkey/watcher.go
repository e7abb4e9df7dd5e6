package hotkey

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrInputMonitoring is returned when the process may not observe global
// keyboard events.
var ErrInputMonitoring = errors.New("hotkey: input monitoring permission denied")

// KeyKind classifies a raw hook event.
type KeyKind int

const (
	KeyPress KeyKind = iota
	KeyRelease
	// HookDisabled means the OS turned the hook off. The watcher re-arms it.
	HookDisabled
	// keyReset clears held state. Only the watcher produces it.
	keyReset
)

// KeyEvent is a raw event from the hook backend.
type KeyEvent struct {
	Kind    KeyKind
	Keycode uint16
}

// Hook installs and removes the process-wide keyboard hook.
type Hook interface {
	// Install starts delivering events. The channel is closed once the
	// hook is uninstalled.
	Install() (<-chan KeyEvent, error)
	Uninstall()
}

// Diagnostics are counters collected by the pump. Reading them through
// Watcher.Diagnostics resets the counts.
type Diagnostics struct {
	EventsSeen uint64
	Disables   uint64
	LastFlags  Modifiers
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithHook replaces the default gohook backend.
func WithHook(h Hook) Option {
	return func(w *Watcher) { w.hook = h }
}

// WithPermissionProbe sets the input-monitoring check run by Start.
// A denied probe is retried attempts times, delay apart.
func WithPermissionProbe(probe func() bool, attempts int, delay time.Duration) Option {
	return func(w *Watcher) {
		w.probe = probe
		w.probeAttempts = max(attempts, 1)
		w.probeDelay = delay
	}
}

// Watcher delivers chord transitions from a global keyboard hook.
type Watcher struct {
	chord Modifiers
	hook  Hook

	probe         func() bool
	probeAttempts int
	probeDelay    time.Duration

	mu      sync.Mutex
	running bool
	token   uint64
	quit    chan struct{}
	done    chan struct{}

	qmu   sync.Mutex
	queue []Event

	// Touched only by the pump goroutine.
	held     keyBits
	detector detector

	eventsSeen atomic.Uint64
	disables   atomic.Uint64
	lastFlags  atomic.Uint32
}

// NewWatcher creates a Watcher for chord. It does nothing until Start.
func NewWatcher(chord Modifiers, opts ...Option) *Watcher {
	w := &Watcher{
		chord:         chord,
		probe:         func() bool { return true },
		probeAttempts: 1,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.hook == nil {
		w.hook = NewGoHook()
	}
	return w
}

// Chord returns the watched modifiers.
func (w *Watcher) Chord() Modifiers { return w.chord }

// Start installs the hook from a pump goroutine and returns once it is
// live. Events left from a previous session are dropped and EventReady is
// queued on success. Start on a running watcher is a
// no-op.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	if !w.checkPermission() {
		return ErrInputMonitoring
	}

	token, err := acquire(w.handle)
	if err != nil {
		return err
	}

	w.held = 0
	w.detector = detector{chord: w.chord}
	w.quit = make(chan struct{})
	w.done = make(chan struct{})

	ready := make(chan error, 1)
	go w.pump(token, ready)

	if err := <-ready; err != nil {
		<-w.done
		release(token)
		return fmt.Errorf("install keyboard hook: %w", err)
	}

	w.token = token
	w.running = true
	w.qmu.Lock()
	w.queue = nil
	w.qmu.Unlock()
	w.push(EventReady)
	slog.Info("hotkey watcher started", "chord", w.chord)
	return nil
}

// Stop removes the hook and waits for the pump to exit. Safe to call more
// than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	close(w.quit)
	<-w.done
	release(w.token)

	w.running = false
	w.token = 0
	slog.Info("hotkey watcher stopped")
}

// IsRunning reports whether the hook is installed.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// TryRecv returns the next pending event without blocking.
func (w *Watcher) TryRecv() (Event, bool) {
	w.qmu.Lock()
	defer w.qmu.Unlock()

	if len(w.queue) == 0 {
		return 0, false
	}
	ev := w.queue[0]
	w.queue = w.queue[1:]
	return ev, true
}

// Diagnostics returns counters collected since the previous call.
func (w *Watcher) Diagnostics() Diagnostics {
	return Diagnostics{
		EventsSeen: w.eventsSeen.Swap(0),
		Disables:   w.disables.Swap(0),
		LastFlags:  Modifiers(w.lastFlags.Load()),
	}
}

func (w *Watcher) checkPermission() bool {
	for i := range w.probeAttempts {
		if w.probe() {
			return true
		}
		if i < w.probeAttempts-1 && w.probeDelay > 0 {
			time.Sleep(w.probeDelay)
		}
	}
	return false
}

func (w *Watcher) push(ev Event) {
	w.qmu.Lock()
	w.queue = append(w.queue, ev)
	w.qmu.Unlock()
}

// pump owns the hook for the lifetime of one session.
func (w *Watcher) pump(token uint64, ready chan<- error) {
	defer close(w.done)

	events, err := w.hook.Install()
	if err != nil {
		ready <- err
		return
	}
	ready <- nil

	for {
		select {
		case <-w.quit:
			w.hook.Uninstall()
			return
		case ev, ok := <-events:
			if ok && ev.Kind != HookDisabled {
				dispatch(token, ev)
				continue
			}

			// The OS disabled the hook or it went away. Forget held keys
			// and put it back.
			w.disables.Add(1)
			dispatch(token, KeyEvent{Kind: keyReset})
			slog.Warn("keyboard hook disabled, reinstalling")

			w.hook.Uninstall()
			events, err = w.hook.Install()
			if err != nil {
				slog.Error("reinstall keyboard hook", "error", err)
				<-w.quit
				return
			}
		}
	}
}

// handle runs on the pump goroutine.
func (w *Watcher) handle(ev KeyEvent) {
	switch ev.Kind {
	case keyReset:
		w.held = 0
	case KeyPress, KeyRelease:
		w.eventsSeen.Add(1)
		bit, ok := keycodeBits[ev.Keycode]
		if !ok {
			return
		}
		if ev.Kind == KeyPress {
			w.held |= bit
		} else {
			w.held &^= bit
		}
	default:
		return
	}

	flags := w.held.modifiers()
	w.lastFlags.Store(uint32(flags))
	if out, ok := w.detector.feed(flags); ok {
		w.push(out)
	}
}
