package hotkey

import (
	"sync"

	hook "github.com/robotn/gohook"
)

// GoHook is a Hook backed by github.com/robotn/gohook.
type GoHook struct {
	mu     sync.Mutex
	active bool
}

// NewGoHook returns the default hook backend.
func NewGoHook() *GoHook {
	return &GoHook{}
}

func (g *GoHook) Install() (<-chan KeyEvent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	src := hook.Start()
	g.active = true

	out := make(chan KeyEvent, 64)
	go func() {
		defer close(out)
		for ev := range src {
			switch ev.Kind {
			case hook.KeyDown, hook.KeyHold:
				out <- KeyEvent{Kind: KeyPress, Keycode: ev.Keycode}
			case hook.KeyUp:
				out <- KeyEvent{Kind: KeyRelease, Keycode: ev.Keycode}
			case hook.HookDisabled:
				out <- KeyEvent{Kind: HookDisabled}
			}
		}
	}()
	return out, nil
}

func (g *GoHook) Uninstall() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.active {
		return
	}
	hook.End()
	g.active = false
}
