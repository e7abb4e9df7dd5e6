package inject

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/micmonay/keybd_event"

	"go.aimuz.me/voxkey/clipboard"
)

// DefaultRestoreDelay is how long pasted text stays on the clipboard.
const DefaultRestoreDelay = 150 * time.Millisecond

// settleDelay lets the clipboard owner publish new content before the
// paste chord arrives.
const settleDelay = 50 * time.Millisecond

// Paster writes text to the clipboard, presses the paste chord and puts
// the previous clipboard content back after a delay.
type Paster struct {
	restoreDelay time.Duration

	// Replaced in tests.
	getClipboard func() (string, error)
	setClipboard func(string) error
	pressPaste   func() error

	mu sync.Mutex
	kb *keybd_event.KeyBonding
}

// NewPaster returns a clipboard-paste Typer.
func NewPaster(restoreDelay time.Duration) *Paster {
	p := &Paster{
		restoreDelay: restoreDelay,
		getClipboard: clipboard.GetText,
		setClipboard: clipboard.SetText,
	}
	p.pressPaste = p.sendPasteChord
	return p
}

func (p *Paster) Type(text string) error {
	previous, err := p.getClipboard()
	restore := err == nil
	if err != nil {
		slog.Warn("read clipboard before paste", "error", err)
	}

	if err := p.setClipboard(normalizeNewlines(text, runtime.GOOS, false)); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}
	time.Sleep(settleDelay)

	if err := p.pressPaste(); err != nil {
		return fmt.Errorf("send paste: %w", err)
	}

	if !restore {
		return nil
	}
	time.AfterFunc(p.restoreDelay, func() {
		if err := p.setClipboard(previous); err != nil {
			slog.Warn("restore clipboard", "error", err)
		}
	})
	return nil
}

func (p *Paster) sendPasteChord() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.kb == nil {
		kb, err := keybd_event.NewKeyBonding()
		if err != nil {
			return err
		}
		p.kb = &kb
	}

	p.kb.Clear()
	if runtime.GOOS == "darwin" {
		p.kb.HasSuper(true)
	} else {
		p.kb.HasCTRL(true)
	}
	p.kb.SetKeys(keybd_event.VK_V)
	return p.kb.Launching()
}
