package hotkey

import (
	"errors"
	"sync"
)

// ErrHookBusy is returned when another watcher owns the global hook.
var ErrHookBusy = errors.New("hotkey: global hook already in use")

// The OS hook is process-wide, so at most one watcher session receives
// events. A session is identified by a token handed out by acquire; events
// carrying any other token are dropped.
var registry struct {
	mu    sync.Mutex
	next  uint64
	token uint64
	sink  func(KeyEvent)
}

func acquire(sink func(KeyEvent)) (uint64, error) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if registry.token != 0 {
		return 0, ErrHookBusy
	}
	registry.next++
	registry.token = registry.next
	registry.sink = sink
	return registry.token, nil
}

func release(token uint64) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if registry.token != token {
		return
	}
	registry.token = 0
	registry.sink = nil
}

func dispatch(token uint64, ev KeyEvent) bool {
	registry.mu.Lock()
	sink := registry.sink
	current := registry.token
	registry.mu.Unlock()

	if sink == nil || current != token {
		return false
	}
	sink(ev)
	return true
}
