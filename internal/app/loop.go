package app

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Loop calls a function on a fixed interval from a single goroutine.
type Loop struct {
	interval time.Duration
	tick     func()

	mu       sync.Mutex
	stopChan chan struct{}
	done     chan struct{}
}

// NewLoop returns a stopped Loop.
func NewLoop(interval time.Duration, tick func()) *Loop {
	return &Loop{interval: interval, tick: tick}
}

// Start begins ticking.
func (l *Loop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopChan != nil {
		return errors.New("loop already running")
	}
	if l.interval <= 0 {
		return errors.New("loop interval must be positive")
	}

	l.stopChan = make(chan struct{})
	l.done = make(chan struct{})
	go l.run(l.stopChan, l.done)

	slog.Debug("dictation loop started", "interval", l.interval)
	return nil
}

func (l *Loop) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			l.tick()
		}
	}
}

// Stop halts the loop and waits for an in-flight tick to return.
func (l *Loop) Stop() {
	l.mu.Lock()
	stop, done := l.stopChan, l.done
	l.stopChan, l.done = nil, nil
	l.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
	slog.Debug("dictation loop stopped")
}

// Running reports whether the loop is ticking.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stopChan != nil
}
