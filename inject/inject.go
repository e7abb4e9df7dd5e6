// Package inject delivers text to the focused application as if typed.
package inject

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var (
	// ErrPermission is returned when the process may not post input events.
	ErrPermission = errors.New("inject: accessibility permission required")

	// ErrUnsupported is returned by a Typer that cannot run on this platform.
	ErrUnsupported = errors.New("inject: not supported on this platform")
)

// Typer delivers text to the focused application.
type Typer interface {
	Type(text string) error
}

// Injector types text through a primary Typer and falls back to a second
// one when the primary is unsupported.
type Injector struct {
	trusted  func() bool
	primary  Typer
	fallback Typer
}

// Option configures an Injector.
type Option func(*Injector)

// WithTrustCheck sets the accessibility check run before every injection.
func WithTrustCheck(trusted func() bool) Option {
	return func(i *Injector) { i.trusted = trusted }
}

// WithPrimary replaces the primary Typer.
func WithPrimary(t Typer) Option {
	return func(i *Injector) { i.primary = t }
}

// WithFallback replaces the fallback Typer. nil disables the fallback.
func WithFallback(t Typer) Option {
	return func(i *Injector) { i.fallback = t }
}

// New returns an Injector that synthesises key events and falls back to
// clipboard paste.
func New(opts ...Option) *Injector {
	i := &Injector{
		trusted:  func() bool { return true },
		primary:  NewKeyTyper(),
		fallback: NewPaster(DefaultRestoreDelay),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Inject types text into the focused application. Empty text is a no-op.
func (i *Injector) Inject(text string) error {
	if text == "" {
		return nil
	}
	if !i.trusted() {
		return ErrPermission
	}

	err := i.primary.Type(text)
	if errors.Is(err, ErrUnsupported) && i.fallback != nil {
		slog.Debug("key injection unsupported, pasting instead")
		err = i.fallback.Type(text)
	}
	if err != nil {
		return fmt.Errorf("inject text: %w", err)
	}
	return nil
}

// normalizeNewlines rewrites line breaks for the target platform.
// Key events want a carriage return; Windows text wants CRLF.
func normalizeNewlines(text, goos string, keyEvents bool) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	switch {
	case keyEvents:
		return strings.ReplaceAll(text, "\n", "\r")
	case goos == "windows":
		return strings.ReplaceAll(text, "\n", "\r\n")
	default:
		return text
	}
}
