// Package overlay shows a thin coloured strip while dictation is active.
package overlay

import (
	"fmt"
	"sync"
)

// Mode selects the strip colour.
type Mode int

const (
	ModeRecording Mode = iota
	ModeTranscribing
)

func (m Mode) String() string {
	switch m {
	case ModeRecording:
		return "recording"
	case ModeTranscribing:
		return "transcribing"
	default:
		return "unknown"
	}
}

// Colour is an 8-bit RGBA colour.
type Colour struct {
	R, G, B, A uint8
}

// Colour returns the strip colour for m.
func (m Mode) Colour() Colour {
	if m == ModeTranscribing {
		return Colour{R: 255, G: 153, B: 0, A: 242}
	}
	return Colour{R: 230, G: 51, B: 51, A: 242}
}

// Surface is an on-screen strip.
type Surface interface {
	SetColour(c Colour)
	Close()
}

// SurfaceFactory creates a visible surface in the given colour.
type SurfaceFactory func(c Colour) (Surface, error)

// Overlay owns at most one surface. The surface is created on the first
// show after a hide and destroyed by Hide.
type Overlay struct {
	factory SurfaceFactory

	mu      sync.Mutex
	surface Surface
	visible bool
	mode    Mode
}

// New returns a hidden overlay that creates surfaces with factory.
func New(factory SurfaceFactory) *Overlay {
	return &Overlay{factory: factory}
}

// Show displays the overlay in recording mode.
func (o *Overlay) Show() error {
	return o.ShowWithMode(ModeRecording)
}

// ShowWithMode displays the overlay in mode, creating the surface if needed.
func (o *Overlay) ShowWithMode(mode Mode) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.surface == nil {
		s, err := o.factory(mode.Colour())
		if err != nil {
			return fmt.Errorf("create overlay surface: %w", err)
		}
		o.surface = s
	} else {
		o.surface.SetColour(mode.Colour())
	}
	o.visible = true
	o.mode = mode
	return nil
}

// SetMode recolours the overlay if it is visible.
func (o *Overlay) SetMode(mode Mode) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.visible {
		return
	}
	o.surface.SetColour(mode.Colour())
	o.mode = mode
}

// Hide removes the surface. Hiding a hidden overlay does nothing.
func (o *Overlay) Hide() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.surface != nil {
		o.surface.Close()
		o.surface = nil
	}
	o.visible = false
}

// IsVisible reports whether the overlay is on screen.
func (o *Overlay) IsVisible() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.visible
}

// Mode returns the mode last shown.
func (o *Overlay) Mode() Mode {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mode
}
