// Package permission checks the OS privacy capabilities dictation needs.
package permission

import (
	"errors"
	"fmt"

	"github.com/pkg/browser"
)

// ErrNoSettingsPane is returned when the platform has no settings page for
// a capability.
var ErrNoSettingsPane = errors.New("permission: no settings pane for capability")

// Capability is an OS-gated ability.
type Capability int

const (
	Microphone Capability = iota
	InputMonitoring
	Accessibility
)

// Capabilities lists every capability in display order.
var Capabilities = []Capability{Microphone, InputMonitoring, Accessibility}

func (c Capability) String() string {
	switch c {
	case Microphone:
		return "microphone"
	case InputMonitoring:
		return "input-monitoring"
	case Accessibility:
		return "accessibility"
	default:
		return "unknown"
	}
}

// Status is the result of a capability check.
type Status int

const (
	// Unsupported means the platform cannot tell, or does not gate it.
	Unsupported Status = iota
	NotDetermined
	Denied
	Granted
)

func (s Status) String() string {
	switch s {
	case Unsupported:
		return "unsupported"
	case NotDetermined:
		return "not-determined"
	case Denied:
		return "denied"
	case Granted:
		return "granted"
	default:
		return "unknown"
	}
}

// Allowed reports whether work needing the capability may proceed.
func (s Status) Allowed() bool {
	return s == Granted || s == Unsupported
}

// Probe checks one capability one way. It returns Unsupported when its
// mechanism is not available so the next probe can be tried.
type Probe func() Status

// Chain tries probes in order and returns the first answer that is not
// Unsupported.
func Chain(probes ...Probe) Probe {
	return func() Status {
		for _, p := range probes {
			if s := p(); s != Unsupported {
				return s
			}
		}
		return Unsupported
	}
}

// Checker reports and requests capabilities.
type Checker interface {
	Status(c Capability) Status
	Request(c Capability)
}

// System is the Checker for the running platform.
type System struct {
	probes   map[Capability]Probe
	requests map[Capability]func()
	panes    map[Capability]string
	openURL  func(url string) error
}

// NewSystem returns a Checker backed by the platform's privacy APIs.
func NewSystem() *System {
	return &System{
		probes:   platformProbes(),
		requests: platformRequests(),
		panes:    settingsPanes,
		openURL:  browser.OpenURL,
	}
}

// Status checks c without prompting.
func (s *System) Status(c Capability) Status {
	if p, ok := s.probes[c]; ok {
		return p()
	}
	return Unsupported
}

// Request asks the OS to prompt for c where it can.
func (s *System) Request(c Capability) {
	if r, ok := s.requests[c]; ok {
		r()
	}
}

// OpenSettings opens the system settings page for c.
func (s *System) OpenSettings(c Capability) error {
	url, ok := s.panes[c]
	if !ok {
		return ErrNoSettingsPane
	}
	if err := s.openURL(url); err != nil {
		return fmt.Errorf("open settings: %w", err)
	}
	return nil
}

// Report returns the status of every capability.
func (s *System) Report() map[Capability]Status {
	out := make(map[Capability]Status, len(Capabilities))
	for _, c := range Capabilities {
		out[c] = s.Status(c)
	}
	return out
}
