package permission

import (
	"errors"
	"testing"
)

func fixed(s Status) Probe {
	return func() Status { return s }
}

func TestChain(t *testing.T) {
	tests := []struct {
		name   string
		probes []Probe
		want   Status
	}{
		{"first_answer_wins", []Probe{fixed(Granted), fixed(Denied)}, Granted},
		{"falls_through_unsupported", []Probe{fixed(Unsupported), fixed(Denied)}, Denied},
		{"not_determined_is_an_answer", []Probe{fixed(NotDetermined), fixed(Granted)}, NotDetermined},
		{"all_unsupported", []Probe{fixed(Unsupported), fixed(Unsupported)}, Unsupported},
		{"empty", nil, Unsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Chain(tt.probes...)(); got != tt.want {
				t.Errorf("Chain() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatusAllowed(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{Granted, true},
		{Unsupported, true},
		{Denied, false},
		{NotDetermined, false},
	}
	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			if got := tt.status.Allowed(); got != tt.want {
				t.Errorf("Allowed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSystem(t *testing.T) {
	requested := 0
	var opened string
	s := &System{
		probes:   map[Capability]Probe{Accessibility: fixed(Denied)},
		requests: map[Capability]func(){Accessibility: func() { requested++ }},
		panes:    map[Capability]string{Accessibility: "settings://a11y"},
		openURL:  func(u string) error { opened = u; return nil },
	}

	if got := s.Status(Accessibility); got != Denied {
		t.Errorf("Status(Accessibility) = %v, want denied", got)
	}
	if got := s.Status(Microphone); got != Unsupported {
		t.Errorf("Status(Microphone) = %v, want unsupported", got)
	}

	s.Request(Accessibility)
	s.Request(Microphone)
	if requested != 1 {
		t.Errorf("requests = %d, want 1", requested)
	}

	if err := s.OpenSettings(Accessibility); err != nil || opened != "settings://a11y" {
		t.Errorf("OpenSettings() = %v, opened %q", err, opened)
	}
	if err := s.OpenSettings(Microphone); !errors.Is(err, ErrNoSettingsPane) {
		t.Errorf("OpenSettings(Microphone) = %v, want ErrNoSettingsPane", err)
	}

	report := s.Report()
	if len(report) != len(Capabilities) || report[Accessibility] != Denied {
		t.Errorf("Report() = %v", report)
	}
}
