package overlay

import (
	"errors"
	"testing"
)

type fakeSurface struct {
	colours []Colour
	closed  bool
}

func (s *fakeSurface) SetColour(c Colour) { s.colours = append(s.colours, c) }
func (s *fakeSurface) Close()             { s.closed = true }

type fakeFactory struct {
	created []*fakeSurface
	err     error
}

func (f *fakeFactory) create(c Colour) (Surface, error) {
	if f.err != nil {
		return nil, f.err
	}
	s := &fakeSurface{colours: []Colour{c}}
	f.created = append(f.created, s)
	return s, nil
}

func TestOverlayLifecycle(t *testing.T) {
	f := &fakeFactory{}
	o := New(f.create)

	if o.IsVisible() {
		t.Fatal("new overlay should be hidden")
	}

	if err := o.Show(); err != nil {
		t.Fatal(err)
	}
	if !o.IsVisible() || o.Mode() != ModeRecording {
		t.Fatalf("visible=%v mode=%v after Show", o.IsVisible(), o.Mode())
	}

	// Showing again reuses the surface.
	if err := o.ShowWithMode(ModeTranscribing); err != nil {
		t.Fatal(err)
	}
	if len(f.created) != 1 {
		t.Fatalf("created %d surfaces, want 1", len(f.created))
	}
	s := f.created[0]
	if got := s.colours[len(s.colours)-1]; got != ModeTranscribing.Colour() {
		t.Errorf("colour = %+v, want transcribing", got)
	}

	o.Hide()
	if o.IsVisible() || !s.closed {
		t.Fatal("Hide should close the surface")
	}

	if err := o.ShowWithMode(ModeTranscribing); err != nil {
		t.Fatal(err)
	}
	if len(f.created) != 2 {
		t.Errorf("created %d surfaces after re-show, want 2", len(f.created))
	}
}

func TestOverlaySetModeOnlyWhenVisible(t *testing.T) {
	f := &fakeFactory{}
	o := New(f.create)

	o.SetMode(ModeTranscribing)
	if len(f.created) != 0 || o.IsVisible() {
		t.Fatal("SetMode on hidden overlay must not show it")
	}

	if err := o.Show(); err != nil {
		t.Fatal(err)
	}
	o.SetMode(ModeTranscribing)
	s := f.created[0]
	if len(s.colours) != 2 || s.colours[1] != ModeTranscribing.Colour() {
		t.Errorf("colours = %+v", s.colours)
	}
	if o.Mode() != ModeTranscribing {
		t.Errorf("Mode() = %v", o.Mode())
	}
}

func TestOverlayFactoryError(t *testing.T) {
	o := New((&fakeFactory{err: errors.New("no screen")}).create)
	if err := o.Show(); err == nil {
		t.Fatal("expected error")
	}
	if o.IsVisible() {
		t.Error("overlay should stay hidden on error")
	}
	o.Hide()
}

func TestModeColours(t *testing.T) {
	tests := []struct {
		mode Mode
		want Colour
	}{
		{ModeRecording, Colour{230, 51, 51, 242}},
		{ModeTranscribing, Colour{255, 153, 0, 242}},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			if got := tt.mode.Colour(); got != tt.want {
				t.Errorf("Colour() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
