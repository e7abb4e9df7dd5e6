//go:build !darwin

package inject

// KeyTyper is unavailable here; the Injector falls back to pasting.
type KeyTyper struct{}

// NewKeyTyper returns the key-event Typer.
func NewKeyTyper() *KeyTyper { return &KeyTyper{} }

func (KeyTyper) Type(string) error { return ErrUnsupported }
