// Package hotkey watches a global modifier-key chord and reports when it
// is pressed and released.
package hotkey

import (
	"fmt"
	"strings"
)

// Modifiers is a set of modifier keys, independent of side.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModCtrl
	ModAlt
	ModMeta
)

// DefaultChord is the chord used when none is configured.
const DefaultChord = "ctrl+alt"

var modifierNames = map[string]Modifiers{
	"shift":   ModShift,
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"alt":     ModAlt,
	"option":  ModAlt,
	"opt":     ModAlt,
	"meta":    ModMeta,
	"cmd":     ModMeta,
	"command": ModMeta,
	"super":   ModMeta,
	"win":     ModMeta,
}

// ParseChord parses a chord such as "ctrl+alt" or "Cmd + Shift".
func ParseChord(s string) (Modifiers, error) {
	var m Modifiers
	for part := range strings.SplitSeq(s, "+") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		mod, ok := modifierNames[name]
		if !ok {
			return 0, fmt.Errorf("hotkey: unknown modifier %q", part)
		}
		m |= mod
	}
	if m == 0 {
		return 0, fmt.Errorf("hotkey: chord %q has no modifiers", s)
	}
	return m, nil
}

// Has reports whether every modifier in want is in m.
func (m Modifiers) Has(want Modifiers) bool {
	return m&want == want
}

func (m Modifiers) String() string {
	if m == 0 {
		return "none"
	}
	var parts []string
	for _, x := range []struct {
		mod  Modifiers
		name string
	}{
		{ModCtrl, "ctrl"},
		{ModAlt, "alt"},
		{ModShift, "shift"},
		{ModMeta, "meta"},
	} {
		if m&x.mod != 0 {
			parts = append(parts, x.name)
		}
	}
	return strings.Join(parts, "+")
}

// physical keys, one bit per side.
type keyBits uint8

const (
	keyShiftL keyBits = 1 << iota
	keyShiftR
	keyCtrlL
	keyCtrlR
	keyAltL
	keyAltR
	keyMetaL
	keyMetaR
)

// Virtual key codes reported by the hook for modifier keys.
var keycodeBits = map[uint16]keyBits{
	0x002A: keyShiftL,
	0x0036: keyShiftR,
	0x001D: keyCtrlL,
	0x0E1D: keyCtrlR,
	0x0038: keyAltL,
	0x0E38: keyAltR,
	0x0E5B: keyMetaL,
	0x0E5C: keyMetaR,
}

func (k keyBits) modifiers() Modifiers {
	var m Modifiers
	if k&(keyShiftL|keyShiftR) != 0 {
		m |= ModShift
	}
	if k&(keyCtrlL|keyCtrlR) != 0 {
		m |= ModCtrl
	}
	if k&(keyAltL|keyAltR) != 0 {
		m |= ModAlt
	}
	if k&(keyMetaL|keyMetaR) != 0 {
		m |= ModMeta
	}
	return m
}
