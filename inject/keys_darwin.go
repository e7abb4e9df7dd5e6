//go:build darwin

package inject

/*
#cgo LDFLAGS: -framework ApplicationServices -framework CoreFoundation
#include <ApplicationServices/ApplicationServices.h>

static int postUnicode(const UniChar *chars, int count) {
	CGEventSourceRef source = CGEventSourceCreate(kCGEventSourceStateHIDSystemState);
	CGEventRef down = CGEventCreateKeyboardEvent(source, 0, true);
	CGEventRef up = CGEventCreateKeyboardEvent(source, 0, false);
	int ok = down != NULL && up != NULL;
	if (ok) {
		CGEventKeyboardSetUnicodeString(down, count, chars);
		CGEventKeyboardSetUnicodeString(up, count, chars);
		CGEventPost(kCGHIDEventTap, down);
		CGEventPost(kCGHIDEventTap, up);
	}
	if (down) CFRelease(down);
	if (up) CFRelease(up);
	if (source) CFRelease(source);
	return ok;
}
*/
import "C"

import (
	"errors"
	"runtime"
	"unicode/utf16"
	"unsafe"
)

// Events carry at most this many UTF-16 units.
const maxUnitsPerEvent = 20

// KeyTyper posts keyboard events carrying Unicode strings. It never
// touches the clipboard.
type KeyTyper struct{}

// NewKeyTyper returns the key-event Typer.
func NewKeyTyper() *KeyTyper { return &KeyTyper{} }

func (KeyTyper) Type(text string) error {
	units := utf16.Encode([]rune(normalizeNewlines(text, runtime.GOOS, true)))
	for start := 0; start < len(units); start += maxUnitsPerEvent {
		end := min(start+maxUnitsPerEvent, len(units))
		chunk := units[start:end]
		if C.postUnicode((*C.UniChar)(unsafe.Pointer(&chunk[0])), C.int(len(chunk))) == 0 {
			return errors.New("inject: create keyboard event")
		}
	}
	return nil
}
