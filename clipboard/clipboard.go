// Package clipboard reads and writes plain text on the system clipboard.
package clipboard

import "sync"

var clipboardLock sync.Mutex

// GetText returns the clipboard's text content.
func GetText() (string, error) {
	clipboardLock.Lock()
	defer clipboardLock.Unlock()
	return getText()
}

// SetText replaces the clipboard content with text.
func SetText(text string) error {
	clipboardLock.Lock()
	defer clipboardLock.Unlock()
	return setText(text)
}
