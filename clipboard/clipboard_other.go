//go:build !darwin

package clipboard

import "github.com/atotto/clipboard"

func getText() (string, error) {
	return clipboard.ReadAll()
}

func setText(text string) error {
	return clipboard.WriteAll(text)
}
