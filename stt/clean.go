package stt

import (
	"regexp"
	"strings"
)

var (
	// regexTimestamp matches segment timestamps like [00:00:00.000 --> 00:00:04.000]
	regexTimestamp = regexp.MustCompile(`\[\d{2}:\d{2}:\d{2}\.\d{3}\s-->\s\d{2}:\d{2}:\d{2}\.\d{3}\]`)
	// regexMarker matches non-speech markers such as [BLANK_AUDIO]
	regexMarker = regexp.MustCompile(`\[[A-Z_ ]+\]`)
	regexSpaces = regexp.MustCompile(`[ \t]{2,}`)
)

// cleanText removes timestamps and non-speech markers from tool output.
func cleanText(text string) string {
	text = regexTimestamp.ReplaceAllString(text, "")
	text = regexMarker.ReplaceAllString(text, "")

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, l := range lines {
		l = strings.TrimSpace(regexSpaces.ReplaceAllString(l, " "))
		if l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}
