package stt

import (
	"os"
	"strings"

	"golang.org/x/text/language"
)

// AutoLanguage asks the engine to detect the spoken language.
const AutoLanguage = "auto"

// systemLanguages returns the user's preferred languages, most preferred
// first. Replaced in tests.
var systemLanguages = preferredLanguages

// ResolveLanguage picks the language passed to the engine: the override,
// then the locale environment, then the OS preference, then auto.
func ResolveLanguage(override string) string {
	if strings.EqualFold(strings.TrimSpace(override), AutoLanguage) {
		return AutoLanguage
	}
	if code, ok := ParseLanguageCode(override); ok {
		return code
	}
	for _, key := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		if code, ok := ParseLanguageCode(os.Getenv(key)); ok {
			return code
		}
	}
	for _, l := range systemLanguages() {
		if code, ok := ParseLanguageCode(l); ok {
			return code
		}
	}
	return AutoLanguage
}

// ParseLanguageCode reduces a locale such as "en_US.UTF-8" or "zh-Hans"
// to its two- or three-letter language code.
func ParseLanguageCode(locale string) (string, bool) {
	s := strings.TrimSpace(locale)
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexAny(s, "_-"); i >= 0 {
		s = s[:i]
	}
	s = strings.ToLower(s)
	if s == "" || s == "c" || s == "posix" {
		return "", false
	}

	base, err := language.ParseBase(s)
	if err != nil {
		return "", false
	}
	return base.String(), true
}
