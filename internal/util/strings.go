package util

import "strings"

// DefaultString returns fallback when v is empty or whitespace-only.
func DefaultString(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// EmptyDash returns "-" for blank values so table cells never look missing.
func EmptyDash(s string) string {
	return DefaultString(s, "-")
}

// PadRight pads s with spaces to at least width runes.
func PadRight(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

var yesValues = map[string]struct{}{
	"true": {}, "yes": {}, "da": {}, "aga": {}, "ok": {}, "yep": {},
	"да": {}, "ага": {}, "kk": {}, "y": {}, "конечно": {},
}

// Str2Bool interprets the loose yes-words accepted by AUTH_* switches.
// Anything not in the list, including "1", is false.
func Str2Bool(s string) bool {
	_, ok := yesValues[strings.ToLower(strings.TrimSpace(s))]
	return ok
}
