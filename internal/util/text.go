package util

import "unicode/utf8"

// TruncateString shortens s to at most max bytes without splitting a
// multi-byte rune, backing up to the nearest rune boundary.
func TruncateString(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
