package util

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"shorter than max", "hello", 10, "hello"},
		{"exact length", "hello", 5, "hello"},
		{"ascii cut", "hello world", 5, "hello"},
		{"zero max", "hello", 0, ""},
		{"negative max", "hello", -1, ""},
		{"empty input", "", 5, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateString(tt.in, tt.max); got != tt.want {
				t.Errorf("TruncateString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestTruncateString_RuneBoundary(t *testing.T) {
	// "ção" is common in Portuguese mod notes; ç and ã are 2 bytes each.
	s := "instalação"

	for max := 1; max < len(s); max++ {
		got := TruncateString(s, max)
		if len(got) > max {
			t.Errorf("max=%d: result %d bytes long", max, len(got))
		}
		if !utf8.ValidString(got) {
			t.Errorf("max=%d: result %q is not valid UTF-8", max, got)
		}
		if !strings.HasPrefix(s, got) {
			t.Errorf("max=%d: result %q is not a prefix of input", max, got)
		}
	}
}
