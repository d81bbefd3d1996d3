package resolve

import (
	"math"
	"testing"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{"identical", "Night Sky", "Night Sky", 1},
		{"case insensitive", "NIGHT SKY", "night sky", 1},
		{"whitespace trimmed", "  Night Sky  ", "Night Sky", 1},
		{"both empty", "", "", 1},
		{"one empty", "Night Sky", "", 0},
		{"single substitution", "abcd", "abxd", 0.75},
		{"single insertion", "abc", "abcd", 0.75},
		{"disjoint", "abcd", "wxyz", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"Better Build/Buy", "Better BuildBuy"},
		{"UI Cheats Extension", "UI Cheats"},
		{"MCCC", "MC Command Center"},
	}
	for _, p := range pairs {
		if ab, ba := Similarity(p[0], p[1]), Similarity(p[1], p[0]); ab != ba {
			t.Errorf("Similarity(%q, %q) = %v but reversed = %v", p[0], p[1], ab, ba)
		}
	}
}

func TestSimilarity_TypoAboveDefaultThreshold(t *testing.T) {
	// One typo in a long name should clear 0.85
	if got := Similarity("Better Exceptions", "Better Exception"); got < 0.85 {
		t.Errorf("one-character difference scored %v, expected >= 0.85", got)
	}
	// Unrelated names stay well below it
	if got := Similarity("Better Exceptions", "Night Sky"); got >= 0.85 {
		t.Errorf("unrelated names scored %v, expected < 0.85", got)
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "abc", 3},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"same", "same", 0},
	}

	for _, tt := range tests {
		if got := levenshtein([]rune(tt.a), []rune(tt.b)); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
