package util

import (
	"math/rand"
	"testing"

	"github.com/antzucaro/matchr"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		s1, s2 string
		want   int
	}{
		{"", "", 0},
		{"ACGT", "ACGT", 0},
		{"ACGT", "ACCT", 1},
		{"ACGT", "", 4},
		{"ACGT", "AGT", 1},
		{"ACGT", "ACGTT", 1},
		{"GATTACA", "TACTAGA", 4},
	}
	for _, test := range tests {
		if got := Levenshtein([]byte(test.s1), []byte(test.s2)); got != test.want {
			t.Errorf("Levenshtein(%q, %q) = %d, want %d", test.s1, test.s2, got, test.want)
		}
	}
}

// TestLevenshteinMatchr cross-checks against an independent implementation
// on random sequence pairs.
func TestLevenshteinMatchr(t *testing.T) {
	r := rand.New(rand.NewSource(0))
	const bases = "ACGT"
	randSeq := func(n int) []byte {
		s := make([]byte, n)
		for i := range s {
			s[i] = bases[r.Intn(len(bases))]
		}
		return s
	}
	for i := 0; i < 100; i++ {
		s1 := randSeq(r.Intn(50))
		s2 := randSeq(r.Intn(50))
		want := matchr.Levenshtein(string(s1), string(s2))
		if got := Levenshtein(s1, s2); got != want {
			t.Errorf("Levenshtein(%q, %q) = %d, want %d", s1, s2, got, want)
		}
	}
}
