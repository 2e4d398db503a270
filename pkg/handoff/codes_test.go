package handoff

import (
	"strings"
	"testing"
)

func TestNewCodeShape(t *testing.T) {
	code, err := NewCode()
	if err != nil {
		t.Fatal(err)
	}
	if len(code) != codeLength {
		t.Fatalf("code %q has length %d, want %d", code, len(code), codeLength)
	}
	for _, r := range code {
		if !strings.ContainsRune(codeAlphabet, r) {
			t.Fatalf("code %q contains %q outside the alphabet", code, r)
		}
	}
}

func TestNewCodePairDistinct(t *testing.T) {
	// Collisions are possible but vanishingly unlikely across a small sample.
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		pickup, dropoff, err := NewCodePair()
		if err != nil {
			t.Fatal(err)
		}
		seen[pickup] = true
		seen[dropoff] = true
	}
	if len(seen) < 90 {
		t.Fatalf("expected mostly unique codes, got %d distinct of 100", len(seen))
	}
}
