package utils

import (
	"regexp"
	"testing"
)

func TestRandString(t *testing.T) {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	re := regexp.MustCompile(`^[A-Z0-9]{8}$`)
	seen := map[byte]bool{}
	for i := 0; i < 500; i++ {
		s, err := RandString(alphabet, 8)
		if err != nil {
			t.Fatal(err)
		}
		if !re.MatchString(s) {
			t.Fatalf("RandString() = %q", s)
		}
		for j := 0; j < len(s); j++ {
			seen[s[j]] = true
		}
	}
	// 4000 draws over 36 symbols should hit all of them
	if len(seen) != len(alphabet) {
		t.Errorf("only %d of %d symbols drawn", len(seen), len(alphabet))
	}
}
