package xid

import (
	"strings"
	"testing"
)

func TestNewPrefixesAndIsUnique(t *testing.T) {
	a := New("sale")
	b := New("sale")
	if !strings.HasPrefix(a, "sale-") {
		t.Fatalf("expected sale- prefix, got %q", a)
	}
	if a == b {
		t.Fatalf("expected distinct ids, got %q twice", a)
	}
	if plain := New(""); strings.HasPrefix(plain, "-") {
		t.Fatalf("empty prefix must not leave a dash, got %q", plain)
	}
}
