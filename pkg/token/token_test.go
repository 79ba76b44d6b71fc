package token

import (
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	t.Parallel()
	a, b := New(), New()
	if a == b {
		t.Fatal("two fresh tokens collided")
	}
	if _, ok := Normalize(a); !ok {
		t.Errorf("New() produced a token Normalize rejects: %q", a)
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()
	canonical := "4b4a4f9e-0c1d-4e2f-8a3b-5c6d7e8f9a0b"

	got, ok := Normalize(strings.ToUpper(canonical))
	if !ok {
		t.Fatal("Normalize rejected an uppercased token")
	}
	if got != canonical {
		t.Errorf("Normalize() = %q, want %q", got, canonical)
	}

	for _, bad := range []string{"", "abc", "4b4a4f9e-0c1d-4e2f-8a3b", "zzzzzzzz-zzzz-zzzz-zzzz-zzzzzzzzzzzz"} {
		if _, ok := Normalize(bad); ok {
			t.Errorf("Normalize(%q) accepted a malformed token", bad)
		}
	}
}
