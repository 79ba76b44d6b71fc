package middleware

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims staffClaims, secret string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("SignedString() error: %v", err)
	}
	return signed
}

func TestParseStaffToken(t *testing.T) {
	t.Parallel()

	t.Run("valid staff token", func(t *testing.T) {
		signed := signToken(t, staffClaims{Username: "alice", IsStaff: true}, testSecret)
		actor, err := ParseStaffToken(signed, testSecret)
		if err != nil {
			t.Fatalf("ParseStaffToken() error: %v", err)
		}
		if !actor.Staff {
			t.Error("actor is not staff")
		}
		if actor.Subject != "alice" {
			t.Errorf("subject = %q, want alice", actor.Subject)
		}
	})

	t.Run("falls back to registered subject", func(t *testing.T) {
		claims := staffClaims{
			IsStaff:          true,
			RegisteredClaims: jwt.RegisteredClaims{Subject: "bob"},
		}
		actor, err := ParseStaffToken(signToken(t, claims, testSecret), testSecret)
		if err != nil {
			t.Fatalf("ParseStaffToken() error: %v", err)
		}
		if actor.Subject != "bob" {
			t.Errorf("subject = %q, want bob", actor.Subject)
		}
	})

	t.Run("non-staff token rejected", func(t *testing.T) {
		signed := signToken(t, staffClaims{Username: "eve", IsStaff: false}, testSecret)
		_, err := ParseStaffToken(signed, testSecret)
		if !errors.Is(err, ErrNotStaff) {
			t.Fatalf("ParseStaffToken() = %v, want ErrNotStaff", err)
		}
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		signed := signToken(t, staffClaims{Username: "alice", IsStaff: true}, "other-secret")
		if _, err := ParseStaffToken(signed, testSecret); err == nil {
			t.Fatal("ParseStaffToken() accepted a token signed with another secret")
		}
	})

	t.Run("expired token rejected", func(t *testing.T) {
		claims := staffClaims{
			Username: "alice",
			IsStaff:  true,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		}
		if _, err := ParseStaffToken(signToken(t, claims, testSecret), testSecret); err == nil {
			t.Fatal("ParseStaffToken() accepted an expired token")
		}
	})

	t.Run("garbage rejected", func(t *testing.T) {
		if _, err := ParseStaffToken("not-a-jwt", testSecret); err == nil {
			t.Fatal("ParseStaffToken() accepted garbage")
		}
	})
}
