package token

import "github.com/google/uuid"

// New returns a fresh registration token: a random 128-bit UUID in canonical
// form. Tokens are the only public identifier for tickets, so they must be
// unguessable; uuid.NewString draws from crypto/rand.
func New() string {
	return uuid.NewString()
}

// Normalize parses a token supplied in a URL and returns its canonical form.
// Callers treat a parse failure the same as an unknown token so that a
// malformed guess learns nothing.
func Normalize(s string) (string, bool) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", false
	}
	return u.String(), true
}
