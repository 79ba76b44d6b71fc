package repo

import (
	"database/sql"
	"errors"
	"testing"
)

func TestScanErr(t *testing.T) {
	t.Parallel()

	t.Run("absence maps to the sentinel", func(t *testing.T) {
		got := scanErr(sql.ErrNoRows, ErrEventNotFound, "event")
		if !errors.Is(got, ErrEventNotFound) {
			t.Fatalf("scanErr(ErrNoRows) = %v, want ErrEventNotFound", got)
		}
	})

	t.Run("store failure is never a sentinel", func(t *testing.T) {
		cause := errors.New("connection refused")
		for _, sentinel := range []error{
			ErrEventNotFound,
			ErrRegistrationNotFound,
			ErrParticipantNotFound,
			ErrResourceNotFound,
		} {
			got := scanErr(cause, sentinel, "row")
			if errors.Is(got, sentinel) {
				t.Errorf("scanErr(%v) masked a store failure as %v", cause, sentinel)
			}
			if !errors.Is(got, cause) {
				t.Errorf("scanErr(%v) lost the underlying cause: %v", cause, got)
			}
		}
	})
}
