package auth

import "testing"

func TestCanScan(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		actor Actor
		token string
		want  bool
	}{
		{"staff scans any token", StaffActor("door"), "some-token", true},
		{"holder scans own token", TicketActor("tok-1"), "tok-1", true},
		{"holder cannot scan another token", TicketActor("tok-1"), "tok-2", false},
		{"zero actor scans nothing", Actor{}, "tok-1", false},
		{"empty subject never matches empty token", Actor{}, "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.actor.CanScan(tc.token); got != tc.want {
				t.Errorf("CanScan(%q) = %v, want %v", tc.token, got, tc.want)
			}
		})
	}
}
