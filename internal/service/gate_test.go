package service

import (
	"testing"
	"time"

	"venu/internal/model"
)

func TestResourceUnlocked(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)
	earlier := now.Add(-time.Hour)

	approved := &model.Registration{ID: 1, EventID: 10, Status: model.StatusApproved}
	pending := &model.Registration{ID: 2, EventID: 10, Status: model.StatusPending}

	tests := []struct {
		name     string
		res      model.Resource
		reg      *model.Registration
		attended bool
		want     bool
	}{
		{"plain resource, approved", model.Resource{EventID: 10}, approved, false, true},
		{"wrong event", model.Resource{EventID: 99}, approved, true, false},
		{"pending registration", model.Resource{EventID: 10}, pending, true, false},
		{"before unlock time", model.Resource{EventID: 10, UnlockTime: &later}, approved, true, false},
		{"after unlock time", model.Resource{EventID: 10, UnlockTime: &earlier}, approved, false, true},
		{"at unlock time", model.Resource{EventID: 10, UnlockTime: &now}, approved, false, true},
		{"needs check-in, absent", model.Resource{EventID: 10, RequiresCheckIn: true}, approved, false, false},
		{"needs check-in, attended", model.Resource{EventID: 10, RequiresCheckIn: true}, approved, true, true},
		{"all gates at once", model.Resource{EventID: 10, UnlockTime: &earlier, RequiresCheckIn: true}, approved, true, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResourceUnlocked(&tc.res, tc.reg, tc.attended, now); got != tc.want {
				t.Errorf("ResourceUnlocked() = %v, want %v", got, tc.want)
			}
		})
	}
}

// Once a timed resource is unlocked it must stay unlocked at every later
// instant, as long as status and attendance do not regress.
func TestResourceUnlockedMonotonicInTime(t *testing.T) {
	t.Parallel()
	unlock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	res := &model.Resource{EventID: 10, UnlockTime: &unlock}
	reg := &model.Registration{EventID: 10, Status: model.StatusApproved}

	if ResourceUnlocked(res, reg, false, unlock.Add(-time.Second)) {
		t.Fatal("resource unlocked before its unlock time")
	}
	for _, d := range []time.Duration{0, time.Second, time.Hour, 24 * time.Hour * 365} {
		if !ResourceUnlocked(res, reg, false, unlock.Add(d)) {
			t.Errorf("resource relocked %v after unlock time", d)
		}
	}
}
