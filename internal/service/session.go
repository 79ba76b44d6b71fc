package service

import (
	"time"

	"venu/internal/model"
)

// ActiveSession returns the session whose [start_time, end_time] window
// contains at, with inclusive bounds. When several windows overlap the
// timestamp, the session with the earliest start time wins, lowest id on a
// tie; callers get a deterministic answer regardless of store ordering.
// Returns nil when no session is active, which is not an error.
func ActiveSession(sessions []model.Session, at time.Time) *model.Session {
	var active *model.Session
	for i := range sessions {
		s := &sessions[i]
		if at.Before(s.StartTime) || at.After(s.EndTime) {
			continue
		}
		if active == nil ||
			s.StartTime.Before(active.StartTime) ||
			(s.StartTime.Equal(active.StartTime) && s.ID < active.ID) {
			active = s
		}
	}
	return active
}
