package service

import (
	"testing"
	"time"

	"venu/internal/model"
)

func TestActiveSession(t *testing.T) {
	t.Parallel()
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	sessions := []model.Session{
		{ID: 1, Title: "Keynote", StartTime: at(10, 0), EndTime: at(11, 0)},
		{ID: 2, Title: "Workshop", StartTime: at(11, 30), EndTime: at(13, 0)},
	}

	tests := []struct {
		name string
		at   time.Time
		want int64 // 0 means none
	}{
		{"before the day", at(8, 0), 0},
		{"at exact start", at(10, 0), 1},
		{"mid session", at(10, 30), 1},
		{"at exact end", at(11, 0), 1},
		{"gap between sessions", at(11, 15), 0},
		{"second session", at(12, 0), 2},
		{"after everything", at(14, 0), 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ActiveSession(sessions, tc.at)
			if tc.want == 0 {
				if got != nil {
					t.Fatalf("ActiveSession() = %q, want none", got.Title)
				}
				return
			}
			if got == nil {
				t.Fatalf("ActiveSession() = none, want id %d", tc.want)
			}
			if got.ID != tc.want {
				t.Errorf("ActiveSession() = id %d, want %d", got.ID, tc.want)
			}
		})
	}
}

func TestActiveSessionOverlap(t *testing.T) {
	t.Parallel()
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("earliest start wins", func(t *testing.T) {
		sessions := []model.Session{
			{ID: 5, Title: "Track B", StartTime: day.Add(10 * time.Hour), EndTime: day.Add(12 * time.Hour)},
			{ID: 6, Title: "Plenary", StartTime: day.Add(9 * time.Hour), EndTime: day.Add(12 * time.Hour)},
		}
		got := ActiveSession(sessions, day.Add(11*time.Hour))
		if got == nil || got.ID != 6 {
			t.Fatalf("ActiveSession() = %+v, want id 6", got)
		}
	})

	t.Run("lowest id breaks start tie", func(t *testing.T) {
		sessions := []model.Session{
			{ID: 8, StartTime: day.Add(10 * time.Hour), EndTime: day.Add(12 * time.Hour)},
			{ID: 3, StartTime: day.Add(10 * time.Hour), EndTime: day.Add(11 * time.Hour)},
		}
		got := ActiveSession(sessions, day.Add(10*time.Hour+30*time.Minute))
		if got == nil || got.ID != 3 {
			t.Fatalf("ActiveSession() = %+v, want id 3", got)
		}
	})

	t.Run("order independent", func(t *testing.T) {
		a := []model.Session{
			{ID: 1, StartTime: day.Add(9 * time.Hour), EndTime: day.Add(12 * time.Hour)},
			{ID: 2, StartTime: day.Add(10 * time.Hour), EndTime: day.Add(12 * time.Hour)},
		}
		b := []model.Session{a[1], a[0]}
		at := day.Add(11 * time.Hour)
		got1, got2 := ActiveSession(a, at), ActiveSession(b, at)
		if got1 == nil || got2 == nil || got1.ID != got2.ID {
			t.Fatalf("resolver depends on slice order: %+v vs %+v", got1, got2)
		}
	})
}

func TestActiveSessionEmpty(t *testing.T) {
	t.Parallel()
	if got := ActiveSession(nil, time.Now()); got != nil {
		t.Fatalf("ActiveSession(nil) = %+v, want nil", got)
	}
}
