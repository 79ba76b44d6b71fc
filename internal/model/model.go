package model

import "time"

// Status is the registration lifecycle state. Staff may move a registration
// between any two states; the initial state is derived from the owning
// event's approval policy.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// InitialStatus computes the state a new registration starts in.
func InitialStatus(requiresApproval bool) Status {
	if requiresApproval {
		return StatusPending
	}
	return StatusApproved
}

type Event struct {
	ID               int64     `db:"id" json:"id"`
	Title            string    `db:"title" json:"title"`
	Slug             string    `db:"slug" json:"slug"`
	Description      string    `db:"description" json:"description,omitempty"`
	Location         string    `db:"location" json:"location,omitempty"`
	RequiresApproval bool      `db:"requires_approval" json:"requires_approval"`
	StartDate        time.Time `db:"start_date" json:"start_date"`
	EndDate          time.Time `db:"end_date" json:"end_date"`
	IsPublished      bool      `db:"is_published" json:"is_published"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

type Session struct {
	ID          int64     `db:"id" json:"id"`
	EventID     int64     `db:"event_id" json:"event_id"`
	Title       string    `db:"title" json:"title"`
	Speaker     string    `db:"speaker" json:"speaker,omitempty"`
	Description string    `db:"description" json:"description,omitempty"`
	StartTime   time.Time `db:"start_time" json:"start_time"`
	EndTime     time.Time `db:"end_time" json:"end_time"`
	Capacity    int       `db:"capacity" json:"capacity"`
	IsActive    bool      `db:"is_active" json:"is_active"`
}

type Participant struct {
	ID    int64  `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Email string `db:"email" json:"email"`
	Phone string `db:"phone" json:"phone,omitempty"`
}

// Field types for Question.
const (
	FieldText     = "text"
	FieldSelect   = "select"
	FieldRadio    = "radio"
	FieldCheckbox = "checkbox"
)

type Question struct {
	ID        int64  `db:"id" json:"id"`
	EventID   int64  `db:"event_id" json:"event_id"`
	Label     string `db:"label" json:"label"`
	FieldType string `db:"field_type" json:"field_type"`
	Required  bool   `db:"required" json:"required"`
	Order     int    `db:"ord" json:"order"`
}

type QuestionChoice struct {
	ID         int64  `db:"id" json:"id"`
	QuestionID int64  `db:"question_id" json:"question_id"`
	Text       string `db:"text" json:"text"`
}

type Registration struct {
	ID            int64     `db:"id" json:"id"`
	Token         string    `db:"token" json:"token"`
	EventID       int64     `db:"event_id" json:"event_id"`
	ParticipantID int64     `db:"participant_id" json:"participant_id"`
	Status        Status    `db:"status" json:"status"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

type RegistrationAnswer struct {
	ID             int64  `db:"id" json:"id"`
	RegistrationID int64  `db:"registration_id" json:"registration_id"`
	QuestionID     int64  `db:"question_id" json:"question_id"`
	Value          string `db:"value" json:"value"`
}

type Attendance struct {
	ID             int64     `db:"id" json:"id"`
	RegistrationID int64     `db:"registration_id" json:"registration_id"`
	SessionID      int64     `db:"session_id" json:"session_id"`
	CheckedInAt    time.Time `db:"checked_in_at" json:"checked_in_at"`
	ScannedBy      *string   `db:"scanned_by" json:"scanned_by,omitempty"`
}

// Resource types.
const (
	ResourcePDF   = "pdf"
	ResourceImage = "image"
	ResourceVideo = "video"
	ResourceOther = "other"
)

type Resource struct {
	ID              int64      `db:"id" json:"id"`
	EventID         int64      `db:"event_id" json:"event_id"`
	SessionID       *int64     `db:"session_id" json:"session_id,omitempty"`
	Title           string     `db:"title" json:"title"`
	ResourceType    string     `db:"resource_type" json:"resource_type"`
	FilePath        string     `db:"file_path" json:"file_path,omitempty"`
	VideoURL        string     `db:"video_url" json:"video_url,omitempty"`
	UnlockTime      *time.Time `db:"unlock_time" json:"unlock_time,omitempty"`
	RequiresCheckIn bool       `db:"requires_check_in" json:"requires_check_in"`
	Order           int        `db:"ord" json:"order"`
}

// HasPayload reports whether the resource has a backing file or link.
func (r *Resource) HasPayload() bool {
	return r.FilePath != "" || r.VideoURL != ""
}
