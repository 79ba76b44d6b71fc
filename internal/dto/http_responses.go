package dto

import (
	"time"

	"github.com/wb-go/wbf/ginext"
)

const (
	FieldBadFormat     = "FIELD_BADFORMAT"
	FieldIncorrect     = "FIELD_INCORRECT"
	ServiceUnavailable = "SERVICE_UNAVAILABLE"
	InternalError      = "Service is currently unavailable. Please try again later."

	EventNotFound         = "EVENT_NOT_FOUND"
	TicketNotFound        = "TICKET_NOT_FOUND"
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	RegistrationDuplicate = "REGISTRATION_DUPLICATE"
	SlugDuplicate         = "SLUG_DUPLICATE"
	Unauthorized          = "UNAUTHORIZED"
	Forbidden             = "FORBIDDEN"
	NotApproved           = "NOT_APPROVED"
	NoActiveSession       = "NO_ACTIVE_SESSION"
	AlreadyCheckedIn      = "ALREADY_CHECKED_IN"
)

type RegisterRequest struct {
	Name    string        `json:"name" validate:"required,min=2,max=200"`
	Email   string        `json:"email" validate:"required,email"`
	Phone   string        `json:"phone" validate:"max=20"`
	Answers []AnswerEntry `json:"answers" validate:"dive"`
}

type AnswerEntry struct {
	QuestionID int64    `json:"question_id" validate:"required"`
	Values     []string `json:"values"`
}

type FindTicketRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type SessionEntry struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Speaker     string    `json:"speaker" validate:"max=200"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required"`
	Capacity    int       `json:"capacity" validate:"gte=0"`
	IsActive    bool      `json:"is_active"`
}

type QuestionEntry struct {
	Label     string   `json:"label" validate:"required,max=255"`
	FieldType string   `json:"field_type" validate:"required,oneof=text select radio checkbox"`
	Required  bool     `json:"required"`
	Order     int      `json:"order"`
	Choices   []string `json:"choices"`
}

type ResourceEntry struct {
	SessionIndex    *int       `json:"session_index"`
	Title           string     `json:"title" validate:"required,max=200"`
	ResourceType    string     `json:"resource_type" validate:"required,oneof=pdf image video other"`
	FilePath        string     `json:"file_path"`
	VideoURL        string     `json:"video_url" validate:"omitempty,url"`
	UnlockTime      *time.Time `json:"unlock_time"`
	RequiresCheckIn bool       `json:"requires_check_in"`
	Order           int        `json:"order"`
}

type CreateEventRequest struct {
	Title            string          `json:"title" validate:"required,max=200"`
	Description      string          `json:"description"`
	Location         string          `json:"location" validate:"max=255"`
	RequiresApproval bool            `json:"requires_approval"`
	StartDate        time.Time       `json:"start_date" validate:"required"`
	EndDate          time.Time       `json:"end_date" validate:"required"`
	IsPublished      bool            `json:"is_published"`
	Sessions         []SessionEntry  `json:"sessions" validate:"dive"`
	Questions        []QuestionEntry `json:"questions" validate:"dive"`
	Resources        []ResourceEntry `json:"resources" validate:"dive"`
}

// StatusNotification is the message published for the mail worker on
// registration creation and every status transition.
type StatusNotification struct {
	RegistrationID int64  `json:"registration_id"`
	EventID        int64  `json:"event_id"`
	Status         string `json:"status"`
}

type CheckInResponse struct {
	SessionTitle string    `json:"session_title"`
	CheckedInAt  time.Time `json:"checked_in_at"`
}

type Response struct {
	Status string `json:"status"`
	Error  *Error `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type Error struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
}

func BadResponseError(c *ginext.Context, code, desc string) {
	c.JSON(400, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func NotFoundError(c *ginext.Context, code, desc string) {
	c.JSON(404, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

// ForbiddenError is the deliberately uninformative public denial: it never
// says which gate condition failed.
func ForbiddenError(c *ginext.Context) {
	c.JSON(403, Response{
		Status: "error",
		Error: &Error{
			Code: Forbidden,
			Desc: "Access denied",
		},
	})
}

func UnauthorizedError(c *ginext.Context) {
	c.JSON(401, Response{
		Status: "error",
		Error: &Error{
			Code: Unauthorized,
			Desc: "Staff credentials required",
		},
	})
}

func InternalServerError(c *ginext.Context) {
	c.JSON(500, Response{
		Status: "error",
		Error: &Error{
			Code: ServiceUnavailable,
			Desc: InternalError,
		},
	})
}

func EventNotFoundError(c *ginext.Context) {
	NotFoundError(c, EventNotFound, "Event not found")
}

func TicketNotFoundError(c *ginext.Context) {
	NotFoundError(c, TicketNotFound, "Ticket not found")
}

func ResourceNotFoundError(c *ginext.Context) {
	NotFoundError(c, ResourceNotFound, "Resource not found")
}

func RegistrationDuplicateError(c *ginext.Context) {
	BadResponseError(c, RegistrationDuplicate, "You have already registered for this event")
}

func SuccessResponse(c *ginext.Context, data any) {
	c.JSON(200, Response{
		Status: "ok",
		Data:   data,
	})
}

func SuccessCreatedResponse(c *ginext.Context, data any) {
	c.JSON(201, Response{
		Status: "ok",
		Data:   data,
	})
}
