package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"venu/internal/auth"
	"venu/internal/dto"
	"venu/internal/model"
	"venu/internal/repo"
	"venu/pkg/token"
)

var (
	ErrUnauthorized         = errors.New("unauthorized")
	ErrNoActiveSession      = errors.New("no active session")
	ErrResourceLocked       = errors.New("resource locked")
	ErrInvalidStatus        = errors.New("invalid target status")
	ErrInvalidSessionWindow = errors.New("session start must not be after end")
	ErrInvalidQuestion      = errors.New("invalid question definition")
	ErrInvalidPayload       = errors.New("resource needs exactly one of file or link")
)

// NotApprovedError rejects a check-in for a registration that is not in the
// approved state. The carried status is for staff-facing messages only.
type NotApprovedError struct {
	Status model.Status
}

func (e *NotApprovedError) Error() string {
	return fmt.Sprintf("registration status is %s, not approved", e.Status)
}

// Publisher sends a notification message to the broker.
type Publisher interface {
	Publish(message []byte) error
}

type RegisterInput struct {
	Name    string
	Email   string
	Phone   string
	Answers []AnswerInput
}

type CreateEventInput struct {
	Event     model.Event
	Sessions  []model.Session
	Questions []model.Question
	// Choices holds the choice texts for the question at the same index in
	// Questions.
	Choices   [][]string
	Resources []model.Resource
	// ResourceSessions maps each resource to a session index, -1 for
	// event-wide resources.
	ResourceSessions []int
}

type TicketView struct {
	Registration *model.Registration `json:"registration"`
	Event        *model.Event        `json:"event"`
	Participant  *model.Participant  `json:"participant"`
}

type EventView struct {
	Event     *model.Event           `json:"event"`
	Sessions  []model.Session        `json:"sessions"`
	Questions []model.Question       `json:"questions"`
	Choices   []model.QuestionChoice `json:"choices"`
}

type CheckInResult struct {
	Attendance   *model.Attendance `json:"attendance"`
	SessionTitle string            `json:"session_title"`
}

type PortalResource struct {
	model.Resource
	Unlocked bool `json:"unlocked"`
}

type PortalView struct {
	Registration *model.Registration `json:"registration"`
	Event        *model.Event        `json:"event"`
	Sessions     []model.Session     `json:"sessions"`
	Resources    []PortalResource    `json:"resources"`
}

type DashboardView struct {
	Event         *model.Event           `json:"event"`
	Total         int                    `json:"total"`
	Counts        map[model.Status]int   `json:"counts"`
	StatusFilter  *model.Status          `json:"status_filter,omitempty"`
	Registrations []repo.RegistrationRow `json:"registrations"`
}

type Service struct {
	repo repo.Repository
	log  *zerolog.Logger
	pub  Publisher
}

func NewService(repository repo.Repository, logger *zerolog.Logger, pub Publisher) *Service {
	return &Service{
		repo: repository,
		log:  logger,
		pub:  pub,
	}
}

// publishedEventBySlug resolves a public-facing event. Unpublished events
// are reported as not found so probing learns nothing.
func (s *Service) publishedEventBySlug(ctx context.Context, slug string) (*model.Event, error) {
	event, err := s.repo.GetEventBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !event.IsPublished {
		return nil, repo.ErrEventNotFound
	}
	return event, nil
}

func (s *Service) PublishedEvents(ctx context.Context) ([]model.Event, error) {
	return s.repo.GetPublishedEvents(ctx)
}

func (s *Service) EventDetail(ctx context.Context, slug string) (*EventView, error) {
	event, err := s.publishedEventBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	sessions, err := s.repo.SessionsByEventID(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	questions, err := s.repo.QuestionsByEventID(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	choices, err := s.repo.ChoicesByEventID(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	return &EventView{Event: event, Sessions: sessions, Questions: questions, Choices: choices}, nil
}

func (s *Service) CreateEvent(ctx context.Context, actor auth.Actor, in CreateEventInput) (*model.Event, error) {
	if !actor.Staff {
		return nil, ErrUnauthorized
	}

	for _, sess := range in.Sessions {
		if sess.StartTime.After(sess.EndTime) {
			return nil, ErrInvalidSessionWindow
		}
	}
	for i, q := range in.Questions {
		switch q.FieldType {
		case model.FieldText:
		case model.FieldSelect, model.FieldRadio, model.FieldCheckbox:
			if i >= len(in.Choices) || len(in.Choices[i]) == 0 {
				return nil, ErrInvalidQuestion
			}
		default:
			return nil, ErrInvalidQuestion
		}
	}
	for i, res := range in.Resources {
		if (res.FilePath == "") == (res.VideoURL == "") {
			return nil, ErrInvalidPayload
		}
		if i < len(in.ResourceSessions) && in.ResourceSessions[i] >= len(in.Sessions) {
			return nil, ErrInvalidPayload
		}
	}

	event := in.Event
	id, err := s.repo.CreateEventTx(ctx, &event, in.Sessions, in.Questions, in.Choices, in.Resources, in.ResourceSessions)
	if err != nil {
		return nil, err
	}
	event.ID = id

	s.log.Info().Int64("event_id", id).Str("slug", event.Slug).Msg("event created")
	return &event, nil
}

// Register runs the registration state machine entry point: participant
// get-or-create (first submission wins on name/phone), duplicate rejection,
// initial status from the event's approval policy, and answer persistence,
// all in one store transaction.
func (s *Service) Register(ctx context.Context, slug string, in RegisterInput) (*model.Registration, error) {
	event, err := s.publishedEventBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	questions, err := s.repo.QuestionsByEventID(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	choices, err := s.repo.ChoicesByEventID(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	if err := ValidateAnswers(questions, choices, in.Answers); err != nil {
		return nil, err
	}

	participant := model.Participant{Name: in.Name, Email: in.Email, Phone: in.Phone}
	status := model.InitialStatus(event.RequiresApproval)

	reg, err := s.repo.CreateRegistrationTx(ctx, event.ID, participant, token.New(), status, EncodeAnswers(in.Answers))
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("registration_id", reg.ID).
		Int64("event_id", event.ID).
		Str("status", string(reg.Status)).
		Msg("registration created")

	s.notify(reg)
	return reg, nil
}

// Transition moves a registration into the target state. Only approved and
// rejected are valid targets; there is no guard on the current state, staff
// can correct any earlier decision.
func (s *Service) Transition(ctx context.Context, actor auth.Actor, registrationID int64, target model.Status) (*model.Registration, error) {
	if !actor.Staff {
		return nil, ErrUnauthorized
	}
	if target != model.StatusApproved && target != model.StatusRejected {
		return nil, ErrInvalidStatus
	}

	reg, err := s.repo.UpdateRegistrationStatusTx(ctx, registrationID, target)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("registration_id", reg.ID).
		Str("status", string(reg.Status)).
		Str("actor", actor.Subject).
		Msg("registration status changed")

	s.notify(reg)
	return reg, nil
}

// CheckIn validates a scan and records an attendance fact. The chain is
// identical for staff scans and self-service check-ins: capability, token
// resolution, approval, active session, then an atomic insert-if-absent.
func (s *Service) CheckIn(ctx context.Context, actor auth.Actor, tok string, at time.Time) (*CheckInResult, error) {
	if !actor.CanScan(tok) {
		return nil, ErrUnauthorized
	}

	reg, err := s.repo.GetRegistrationByToken(ctx, tok)
	if err != nil {
		return nil, err
	}

	if reg.Status != model.StatusApproved {
		return nil, &NotApprovedError{Status: reg.Status}
	}

	sessions, err := s.repo.SessionsByEventID(ctx, reg.EventID)
	if err != nil {
		return nil, err
	}
	active := ActiveSession(sessions, at)
	if active == nil {
		return nil, ErrNoActiveSession
	}

	var scannedBy *string
	if actor.Staff {
		subject := actor.Subject
		scannedBy = &subject
	}

	att, err := s.repo.CreateAttendanceTx(ctx, reg.ID, active.ID, scannedBy)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("registration_id", reg.ID).
		Int64("session_id", active.ID).
		Bool("staff", actor.Staff).
		Msg("checked in")

	return &CheckInResult{Attendance: att, SessionTitle: active.Title}, nil
}

func (s *Service) Ticket(ctx context.Context, tok string) (*TicketView, error) {
	reg, err := s.repo.GetRegistrationByToken(ctx, tok)
	if err != nil {
		return nil, err
	}
	event, err := s.repo.GetEventByID(ctx, reg.EventID)
	if err != nil {
		return nil, err
	}
	participant, err := s.repo.GetParticipant(ctx, reg.ParticipantID)
	if err != nil {
		return nil, err
	}
	return &TicketView{Registration: reg, Event: event, Participant: participant}, nil
}

// FindTicket recovers the most recent registration for an email address.
// Lookup is case-insensitive, unlike registration-time dedup.
func (s *Service) FindTicket(ctx context.Context, email string) (*model.Registration, error) {
	return s.repo.FindLatestRegistrationByEmail(ctx, email)
}

// Portal is the participant hub: agenda plus resources with advisory unlock
// hints. The hints come from the same predicate the download path enforces.
func (s *Service) Portal(ctx context.Context, tok string, at time.Time) (*PortalView, error) {
	reg, err := s.repo.GetRegistrationByToken(ctx, tok)
	if err != nil {
		return nil, err
	}
	event, err := s.repo.GetEventByID(ctx, reg.EventID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.repo.SessionsByEventID(ctx, reg.EventID)
	if err != nil {
		return nil, err
	}
	resources, err := s.repo.ResourcesByEventID(ctx, reg.EventID)
	if err != nil {
		return nil, err
	}
	attended, err := s.repo.HasAttendance(ctx, reg.ID)
	if err != nil {
		return nil, err
	}

	view := &PortalView{Registration: reg, Event: event, Sessions: sessions}
	for _, res := range resources {
		view.Resources = append(view.Resources, PortalResource{
			Resource: res,
			Unlocked: ResourceUnlocked(&res, reg, attended, at),
		})
	}
	return view, nil
}

// Download re-runs the full unlock check; the portal's hint is never
// trusted. Returns the resource for the transport layer to serve.
func (s *Service) Download(ctx context.Context, tok string, resourceID int64, at time.Time) (*model.Resource, error) {
	reg, err := s.repo.GetRegistrationByToken(ctx, tok)
	if err != nil {
		return nil, err
	}
	res, err := s.repo.GetResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	attended := false
	if res.RequiresCheckIn {
		attended, err = s.repo.HasAttendance(ctx, reg.ID)
		if err != nil {
			return nil, err
		}
	}

	if !ResourceUnlocked(res, reg, attended, at) {
		return nil, ErrResourceLocked
	}
	if !res.HasPayload() {
		return nil, repo.ErrResourceNotFound
	}
	return res, nil
}

// Dashboard is a live rollup; no caching, staff must see counts that
// reflect the latest transition.
func (s *Service) Dashboard(ctx context.Context, actor auth.Actor, slug string, status *model.Status) (*DashboardView, error) {
	if !actor.Staff {
		return nil, ErrUnauthorized
	}

	event, err := s.repo.GetEventBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.CountRegistrationsByStatus(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	regs, err := s.repo.RegistrationsByEventID(ctx, event.ID, status)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	return &DashboardView{
		Event:         event,
		Total:         total,
		Counts:        counts,
		StatusFilter:  status,
		Registrations: regs,
	}, nil
}

// notify publishes a status notification for the mail worker. Best effort;
// a broker failure never fails the request.
func (s *Service) notify(reg *model.Registration) {
	if s.pub == nil {
		return
	}
	msg := dto.StatusNotification{
		RegistrationID: reg.ID,
		EventID:        reg.EventID,
		Status:         string(reg.Status),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal notification")
		return
	}
	if err := s.pub.Publish(payload); err != nil {
		s.log.Error().Err(err).Int64("registration_id", reg.ID).Msg("failed to publish notification")
	}
}
