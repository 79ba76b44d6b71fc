package api

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"venu/cmd/middleware"
	"venu/internal/auth"
	"venu/internal/dto"
	"venu/internal/model"
	"venu/internal/repo"
	"venu/internal/service"
	"venu/pkg/token"
	"venu/pkg/validator"
)

type handlers struct {
	svc          *service.Service
	resourceRoot string
}

func (h *handlers) ListEvents(ctx *ginext.Context) {
	events, err := h.svc.PublishedEvents(ctx.Request.Context())
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to list events")
		dto.InternalServerError(ctx)
		return
	}
	dto.SuccessResponse(ctx, events)
}

func (h *handlers) EventDetail(ctx *ginext.Context) {
	view, err := h.svc.EventDetail(ctx.Request.Context(), ctx.Param("slug"))
	if err != nil {
		if errors.Is(err, repo.ErrEventNotFound) {
			dto.EventNotFoundError(ctx)
			return
		}
		zlog.Logger.Error().Err(err).Msg("failed to load event")
		dto.InternalServerError(ctx)
		return
	}
	dto.SuccessResponse(ctx, view)
}

func (h *handlers) Register(ctx *ginext.Context) {
	var req dto.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	in := service.RegisterInput{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	}
	for _, a := range req.Answers {
		in.Answers = append(in.Answers, service.AnswerInput{QuestionID: a.QuestionID, Values: a.Values})
	}

	reg, err := h.svc.Register(ctx.Request.Context(), ctx.Param("slug"), in)
	if err != nil {
		var ave *service.AnswerValidationError
		switch {
		case errors.Is(err, repo.ErrEventNotFound):
			dto.EventNotFoundError(ctx)
		case errors.Is(err, repo.ErrDuplicateRegistration):
			dto.RegistrationDuplicateError(ctx)
		case errors.As(err, &ave):
			dto.BadResponseError(ctx, dto.FieldIncorrect, ave.Error())
		default:
			zlog.Logger.Error().Err(err).Msg("failed to register participant")
			dto.InternalServerError(ctx)
		}
		return
	}

	dto.SuccessCreatedResponse(ctx, reg)
}

func (h *handlers) Ticket(ctx *ginext.Context) {
	tok, ok := token.Normalize(ctx.Param("token"))
	if !ok {
		dto.TicketNotFoundError(ctx)
		return
	}

	view, err := h.svc.Ticket(ctx.Request.Context(), tok)
	if err != nil {
		if errors.Is(err, repo.ErrRegistrationNotFound) {
			dto.TicketNotFoundError(ctx)
			return
		}
		zlog.Logger.Error().Err(err).Msg("failed to load ticket")
		dto.InternalServerError(ctx)
		return
	}
	dto.SuccessResponse(ctx, view)
}

func (h *handlers) FindTicket(ctx *ginext.Context) {
	var req dto.FindTicketRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	reg, err := h.svc.FindTicket(ctx.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repo.ErrRegistrationNotFound) {
			dto.NotFoundError(ctx, dto.TicketNotFound, "No registration found with that email address")
			return
		}
		zlog.Logger.Error().Err(err).Msg("failed to find ticket")
		dto.InternalServerError(ctx)
		return
	}
	dto.SuccessResponse(ctx, reg)
}

func (h *handlers) Portal(ctx *ginext.Context) {
	tok, ok := token.Normalize(ctx.Param("token"))
	if !ok {
		dto.TicketNotFoundError(ctx)
		return
	}

	view, err := h.svc.Portal(ctx.Request.Context(), tok, time.Now())
	if err != nil {
		if errors.Is(err, repo.ErrRegistrationNotFound) {
			dto.TicketNotFoundError(ctx)
			return
		}
		zlog.Logger.Error().Err(err).Msg("failed to load portal")
		dto.InternalServerError(ctx)
		return
	}
	dto.SuccessResponse(ctx, view)
}

func (h *handlers) Download(ctx *ginext.Context) {
	tok, ok := token.Normalize(ctx.Param("token"))
	if !ok {
		dto.TicketNotFoundError(ctx)
		return
	}
	resourceID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		dto.ResourceNotFoundError(ctx)
		return
	}

	res, err := h.svc.Download(ctx.Request.Context(), tok, resourceID, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrRegistrationNotFound):
			dto.TicketNotFoundError(ctx)
		case errors.Is(err, repo.ErrResourceNotFound):
			dto.ResourceNotFoundError(ctx)
		case errors.Is(err, service.ErrResourceLocked):
			// Deliberately silent about which gate condition failed.
			dto.ForbiddenError(ctx)
		default:
			zlog.Logger.Error().Err(err).Msg("failed to authorize download")
			dto.InternalServerError(ctx)
		}
		return
	}

	if res.FilePath != "" {
		full, ok := resolveResourcePath(h.resourceRoot, res.FilePath)
		if !ok {
			zlog.Logger.Error().
				Int64("resource_id", res.ID).
				Str("file_path", res.FilePath).
				Msg("resource file path escapes the storage root")
			dto.ResourceNotFoundError(ctx)
			return
		}
		ctx.FileAttachment(full, res.Title+filepath.Ext(res.FilePath))
		return
	}
	ctx.Redirect(http.StatusFound, res.VideoURL)
}

// resolveResourcePath joins a stored file path against the storage root and
// rejects any path that resolves outside it.
func resolveResourcePath(root, file string) (string, bool) {
	full := filepath.Join(root, file)
	rel, err := filepath.Rel(root, full)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return full, true
}

// SelfCheckIn runs the same validation chain as the staff scan; only the
// failure messages are kept generic.
func (h *handlers) SelfCheckIn(ctx *ginext.Context) {
	tok, ok := token.Normalize(ctx.Param("token"))
	if !ok {
		dto.TicketNotFoundError(ctx)
		return
	}
	h.checkIn(ctx, auth.TicketActor(tok), tok, false)
}

func (h *handlers) Scan(ctx *ginext.Context) {
	tok, ok := token.Normalize(ctx.Param("token"))
	if !ok {
		dto.TicketNotFoundError(ctx)
		return
	}
	h.checkIn(ctx, middleware.ActorFrom(ctx), tok, true)
}

func (h *handlers) checkIn(ctx *ginext.Context, actor auth.Actor, tok string, staffDetail bool) {
	result, err := h.svc.CheckIn(ctx.Request.Context(), actor, tok, time.Now())
	if err != nil {
		var nae *service.NotApprovedError
		switch {
		case errors.Is(err, service.ErrUnauthorized):
			dto.UnauthorizedError(ctx)
		case errors.Is(err, repo.ErrRegistrationNotFound):
			dto.TicketNotFoundError(ctx)
		case errors.As(err, &nae):
			if staffDetail {
				dto.BadResponseError(ctx, dto.NotApproved,
					fmt.Sprintf("Registration status: %s. Not allowed to enter.", strings.ToUpper(string(nae.Status))))
			} else {
				dto.BadResponseError(ctx, dto.NotApproved, "Registration is not approved")
			}
		case errors.Is(err, service.ErrNoActiveSession):
			dto.BadResponseError(ctx, dto.NoActiveSession, "No active session right now")
		case errors.Is(err, repo.ErrAlreadyCheckedIn):
			dto.BadResponseError(ctx, dto.AlreadyCheckedIn, "Already checked in for the current session")
		default:
			zlog.Logger.Error().Err(err).Msg("failed to process check-in")
			dto.InternalServerError(ctx)
		}
		return
	}

	dto.SuccessCreatedResponse(ctx, dto.CheckInResponse{
		SessionTitle: result.SessionTitle,
		CheckedInAt:  result.Attendance.CheckedInAt,
	})
}

func (h *handlers) Approve(ctx *ginext.Context) {
	h.transition(ctx, model.StatusApproved)
}

func (h *handlers) Reject(ctx *ginext.Context) {
	h.transition(ctx, model.StatusRejected)
}

func (h *handlers) transition(ctx *ginext.Context, target model.Status) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid registration ID")
		return
	}

	reg, err := h.svc.Transition(ctx.Request.Context(), middleware.ActorFrom(ctx), id, target)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthorized):
			dto.UnauthorizedError(ctx)
		case errors.Is(err, repo.ErrRegistrationNotFound):
			dto.TicketNotFoundError(ctx)
		default:
			zlog.Logger.Error().Err(err).Msg("failed to transition registration")
			dto.InternalServerError(ctx)
		}
		return
	}
	dto.SuccessResponse(ctx, reg)
}

func (h *handlers) Dashboard(ctx *ginext.Context) {
	var filter *model.Status
	if v := ctx.Query("status"); v != "" && v != "all" {
		status := model.Status(v)
		if !status.Valid() {
			dto.BadResponseError(ctx, dto.FieldIncorrect, "Unknown status filter")
			return
		}
		filter = &status
	}

	view, err := h.svc.Dashboard(ctx.Request.Context(), middleware.ActorFrom(ctx), ctx.Param("slug"), filter)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthorized):
			dto.UnauthorizedError(ctx)
		case errors.Is(err, repo.ErrEventNotFound):
			dto.EventNotFoundError(ctx)
		default:
			zlog.Logger.Error().Err(err).Msg("failed to build dashboard")
			dto.InternalServerError(ctx)
		}
		return
	}
	dto.SuccessResponse(ctx, view)
}

func (h *handlers) CreateEvent(ctx *ginext.Context) {
	var req dto.CreateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	in := service.CreateEventInput{
		Event: model.Event{
			Title:            req.Title,
			Slug:             slug.Make(req.Title),
			Description:      req.Description,
			Location:         req.Location,
			RequiresApproval: req.RequiresApproval,
			StartDate:        req.StartDate,
			EndDate:          req.EndDate,
			IsPublished:      req.IsPublished,
		},
	}
	for _, s := range req.Sessions {
		in.Sessions = append(in.Sessions, model.Session{
			Title:       s.Title,
			Speaker:     s.Speaker,
			Description: s.Description,
			StartTime:   s.StartTime,
			EndTime:     s.EndTime,
			Capacity:    s.Capacity,
			IsActive:    s.IsActive,
		})
	}
	for _, q := range req.Questions {
		in.Questions = append(in.Questions, model.Question{
			Label:     q.Label,
			FieldType: q.FieldType,
			Required:  q.Required,
			Order:     q.Order,
		})
		in.Choices = append(in.Choices, q.Choices)
	}
	for _, r := range req.Resources {
		in.Resources = append(in.Resources, model.Resource{
			Title:           r.Title,
			ResourceType:    r.ResourceType,
			FilePath:        r.FilePath,
			VideoURL:        r.VideoURL,
			UnlockTime:      r.UnlockTime,
			RequiresCheckIn: r.RequiresCheckIn,
			Order:           r.Order,
		})
		idx := -1
		if r.SessionIndex != nil {
			idx = *r.SessionIndex
		}
		in.ResourceSessions = append(in.ResourceSessions, idx)
	}

	event, err := h.svc.CreateEvent(ctx.Request.Context(), middleware.ActorFrom(ctx), in)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthorized):
			dto.UnauthorizedError(ctx)
		case errors.Is(err, repo.ErrDuplicateSlug):
			dto.BadResponseError(ctx, dto.SlugDuplicate, "An event with this title already exists")
		case errors.Is(err, service.ErrInvalidSessionWindow),
			errors.Is(err, service.ErrInvalidQuestion),
			errors.Is(err, service.ErrInvalidPayload):
			dto.BadResponseError(ctx, dto.FieldIncorrect, err.Error())
		default:
			zlog.Logger.Error().Err(err).Msg("failed to create event")
			dto.InternalServerError(ctx)
		}
		return
	}

	dto.SuccessCreatedResponse(ctx, event)
}
