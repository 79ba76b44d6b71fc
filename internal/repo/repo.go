package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"

	"venu/internal/model"
)

var (
	ErrEventNotFound         = errors.New("event not found")
	ErrRegistrationNotFound  = errors.New("registration not found")
	ErrParticipantNotFound   = errors.New("participant not found")
	ErrResourceNotFound      = errors.New("resource not found")
	ErrDuplicateRegistration = errors.New("duplicate registration")
	ErrDuplicateSlug         = errors.New("duplicate event slug")
	ErrAlreadyCheckedIn      = errors.New("already checked in")
)

// RegistrationRow is a dashboard line: a registration joined with its
// participant.
type RegistrationRow struct {
	model.Registration
	ParticipantName  string `json:"participant_name"`
	ParticipantEmail string `json:"participant_email"`
}

type Repository interface {
	CreateEventTx(ctx context.Context, e *model.Event, sessions []model.Session, questions []model.Question, choices [][]string, resources []model.Resource, resourceSessions []int) (int64, error)
	GetEventByID(ctx context.Context, id int64) (*model.Event, error)
	GetEventBySlug(ctx context.Context, slug string) (*model.Event, error)
	GetPublishedEvents(ctx context.Context) ([]model.Event, error)
	SessionsByEventID(ctx context.Context, eventID int64) ([]model.Session, error)
	QuestionsByEventID(ctx context.Context, eventID int64) ([]model.Question, error)
	ChoicesByEventID(ctx context.Context, eventID int64) ([]model.QuestionChoice, error)

	CreateRegistrationTx(ctx context.Context, eventID int64, p model.Participant, token string, status model.Status, answers []model.RegistrationAnswer) (*model.Registration, error)
	GetRegistrationByToken(ctx context.Context, token string) (*model.Registration, error)
	GetRegistrationByID(ctx context.Context, id int64) (*model.Registration, error)
	GetParticipant(ctx context.Context, id int64) (*model.Participant, error)
	FindLatestRegistrationByEmail(ctx context.Context, email string) (*model.Registration, error)
	UpdateRegistrationStatusTx(ctx context.Context, registrationID int64, status model.Status) (*model.Registration, error)

	CreateAttendanceTx(ctx context.Context, registrationID, sessionID int64, scannedBy *string) (*model.Attendance, error)
	HasAttendance(ctx context.Context, registrationID int64) (bool, error)

	GetResource(ctx context.Context, id int64) (*model.Resource, error)
	ResourcesByEventID(ctx context.Context, eventID int64) ([]model.Resource, error)

	CountRegistrationsByStatus(ctx context.Context, eventID int64) (map[model.Status]int, error)
	RegistrationsByEventID(ctx context.Context, eventID int64, status *model.Status) ([]RegistrationRow, error)

	MigrateUp(migrationsDir string) error
	MigrateDown(migrationsDir string) error
}

type repository struct {
	db  *dbpg.DB
	log *zerolog.Logger
}

func NewRepository(db *dbpg.DB, log *zerolog.Logger) (Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if err := db.Master.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return &repository{db: db, log: log}, nil
}

func (r *repository) MigrateUp(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file, err)
		}

		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}
	}

	r.log.Info().Msgf("Migrations applied successfully from %s", migrationsDir)
	return nil
}

func (r *repository) MigrateDown(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.down.sql"))
	if err != nil {
		return fmt.Errorf("failed to read rollback files: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read rollback file %s: %w", file, err)
		}

		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to rollback migration %s: %w", file, err)
		}
	}

	r.log.Info().Msgf("Migrations rolled back successfully from %s", migrationsDir)
	return nil
}

// CreateEventTx persists an event with its sessions, question schema and
// resources in one transaction. resourceSessions maps each resource to the
// index of the session it is scoped to, -1 for event-wide resources.
func (r *repository) CreateEventTx(ctx context.Context, e *model.Event, sessions []model.Session, questions []model.Question, choices [][]string, resources []model.Resource, resourceSessions []int) (int64, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var eventID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO events (title, slug, description, location, requires_approval, start_date, end_date, is_published)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (slug) DO NOTHING
		RETURNING id
	`, e.Title, e.Slug, e.Description, e.Location, e.RequiresApproval, e.StartDate, e.EndDate, e.IsPublished).Scan(&eventID)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrDuplicateSlug
		}
		return 0, fmt.Errorf("failed to insert event: %w", err)
	}

	sessionIDs := make([]int64, 0, len(sessions))
	for _, s := range sessions {
		var sessionID int64
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO sessions (event_id, title, speaker, description, start_time, end_time, capacity, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`, eventID, s.Title, s.Speaker, s.Description, s.StartTime, s.EndTime, s.Capacity, s.IsActive).Scan(&sessionID); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("failed to insert session: %w", err)
		}
		sessionIDs = append(sessionIDs, sessionID)
	}

	for i, q := range questions {
		var questionID int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO questions (event_id, label, field_type, required, ord)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, eventID, q.Label, q.FieldType, q.Required, q.Order).Scan(&questionID)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("failed to insert question: %w", err)
		}
		if i < len(choices) {
			for _, text := range choices[i] {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO question_choices (question_id, text) VALUES ($1, $2)
				`, questionID, text); err != nil {
					_ = tx.Rollback()
					return 0, fmt.Errorf("failed to insert question choice: %w", err)
				}
			}
		}
	}

	for i, res := range resources {
		if i < len(resourceSessions) && resourceSessions[i] >= 0 && resourceSessions[i] < len(sessionIDs) {
			res.SessionID = &sessionIDs[resourceSessions[i]]
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO resources (event_id, session_id, title, resource_type, file_path, video_url, unlock_time, requires_check_in, ord)
			VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9)
		`, eventID, res.SessionID, res.Title, res.ResourceType, res.FilePath, res.VideoURL, res.UnlockTime, res.RequiresCheckIn, res.Order); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("failed to insert resource: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return eventID, nil
}

// scanErr maps a single-row scan failure: absence becomes the caller's
// not-found sentinel, anything else is an infrastructure failure and is
// wrapped so it surfaces as an internal error, never a public 404.
func scanErr(err, sentinel error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

const eventColumns = `id, title, slug, description, location, requires_approval, start_date, end_date, is_published, created_at, updated_at`

func scanEvent(row *sql.Row) (*model.Event, error) {
	var e model.Event
	err := row.Scan(
		&e.ID, &e.Title, &e.Slug, &e.Description, &e.Location,
		&e.RequiresApproval, &e.StartDate, &e.EndDate, &e.IsPublished,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, scanErr(err, ErrEventNotFound, "event")
	}
	return &e, nil
}

func (r *repository) GetEventByID(ctx context.Context, id int64) (*model.Event, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	return scanEvent(row)
}

func (r *repository) GetEventBySlug(ctx context.Context, slug string) (*model.Event, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE slug = $1`, slug)
	return scanEvent(row)
}

func (r *repository) GetPublishedEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE is_published
		ORDER BY start_date DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(
			&e.ID, &e.Title, &e.Slug, &e.Description, &e.Location,
			&e.RequiresApproval, &e.StartDate, &e.EndDate, &e.IsPublished,
			&e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

func (r *repository) SessionsByEventID(ctx context.Context, eventID int64) ([]model.Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, event_id, title, speaker, description, start_time, end_time, capacity, is_active
		FROM sessions
		WHERE event_id = $1
		ORDER BY start_time ASC, id ASC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sessions: %w", err)
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		var s model.Session
		if err := rows.Scan(
			&s.ID, &s.EventID, &s.Title, &s.Speaker, &s.Description,
			&s.StartTime, &s.EndTime, &s.Capacity, &s.IsActive,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

func (r *repository) QuestionsByEventID(ctx context.Context, eventID int64) ([]model.Question, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, event_id, label, field_type, required, ord
		FROM questions
		WHERE event_id = $1
		ORDER BY ord ASC, id ASC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.EventID, &q.Label, &q.FieldType, &q.Required, &q.Order); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, q)
	}

	return questions, rows.Err()
}

func (r *repository) ChoicesByEventID(ctx context.Context, eventID int64) ([]model.QuestionChoice, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.question_id, c.text
		FROM question_choices c
		JOIN questions q ON q.id = c.question_id
		WHERE q.event_id = $1
		ORDER BY c.id ASC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get question choices: %w", err)
	}
	defer rows.Close()

	var choices []model.QuestionChoice
	for rows.Next() {
		var c model.QuestionChoice
		if err := rows.Scan(&c.ID, &c.QuestionID, &c.Text); err != nil {
			return nil, fmt.Errorf("failed to scan question choice: %w", err)
		}
		choices = append(choices, c)
	}

	return choices, rows.Err()
}

// CreateRegistrationTx persists the participant (get-or-create by exact
// email; first submission wins on name/phone), the registration, and the
// answers in a single transaction. The (event_id, participant_id) unique
// constraint is the backstop against concurrent duplicate submissions: the
// losing writer gets ErrDuplicateRegistration.
func (r *repository) CreateRegistrationTx(ctx context.Context, eventID int64, p model.Participant, token string, status model.Status, answers []model.RegistrationAnswer) (*model.Registration, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO participants (name, email, phone)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO NOTHING
	`, p.Name, p.Email, p.Phone); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to upsert participant: %w", err)
	}

	var participantID int64
	if err := tx.QueryRowContext(ctx, `
		SELECT id FROM participants WHERE email = $1
	`, p.Email).Scan(&participantID); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to resolve participant: %w", err)
	}

	var reg model.Registration
	err = tx.QueryRowContext(ctx, `
		INSERT INTO registrations (token, event_id, participant_id, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id, participant_id) DO NOTHING
		RETURNING id, token, event_id, participant_id, status, created_at
	`, token, eventID, participantID, status).Scan(
		&reg.ID, &reg.Token, &reg.EventID, &reg.ParticipantID, &reg.Status, &reg.CreatedAt,
	)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDuplicateRegistration
		}
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}

	for _, a := range answers {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO registration_answers (registration_id, question_id, value)
			VALUES ($1, $2, $3)
		`, reg.ID, a.QuestionID, a.Value); err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("failed to insert answer: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &reg, nil
}

const registrationColumns = `id, token, event_id, participant_id, status, created_at`

func scanRegistration(row *sql.Row) (*model.Registration, error) {
	var reg model.Registration
	err := row.Scan(&reg.ID, &reg.Token, &reg.EventID, &reg.ParticipantID, &reg.Status, &reg.CreatedAt)
	if err != nil {
		return nil, scanErr(err, ErrRegistrationNotFound, "registration")
	}
	return &reg, nil
}

func (r *repository) GetRegistrationByToken(ctx context.Context, token string) (*model.Registration, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE token = $1`, token)
	return scanRegistration(row)
}

func (r *repository) GetRegistrationByID(ctx context.Context, id int64) (*model.Registration, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id)
	return scanRegistration(row)
}

func (r *repository) GetParticipant(ctx context.Context, id int64) (*model.Participant, error) {
	var p model.Participant
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone FROM participants WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Email, &p.Phone)
	if err != nil {
		return nil, scanErr(err, ErrParticipantNotFound, "participant")
	}
	return &p, nil
}

// FindLatestRegistrationByEmail is the ticket recovery lookup. Matching is
// case-insensitive here, unlike registration-time dedup which is exact.
func (r *repository) FindLatestRegistrationByEmail(ctx context.Context, email string) (*model.Registration, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT r.id, r.token, r.event_id, r.participant_id, r.status, r.created_at
		FROM registrations r
		JOIN participants p ON p.id = r.participant_id
		WHERE LOWER(p.email) = LOWER($1)
		ORDER BY r.created_at DESC
		LIMIT 1
	`, email)
	return scanRegistration(row)
}

func (r *repository) UpdateRegistrationStatusTx(ctx context.Context, registrationID int64, status model.Status) (*model.Registration, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var reg model.Registration
	err = tx.QueryRowContext(ctx, `
		UPDATE registrations
		SET status = $1
		WHERE id = $2
		RETURNING id, token, event_id, participant_id, status, created_at
	`, status, registrationID).Scan(
		&reg.ID, &reg.Token, &reg.EventID, &reg.ParticipantID, &reg.Status, &reg.CreatedAt,
	)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to update registration status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &reg, nil
}

// CreateAttendanceTx is the insert-if-absent half of the check-in protocol.
// The (registration_id, session_id) unique constraint serializes concurrent
// scans of the same ticket: the loser observes ErrAlreadyCheckedIn, never a
// raw constraint violation.
func (r *repository) CreateAttendanceTx(ctx context.Context, registrationID, sessionID int64, scannedBy *string) (*model.Attendance, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var att model.Attendance
	err = tx.QueryRowContext(ctx, `
		INSERT INTO attendances (registration_id, session_id, scanned_by)
		VALUES ($1, $2, $3)
		ON CONFLICT (registration_id, session_id) DO NOTHING
		RETURNING id, registration_id, session_id, checked_in_at, scanned_by
	`, registrationID, sessionID, scannedBy).Scan(
		&att.ID, &att.RegistrationID, &att.SessionID, &att.CheckedInAt, &att.ScannedBy,
	)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAlreadyCheckedIn
		}
		return nil, fmt.Errorf("failed to create attendance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &att, nil
}

func (r *repository) HasAttendance(ctx context.Context, registrationID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM attendances WHERE registration_id = $1)
	`, registrationID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check attendance: %w", err)
	}
	return exists, nil
}

func (r *repository) GetResource(ctx context.Context, id int64) (*model.Resource, error) {
	var res model.Resource
	err := r.db.QueryRowContext(ctx, `
		SELECT id, event_id, session_id, title, resource_type,
		       COALESCE(file_path, ''), COALESCE(video_url, ''), unlock_time, requires_check_in, ord
		FROM resources WHERE id = $1
	`, id).Scan(
		&res.ID, &res.EventID, &res.SessionID, &res.Title, &res.ResourceType,
		&res.FilePath, &res.VideoURL, &res.UnlockTime, &res.RequiresCheckIn, &res.Order,
	)
	if err != nil {
		return nil, scanErr(err, ErrResourceNotFound, "resource")
	}
	return &res, nil
}

func (r *repository) ResourcesByEventID(ctx context.Context, eventID int64) ([]model.Resource, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, event_id, session_id, title, resource_type,
		       COALESCE(file_path, ''), COALESCE(video_url, ''), unlock_time, requires_check_in, ord
		FROM resources
		WHERE event_id = $1
		ORDER BY ord ASC, title ASC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get resources: %w", err)
	}
	defer rows.Close()

	var resources []model.Resource
	for rows.Next() {
		var res model.Resource
		if err := rows.Scan(
			&res.ID, &res.EventID, &res.SessionID, &res.Title, &res.ResourceType,
			&res.FilePath, &res.VideoURL, &res.UnlockTime, &res.RequiresCheckIn, &res.Order,
		); err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		resources = append(resources, res)
	}

	return resources, rows.Err()
}

func (r *repository) CountRegistrationsByStatus(ctx context.Context, eventID int64) (map[model.Status]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*)
		FROM registrations
		WHERE event_id = $1
		GROUP BY status
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to count registrations: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.Status]int)
	for rows.Next() {
		var status model.Status
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[status] = n
	}

	return counts, rows.Err()
}

func (r *repository) RegistrationsByEventID(ctx context.Context, eventID int64, status *model.Status) ([]RegistrationRow, error) {
	query := `
		SELECT r.id, r.token, r.event_id, r.participant_id, r.status, r.created_at, p.name, p.email
		FROM registrations r
		JOIN participants p ON p.id = r.participant_id
		WHERE r.event_id = $1
	`
	args := []any{eventID}
	if status != nil {
		query += ` AND r.status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY r.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get registrations: %w", err)
	}
	defer rows.Close()

	var regs []RegistrationRow
	for rows.Next() {
		var row RegistrationRow
		if err := rows.Scan(
			&row.ID, &row.Token, &row.EventID, &row.ParticipantID, &row.Status, &row.CreatedAt,
			&row.ParticipantName, &row.ParticipantEmail,
		); err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		regs = append(regs, row)
	}

	return regs, rows.Err()
}
