package consumerWorker

import (
	"context"
	"encoding/json"

	"github.com/wb-go/wbf/zlog"

	"venu/internal/dto"
	"venu/internal/mailer"
	"venu/internal/rabbit"
	"venu/internal/repo"
)

// Reader consumes status notifications and emails the participant. State is
// re-read from the store at delivery time: a registration may have been
// transitioned again between publish and consume, and the participant
// should only be told the current truth.
type Reader struct {
	RMQ    *rabbit.Client
	repo   repo.Repository
	mail   *mailer.Mailer
	done   chan struct{}
	cancel context.CancelFunc
}

func NewReader(rmq *rabbit.Client, repo repo.Repository, mail *mailer.Mailer) *Reader {
	return &Reader{
		RMQ:  rmq,
		repo: repo,
		mail: mail,
		done: make(chan struct{}),
	}
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	zlog.Logger.Info().Msg("notification reader started")

	go func() {
		defer close(r.done)

		handler := func(body []byte) error {
			return r.handle(cctx, body)
		}

		if err := r.RMQ.Consume(handler); err != nil {
			zlog.Logger.Error().Err(err).Msg("Failed to start consuming")
			return
		}

		<-cctx.Done()
		zlog.Logger.Info().Msg("notification reader stopped by context")
	}()
}

// handle processes one delivered notification. A body that does not decode
// is acked and dropped: requeueing it would redeliver forever, and the store
// re-read design means a lost notification only costs one email.
func (r *Reader) handle(ctx context.Context, body []byte) error {
	var msg dto.StatusNotification
	if err := json.Unmarshal(body, &msg); err != nil {
		zlog.Logger.Error().
			Err(err).
			Msgf("Dropping undecodable message: %s", string(body))
		return nil
	}

	zlog.Logger.Info().
		Int64("registration_id", msg.RegistrationID).
		Str("status", msg.Status).
		Msg("received status notification")

	reg, err := r.repo.GetRegistrationByID(ctx, msg.RegistrationID)
	if err != nil {
		zlog.Logger.Error().
			Err(err).
			Int64("registration_id", msg.RegistrationID).
			Msg("Failed to get registration from DB in worker")
		return nil
	}

	event, err := r.repo.GetEventByID(ctx, reg.EventID)
	if err != nil {
		zlog.Logger.Error().
			Err(err).
			Int64("event_id", reg.EventID).
			Msg("Failed to get event from DB in worker")
		return nil
	}

	participant, err := r.repo.GetParticipant(ctx, reg.ParticipantID)
	if err != nil {
		zlog.Logger.Error().
			Err(err).
			Int64("participant_id", reg.ParticipantID).
			Msg("Failed to get participant from DB in worker")
		return nil
	}

	if err := r.mail.SendStatusEmail(event.Title, reg.Status, participant.Email); err != nil {
		zlog.Logger.Warn().
			Err(err).
			Msg("Failed to send notification e-mail")
	}

	return nil
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}
