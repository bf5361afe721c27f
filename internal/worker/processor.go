package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/abhay-kr-0705/GEN-X/internal/mail"
	"github.com/abhay-kr-0705/GEN-X/internal/queue"
)

// Destroyer removes assets from the image host.
type Destroyer interface {
	Destroy(ctx context.Context, publicID string) error
}

// Processor runs background tasks. It is plugged into the asynq worker loop
// and, without Redis, into the in-process pool.
type Processor struct {
	host   Destroyer
	mailer mail.Mailer
	log    *slog.Logger
}

// NewProcessor constructs a worker processor.
func NewProcessor(host Destroyer, mailer mail.Mailer, log *slog.Logger) *Processor {
	return &Processor{host: host, mailer: mailer, log: log.With("component", "worker")}
}

// Handler registers the task handlers.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.DestroyAssetTask, p.handleDestroy)
	mux.HandleFunc(queue.EventConfirmationTask, p.handleConfirmation)
	return mux
}

// HandleDestroyAsset removes an orphaned asset.
func (p *Processor) HandleDestroyAsset(ctx context.Context, payload queue.DestroyAssetPayload) error {
	if payload.PublicID == "" {
		return fmt.Errorf("destroy asset: empty public id: %w", asynq.SkipRetry)
	}
	if err := p.host.Destroy(ctx, payload.PublicID); err != nil {
		p.log.Warn("destroy asset failed", "public_id", payload.PublicID, "reason", payload.Reason, "error", err)
		return fmt.Errorf("destroy %s: %w", payload.PublicID, err)
	}
	p.log.Info("orphaned asset destroyed", "public_id", payload.PublicID, "reason", payload.Reason)
	return nil
}

// HandleConfirmation mails a registration confirmation.
func (p *Processor) HandleConfirmation(ctx context.Context, payload queue.ConfirmationPayload) error {
	msg, err := mail.ConfirmationMessage(mail.Confirmation{
		Name:           payload.Name,
		Email:          payload.Email,
		RegistrationNo: payload.RegistrationNo,
		EventTitle:     payload.EventTitle,
		EventDate:      payload.EventDate,
		EventEndDate:   payload.EventEndDate,
		Venue:          payload.Venue,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	if err := p.mailer.Send(ctx, msg); err != nil {
		p.log.Warn("confirmation mail failed", "registration", payload.RegistrationID, "error", err)
		return fmt.Errorf("send confirmation: %w", err)
	}
	p.log.Info("confirmation mail sent", "registration", payload.RegistrationID)
	return nil
}

func (p *Processor) handleDestroy(ctx context.Context, task *asynq.Task) error {
	var payload queue.DestroyAssetPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	return p.HandleDestroyAsset(ctx, payload)
}

func (p *Processor) handleConfirmation(ctx context.Context, task *asynq.Task) error {
	var payload queue.ConfirmationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	return p.HandleConfirmation(ctx, payload)
}
