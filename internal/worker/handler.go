package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"inkpress/internal/mailer"
	"inkpress/internal/metrics"
	"inkpress/internal/queue"
)

// Handler processes mail events from the queue.
type Handler struct {
	mailer mailer.Mailer
}

// NewHandler creates a new event handler.
func NewHandler(m mailer.Mailer) *Handler {
	return &Handler{mailer: m}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.MailEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventVerificationMail:
		err = h.handleVerificationMail(ctx, event)
	case queue.EventResetMail:
		err = h.handleResetMail(ctx, event)
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	metrics.ObserveMailEvent(event.Type, err)

	if err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s duration=%v err=%v",
			event.Type, time.Since(startTime), err)
		return err
	}

	log.Printf("[Worker] HandleEvent OK: type=%s duration=%v", event.Type, time.Since(startTime))
	return nil
}

func (h *Handler) handleVerificationMail(ctx context.Context, event queue.MailEvent) error {
	log.Printf("[Worker] VerificationMail: to=%s", event.Recipient)

	if err := h.mailer.SendVerificationCode(ctx, event.Recipient, event.FullName, event.Code); err != nil {
		return fmt.Errorf("send verification mail: %w", err)
	}
	return nil
}

func (h *Handler) handleResetMail(ctx context.Context, event queue.MailEvent) error {
	log.Printf("[Worker] ResetMail: to=%s", event.Recipient)

	if err := h.mailer.SendResetToken(ctx, event.Recipient, event.FullName, event.ResetToken); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}
	return nil
}
