package notification

import (
	"context"
	"errors"
	"fmt"
	"html"

	"go.uber.org/zap"

	"github.com/khoahotran/profile-portal/internal/application/service"
	"github.com/khoahotran/profile-portal/pkg/logger"
)

// ProcessUserEventUseCase performs the side effects of user events that the
// API deliberately leaves to the worker.
type ProcessUserEventUseCase struct {
	mailer  service.Mailer
	storage service.FileStorage
	logger  logger.Logger
}

func NewProcessUserEventUseCase(mailer service.Mailer, storage service.FileStorage, log logger.Logger) *ProcessUserEventUseCase {
	return &ProcessUserEventUseCase{mailer: mailer, storage: storage, logger: log}
}

func (uc *ProcessUserEventUseCase) Execute(ctx context.Context, evt service.UserEvent) error {
	log := uc.logger.With(
		zap.String("event_type", string(evt.EventType)),
		zap.String("user_id", evt.UserID.String()),
	)

	switch evt.EventType {
	case service.UserEventPasswordResetRequested:
		if evt.Email == "" || evt.ResetURL == "" {
			log.Warn("Reset event without recipient or link, skip.")
			return nil
		}
		return uc.mailer.Send(ctx, resetMail(evt))

	case service.UserEventProfileUpdated, service.UserEventProfileDeleted:
		var errs []error
		for _, ref := range evt.StaleFiles {
			if err := uc.storage.Delete(ctx, ref); err != nil {
				errs = append(errs, fmt.Errorf("delete %s: %w", ref, err))
				continue
			}
			log.Info("Removed stale upload", zap.String("ref", ref))
		}
		return errors.Join(errs...)

	case service.UserEventRegistered:
		log.Info("User registered", zap.String("email", evt.Email))
		return nil
	}

	log.Warn("Unknown event type, skip.")
	return nil
}

func resetMail(evt service.UserEvent) service.Mail {
	body := fmt.Sprintf(`<p>We received a request to reset the password for %s.</p>
<p><a href="%s">Choose a new password</a></p>
<p>If you did not ask for this, you can ignore this email.</p>`, html.EscapeString(evt.Email), html.EscapeString(evt.ResetURL))
	return service.Mail{
		To:      evt.Email,
		Subject: "Reset your password",
		Body:    body,
	}
}
