package profile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/khoahotran/profile-portal/internal/application/service"
	"github.com/khoahotran/profile-portal/internal/domain/profile"
	"github.com/khoahotran/profile-portal/pkg/logger"
)

var tracer = otel.Tracer("profile_usecase")

type ProfileUseCase struct {
	profileRepo profile.Repository
	storage     service.FileStorage
	publisher   service.EventPublisher
	logger      logger.Logger
}

func NewProfileUseCase(
	repo profile.Repository,
	storage service.FileStorage,
	publisher service.EventPublisher,
	log logger.Logger,
) *ProfileUseCase {
	return &ProfileUseCase{
		profileRepo: repo,
		storage:     storage,
		publisher:   publisher,
		logger:      log,
	}
}

type GetProfileInput struct {
	UserID uuid.UUID
}

type GetProfileOutput struct {
	Profile *profile.Profile
}

func (uc *ProfileUseCase) ExecuteGetProfile(ctx context.Context, input GetProfileInput) (*GetProfileOutput, error) {
	ctx, span := tracer.Start(ctx, "GetProfile")
	defer span.End()

	p, err := uc.profileRepo.GetByUserID(ctx, input.UserID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("get profile failed: %w", err)
	}
	return &GetProfileOutput{Profile: p}, nil
}

type DeleteProfileInput struct {
	UserID uuid.UUID
}

// ExecuteDeleteProfile removes the user together with its certificates.
// Stored files are cleaned up asynchronously by the worker.
func (uc *ProfileUseCase) ExecuteDeleteProfile(ctx context.Context, input DeleteProfileInput) error {
	ctx, span := tracer.Start(ctx, "DeleteProfile")
	defer span.End()

	deleted, err := uc.profileRepo.Delete(ctx, input.UserID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("delete profile failed: %w", err)
	}

	uc.publish(ctx, service.UserEvent{
		EventType:  service.UserEventProfileDeleted,
		UserID:     input.UserID,
		StaleFiles: deleted.Files,
		OccurredAt: time.Now().UTC(),
	})
	return nil
}

func (uc *ProfileUseCase) publish(ctx context.Context, evt service.UserEvent) {
	if err := uc.publisher.PublishUserEvent(context.WithoutCancel(ctx), evt); err != nil {
		uc.logger.Error("Failed to publish user event", err,
			zap.String("event_type", string(evt.EventType)),
			zap.String("user_id", evt.UserID.String()),
		)
	}
}
