package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/profile-portal/internal/application/service"
	"github.com/khoahotran/profile-portal/internal/domain/user"
	"github.com/khoahotran/profile-portal/pkg/apperror"
	"github.com/khoahotran/profile-portal/pkg/auth"
	"github.com/khoahotran/profile-portal/pkg/logger"
)

type RegisterUseCase struct {
	userRepo  user.Repository
	jwtSvc    *auth.JWTService
	hasher    *auth.PasswordHasher
	publisher service.EventPublisher
	logger    logger.Logger
}

func NewRegisterUseCase(
	repo user.Repository,
	jwtSvc *auth.JWTService,
	hasher *auth.PasswordHasher,
	publisher service.EventPublisher,
	log logger.Logger,
) *RegisterUseCase {
	return &RegisterUseCase{userRepo: repo, jwtSvc: jwtSvc, hasher: hasher, publisher: publisher, logger: log}
}

type RegisterInput struct {
	Email    string
	Password string
}

type RegisterOutput struct {
	User        *user.User
	AccessToken string
}

func (uc *RegisterUseCase) Execute(ctx context.Context, input RegisterInput) (*RegisterOutput, error) {
	ctx, span := tracer.Start(ctx, "Register")
	defer span.End()

	if err := checkPassword("password", input.Password); err != nil {
		return nil, err
	}

	hash, err := uc.hasher.Hash(input.Password)
	if err != nil {
		err = apperror.NewInternal("failed to hash password", err)
		span.RecordError(err)
		return nil, err
	}

	now := time.Now().UTC()
	u := &user.User{
		ID:           uuid.New(),
		Email:        user.NormalizeEmail(input.Email),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.userRepo.Create(ctx, u); err != nil {
		span.RecordError(err)
		return nil, err
	}

	token, err := uc.jwtSvc.GenerateToken(u.ID)
	if err != nil {
		uc.logger.Error("Failed to generate token", err, zap.String("user_id", u.ID.String()))
		err = apperror.NewInternal("failed to generate token", err)
		span.RecordError(err)
		return nil, err
	}

	evt := service.UserEvent{
		EventType:  service.UserEventRegistered,
		UserID:     u.ID,
		Email:      u.Email,
		OccurredAt: now,
	}
	if err := uc.publisher.PublishUserEvent(ctx, evt); err != nil {
		uc.logger.Error("Failed to publish 'user.registered' event", err, zap.String("user_id", u.ID.String()))
	}

	span.SetAttributes(attribute.String("user_id", u.ID.String()))
	return &RegisterOutput{User: u, AccessToken: token}, nil
}

func checkPassword(field, password string) error {
	problems := user.PasswordProblems(password)
	if len(problems) == 0 {
		return nil
	}
	fields := make([]apperror.FieldError, len(problems))
	for i, p := range problems {
		fields[i] = apperror.FieldError{Field: field, Message: p}
	}
	return apperror.NewValidationFailed(fields...)
}
