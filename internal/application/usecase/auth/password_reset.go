package auth

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/profile-portal/internal/application/service"
	"github.com/khoahotran/profile-portal/internal/domain/user"
	"github.com/khoahotran/profile-portal/pkg/apperror"
	"github.com/khoahotran/profile-portal/pkg/auth"
	"github.com/khoahotran/profile-portal/pkg/logger"
)

// RequestPasswordResetUseCase issues a single-use reset token and hands the
// reset link to the notification worker. Unknown emails succeed silently.
type RequestPasswordResetUseCase struct {
	userRepo  user.Repository
	tokens    service.ResetTokenStore
	publisher service.EventPublisher
	tokenTTL  time.Duration
	publicURL string
	logger    logger.Logger
}

func NewRequestPasswordResetUseCase(
	repo user.Repository,
	tokens service.ResetTokenStore,
	publisher service.EventPublisher,
	tokenTTL time.Duration,
	publicURL string,
	log logger.Logger,
) *RequestPasswordResetUseCase {
	return &RequestPasswordResetUseCase{
		userRepo:  repo,
		tokens:    tokens,
		publisher: publisher,
		tokenTTL:  tokenTTL,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    log,
	}
}

type RequestPasswordResetInput struct {
	Email string
}

func (uc *RequestPasswordResetUseCase) Execute(ctx context.Context, input RequestPasswordResetInput) error {
	ctx, span := tracer.Start(ctx, "RequestPasswordReset")
	defer span.End()

	u, err := uc.userRepo.FindByEmail(ctx, user.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			uc.logger.Info("Password reset requested for unknown email")
			return nil
		}
		span.RecordError(err)
		return err
	}

	token, digest, err := auth.NewResetToken()
	if err != nil {
		err = apperror.NewInternal("failed to generate reset token", err)
		span.RecordError(err)
		return err
	}
	if err := uc.tokens.Save(ctx, digest, u.ID, uc.tokenTTL); err != nil {
		span.RecordError(err)
		return err
	}

	evt := service.UserEvent{
		EventType:  service.UserEventPasswordResetRequested,
		UserID:     u.ID,
		Email:      u.Email,
		ResetURL:   uc.publicURL + "/reset-password?token=" + url.QueryEscape(token),
		OccurredAt: time.Now().UTC(),
	}
	if err := uc.publisher.PublishUserEvent(ctx, evt); err != nil {
		uc.logger.Error("Failed to publish 'password_reset.requested' event", err, zap.String("user_id", u.ID.String()))
	}
	return nil
}

type ResetPasswordUseCase struct {
	userRepo user.Repository
	tokens   service.ResetTokenStore
	hasher   *auth.PasswordHasher
	logger   logger.Logger
}

func NewResetPasswordUseCase(repo user.Repository, tokens service.ResetTokenStore, hasher *auth.PasswordHasher, log logger.Logger) *ResetPasswordUseCase {
	return &ResetPasswordUseCase{userRepo: repo, tokens: tokens, hasher: hasher, logger: log}
}

type ResetPasswordInput struct {
	Token       string
	NewPassword string
}

func (uc *ResetPasswordUseCase) Execute(ctx context.Context, input ResetPasswordInput) error {
	ctx, span := tracer.Start(ctx, "ResetPassword")
	defer span.End()

	// Validate before redeeming so a rejected password does not burn the token.
	if err := checkPassword("newPassword", input.NewPassword); err != nil {
		return err
	}

	userID, err := uc.tokens.Consume(ctx, auth.DigestResetToken(input.Token))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			err = apperror.NewUnauthorized("invalid or expired reset token", nil)
		}
		span.RecordError(err)
		return err
	}

	hash, err := uc.hasher.Hash(input.NewPassword)
	if err != nil {
		err = apperror.NewInternal("failed to hash password", err)
		span.RecordError(err)
		return err
	}
	if err := uc.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		span.RecordError(err)
		return err
	}

	uc.logger.Info("Password reset completed", zap.String("user_id", userID.String()))
	return nil
}

type GetCurrentUserUseCase struct {
	userRepo user.Repository
}

func NewGetCurrentUserUseCase(repo user.Repository) *GetCurrentUserUseCase {
	return &GetCurrentUserUseCase{userRepo: repo}
}

func (uc *GetCurrentUserUseCase) Execute(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	return uc.userRepo.FindByID(ctx, userID)
}
