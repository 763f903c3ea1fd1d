package auth

import (
	"context"
	"errors"

	"github.com/khoahotran/profile-portal/internal/domain/user"
	"github.com/khoahotran/profile-portal/pkg/apperror"
	"github.com/khoahotran/profile-portal/pkg/auth"
	"github.com/khoahotran/profile-portal/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type LoginUseCase struct {
	userRepo user.Repository
	jwtSvc   *auth.JWTService
	hasher   *auth.PasswordHasher
	logger   logger.Logger
}

func NewLoginUseCase(repo user.Repository, jwtSvc *auth.JWTService, hasher *auth.PasswordHasher, log logger.Logger) *LoginUseCase {
	return &LoginUseCase{
		userRepo: repo,
		jwtSvc:   jwtSvc,
		hasher:   hasher,
		logger:   log,
	}
}

type LoginInput struct {
	Email    string
	Password string
}

type LoginOutput struct {
	User        *user.User
	AccessToken string
}

var tracer = otel.Tracer("auth_usecase")

func (uc *LoginUseCase) Execute(ctx context.Context, input LoginInput) (*LoginOutput, error) {
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()

	u, err := uc.userRepo.FindByEmail(ctx, user.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			err = apperror.NewUnauthorized("unknown email", nil)
		}
		span.RecordError(err)
		return nil, err
	}

	if !uc.hasher.Check(input.Password, u.PasswordHash) {
		err := apperror.NewUnauthorized("incorrect password", nil)
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
	span.SetAttributes(attribute.String("user_id", u.ID.String()))
	return &LoginOutput{User: u, AccessToken: token}, nil
}
