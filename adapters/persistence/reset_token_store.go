package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/khoahotran/profile-portal/internal/application/service"
	"github.com/khoahotran/profile-portal/pkg/apperror"
)

const resetTokenKeyPrefix = "password_reset:"

type redisResetTokenStore struct {
	rdb *redis.Client
}

func NewRedisResetTokenStore(rdb *redis.Client) service.ResetTokenStore {
	return &redisResetTokenStore{rdb: rdb}
}

func (s *redisResetTokenStore) Save(ctx context.Context, digest string, userID uuid.UUID, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, resetTokenKeyPrefix+digest, userID.String(), ttl).Err(); err != nil {
		return apperror.NewInternal("failed to store reset token", err)
	}
	return nil
}

// Consume reads and deletes the token atomically with GETDEL.
func (s *redisResetTokenStore) Consume(ctx context.Context, digest string) (uuid.UUID, error) {
	val, err := s.rdb.GetDel(ctx, resetTokenKeyPrefix+digest).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, apperror.NewNotFound("Reset token", "digest")
		}
		return uuid.Nil, apperror.NewInternal("failed to read reset token", err)
	}

	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, apperror.NewInternal("corrupt reset token entry", err)
	}
	return id, nil
}
