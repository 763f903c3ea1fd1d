package service

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ResetTokenStore keeps password reset tokens by digest. Consume is
// single-use: a digest can be redeemed at most once.
type ResetTokenStore interface {
	Save(ctx context.Context, digest string, userID uuid.UUID, ttl time.Duration) error
	Consume(ctx context.Context, digest string) (uuid.UUID, error)
}
