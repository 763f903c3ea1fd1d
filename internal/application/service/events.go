package service

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type UserEventType string

const (
	UserEventRegistered             UserEventType = "user.registered"
	UserEventProfileUpdated         UserEventType = "profile.updated"
	UserEventProfileDeleted         UserEventType = "profile.deleted"
	UserEventPasswordResetRequested UserEventType = "password_reset.requested"
)

type UserEvent struct {
	EventType  UserEventType `json:"event_type"`
	UserID     uuid.UUID     `json:"user_id"`
	Email      string        `json:"email,omitempty"`
	ResetURL   string        `json:"reset_url,omitempty"`
	StaleFiles []string      `json:"stale_files,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

type EventPublisher interface {
	PublishUserEvent(ctx context.Context, evt UserEvent) error
}
