package event

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/profile-portal/internal/application/service"
	"github.com/khoahotran/profile-portal/internal/config"
	"github.com/khoahotran/profile-portal/pkg/logger"
)

// UserEventHandler processes one decoded event. Failed events are retried
// with backoff a few times and then dropped.
type UserEventHandler func(ctx context.Context, evt service.UserEvent) error

type UserEventConsumer struct {
	reader *kafka.Reader
	logger logger.Logger
}

func NewUserEventConsumer(cfg config.Config, log logger.Logger) *UserEventConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    TopicUserEvents,
		GroupID:  cfg.Kafka.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &UserEventConsumer{reader: reader, logger: log}
}

// Run blocks until ctx is cancelled.
func (c *UserEventConsumer) Run(ctx context.Context, handle UserEventHandler) error {
	c.logger.Info("Worker listening", zap.String("topic", TopicUserEvents))
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			c.logger.Error("Failed to read message from Kafka", err)
			continue
		}

		var evt service.UserEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			c.logger.Error("Failed to unmarshal event, skipping", err, zap.Int64("offset", msg.Offset))
			c.commit(ctx, msg)
			continue
		}

		log := c.logger.With(
			zap.String("event_type", string(evt.EventType)),
			zap.String("user_id", evt.UserID.String()),
		)
		if err := c.handleWithRetry(ctx, handle, evt); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Error("Giving up on event", err, zap.Int64("offset", msg.Offset))
		}
		c.commit(ctx, msg)
	}
}

const maxAttempts = 3

func (c *UserEventConsumer) handleWithRetry(ctx context.Context, handle UserEventHandler, evt service.UserEvent) error {
	backoff := 500 * time.Millisecond
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = handle(ctx, evt); err == nil {
			return nil
		}
		c.logger.Warn("Event handler failed", zap.Int("attempt", attempt), zap.Error(err))
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return err
}

func (c *UserEventConsumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("Failed to commit message", err)
	}
}

func (c *UserEventConsumer) Close() error {
	return c.reader.Close()
}
