package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/profile-portal/internal/application/service"
	"github.com/khoahotran/profile-portal/internal/config"
	"github.com/khoahotran/profile-portal/pkg/logger"
)

const TopicUserEvents = "user.events"

type KafkaProducerClient struct {
	UserEventsWriter *kafka.Writer
	logger           logger.Logger
}

func NewKafkaProducerClient(cfg config.Config, log logger.Logger) (*KafkaProducerClient, error) {
	brokers := cfg.Kafka.Brokers
	if len(brokers) == 0 {
		return nil, fmt.Errorf("config Kafka brokers not found")
	}

	// Keyed by user so one user's events stay ordered on one partition.
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  TopicUserEvents,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}

	log.Info("Initialize Kafka Producers successfully.", zap.Strings("brokers", brokers))
	return &KafkaProducerClient{UserEventsWriter: writer, logger: log}, nil
}

func (c *KafkaProducerClient) PublishUserEvent(ctx context.Context, evt service.UserEvent) error {
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal user event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(evt.UserID.String()),
		Value: value,
	}
	if err := c.UserEventsWriter.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s event: %w", evt.EventType, err)
	}
	return nil
}

func (c *KafkaProducerClient) Close() {
	if c.UserEventsWriter != nil {
		if err := c.UserEventsWriter.Close(); err != nil {
			c.logger.Error("Failed to close Kafka writer", err)
		}
	}
	c.logger.Info("Closed Kafka Producers")
}

// LogPublisher stands in for Kafka when no brokers are configured. Events are
// only logged, so worker side effects do not happen.
type LogPublisher struct {
	logger logger.Logger
}

func NewLogPublisher(log logger.Logger) *LogPublisher {
	return &LogPublisher{logger: log}
}

func (p *LogPublisher) PublishUserEvent(_ context.Context, evt service.UserEvent) error {
	p.logger.Warn("Kafka disabled, dropping user event",
		zap.String("event_type", string(evt.EventType)),
		zap.String("user_id", evt.UserID.String()),
		zap.Int("stale_files", len(evt.StaleFiles)),
	)
	return nil
}
