// Package publisher emits checker decisions to a Redis stream.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"opium-checker/internal/domain"
	"opium-checker/internal/observability"
)

// DefaultTopic is the stream decisions are published to.
const DefaultTopic = "checker-decisions"

// Publisher publishes decisions as JSON messages.
type Publisher struct {
	pub    message.Publisher
	topic  string
	logger *zap.Logger
}

// New creates a Publisher backed by Redis Streams.
func New(redisClient redis.UniversalClient, topic string, logger *zap.Logger) (*Publisher, error) {
	pub, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: redisClient,
		},
		watermill.NopLogger{},
	)
	if err != nil {
		return nil, fmt.Errorf("create redisstream publisher: %w", err)
	}
	return NewWithPublisher(pub, topic, logger), nil
}

// NewWithPublisher wraps an existing watermill publisher.
func NewWithPublisher(pub message.Publisher, topic string, logger *zap.Logger) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{pub: pub, topic: topic, logger: logger}
}

// PublishDecision publishes d keyed by its run ID.
func (p *Publisher) PublishDecision(ctx context.Context, d *domain.Decision) error {
	start := time.Now()

	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode decision: %w", err)
	}

	msgUUID := watermill.NewUUID()
	msg := message.NewMessage(msgUUID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("run_id", d.RunID)
	msg.Metadata.Set("mode", d.Mode.String())

	if err := p.pub.Publish(p.topic, msg); err != nil {
		p.logger.Error("decision publish failed",
			zap.String("run_id", d.RunID),
			zap.String("msg_uuid", msgUUID),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return fmt.Errorf("publish decision %s: %w", d.RunID, err)
	}

	observability.RecordDecisionPublished()
	p.logger.Debug("decision published",
		zap.String("run_id", d.RunID),
		zap.String("msg_uuid", msgUUID),
		zap.Bool("can_exec", d.CanExec),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// Close closes the publisher.
func (p *Publisher) Close() error {
	return p.pub.Close()
}

// Topic returns the stream topic name.
func (p *Publisher) Topic() string {
	return p.topic
}
