// Package broker publishes ingestion events to Kafka. The whole package is
// optional at runtime: with no brokers configured the publisher is a no-op.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"partflow/internal/models"
	"partflow/internal/util"
)

// writerAPI is the slice of kafka.Writer the publisher needs; tests swap in
// a recorder.
type writerAPI interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher emits part events. A nil Publisher is safe to call.
type Publisher struct {
	writer writerAPI
	logger *zap.Logger
}

// NewPublisher creates a publisher for the topic, or nil when no brokers
// are configured.
func NewPublisher(brokers []string, topic string) *Publisher {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}
	return &Publisher{writer: writer, logger: util.GetLogger()}
}

// PublishPartIngested emits a part.ingested event keyed by IPN. Errors are
// returned for the caller to log; publishing is never load-bearing.
func (p *Publisher) PublishPartIngested(ctx context.Context, event models.PartIngestedEvent) error {
	if p == nil {
		return nil
	}
	event.EventID = uuid.NewString()
	event.EventType = models.EventTypePartIngested
	event.Timestamp = time.Now().UTC()

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.IPN),
		Value: payload,
		Time:  event.Timestamp,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	p.logger.Info("Published part event",
		zap.String("type", event.EventType),
		zap.String("ipn", event.IPN),
		zap.Bool("was_new", event.WasNew))
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
