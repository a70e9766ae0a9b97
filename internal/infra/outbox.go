package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gameportal/portal/internal/domain"
	"github.com/google/uuid"
)

// OutboxSource is the slice of the outbox repository the poller needs.
type OutboxSource interface {
	FetchUnpublished(ctx context.Context, limit int) ([]domain.OutboxDraft, error)
	MarkPublished(ctx context.Context, eventID uuid.UUID, at time.Time) error
}

// Publisher delivers one message. KafkaProducer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// OutboxPoller polls event_outbox and publishes portal events to Kafka.
type OutboxPoller struct {
	source    OutboxSource
	publisher Publisher
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

// NewOutboxPoller creates a new outbox poller.
func NewOutboxPoller(source OutboxSource, publisher Publisher, interval time.Duration, batchSize int, logger *slog.Logger) *OutboxPoller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxPoller{
		source:    source,
		publisher: publisher,
		logger:    logger,
		interval:  interval,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// Run polls until ctx is cancelled.
func (p *OutboxPoller) Run(ctx context.Context) {
	p.logger.Info("outbox poller started", "interval", p.interval, "batch_size", p.batchSize)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("outbox poller stopped")
			return
		case <-ticker.C:
			if _, err := p.PollOnce(ctx); err != nil {
				p.logger.Error("outbox poll error", "error", err)
			}
		}
	}
}

// OutboxTopic is the Kafka topic an event is published to. Event types are
// already namespaced ("portal.game.created"), so the type is the topic.
func OutboxTopic(d domain.OutboxDraft) string {
	return string(d.EventType)
}

// OutboxMessage encodes an outbox event as a broker message keyed by its
// partition key, falling back to the aggregate id.
func OutboxMessage(d domain.OutboxDraft) (Message, error) {
	value, err := json.Marshal(d)
	if err != nil {
		return Message{}, err
	}
	key := d.PartitionKey
	if key == "" {
		key = d.AggregateID
	}
	return Message{
		Topic: OutboxTopic(d),
		Key:   []byte(key),
		Value: value,
		Headers: map[string]string{
			"event_id":       d.EventID.String(),
			"event_type":     string(d.EventType),
			"aggregate_type": string(d.AggregateType),
		},
	}, nil
}

// PollOnce publishes one batch and returns how many events were marked published.
// A failed publish leaves the event in the outbox for the next poll.
func (p *OutboxPoller) PollOnce(ctx context.Context) (int, error) {
	events, err := p.source.FetchUnpublished(ctx, p.batchSize)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	published := 0
	for _, e := range events {
		msg, err := OutboxMessage(e)
		if err != nil {
			p.logger.Error("encode outbox event", "event_id", e.EventID, "error", err)
			continue
		}

		if err := p.publisher.Publish(ctx, msg); err != nil {
			p.logger.Error("kafka publish failed", "event_id", e.EventID, "error", err)
			continue
		}

		if err := p.source.MarkPublished(ctx, e.EventID, p.now().UTC()); err != nil {
			p.logger.Error("mark published failed", "event_id", e.EventID, "error", err)
			continue
		}
		published++
	}

	p.logger.Debug("outbox poll complete", "fetched", len(events), "published", published)
	return published, nil
}

// Breaker gates calls per key. guard.CircuitBreaker satisfies it.
type Breaker interface {
	Check(ctx context.Context, key string) domain.GuardResult
	RecordSuccess(key string)
	RecordFailure(key string)
}

// ErrCircuitOpen is returned by a BreakerPublisher while a topic's circuit is open.
var ErrCircuitOpen = errors.New("publisher circuit open")

// BreakerPublisher wraps a Publisher with a per-topic circuit breaker.
type BreakerPublisher struct {
	next    Publisher
	breaker Breaker
}

// NewBreakerPublisher wraps next with breaker.
func NewBreakerPublisher(next Publisher, breaker Breaker) *BreakerPublisher {
	return &BreakerPublisher{next: next, breaker: breaker}
}

// Publish delivers through next unless the topic's circuit is open.
func (b *BreakerPublisher) Publish(ctx context.Context, msg Message) error {
	if res := b.breaker.Check(ctx, msg.Topic); !res.Allowed {
		return fmt.Errorf("%w: %s", ErrCircuitOpen, res.Reason)
	}
	if err := b.next.Publish(ctx, msg); err != nil {
		b.breaker.RecordFailure(msg.Topic)
		return err
	}
	b.breaker.RecordSuccess(msg.Topic)
	return nil
}
