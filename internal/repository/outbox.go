package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gameportal/portal/internal/domain"
	"github.com/gameportal/portal/internal/store"
	"github.com/google/uuid"
)

type outboxRow struct {
	ID            string    `json:"id"`
	AggregateType string    `json:"aggregate_type"`
	AggregateID   string    `json:"aggregate_id"`
	EventType     string    `json:"event_type"`
	PartitionKey  string    `json:"partition_key"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type outboxRepo struct{ s store.Store }

// NewOutboxRepository returns a store-backed OutboxRepository.
func NewOutboxRepository(s store.Store) OutboxRepository {
	return &outboxRepo{s: s}
}

func (r *outboxRepo) Insert(ctx context.Context, draft domain.OutboxDraft) error {
	_, err := r.s.Create(ctx, store.EventOutbox, store.Record{
		"id":             draft.EventID.String(),
		"aggregate_type": string(draft.AggregateType),
		"aggregate_id":   draft.AggregateID,
		"event_type":     string(draft.EventType),
		"partition_key":  draft.PartitionKey,
		"payload":        string(draft.Payload),
		"occurred_at":    draft.OccurredAt.UTC(),
		"published_at":   nil,
	})
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

func (r *outboxRepo) FetchUnpublished(ctx context.Context, limit int) ([]domain.OutboxDraft, error) {
	recs, err := r.s.List(ctx, store.EventOutbox, store.Query{
		Where:   store.Eq("published_at", nil),
		OrderBy: []store.Order{store.Asc("occurred_at")},
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch unpublished events: %w", err)
	}

	events := make([]domain.OutboxDraft, 0, len(recs))
	for _, rec := range recs {
		row, err := decodeOne[outboxRow](rec)
		if err != nil {
			return nil, fmt.Errorf("decode outbox row: %w", err)
		}
		id, err := uuid.Parse(row.ID)
		if err != nil {
			return nil, fmt.Errorf("outbox event id %q: %w", row.ID, err)
		}
		payload, err := rawPayload(rec["payload"])
		if err != nil {
			return nil, fmt.Errorf("outbox event %s payload: %w", row.ID, err)
		}
		events = append(events, domain.OutboxDraft{
			EventID:       id,
			AggregateType: domain.AggregateType(row.AggregateType),
			AggregateID:   row.AggregateID,
			EventType:     domain.EventType(row.EventType),
			PartitionKey:  row.PartitionKey,
			Payload:       payload,
			OccurredAt:    row.OccurredAt,
		})
	}
	return events, nil
}

func (r *outboxRepo) MarkPublished(ctx context.Context, eventID uuid.UUID, at time.Time) error {
	_, err := r.s.Update(ctx, store.EventOutbox, eventID.String(), store.Record{"published_at": at})
	if err != nil {
		return fmt.Errorf("mark published: %w", err)
	}
	return nil
}

// rawPayload accepts the payload as stored in memory (string) or as decoded
// by pgx from jsonb (map or slice).
func rawPayload(v any) (json.RawMessage, error) {
	switch p := v.(type) {
	case nil:
		return json.RawMessage("null"), nil
	case string:
		return json.RawMessage(p), nil
	case []byte:
		return json.RawMessage(p), nil
	case json.RawMessage:
		return p, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return raw, nil
}
