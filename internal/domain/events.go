package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates all portal domain event types.
type EventType string

const (
	EventGameCreated         EventType = "portal.game.created"
	EventAgentRegistered     EventType = "portal.agent.registered"
	EventNotificationCreated EventType = "portal.notification.created"
)

// AggregateType enumerates the aggregate root types for outbox events.
type AggregateType string

const (
	AggregateGame         AggregateType = "game"
	AggregateAgent        AggregateType = "agent"
	AggregateNotification AggregateType = "notification"
)

// OutboxDraft is the payload written to the event_outbox collection.
type OutboxDraft struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateType AggregateType   `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     EventType       `json:"event_type"`
	PartitionKey  string          `json:"partition_key"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

func newDraft(agg AggregateType, id string, evt EventType, payload any) OutboxDraft {
	raw, _ := json.Marshal(payload)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: agg,
		AggregateID:   id,
		EventType:     evt,
		PartitionKey:  id,
		Payload:       raw,
		OccurredAt:    time.Now(),
	}
}

// NewGameCreatedEvent records that the manager added a game.
func NewGameCreatedEvent(g Game) OutboxDraft {
	return newDraft(AggregateGame, g.ID, EventGameCreated, map[string]string{
		"game_id": g.ID,
		"title":   g.Title,
	})
}

// NewAgentRegisteredEvent records that the manager provisioned an agent.
func NewAgentRegisteredEvent(u User) OutboxDraft {
	return newDraft(AggregateAgent, u.ID, EventAgentRegistered, map[string]string{
		"agent_id":      u.ID,
		"name":          u.Name,
		"email":         u.Email,
		"referral_code": u.ReferralCode,
	})
}

// NewNotificationCreatedEvent records a new notification for downstream
// consumers. Agents still pull notifications; nothing is pushed to them.
func NewNotificationCreatedEvent(n Notification) OutboxDraft {
	return newDraft(AggregateNotification, n.ID, EventNotificationCreated, map[string]any{
		"notification_id": n.ID,
		"recipient_id":    n.RecipientID,
		"type":            n.Type,
		"priority":        n.Priority,
		"broadcast":       n.IsBroadcast(),
	})
}
