// Package repository maps record store collections onto typed domain values.
// Repositories hold no state beyond the store handle; every call goes to the
// store, and decoding is weakly typed so Postgres and memory rows agree.
package repository

import (
	"context"
	"time"

	"github.com/gameportal/portal/internal/domain"
	"github.com/google/uuid"
)

// GameRepository provides access to games.
type GameRepository interface {
	// List returns all games in creation order.
	List(ctx context.Context) ([]domain.Game, error)

	// ListByIDs returns the games whose id is in ids. An empty ids matches nothing.
	ListByIDs(ctx context.Context, ids []string) ([]domain.Game, error)

	// Create inserts a new game.
	Create(ctx context.Context, g domain.Game) (domain.Game, error)
}

// UserRepository provides access to users (managers and agents).
type UserRepository interface {
	// ListAgents returns users with role=agent.
	ListAgents(ctx context.Context) ([]domain.User, error)

	// FindByEmail returns the user with the given email, or nil if not found.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// FindByID returns the user with the given id, or nil if not found.
	FindByID(ctx context.Context, id string) (*domain.User, error)

	// Create inserts a new user, including its password hash.
	Create(ctx context.Context, u domain.User) (domain.User, error)
}

// CredentialRepository provides access to game_credentials.
type CredentialRepository interface {
	List(ctx context.Context) ([]domain.Credential, error)
	ListAssignedTo(ctx context.Context, agentID string) ([]domain.Credential, error)
	Create(ctx context.Context, c domain.Credential) (domain.Credential, error)
}

// AgentGameRepository provides access to agent_games.
type AgentGameRepository interface {
	ListByAgent(ctx context.Context, agentID string) ([]domain.AgentGame, error)
	Create(ctx context.Context, ag domain.AgentGame) (domain.AgentGame, error)
}

// GameSettingRepository provides access to game_settings.
type GameSettingRepository interface {
	List(ctx context.Context) ([]domain.GameSetting, error)
	Create(ctx context.Context, s domain.GameSetting) (domain.GameSetting, error)
}

// CommissionRepository provides access to commission_settings.
type CommissionRepository interface {
	List(ctx context.Context) ([]domain.CommissionRule, error)
	ListByAgent(ctx context.Context, agentID string) ([]domain.CommissionRule, error)
	Create(ctx context.Context, r domain.CommissionRule) (domain.CommissionRule, error)
}

// MetricRepository reads the metering pipeline's output. It never writes.
type MetricRepository interface {
	// GameAnalytics returns game metric rows recorded on date. A non-empty
	// agentID restricts them to rows scoped to that agent.
	GameAnalytics(ctx context.Context, date, agentID string) ([]domain.MetricRecord, error)

	// AgentPerformance returns agent metric rows, oldest first. A non-empty
	// agentID restricts them to that agent.
	AgentPerformance(ctx context.Context, agentID string) ([]domain.MetricRecord, error)
}

// NotificationRepository provides access to notifications.
type NotificationRepository interface {
	// ListForRecipient returns notifications addressed to agentID or to every
	// agent, newest first, capped at limit.
	ListForRecipient(ctx context.Context, agentID string, limit int) ([]domain.Notification, error)

	// ListRecent returns all notifications newest first, capped at limit (0 = no cap).
	ListRecent(ctx context.Context, limit int) ([]domain.Notification, error)

	// Create inserts a new notification.
	Create(ctx context.Context, n domain.Notification) (domain.Notification, error)

	// MarkRead sets read_status=1. Unknown ids return store.ErrNotFound.
	MarkRead(ctx context.Context, id string) (domain.Notification, error)
}

// ReceiptRepository provides access to notification_reads.
type ReceiptRepository interface {
	// ListForAgent returns the agent's receipts among notificationIDs.
	ListForAgent(ctx context.Context, agentID string, notificationIDs []string) ([]domain.NotificationReceipt, error)

	// Create inserts a receipt. A second receipt for the same pair returns store.ErrDuplicate.
	Create(ctx context.Context, r domain.NotificationReceipt) error
}

// NotificationTypeRepository provides access to notification_types.
type NotificationTypeRepository interface {
	List(ctx context.Context) ([]domain.NotificationType, error)
}

// OutboxRepository provides access to the event_outbox collection.
type OutboxRepository interface {
	// Insert writes an outbox event.
	Insert(ctx context.Context, draft domain.OutboxDraft) error

	// FetchUnpublished returns unpublished events oldest first for the outbox poller.
	FetchUnpublished(ctx context.Context, limit int) ([]domain.OutboxDraft, error)

	// MarkPublished stamps published_at on the event.
	MarkPublished(ctx context.Context, eventID uuid.UUID, at time.Time) error
}
