package repository

import "github.com/gameportal/portal/internal/store"

// Set bundles every repository over one store.
type Set struct {
	Games             GameRepository
	Users             UserRepository
	Credentials       CredentialRepository
	AgentGames        AgentGameRepository
	GameSettings      GameSettingRepository
	Commissions       CommissionRepository
	Metrics           MetricRepository
	Notifications     NotificationRepository
	Receipts          ReceiptRepository
	NotificationTypes NotificationTypeRepository
	Outbox            OutboxRepository
}

// NewSet builds all repositories over s.
func NewSet(s store.Store) Set {
	return Set{
		Games:             NewGameRepository(s),
		Users:             NewUserRepository(s),
		Credentials:       NewCredentialRepository(s),
		AgentGames:        NewAgentGameRepository(s),
		GameSettings:      NewGameSettingRepository(s),
		Commissions:       NewCommissionRepository(s),
		Metrics:           NewMetricRepository(s),
		Notifications:     NewNotificationRepository(s),
		Receipts:          NewReceiptRepository(s),
		NotificationTypes: NewNotificationTypeRepository(s),
		Outbox:            NewOutboxRepository(s),
	}
}
