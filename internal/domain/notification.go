package domain

import "time"

// BroadcastRecipient is the recipient_id that addresses every agent.
const BroadcastRecipient = "all_agents"

// DefaultNotificationType and DefaultPriority apply when a sender leaves them blank.
const (
	DefaultNotificationType = "general"
	DefaultPriority         = PriorityNormal
)

// Well-known notification types emitted by manager actions.
const (
	NotificationGameAssignment    = "game_assignment"
	NotificationAgentRegistration = "agent_registration"
)

// Priority is used for presentation routing only; it never changes ordering.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// ParsePriority normalises a raw priority. Unknown or empty values map to
// PriorityNormal, matching how the portal renders them.
func ParsePriority(s string) Priority {
	switch p := Priority(s); p {
	case PriorityUrgent, PriorityHigh, PriorityNormal, PriorityLow:
		return p
	}
	return PriorityNormal
}

// ReadStatus is 0 (unread) or 1 (read). The only transition is 0 -> 1.
type ReadStatus int

const (
	Unread ReadStatus = 0
	Read   ReadStatus = 1
)

// Notification is a notifications row.
type Notification struct {
	ID          string     `json:"id"`
	RecipientID string     `json:"recipient_id"`
	SenderID    string     `json:"user_id,omitempty"`
	Title       string     `json:"title"`
	Message     string     `json:"message"`
	Type        string     `json:"type"`
	Priority    Priority   `json:"priority"`
	ReadStatus  ReadStatus `json:"read_status"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	ActionURL   string     `json:"action_url,omitempty"`
}

// IsBroadcast reports whether the notification addresses every agent.
func (n Notification) IsBroadcast() bool {
	return n.RecipientID == BroadcastRecipient
}

// IsRead reports whether the notification is in the terminal Read state.
func (n Notification) IsRead() bool {
	return n.ReadStatus == Read
}

// Expired reports whether the notification has passed its expiry at now.
func (n Notification) Expired(now time.Time) bool {
	return n.ExpiresAt != nil && !now.Before(*n.ExpiresAt)
}

// NotificationReceipt records that one agent has read a broadcast.
type NotificationReceipt struct {
	ID             string    `json:"id"`
	NotificationID string    `json:"notification_id"`
	AgentID        string    `json:"agent_id"`
	ReadAt         time.Time `json:"read_at"`
}

// ReceiptID is the deterministic id of the receipt for (notification, agent),
// so concurrent marks from two sessions collide instead of duplicating.
func ReceiptID(notificationID, agentID string) string {
	return notificationID + ":" + agentID
}

// NotificationType is a notification_types row.
type NotificationType struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	DefaultEnabled bool   `json:"default_enabled"`
}

// NewNotification holds the manager-supplied fields for a notification.
type NewNotification struct {
	RecipientID string     `json:"recipient_id,omitempty"`
	Title       string     `json:"title"`
	Message     string     `json:"message"`
	Type        string     `json:"type,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	ActionURL   string     `json:"action_url,omitempty"`
}
