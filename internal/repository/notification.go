package repository

import (
	"context"
	"fmt"

	"github.com/gameportal/portal/internal/domain"
	"github.com/gameportal/portal/internal/store"
)

type notificationRepo struct{ s store.Store }

// NewNotificationRepository returns a store-backed NotificationRepository.
func NewNotificationRepository(s store.Store) NotificationRepository {
	return &notificationRepo{s: s}
}

var newestFirst = []store.Order{store.Desc("created_at"), store.Desc("id")}

func (r *notificationRepo) ListForRecipient(ctx context.Context, agentID string, limit int) ([]domain.Notification, error) {
	return r.list(ctx, store.Query{
		Where: store.Or(
			store.Eq("recipient_id", agentID),
			store.Eq("recipient_id", domain.BroadcastRecipient),
		),
		OrderBy: newestFirst,
		Limit:   limit,
	})
}

func (r *notificationRepo) ListRecent(ctx context.Context, limit int) ([]domain.Notification, error) {
	return r.list(ctx, store.Query{OrderBy: newestFirst, Limit: limit})
}

func (r *notificationRepo) list(ctx context.Context, q store.Query) ([]domain.Notification, error) {
	recs, err := r.s.List(ctx, store.Notifications, q)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return store.DecodeAll[domain.Notification](recs)
}

func (r *notificationRepo) Create(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	rec, err := r.s.Create(ctx, store.Notifications, store.Record{
		"id":           n.ID,
		"recipient_id": n.RecipientID,
		"user_id":      nullIfEmpty(n.SenderID),
		"title":        n.Title,
		"message":      n.Message,
		"type":         n.Type,
		"priority":     string(n.Priority),
		"read_status":  int(n.ReadStatus),
		"created_at":   nowIfZero(n.CreatedAt),
		"expires_at":   timeOrNil(n.ExpiresAt),
		"action_url":   nullIfEmpty(n.ActionURL),
	})
	if err != nil {
		return domain.Notification{}, fmt.Errorf("create notification: %w", err)
	}
	return decodeOne[domain.Notification](rec)
}

func (r *notificationRepo) MarkRead(ctx context.Context, id string) (domain.Notification, error) {
	rec, err := r.s.Update(ctx, store.Notifications, id, store.Record{"read_status": int(domain.Read)})
	if err != nil {
		return domain.Notification{}, fmt.Errorf("mark notification read: %w", err)
	}
	return decodeOne[domain.Notification](rec)
}

type receiptRepo struct{ s store.Store }

// NewReceiptRepository returns a store-backed ReceiptRepository.
func NewReceiptRepository(s store.Store) ReceiptRepository {
	return &receiptRepo{s: s}
}

func (r *receiptRepo) ListForAgent(ctx context.Context, agentID string, notificationIDs []string) ([]domain.NotificationReceipt, error) {
	recs, err := r.s.List(ctx, store.NotificationReads, store.Query{
		Where: store.And(
			store.Eq("agent_id", agentID),
			store.In("notification_id", notificationIDs),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("list notification reads: %w", err)
	}
	return store.DecodeAll[domain.NotificationReceipt](recs)
}

func (r *receiptRepo) Create(ctx context.Context, rc domain.NotificationReceipt) error {
	_, err := r.s.Create(ctx, store.NotificationReads, store.Record{
		"id":              domain.ReceiptID(rc.NotificationID, rc.AgentID),
		"notification_id": rc.NotificationID,
		"agent_id":        rc.AgentID,
		"read_at":         nowIfZero(rc.ReadAt),
	})
	if err != nil {
		return fmt.Errorf("create notification read: %w", err)
	}
	return nil
}

type notificationTypeRepo struct{ s store.Store }

// NewNotificationTypeRepository returns a store-backed NotificationTypeRepository.
func NewNotificationTypeRepository(s store.Store) NotificationTypeRepository {
	return &notificationTypeRepo{s: s}
}

func (r *notificationTypeRepo) List(ctx context.Context) ([]domain.NotificationType, error) {
	recs, err := r.s.List(ctx, store.NotificationTypes, store.Query{OrderBy: []store.Order{store.Asc("name")}})
	if err != nil {
		return nil, fmt.Errorf("list notification types: %w", err)
	}
	return store.DecodeAll[domain.NotificationType](recs)
}
