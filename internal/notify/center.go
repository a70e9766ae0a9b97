// Package notify manages notifications: creation by the manager, the
// agent's newest-first page, and one-way read-state transitions.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/gameportal/portal/internal/domain"
	"github.com/gameportal/portal/internal/repository"
	"github.com/gameportal/portal/internal/store"
	"github.com/google/uuid"
)

// DefaultPageSize caps how many notifications an agent page loads.
const DefaultPageSize = 50

// Center creates, lists and marks notifications.
type Center struct {
	notifications repository.NotificationRepository
	receipts      repository.ReceiptRepository
	outbox        repository.OutboxRepository
	pageSize      int
	logger        *slog.Logger
	now           func() time.Time
}

// NewCenter creates a Center. A non-positive pageSize uses DefaultPageSize.
func NewCenter(
	notifications repository.NotificationRepository,
	receipts repository.ReceiptRepository,
	outbox repository.OutboxRepository,
	pageSize int,
	logger *slog.Logger,
) *Center {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Center{
		notifications: notifications,
		receipts:      receipts,
		outbox:        outbox,
		pageSize:      pageSize,
		logger:        logger,
		now:           time.Now,
	}
}

// PageSize returns the configured page cap.
func (c *Center) PageSize() int { return c.pageSize }

// List loads the viewer's page: notifications addressed to the viewer or
// to all agents, newest first, capped at the page size.
func (c *Center) List(ctx context.Context, viewer domain.Session) (*Page, error) {
	if !viewer.IsAgent() {
		return nil, domain.ErrForbidden("notifications are listed for agents only")
	}

	items, err := c.notifications.ListForRecipient(ctx, viewer.UserID, c.pageSize)
	if err != nil {
		return nil, domain.ErrUnavailable("list notifications", err)
	}

	var broadcasts []string
	for _, n := range items {
		if n.IsBroadcast() && !n.IsRead() {
			broadcasts = append(broadcasts, n.ID)
		}
	}
	if len(broadcasts) > 0 {
		receipts, err := c.receipts.ListForAgent(ctx, viewer.UserID, broadcasts)
		if err != nil {
			return nil, domain.ErrUnavailable("list notification reads", err)
		}
		read := make(map[string]bool, len(receipts))
		for _, r := range receipts {
			read[r.NotificationID] = true
		}
		for i := range items {
			if items[i].IsBroadcast() && read[items[i].ID] {
				items[i].ReadStatus = domain.Read
			}
		}
	}

	return newPage(viewer, items), nil
}

// MarkAsRead moves the notification with id on page from Unread to Read
// and reports whether this call made the transition. Unknown ids and
// notifications already read are no-ops. Targeted notifications are
// updated in place; broadcasts get a per-agent receipt so other agents
// keep their own read state.
func (c *Center) MarkAsRead(ctx context.Context, page *Page, id string) (bool, error) {
	n, ok := page.lookup(id)
	if !ok {
		c.logger.Debug("mark as read: notification not on page", "notification_id", id, "agent_id", page.viewer.UserID)
		return false, nil
	}
	if n.IsRead() {
		return false, nil
	}

	if n.IsBroadcast() {
		err := c.receipts.Create(ctx, domain.NotificationReceipt{
			NotificationID: n.ID,
			AgentID:        page.viewer.UserID,
			ReadAt:         c.now().UTC(),
		})
		if err != nil && !errors.Is(err, store.ErrDuplicate) {
			return false, domain.ErrUnavailable("record notification read", err)
		}
	} else {
		if _, err := c.notifications.MarkRead(ctx, n.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.logger.Debug("mark as read: notification vanished", "notification_id", id)
				return false, nil
			}
			return false, domain.ErrUnavailable("mark notification read", err)
		}
	}

	return page.markRead(id), nil
}

// MarkAllAsRead marks every notification unread on page at call time and
// returns how many transitioned. Notifications outside the page are never
// touched. On a store failure it stops and returns the count so far.
func (c *Center) MarkAllAsRead(ctx context.Context, page *Page) (int, error) {
	transitioned := 0
	for _, id := range page.unreadIDs() {
		ok, err := c.MarkAsRead(ctx, page, id)
		if err != nil {
			return transitioned, err
		}
		if ok {
			transitioned++
		}
	}
	return transitioned, nil
}

// Create stores a new notification from sender. An empty recipient makes it
// a broadcast; type and priority default to general and normal.
func (c *Center) Create(ctx context.Context, sender domain.Session, in domain.NewNotification) (domain.Notification, error) {
	if !sender.IsManager() {
		return domain.Notification{}, domain.ErrForbidden("only the manager can send notifications")
	}
	if err := domain.ValidateNewNotification(in); err != nil {
		return domain.Notification{}, domain.ErrValidation(err.Error())
	}

	n := domain.Notification{
		ID:          "notif_" + uuid.NewString(),
		RecipientID: strings.TrimSpace(in.RecipientID),
		SenderID:    sender.UserID,
		Title:       strings.TrimSpace(in.Title),
		Message:     strings.TrimSpace(in.Message),
		Type:        strings.TrimSpace(in.Type),
		Priority:    domain.ParsePriority(in.Priority),
		ReadStatus:  domain.Unread,
		CreatedAt:   c.now().UTC(),
		ExpiresAt:   in.ExpiresAt,
		ActionURL:   in.ActionURL,
	}
	if n.RecipientID == "" {
		n.RecipientID = domain.BroadcastRecipient
	}
	if n.Type == "" {
		n.Type = domain.DefaultNotificationType
	}

	created, err := c.notifications.Create(ctx, n)
	if err != nil {
		return domain.Notification{}, domain.ErrUnavailable("create notification", err)
	}

	if err := c.outbox.Insert(ctx, domain.NewNotificationCreatedEvent(created)); err != nil {
		c.logger.Error("outbox insert failed", "notification_id", created.ID, "error", err)
	}

	c.logger.Info("notification created",
		"notification_id", created.ID,
		"recipient_id", created.RecipientID,
		"type", created.Type,
		"priority", created.Priority,
	)
	return created, nil
}

// TypeStat counts notifications of one type.
type TypeStat struct {
	Type   string `json:"type"`
	Total  int    `json:"total"`
	Unread int    `json:"unread"`
}

// Stats is the manager's aggregate view over all notifications.
type Stats struct {
	Total  int        `json:"total"`
	Unread int        `json:"unread"`
	ByType []TypeStat `json:"by_type"`
}

// Stats counts every notification by type. Unread uses the stored
// read_status, so broadcasts count as unread until a targeted mark.
func (c *Center) Stats(ctx context.Context, viewer domain.Session) (Stats, error) {
	if !viewer.IsManager() {
		return Stats{}, domain.ErrForbidden("notification stats are for the manager only")
	}
	all, err := c.notifications.ListRecent(ctx, 0)
	if err != nil {
		return Stats{}, domain.ErrUnavailable("list notifications", err)
	}
	return Summarize(all), nil
}

// Summarize groups notifications by type, types sorted by name.
func Summarize(all []domain.Notification) Stats {
	byType := make(map[string]*TypeStat)
	st := Stats{ByType: make([]TypeStat, 0)}
	for _, n := range all {
		ts, ok := byType[n.Type]
		if !ok {
			ts = &TypeStat{Type: n.Type}
			byType[n.Type] = ts
		}
		ts.Total++
		st.Total++
		if !n.IsRead() {
			ts.Unread++
			st.Unread++
		}
	}
	for _, ts := range byType {
		st.ByType = append(st.ByType, *ts)
	}
	sort.Slice(st.ByType, func(i, j int) bool { return st.ByType[i].Type < st.ByType[j].Type })
	return st
}
