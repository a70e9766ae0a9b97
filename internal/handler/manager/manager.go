// Package manager serves the manager view's HTTP endpoints.
package manager

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gameportal/portal/internal/domain"
	"github.com/gameportal/portal/internal/guard"
	"github.com/gameportal/portal/internal/handler"
	"github.com/gameportal/portal/internal/service"
)

const (
	// IdempotencyHeader is the request header that deduplicates notification sends.
	IdempotencyHeader = "Idempotency-Key"
	// ReplayedHeader marks a response replayed from an earlier send.
	ReplayedHeader = "Idempotent-Replayed"
)

// Handler handles the manager dashboard and mutations.
type Handler struct {
	managerSvc *service.ManagerService
	idem       *guard.IdempotencyGuard
	logger     *slog.Logger
}

// NewHandler creates a new manager Handler.
func NewHandler(managerSvc *service.ManagerService, idem *guard.IdempotencyGuard, logger *slog.Logger) *Handler {
	return &Handler{managerSvc: managerSvc, idem: idem, logger: logger}
}

// Dashboard handles GET /manager/dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	sess, ok := handler.Session(w, r)
	if !ok {
		return
	}
	d, err := h.managerSvc.LoadDashboard(r.Context(), sess, r.URL.Query().Get("date"))
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, d)
}

// CreateGame handles POST /manager/games.
func (h *Handler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var input service.GameInput
	create(w, r, &input, func(sess domain.Session) (any, error) {
		return h.managerSvc.CreateGame(r.Context(), sess, input)
	})
}

// CreateAgent handles POST /manager/agents.
func (h *Handler) CreateAgent(w http.ResponseWriter, r *http.Request) {
	var input service.AgentInput
	create(w, r, &input, func(sess domain.Session) (any, error) {
		return h.managerSvc.CreateAgent(r.Context(), sess, input)
	})
}

// CreateCredential handles POST /manager/credentials.
func (h *Handler) CreateCredential(w http.ResponseWriter, r *http.Request) {
	var input service.CredentialInput
	create(w, r, &input, func(sess domain.Session) (any, error) {
		return h.managerSvc.CreateCredential(r.Context(), sess, input)
	})
}

// AssignGame handles POST /manager/assignments.
func (h *Handler) AssignGame(w http.ResponseWriter, r *http.Request) {
	var input service.AssignmentInput
	create(w, r, &input, func(sess domain.Session) (any, error) {
		return h.managerSvc.AssignGame(r.Context(), sess, input)
	})
}

// CreateCommission handles POST /manager/commissions.
func (h *Handler) CreateCommission(w http.ResponseWriter, r *http.Request) {
	var input domain.CommissionRule
	create(w, r, &input, func(sess domain.Session) (any, error) {
		return h.managerSvc.CreateCommission(r.Context(), sess, input)
	})
}

// CreateGameSetting handles POST /manager/game-settings.
func (h *Handler) CreateGameSetting(w http.ResponseWriter, r *http.Request) {
	var input service.GameSettingInput
	create(w, r, &input, func(sess domain.Session) (any, error) {
		return h.managerSvc.CreateGameSetting(r.Context(), sess, input)
	})
}

// sentNotification is what the idempotency guard remembers for a key.
type sentNotification struct {
	fingerprint  string
	notification domain.Notification
}

// SendNotification handles POST /manager/notifications. A repeated
// Idempotency-Key with the same body replays the first response instead of
// sending again; the same key with a different body is a conflict.
func (h *Handler) SendNotification(w http.ResponseWriter, r *http.Request) {
	sess, ok := handler.Session(w, r)
	if !ok {
		return
	}
	var input domain.NewNotification
	if err := handler.DecodeJSON(r, &input); err != nil {
		handler.RespondInvalidBody(w)
		return
	}

	key := ""
	if k := strings.TrimSpace(r.Header.Get(IdempotencyHeader)); k != "" {
		key = sess.UserID + ":" + k
	}
	fp := fingerprint(input)

	if prev, ok := h.idem.Result(key); ok {
		sent, _ := prev.(sentNotification)
		if sent.fingerprint != fp {
			handler.RespondError(w, domain.ErrConflict("idempotency key reused with a different notification"))
			return
		}
		h.logger.Debug("notification send replayed", "manager_id", sess.UserID, "notification_id", sent.notification.ID)
		w.Header().Set(ReplayedHeader, "true")
		handler.RespondJSON(w, http.StatusOK, sent.notification)
		return
	}
	if res := h.idem.Check(r.Context(), key); !res.Allowed {
		handler.RespondError(w, domain.ErrConflict(res.Reason))
		return
	}

	n, err := h.managerSvc.SendNotification(r.Context(), sess, input)
	if err != nil {
		h.idem.Remove(key)
		handler.RespondError(w, err)
		return
	}
	h.idem.Complete(key, sentNotification{fingerprint: fp, notification: n})
	handler.RespondJSON(w, http.StatusCreated, n)
}

func fingerprint(in domain.NewNotification) string {
	raw, _ := json.Marshal(in)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// NotificationStats handles GET /manager/notifications/stats.
func (h *Handler) NotificationStats(w http.ResponseWriter, r *http.Request) {
	sess, ok := handler.Session(w, r)
	if !ok {
		return
	}
	st, err := h.managerSvc.NotificationStats(r.Context(), sess)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, st)
}

// ListNotificationTypes handles GET /manager/notification-types.
func (h *Handler) ListNotificationTypes(w http.ResponseWriter, r *http.Request) {
	sess, ok := handler.Session(w, r)
	if !ok {
		return
	}
	types, err := h.managerSvc.ListNotificationTypes(r.Context(), sess)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, types)
}

// create decodes the body into input, runs fn for the session and writes 201.
func create(w http.ResponseWriter, r *http.Request, input any, fn func(domain.Session) (any, error)) {
	sess, ok := handler.Session(w, r)
	if !ok {
		return
	}
	if err := handler.DecodeJSON(r, input); err != nil {
		handler.RespondInvalidBody(w)
		return
	}
	out, err := fn(sess)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusCreated, out)
}
