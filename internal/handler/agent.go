package handler

import (
	"net/http"

	"github.com/gameportal/portal/internal/auth"
	"github.com/gameportal/portal/internal/domain"
	"github.com/gameportal/portal/internal/service"
	"github.com/go-chi/chi/v5"
)

// AgentHandler serves the agent view.
type AgentHandler struct {
	agentSvc *service.AgentService
}

// NewAgentHandler creates a new AgentHandler.
func NewAgentHandler(agentSvc *service.AgentService) *AgentHandler {
	return &AgentHandler{agentSvc: agentSvc}
}

// Session returns the viewer set by the realm middleware, or writes 401.
func Session(w http.ResponseWriter, r *http.Request) (domain.Session, bool) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		RespondError(w, domain.ErrUnauthorized("missing session"))
	}
	return sess, ok
}

// Dashboard handles GET /agent/dashboard.
func (h *AgentHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	sess, ok := Session(w, r)
	if !ok {
		return
	}
	d, err := h.agentSvc.LoadDashboard(r.Context(), sess, r.URL.Query().Get("date"))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, d)
}

// ListNotifications handles GET /agent/notifications.
func (h *AgentHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	sess, ok := Session(w, r)
	if !ok {
		return
	}
	feed, err := h.agentSvc.Notifications(r.Context(), sess)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, feed)
}

// MarkAsRead handles POST /agent/notifications/{id}/read.
func (h *AgentHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	sess, ok := Session(w, r)
	if !ok {
		return
	}
	feed, err := h.agentSvc.MarkAsRead(r.Context(), sess, chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, feed)
}

// MarkAllAsRead handles POST /agent/notifications/read-all.
func (h *AgentHandler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	sess, ok := Session(w, r)
	if !ok {
		return
	}
	feed, err := h.agentSvc.MarkAllAsRead(r.Context(), sess)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, feed)
}
