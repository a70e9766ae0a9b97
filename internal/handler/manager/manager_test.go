package manager

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gameportal/portal/internal/auth"
	"github.com/gameportal/portal/internal/domain"
	"github.com/gameportal/portal/internal/guard"
	"github.com/gameportal/portal/internal/notify"
	"github.com/gameportal/portal/internal/repository"
	"github.com/gameportal/portal/internal/service"
	"github.com/gameportal/portal/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var boss = domain.Session{UserID: "mgr_1", Email: "boss@example.com", Role: domain.RoleManager}

func newTestHandler(t *testing.T) (*Handler, *guard.IdempotencyGuard, *store.MemoryStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := store.NewMemoryStore()
	repos := repository.NewSet(mem)
	center := notify.NewCenter(repos.Notifications, repos.Receipts, repos.Outbox, 10, logger)
	idem := guard.NewIdempotencyGuard(time.Hour)
	return NewHandler(service.NewManagerService(repos, center, "2024-01-20", logger), idem, logger), idem, mem
}

func send(h http.HandlerFunc, sess *domain.Session, body, key string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/manager/notifications", strings.NewReader(body))
	if sess != nil {
		r = r.WithContext(auth.WithSession(r.Context(), *sess))
	}
	if key != "" {
		r.Header.Set(IdempotencyHeader, key)
	}
	w := httptest.NewRecorder()
	h(w, r)
	return w
}

func countNotifications(t *testing.T, mem *store.MemoryStore) int {
	t.Helper()
	recs, err := mem.List(context.Background(), store.Notifications, store.Query{})
	require.NoError(t, err)
	return len(recs)
}

func TestSendNotification_ReplaysSameKey(t *testing.T) {
	h, _, mem := newTestHandler(t)
	body := `{"title":"Maintenance","message":"Tonight 2am"}`

	first := send(h.SendNotification, &boss, body, "maint-1")
	require.Equal(t, http.StatusCreated, first.Code)
	var sent domain.Notification
	require.NoError(t, json.NewDecoder(first.Body).Decode(&sent))
	assert.Equal(t, domain.BroadcastRecipient, sent.RecipientID)

	again := send(h.SendNotification, &boss, body, "maint-1")
	require.Equal(t, http.StatusOK, again.Code)
	assert.Equal(t, "true", again.Header().Get(ReplayedHeader))
	var replayed domain.Notification
	require.NoError(t, json.NewDecoder(again.Body).Decode(&replayed))
	assert.Equal(t, sent.ID, replayed.ID)

	assert.Equal(t, 1, countNotifications(t, mem))
}

func TestSendNotification_KeyReusedWithDifferentBody(t *testing.T) {
	h, _, mem := newTestHandler(t)

	require.Equal(t, http.StatusCreated, send(h.SendNotification, &boss, `{"title":"A","message":"a"}`, "k1").Code)
	w := send(h.SendNotification, &boss, `{"title":"B","message":"b"}`, "k1")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 1, countNotifications(t, mem))
}

func TestSendNotification_KeysAreScopedPerManager(t *testing.T) {
	h, _, mem := newTestHandler(t)
	other := domain.Session{UserID: "mgr_2", Role: domain.RoleManager}
	body := `{"title":"A","message":"a"}`

	require.Equal(t, http.StatusCreated, send(h.SendNotification, &boss, body, "k1").Code)
	require.Equal(t, http.StatusCreated, send(h.SendNotification, &other, body, "k1").Code)
	assert.Equal(t, 2, countNotifications(t, mem))
}

func TestSendNotification_InFlightIsConflict(t *testing.T) {
	h, idem, _ := newTestHandler(t)
	require.True(t, idem.Check(context.Background(), "mgr_1:k1").Allowed)

	w := send(h.SendNotification, &boss, `{"title":"A","message":"a"}`, "k1")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSendNotification_FailureReleasesKey(t *testing.T) {
	h, _, mem := newTestHandler(t)

	w := send(h.SendNotification, &boss, `{"title":"","message":"a"}`, "k1")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = send(h.SendNotification, &boss, `{"title":"Fixed","message":"a"}`, "k1")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, countNotifications(t, mem))
}

func TestSendNotification_WithoutKeyAlwaysSends(t *testing.T) {
	h, _, mem := newTestHandler(t)
	body := `{"title":"A","message":"a"}`

	require.Equal(t, http.StatusCreated, send(h.SendNotification, &boss, body, "").Code)
	require.Equal(t, http.StatusCreated, send(h.SendNotification, &boss, body, "").Code)
	assert.Equal(t, 2, countNotifications(t, mem))
}

func TestCreate_Responses(t *testing.T) {
	h, _, _ := newTestHandler(t)

	tests := []struct {
		name       string
		sess       *domain.Session
		body       string
		wantStatus int
	}{
		{"created", &boss, `{"title":"Juwa"}`, http.StatusCreated},
		{"invalid body", &boss, `{"title":`, http.StatusBadRequest},
		{"blank title", &boss, `{"title":" "}`, http.StatusBadRequest},
		{"no session", nil, `{"title":"Juwa"}`, http.StatusUnauthorized},
		{"agent session", &domain.Session{UserID: "agent_7", Role: domain.RoleAgent}, `{"title":"Juwa"}`, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/manager/games", strings.NewReader(tt.body))
			if tt.sess != nil {
				r = r.WithContext(auth.WithSession(r.Context(), *tt.sess))
			}
			w := httptest.NewRecorder()
			h.CreateGame(w, r)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
