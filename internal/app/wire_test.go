package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gameportal/portal/internal/auth"
	"github.com/gameportal/portal/internal/domain"
	"github.com/gameportal/portal/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	t      *testing.T
	server *httptest.Server
	store  *store.MemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mem := store.NewMemoryStore()
	deps := RouterDeps{
		Store:          mem,
		Backend:        "memory",
		JWTMgr:         auth.NewJWTManager("test-secret-test-secret-test-secret", time.Hour, time.Hour),
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		AnalyticsDate:  "2024-01-20",
		LoginRateLimit: 100,
	}
	svcs := NewServices(deps)
	require.NoError(t, svcs.Auth.EnsureManager(context.Background(), "boss@example.com", "managerpass"))

	srv := httptest.NewServer(NewRouter(deps, svcs))
	t.Cleanup(srv.Close)
	return &testEnv{t: t, server: srv, store: mem}
}

func (env *testEnv) do(method, path string, body any, token string, headers ...string) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, env.server.URL+path, &buf)
	require.NoError(env.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(env.t, err)
	env.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (env *testEnv) login(email, password string, role domain.Role) string {
	env.t.Helper()
	resp := env.do(http.MethodPost, "/auth/login", map[string]string{
		"email": email, "password": password, "role": string(role),
	}, "")
	require.Equal(env.t, http.StatusOK, resp.StatusCode)
	return decode[struct {
		Token string `json:"token"`
	}](env.t, resp).Token
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	body := decode[map[string]string](t, resp)
	assert.Equal(t, "memory", body["backend"])
}

func TestRealmsAreSeparate(t *testing.T) {
	env := newTestEnv(t)
	mgr := env.login("boss@example.com", "managerpass", domain.RoleManager)

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/manager/dashboard", nil, "").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/agent/dashboard", nil, mgr).StatusCode)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/manager/dashboard", nil, mgr).StatusCode)

	resp := env.do(http.MethodPost, "/auth/login", map[string]string{
		"email": "boss@example.com", "password": "managerpass", "role": "agent",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestManagerAndAgentFlow(t *testing.T) {
	env := newTestEnv(t)
	mgr := env.login("boss@example.com", "managerpass", domain.RoleManager)

	// Manager provisions a game and an agent.
	resp := env.do(http.MethodPost, "/manager/games", map[string]string{"title": "Juwa"}, mgr)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	game := decode[domain.Game](t, resp)

	resp = env.do(http.MethodPost, "/manager/agents", map[string]string{
		"name": "Ana", "email": "ana@example.com", "password": "agentpass1",
	}, mgr)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	agent := decode[domain.User](t, resp)
	assert.Regexp(t, `^REF_`, agent.ReferralCode)

	resp = env.do(http.MethodPost, "/manager/assignments", map[string]string{"agent_id": agent.ID, "game_id": game.ID}, mgr)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = env.do(http.MethodPost, "/manager/assignments", map[string]string{"agent_id": agent.ID, "game_id": game.ID}, mgr)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = env.do(http.MethodPost, "/manager/commissions", map[string]any{
		"agent_id": agent.ID, "game_id": game.ID, "commission_rate": 10, "commission_type": "percentage",
	}, mgr)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(http.MethodPost, "/manager/credentials", map[string]string{
		"game_id": game.ID, "username": "ana_juwa", "password": "pw", "assigned_to": agent.ID,
	}, mgr)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// The metering pipeline records revenue for the agent's game.
	env.store.Seed(store.GameAnalytics, store.Record{
		"id": "ga1", "game_id": game.ID, "agent_id": agent.ID,
		"metric_type": "revenue", "metric_value": 250.0, "date_recorded": "2024-01-20",
	})

	// A targeted notification, sent twice with the same idempotency key.
	note := map[string]string{"recipient_id": agent.ID, "title": "Payout", "message": "Processed", "priority": "high"}
	first := env.do(http.MethodPost, "/manager/notifications", note, mgr, "Idempotency-Key", "payout-1")
	require.Equal(t, http.StatusCreated, first.StatusCode)
	sent := decode[domain.Notification](t, first)

	replay := env.do(http.MethodPost, "/manager/notifications", note, mgr, "Idempotency-Key", "payout-1")
	require.Equal(t, http.StatusOK, replay.StatusCode)
	assert.Equal(t, "true", replay.Header.Get("Idempotent-Replayed"))
	assert.Equal(t, sent.ID, decode[domain.Notification](t, replay).ID)

	// The agent sees two announcements plus the payout notice.
	tok := env.login("ana@example.com", "agentpass1", domain.RoleAgent)
	resp = env.do(http.MethodGet, "/agent/dashboard", nil, tok)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	dash := decode[struct {
		Status      string `json:"status"`
		UnreadCount int    `json:"unread_count"`
		Credentials []struct {
			GameTitle string `json:"game_title"`
		} `json:"credentials"`
		Earnings struct {
			Total float64 `json:"total"`
		} `json:"earnings"`
	}](t, resp)
	assert.Equal(t, "ok", dash.Status)
	assert.Equal(t, 3, dash.UnreadCount)
	require.Len(t, dash.Credentials, 1)
	assert.Equal(t, "Juwa", dash.Credentials[0].GameTitle)
	assert.Equal(t, 25.0, dash.Earnings.Total)

	resp = env.do(http.MethodPost, "/agent/notifications/"+sent.ID+"/read", nil, tok)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	feed := decode[struct {
		UnreadCount  int `json:"unread_count"`
		Transitioned int `json:"transitioned"`
	}](t, resp)
	assert.Equal(t, 1, feed.Transitioned)
	assert.Equal(t, 2, feed.UnreadCount)

	resp = env.do(http.MethodPost, "/agent/notifications/read-all", nil, tok)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	feed = decode[struct {
		UnreadCount  int `json:"unread_count"`
		Transitioned int `json:"transitioned"`
	}](t, resp)
	assert.Equal(t, 2, feed.Transitioned)
	assert.Zero(t, feed.UnreadCount)

	// Manager stats count stored read_status, so broadcasts stay unread there.
	resp = env.do(http.MethodGet, "/manager/notifications/stats", nil, mgr)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := decode[struct {
		Total  int `json:"total"`
		Unread int `json:"unread"`
	}](t, resp)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Unread)
}

func TestSuspendedAgentLosesAccess(t *testing.T) {
	env := newTestEnv(t)
	mgr := env.login("boss@example.com", "managerpass", domain.RoleManager)

	resp := env.do(http.MethodPost, "/manager/agents", map[string]string{
		"name": "Ben", "email": "ben@example.com", "password": "agentpass2",
	}, mgr)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	agent := decode[domain.User](t, resp)

	tok := env.login("ben@example.com", "agentpass2", domain.RoleAgent)
	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/agent/notifications", nil, tok).StatusCode)

	_, err := env.store.Update(context.Background(), store.Users, agent.ID, store.Record{"status": "suspended"})
	require.NoError(t, err)

	resp = env.do(http.MethodGet, "/agent/notifications", nil, tok)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", decode[map[string]string](t, resp)["code"])
}

func TestManagerDashboard_InvalidDate(t *testing.T) {
	env := newTestEnv(t)
	mgr := env.login("boss@example.com", "managerpass", domain.RoleManager)

	resp := env.do(http.MethodGet, "/manager/dashboard?date=yesterday", nil, mgr)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", decode[map[string]string](t, resp)["code"])
}

func TestManager_InvalidBody(t *testing.T) {
	env := newTestEnv(t)
	mgr := env.login("boss@example.com", "managerpass", domain.RoleManager)

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/manager/games", bytes.NewBufferString("{"))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+mgr)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
