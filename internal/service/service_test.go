package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/gameportal/portal/internal/auth"
	"github.com/gameportal/portal/internal/domain"
	"github.com/gameportal/portal/internal/guard"
	"github.com/gameportal/portal/internal/notify"
	"github.com/gameportal/portal/internal/repository"
	"github.com/gameportal/portal/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var (
	managerSess = domain.Session{UserID: "mgr_1", Email: "boss@example.com", Role: domain.RoleManager}
	agentSess   = domain.Session{UserID: "agent_7", Email: "ana@example.com", Role: domain.RoleAgent}
	fixedNow    = time.Date(2024, 1, 21, 8, 0, 0, 0, time.UTC)
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// flakyStore fails List for the named collections.
type flakyStore struct {
	store.Store
	mu   sync.Mutex
	fail map[store.Collection]bool
}

func (f *flakyStore) List(ctx context.Context, c store.Collection, q store.Query) ([]store.Record, error) {
	f.mu.Lock()
	failing := f.fail[c]
	f.mu.Unlock()
	if failing {
		return nil, errors.New("connection reset by peer")
	}
	return f.Store.List(ctx, c, q)
}

func at(minute int) time.Time { return time.Date(2024, 1, 20, 9, minute, 0, 0, time.UTC) }

func seedPortal(s *store.MemoryStore) {
	s.Seed(store.Games,
		store.Record{"id": "G1", "title": "Juwa", "created_at": at(0)},
		store.Record{"id": "G2", "title": "Orion Star", "created_at": at(1)},
		store.Record{"id": "G3", "title": "Fire Kirin", "created_at": at(2)},
	)
	s.Seed(store.Users,
		store.Record{"id": "mgr_1", "name": "Max", "email": "boss@example.com", "role": "manager", "status": "active", "created_at": at(0)},
		store.Record{"id": "agent_7", "name": "Ana", "email": "ana@example.com", "role": "agent", "status": "active", "referral_code": "REF_AAAAAA", "created_at": at(1)},
		store.Record{"id": "agent_8", "name": "Ben", "email": "ben@example.com", "role": "agent", "status": "active", "created_at": at(2)},
	)
	s.Seed(store.AgentGames,
		store.Record{"id": "agent_7:G1", "agent_id": "agent_7", "game_id": "G1", "created_at": at(0)},
		store.Record{"id": "agent_7:G2", "agent_id": "agent_7", "game_id": "G2", "created_at": at(1)},
	)
	s.Seed(store.GameCredentials,
		store.Record{"id": "c1", "game_id": "G1", "username": "u1", "password": "p1", "assigned_to": "agent_7", "created_at": at(0)},
		store.Record{"id": "c2", "game_id": "gX", "username": "u2", "password": "p2", "assigned_to": "aY", "created_at": at(1)},
	)
	s.Seed(store.GameAnalytics,
		store.Record{"id": "ga1", "game_id": "G1", "agent_id": "agent_7", "metric_type": "revenue", "metric_value": 500.0, "date_recorded": "2024-01-20"},
		store.Record{"id": "ga2", "game_id": "G1", "agent_id": "agent_7", "metric_type": "players", "metric_value": 10.0, "date_recorded": "2024-01-20"},
		store.Record{"id": "ga3", "game_id": "G2", "agent_id": "agent_7", "metric_type": "revenue", "metric_value": 300.0, "date_recorded": "2024-01-20"},
		store.Record{"id": "ga4", "game_id": "G2", "agent_id": "agent_8", "metric_type": "revenue", "metric_value": 1000.0, "date_recorded": "2024-01-19"},
	)
	s.Seed(store.AgentPerformance,
		store.Record{"id": "ap1", "agent_id": "agent_8", "metric_type": "total_revenue", "metric_value": 800.0, "date_recorded": "2024-01-19"},
		store.Record{"id": "ap2", "agent_id": "agent_8", "metric_type": "total_revenue", "metric_value": 900.0, "date_recorded": "2024-01-20"},
	)
	s.Seed(store.CommissionSettings,
		store.Record{"id": "r1", "agent_id": "agent_7", "game_id": nil, "commission_rate": 5.0, "commission_type": "percentage"},
		store.Record{"id": "r2", "agent_id": "agent_7", "game_id": "G1", "commission_rate": 10.0, "commission_type": "percentage"},
		store.Record{"id": "r3", "agent_id": "agent_7", "game_id": "G1", "commission_rate": 20.0, "commission_type": "fixed"},
	)
	s.Seed(store.GameSettings,
		store.Record{"id": "s1", "game_id": "G9", "setting_key": "max_bet", "setting_value": "100", "setting_type": "number"},
	)
	s.Seed(store.Notifications,
		store.Record{"id": "n1", "recipient_id": "all_agents", "title": "t", "message": "m", "type": "general", "priority": "normal", "read_status": 0, "created_at": at(10)},
		store.Record{"id": "n2", "recipient_id": "agent_7", "title": "t", "message": "m", "type": "commission", "priority": "high", "read_status": 1, "created_at": at(5)},
		store.Record{"id": "n3", "recipient_id": "agent_8", "title": "t", "message": "m", "type": "general", "priority": "low", "read_status": 0, "created_at": at(3)},
	)
	s.Seed(store.NotificationTypes,
		store.Record{"id": "general", "name": "General", "description": "General announcements", "default_enabled": true},
	)
}

type fixture struct {
	mem     *store.MemoryStore
	flaky   *flakyStore
	repos   repository.Set
	center  *notify.Center
	manager *ManagerService
	agent   *AgentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := store.NewMemoryStore()
	seedPortal(mem)
	flaky := &flakyStore{Store: mem, fail: map[store.Collection]bool{}}
	repos := repository.NewSet(flaky)
	center := notify.NewCenter(repos.Notifications, repos.Receipts, repos.Outbox, 0, discard())

	mgr := NewManagerService(repos, center, "", discard())
	mgr.now = func() time.Time { return fixedNow }
	agt := NewAgentService(repos, center, "", discard())
	agt.now = func() time.Time { return fixedNow }

	return &fixture{mem: mem, flaky: flaky, repos: repos, center: center, manager: mgr, agent: agt}
}

func (f *fixture) failList(c store.Collection) {
	f.flaky.mu.Lock()
	f.flaky.fail[c] = true
	f.flaky.mu.Unlock()
}

func appCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	return string(appErr.Code)
}

// --- Manager dashboard ---

func TestManagerDashboard_Aggregates(t *testing.T) {
	f := newFixture(t)

	d, err := f.manager.LoadDashboard(context.Background(), managerSess, "2024-01-20")
	require.NoError(t, err)

	assert.Equal(t, StatusOK, d.Status)
	assert.Empty(t, d.FailedCollections)
	assert.Equal(t, "2024-01-20", d.Date)

	require.Len(t, d.GameAnalytics, 3)
	assert.Equal(t, domain.GameAnalyticsSummary{GameID: "G1", GameTitle: "Juwa", Revenue: 500, Players: 10}, d.GameAnalytics[0])
	assert.Equal(t, domain.GameAnalyticsSummary{GameID: "G2", GameTitle: "Orion Star", Revenue: 300}, d.GameAnalytics[1])
	assert.Equal(t, domain.GameAnalyticsSummary{GameID: "G3", GameTitle: "Fire Kirin"}, d.GameAnalytics[2])

	assert.Equal(t, 3, d.Overview.TotalGames)
	assert.Equal(t, 2, d.Overview.TotalAgents)
	assert.Equal(t, 800.0, d.Overview.TotalRevenue)
	assert.Equal(t, 10.0, d.Overview.TotalPlayers)

	require.Len(t, d.AgentPerformance, 2)
	assert.Equal(t, "agent_8", d.AgentPerformance[0].AgentID)
	assert.Equal(t, 900.0, d.AgentPerformance[0].TotalRevenue)
	assert.Equal(t, domain.AgentPerformanceSummary{AgentID: "agent_7", AgentName: "Ana"}, d.AgentPerformance[1])

	require.Len(t, d.Credentials, 2)
	assert.Equal(t, "Juwa", d.Credentials[0].GameTitle)
	assert.Equal(t, "Ana", d.Credentials[0].AgentName)
	assert.Equal(t, domain.UnknownGame, d.Credentials[1].GameTitle)
	assert.Equal(t, domain.Unassigned, d.Credentials[1].AgentName)

	require.Len(t, d.CommissionRules, 3)
	assert.Equal(t, domain.AllGames, d.CommissionRules[0].GameTitle)
	require.Len(t, d.RuleConflicts, 1)
	assert.Equal(t, []string{"r2", "r3"}, d.RuleConflicts[0].RuleIDs)

	require.Len(t, d.GameSettings, 1)
	assert.Equal(t, domain.UnknownGame, d.GameSettings[0].GameTitle)

	assert.Len(t, d.Notifications, 3)
	assert.Equal(t, "n1", d.Notifications[0].ID)
	assert.Equal(t, 3, d.NotificationStats.Total)
	assert.Equal(t, 2, d.NotificationStats.Unread)
	assert.Len(t, d.NotificationTypes, 1)
}

func TestManagerDashboard_DegradesOnFetchFailure(t *testing.T) {
	f := newFixture(t)
	f.failList(store.GameAnalytics)
	f.failList(store.GameCredentials)

	d, err := f.manager.LoadDashboard(context.Background(), managerSess, "2024-01-20")
	require.NoError(t, err)

	assert.Equal(t, StatusDegraded, d.Status)
	assert.Equal(t, []string{"game_analytics", "game_credentials"}, d.FailedCollections)
	assert.Empty(t, d.Credentials)
	require.Len(t, d.GameAnalytics, 3)
	for _, g := range d.GameAnalytics {
		assert.Zero(t, g.Revenue)
	}
	assert.Zero(t, d.Overview.TotalRevenue)
	assert.Equal(t, 3, d.Overview.TotalGames)
}

func TestManagerDashboard_GamesFailureUsesPlaceholders(t *testing.T) {
	f := newFixture(t)
	f.failList(store.Games)

	d, err := f.manager.LoadDashboard(context.Background(), managerSess, "2024-01-20")
	require.NoError(t, err)

	assert.Equal(t, []string{"games"}, d.FailedCollections)
	assert.Empty(t, d.Games)
	require.Len(t, d.GameAnalytics, 2)
	assert.Equal(t, domain.UnknownGame, d.GameAnalytics[0].GameTitle)
}

func TestManagerDashboard_Rejects(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.LoadDashboard(context.Background(), agentSess, "")
	assert.Equal(t, "FORBIDDEN", appCode(t, err))

	_, err = f.manager.LoadDashboard(context.Background(), managerSess, "20/01/2024")
	assert.Equal(t, "VALIDATION_ERROR", appCode(t, err))
}

func TestResolveDate(t *testing.T) {
	now := func() time.Time { return fixedNow }

	d, err := resolveDate("", "", now)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-21", d)

	d, err = resolveDate("", "2024-01-20", now)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-20", d)

	d, err = resolveDate(" 2024-01-05 ", "2024-01-20", now)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05", d)
}

// --- Manager mutations ---

func TestCreateGame_AnnouncesAndEmits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	g, err := f.manager.CreateGame(ctx, managerSess, GameInput{Title: "  Panda Master "})
	require.NoError(t, err)
	assert.Equal(t, "Panda Master", g.Title)
	assert.Regexp(t, `^game_`, g.ID)

	recent, err := f.repos.Notifications.ListRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "New Game Added", recent[0].Title)
	assert.Equal(t, "Panda Master has been added to the platform", recent[0].Message)
	assert.Equal(t, domain.NotificationGameAssignment, recent[0].Type)
	assert.True(t, recent[0].IsBroadcast())

	events, err := f.repos.Outbox.FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	var types []domain.EventType
	for _, e := range events {
		types = append(types, e.EventType)
	}
	assert.ElementsMatch(t, []domain.EventType{domain.EventGameCreated, domain.EventNotificationCreated}, types)

	_, err = f.manager.CreateGame(ctx, managerSess, GameInput{Title: " "})
	assert.Equal(t, "VALIDATION_ERROR", appCode(t, err))
	_, err = f.manager.CreateGame(ctx, agentSess, GameInput{Title: "x"})
	assert.Equal(t, "FORBIDDEN", appCode(t, err))
}

func TestCreateAgent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.manager.CreateAgent(ctx, managerSess, AgentInput{Name: "Cara", Email: " Cara@Example.com ", Password: "s3cretpass"})
	require.NoError(t, err)
	assert.Equal(t, "cara@example.com", a.Email)
	assert.Equal(t, domain.RoleAgent, a.Role)
	assert.Equal(t, "active", a.Status)
	assert.Regexp(t, regexp.MustCompile(`^REF_[0-9A-F]{6}$`), a.ReferralCode)

	stored, err := f.repos.Users.FindByEmail(ctx, "cara@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cretpass")))

	recent, err := f.repos.Notifications.ListRecent(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "New Agent Registered", recent[0].Title)
	assert.Equal(t, domain.NotificationAgentRegistration, recent[0].Type)

	_, err = f.manager.CreateAgent(ctx, managerSess, AgentInput{Name: "Dup", Email: "ana@example.com", Password: "s3cretpass"})
	assert.Equal(t, "CONFLICT", appCode(t, err))
	_, err = f.manager.CreateAgent(ctx, managerSess, AgentInput{Name: "Short", Email: "s@example.com", Password: "x"})
	assert.Equal(t, "VALIDATION_ERROR", appCode(t, err))
	_, err = f.manager.CreateAgent(ctx, managerSess, AgentInput{Email: "n@example.com", Password: "s3cretpass"})
	assert.Equal(t, "VALIDATION_ERROR", appCode(t, err))
}

func TestAssignGame_DuplicateIsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ag, err := f.manager.AssignGame(ctx, managerSess, AssignmentInput{AgentID: "agent_8", GameID: "G3"})
	require.NoError(t, err)
	assert.Equal(t, "agent_8:G3", ag.ID)

	_, err = f.manager.AssignGame(ctx, managerSess, AssignmentInput{AgentID: "agent_8", GameID: "G3"})
	assert.Equal(t, "CONFLICT", appCode(t, err))

	_, err = f.manager.AssignGame(ctx, managerSess, AssignmentInput{AgentID: "agent_8"})
	assert.Equal(t, "VALIDATION_ERROR", appCode(t, err))
}

func TestCreateCommission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := "G2"

	r, err := f.manager.CreateCommission(ctx, managerSess, domain.CommissionRule{
		AgentID: "agent_8", GameID: &g, CommissionRate: 12.5, CommissionType: domain.CommissionPercentage,
	})
	require.NoError(t, err)
	assert.Regexp(t, `^comm_`, r.ID)
	require.NotNil(t, r.GameID)
	assert.Equal(t, "G2", *r.GameID)

	_, err = f.manager.CreateCommission(ctx, managerSess, domain.CommissionRule{
		AgentID: "agent_8", CommissionRate: 150, CommissionType: domain.CommissionPercentage,
	})
	assert.Equal(t, "VALIDATION_ERROR", appCode(t, err))
}

func TestCreateCredentialAndSetting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.manager.CreateCredential(ctx, managerSess, CredentialInput{GameID: "G3", Username: "player9", Password: "pw", AssignedTo: "agent_8"})
	require.NoError(t, err)
	assert.Equal(t, "agent_8", c.AssignedTo)

	_, err = f.manager.CreateCredential(ctx, managerSess, CredentialInput{GameID: "G3"})
	assert.Equal(t, "VALIDATION_ERROR", appCode(t, err))

	s, err := f.manager.CreateGameSetting(ctx, managerSess, GameSettingInput{GameID: "G3", SettingKey: "theme", SettingValue: "dark"})
	require.NoError(t, err)
	assert.Equal(t, "string", s.SettingType)
}

func TestCreateGame_StoreFailureIsUnavailable(t *testing.T) {
	f := newFixture(t)
	repos := f.repos
	repos.Games = failingGames{}
	mgr := NewManagerService(repos, f.center, "", discard())

	_, err := mgr.CreateGame(context.Background(), managerSess, GameInput{Title: "x"})
	assert.Equal(t, "STORE_UNAVAILABLE", appCode(t, err))
}

type failingGames struct{ repository.GameRepository }

func (failingGames) Create(context.Context, domain.Game) (domain.Game, error) {
	return domain.Game{}, errors.New("connection refused")
}

func TestSendNotificationAndStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	n, err := f.manager.SendNotification(ctx, managerSess, domain.NewNotification{RecipientID: "agent_8", Title: "Pay", Message: "Paid", Type: "commission"})
	require.NoError(t, err)
	assert.Equal(t, "agent_8", n.RecipientID)

	st, err := f.manager.NotificationStats(ctx, managerSess)
	require.NoError(t, err)
	assert.Equal(t, 4, st.Total)

	types, err := f.manager.ListNotificationTypes(ctx, managerSess)
	require.NoError(t, err)
	assert.Equal(t, "general", types[0].ID)

	_, err = f.manager.ListNotificationTypes(ctx, agentSess)
	assert.Equal(t, "FORBIDDEN", appCode(t, err))
}

// --- Agent dashboard ---

func TestAgentDashboard_Aggregates(t *testing.T) {
	f := newFixture(t)

	d, err := f.agent.LoadDashboard(context.Background(), agentSess, "2024-01-20")
	require.NoError(t, err)

	assert.Equal(t, StatusOK, d.Status)
	require.NotNil(t, d.Agent)
	assert.Equal(t, "Ana", d.Agent.Name)

	require.Len(t, d.AssignedGames, 2)
	assert.Equal(t, "Juwa", d.AssignedGames[0].Title)

	require.Len(t, d.Credentials, 1)
	assert.Equal(t, "Juwa", d.Credentials[0].GameTitle)

	require.Len(t, d.Notifications, 2)
	assert.Equal(t, 1, d.UnreadCount)

	assert.Equal(t, domain.AgentPerformanceSummary{AgentID: "agent_7", AgentName: "Ana"}, d.Performance)

	require.Len(t, d.GameAnalytics, 2)
	assert.Equal(t, 500.0, d.GameAnalytics[0].Revenue)

	require.Len(t, d.CommissionRules, 3)
	assert.Equal(t, domain.AllGames, d.CommissionRules[0].GameTitle)
	assert.Equal(t, "Juwa", d.CommissionRules[1].GameTitle)

	require.Len(t, d.Earnings.Games, 2)
	assert.Equal(t, 50.0, d.Earnings.Games[0].Amount)
	assert.Equal(t, "r2", d.Earnings.Games[0].RuleID)
	assert.Equal(t, 15.0, d.Earnings.Games[1].Amount)
	assert.Equal(t, 65.0, d.Earnings.Total)
}

func TestAgentDashboard_Degraded(t *testing.T) {
	f := newFixture(t)
	f.failList(store.AgentGames)
	f.failList(store.Notifications)

	d, err := f.agent.LoadDashboard(context.Background(), agentSess, "2024-01-20")
	require.NoError(t, err)

	assert.Equal(t, StatusDegraded, d.Status)
	assert.Equal(t, []string{"agent_games", "notifications"}, d.FailedCollections)
	assert.Empty(t, d.AssignedGames)
	assert.Empty(t, d.Notifications)
	assert.Zero(t, d.UnreadCount)
	require.Len(t, d.GameAnalytics, 2)
	assert.Equal(t, domain.UnknownGame, d.GameAnalytics[0].GameTitle)
	assert.Equal(t, 65.0, d.Earnings.Total)
}

func TestAgentDashboard_RequiresAgent(t *testing.T) {
	f := newFixture(t)
	_, err := f.agent.LoadDashboard(context.Background(), managerSess, "")
	assert.Equal(t, "FORBIDDEN", appCode(t, err))
}

func TestAgentNotifications_MarkFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	feed, err := f.agent.Notifications(ctx, agentSess)
	require.NoError(t, err)
	assert.Equal(t, 1, feed.UnreadCount)

	feed, err = f.agent.MarkAsRead(ctx, agentSess, "n1")
	require.NoError(t, err)
	assert.Equal(t, 1, feed.Transitioned)
	assert.Equal(t, 0, feed.UnreadCount)

	feed, err = f.agent.MarkAsRead(ctx, agentSess, "n1")
	require.NoError(t, err)
	assert.Equal(t, 0, feed.Transitioned)

	// n3 belongs to another agent and is not on this page.
	feed, err = f.agent.MarkAsRead(ctx, agentSess, "n3")
	require.NoError(t, err)
	assert.Equal(t, 0, feed.Transitioned)

	other := domain.Session{UserID: "agent_8", Role: domain.RoleAgent}
	feed, err = f.agent.MarkAllAsRead(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, 2, feed.Transitioned)
	assert.Equal(t, 0, feed.UnreadCount)
}

// --- Auth ---

func newAuth(t *testing.T) (*AuthService, repository.UserRepository) {
	t.Helper()
	users := repository.NewUserRepository(store.NewMemoryStore())
	hash, err := bcrypt.GenerateFromPassword([]byte("agentpass1"), bcrypt.MinCost)
	require.NoError(t, err)
	ctx := context.Background()
	_, err = users.Create(ctx, domain.User{ID: "agent_7", Name: "Ana", Email: "ana@example.com", Role: domain.RoleAgent, Status: "active", PasswordHash: string(hash)})
	require.NoError(t, err)
	_, err = users.Create(ctx, domain.User{ID: "agent_9", Name: "Sus", Email: "sus@example.com", Role: domain.RoleAgent, Status: "suspended", PasswordHash: string(hash)})
	require.NoError(t, err)

	jwtMgr := auth.NewJWTManager("test-secret", time.Hour, time.Hour)
	return NewAuthService(users, jwtMgr, guard.NewRateLimiter(100, time.Minute), guard.NewLockout(), discard()), users
}

func TestLogin(t *testing.T) {
	svc, _ := newAuth(t)
	ctx := context.Background()

	res, err := svc.Login(ctx, LoginInput{Email: "ANA@example.com", Password: "agentpass1", Role: domain.RoleAgent})
	require.NoError(t, err)
	assert.Equal(t, "agent_7", res.UserID)
	assert.NotEmpty(t, res.Token)

	_, err = svc.Login(ctx, LoginInput{Email: "ana@example.com", Password: "wrong", Role: domain.RoleAgent})
	assert.Equal(t, "UNAUTHORIZED", appCode(t, err))

	_, err = svc.Login(ctx, LoginInput{Email: "ana@example.com", Password: "agentpass1", Role: domain.RoleManager})
	assert.Equal(t, "UNAUTHORIZED", appCode(t, err))

	_, err = svc.Login(ctx, LoginInput{Email: "sus@example.com", Password: "agentpass1", Role: domain.RoleAgent})
	assert.Equal(t, "FORBIDDEN", appCode(t, err))

	_, err = svc.Login(ctx, LoginInput{Email: "ana@example.com", Password: "agentpass1", Role: "player"})
	assert.Equal(t, "VALIDATION_ERROR", appCode(t, err))
}

func TestLogin_LocksAfterRepeatedFailures(t *testing.T) {
	svc, _ := newAuth(t)
	ctx := context.Background()

	for i := 0; i < guard.MaxAttempts; i++ {
		_, err := svc.Login(ctx, LoginInput{Email: "ana@example.com", Password: "wrong", Role: domain.RoleAgent})
		assert.Equal(t, "UNAUTHORIZED", appCode(t, err))
	}
	_, err := svc.Login(ctx, LoginInput{Email: "ana@example.com", Password: "agentpass1", Role: domain.RoleAgent})
	assert.Equal(t, "ACCOUNT_LOCKED", appCode(t, err))
}

func TestEnsureManager(t *testing.T) {
	svc, users := newAuth(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureManager(ctx, "", ""))
	require.NoError(t, svc.EnsureManager(ctx, "Boss@Example.com", "managerpass"))
	require.NoError(t, svc.EnsureManager(ctx, "boss@example.com", "managerpass"))

	u, err := users.FindByEmail(ctx, "boss@example.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, domain.RoleManager, u.Role)

	res, err := svc.Login(ctx, LoginInput{Email: "boss@example.com", Password: "managerpass", Role: domain.RoleManager})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, res.Role)

	assert.Error(t, svc.EnsureManager(ctx, "ana@example.com", "managerpass"))
	assert.Error(t, svc.EnsureManager(ctx, "new@example.com", "short"))
}

func TestVerifySession(t *testing.T) {
	svc, _ := newAuth(t)
	ctx := context.Background()

	assert.NoError(t, svc.VerifySession(ctx, domain.Session{UserID: "agent_7", Role: domain.RoleAgent}))

	tests := []struct {
		name string
		sess domain.Session
		want string
	}{
		{"suspended", domain.Session{UserID: "agent_9", Role: domain.RoleAgent}, "FORBIDDEN"},
		{"deleted", domain.Session{UserID: "agent_404", Role: domain.RoleAgent}, "UNAUTHORIZED"},
		{"role changed", domain.Session{UserID: "agent_7", Role: domain.RoleManager}, "UNAUTHORIZED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, appCode(t, svc.VerifySession(ctx, tt.sess)))
		})
	}
}
