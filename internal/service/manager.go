package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gameportal/portal/internal/analytics"
	"github.com/gameportal/portal/internal/domain"
	"github.com/gameportal/portal/internal/notify"
	"github.com/gameportal/portal/internal/policy"
	"github.com/gameportal/portal/internal/repository"
	"github.com/gameportal/portal/internal/resolve"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ManagerService loads the manager dashboard and applies manager mutations.
type ManagerService struct {
	repos         repository.Set
	center        *notify.Center
	analyticsDate string
	logger        *slog.Logger
	now           func() time.Time
}

// NewManagerService creates a ManagerService. analyticsDate, when set,
// pins the default dashboard date.
func NewManagerService(repos repository.Set, center *notify.Center, analyticsDate string, logger *slog.Logger) *ManagerService {
	return &ManagerService{
		repos:         repos,
		center:        center,
		analyticsDate: analyticsDate,
		logger:        logger,
		now:           time.Now,
	}
}

// ManagerDashboard is everything the manager view renders after one load.
type ManagerDashboard struct {
	Date              string                           `json:"date"`
	Status            string                           `json:"status"`
	FailedCollections []string                         `json:"failed_collections,omitempty"`
	Overview          analytics.Overview               `json:"overview"`
	Games             []domain.Game                    `json:"games"`
	Agents            []domain.User                    `json:"agents"`
	GameAnalytics     []domain.GameAnalyticsSummary    `json:"game_analytics"`
	AgentPerformance  []domain.AgentPerformanceSummary `json:"agent_performance"`
	Credentials       []resolve.ResolvedCredential     `json:"credentials"`
	CommissionRules   []resolve.ResolvedCommissionRule `json:"commission_rules"`
	RuleConflicts     []policy.RuleConflict            `json:"rule_conflicts"`
	GameSettings      []resolve.ResolvedGameSetting    `json:"game_settings"`
	Notifications     []domain.Notification            `json:"notifications"`
	NotificationStats notify.Stats                     `json:"notification_stats"`
	NotificationTypes []domain.NotificationType        `json:"notification_types"`
}

// LoadDashboard fetches every collection the manager view needs and
// aggregates them. Fetch failures degrade the affected section to empty.
func (s *ManagerService) LoadDashboard(ctx context.Context, sess domain.Session, date string) (*ManagerDashboard, error) {
	if !sess.IsManager() {
		return nil, domain.ErrForbidden("manager dashboard requires the manager role")
	}
	date, err := resolveDate(date, s.analyticsDate, s.now)
	if err != nil {
		return nil, err
	}

	var (
		games         []domain.Game
		agents        []domain.User
		creds         []domain.Credential
		settings      []domain.GameSetting
		rules         []domain.CommissionRule
		gameRows      []domain.MetricRecord
		agentRows     []domain.MetricRecord
		notifications []domain.Notification
		types         []domain.NotificationType
	)
	l := newLoader(ctx, s.logger, "manager")
	fetch(l, "games", &games, s.repos.Games.List)
	fetch(l, "users", &agents, s.repos.Users.ListAgents)
	fetch(l, "game_credentials", &creds, s.repos.Credentials.List)
	fetch(l, "game_settings", &settings, s.repos.GameSettings.List)
	fetch(l, "commission_settings", &rules, s.repos.Commissions.List)
	fetch(l, "game_analytics", &gameRows, func(ctx context.Context) ([]domain.MetricRecord, error) {
		return s.repos.Metrics.GameAnalytics(ctx, date, "")
	})
	fetch(l, "agent_performance", &agentRows, func(ctx context.Context) ([]domain.MetricRecord, error) {
		return s.repos.Metrics.AgentPerformance(ctx, "")
	})
	fetch(l, "notifications", &notifications, func(ctx context.Context) ([]domain.Notification, error) {
		return s.repos.Notifications.ListRecent(ctx, 0)
	})
	fetch(l, "notification_types", &types, s.repos.NotificationTypes.List)
	status, failed := l.wait()

	idx := resolve.NewIndex(games, agents, s.logger)
	gameSummaries := analytics.PadGames(analytics.PivotGames(gameRows, idx), games)
	agentSummaries := analytics.PadAgents(analytics.PivotAgents(agentRows, idx), agents)

	recent := notifications
	if len(recent) > s.center.PageSize() {
		recent = recent[:s.center.PageSize()]
	}

	conflicts := policy.DetectConflicts(rules)
	if len(conflicts) > 0 {
		s.logger.Warn("commission rule conflicts", "count", len(conflicts))
	}

	return &ManagerDashboard{
		Date:              date,
		Status:            status,
		FailedCollections: failed,
		Overview:          analytics.Totals(len(games), len(agents), gameSummaries),
		Games:             games,
		Agents:            agents,
		GameAnalytics:     gameSummaries,
		AgentPerformance:  agentSummaries,
		Credentials:       resolve.Credentials(idx, creds),
		CommissionRules:   resolve.CommissionRules(idx, rules),
		RuleConflicts:     conflicts,
		GameSettings:      resolve.GameSettings(idx, settings),
		Notifications:     recent,
		NotificationStats: notify.Summarize(notifications),
		NotificationTypes: types,
	}, nil
}

func requireManager(sess domain.Session) error {
	if !sess.IsManager() {
		return domain.ErrForbidden("manager role required")
	}
	return nil
}

// GameInput holds the fields for a new game.
type GameInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	PlayerLink  string `json:"player_link"`
	AgentLink   string `json:"agent_link"`
}

// CreateGame adds a game and announces it to every agent.
func (s *ManagerService) CreateGame(ctx context.Context, sess domain.Session, in GameInput) (domain.Game, error) {
	if err := requireManager(sess); err != nil {
		return domain.Game{}, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Game{}, domain.ErrValidation("title is required")
	}

	game, err := s.repos.Games.Create(ctx, domain.Game{
		ID:          "game_" + uuid.NewString(),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		PlayerLink:  strings.TrimSpace(in.PlayerLink),
		AgentLink:   strings.TrimSpace(in.AgentLink),
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		return domain.Game{}, storeErr("create game", err)
	}
	s.emit(ctx, domain.NewGameCreatedEvent(game))
	s.announce(ctx, sess, domain.NewNotification{
		Title:   "New Game Added",
		Message: fmt.Sprintf("%s has been added to the platform", game.Title),
		Type:    domain.NotificationGameAssignment,
	})

	s.logger.Info("game created", "game_id", game.ID, "title", game.Title)
	return game, nil
}

// AgentInput holds the fields for a new agent account.
type AgentInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateAgent provisions an active agent with a fresh referral code and
// announces the registration.
func (s *ManagerService) CreateAgent(ctx context.Context, sess domain.Session, in AgentInput) (domain.User, error) {
	if err := requireManager(sess); err != nil {
		return domain.User{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.User{}, domain.ErrValidation("name is required")
	}
	email := normalizeEmail(in.Email)
	if err := domain.ValidateEmail(email); err != nil {
		return domain.User{}, domain.ErrValidation(err.Error())
	}
	if len(in.Password) < MinPasswordLength {
		return domain.User{}, domain.ErrValidation(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	existing, err := s.repos.Users.FindByEmail(ctx, email)
	if err != nil {
		return domain.User{}, storeErr("find user", err)
	}
	if existing != nil {
		return domain.User{}, domain.ErrConflict("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, domain.ErrInternal("hash password", err)
	}

	agent, err := s.repos.Users.Create(ctx, domain.User{
		ID:           "agent_" + uuid.NewString(),
		Name:         name,
		Email:        email,
		Role:         domain.RoleAgent,
		ReferralCode: NewReferralCode(),
		Status:       policy.AccountActive,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		return domain.User{}, storeErr("create agent", err)
	}
	s.emit(ctx, domain.NewAgentRegisteredEvent(agent))
	s.announce(ctx, sess, domain.NewNotification{
		Title:   "New Agent Registered",
		Message: fmt.Sprintf("%s has joined the platform", agent.Name),
		Type:    domain.NotificationAgentRegistration,
	})

	s.logger.Info("agent created", "agent_id", agent.ID, "referral_code", agent.ReferralCode)
	return agent, nil
}

// NewReferralCode returns a code of the form REF_XXXXXX.
func NewReferralCode() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "REF_" + strings.ToUpper(id[:6])
}

// CredentialInput holds the fields for a new game credential.
type CredentialInput struct {
	GameID     string `json:"game_id"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	AssignedTo string `json:"assigned_to"`
}

// CreateCredential stores a game login, optionally handed to an agent.
func (s *ManagerService) CreateCredential(ctx context.Context, sess domain.Session, in CredentialInput) (domain.Credential, error) {
	if err := requireManager(sess); err != nil {
		return domain.Credential{}, err
	}
	if strings.TrimSpace(in.GameID) == "" {
		return domain.Credential{}, domain.ErrValidation("game_id is required")
	}
	if strings.TrimSpace(in.Username) == "" {
		return domain.Credential{}, domain.ErrValidation("username is required")
	}

	cred, err := s.repos.Credentials.Create(ctx, domain.Credential{
		ID:         "cred_" + uuid.NewString(),
		GameID:     strings.TrimSpace(in.GameID),
		Username:   strings.TrimSpace(in.Username),
		Password:   in.Password,
		AssignedTo: strings.TrimSpace(in.AssignedTo),
		CreatedAt:  s.now().UTC(),
	})
	if err != nil {
		return domain.Credential{}, storeErr("create credential", err)
	}
	return cred, nil
}

// AssignmentInput links an agent to a game.
type AssignmentInput struct {
	AgentID string `json:"agent_id"`
	GameID  string `json:"game_id"`
}

// AssignGame lets an agent operate a game. Assigning the same pair twice
// is a conflict.
func (s *ManagerService) AssignGame(ctx context.Context, sess domain.Session, in AssignmentInput) (domain.AgentGame, error) {
	if err := requireManager(sess); err != nil {
		return domain.AgentGame{}, err
	}
	agentID, gameID := strings.TrimSpace(in.AgentID), strings.TrimSpace(in.GameID)
	if agentID == "" || gameID == "" {
		return domain.AgentGame{}, domain.ErrValidation("agent_id and game_id are required")
	}

	ag, err := s.repos.AgentGames.Create(ctx, domain.AgentGame{
		ID:        agentID + ":" + gameID,
		AgentID:   agentID,
		GameID:    gameID,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return domain.AgentGame{}, storeErr("assign game", err)
	}
	s.logger.Info("game assigned", "agent_id", agentID, "game_id", gameID)
	return ag, nil
}

// CreateCommission stores a commission rule. A rule that duplicates an
// existing (agent, game) scope is stored but logged, since the calculator
// applies the first one.
func (s *ManagerService) CreateCommission(ctx context.Context, sess domain.Session, rule domain.CommissionRule) (domain.CommissionRule, error) {
	if err := requireManager(sess); err != nil {
		return domain.CommissionRule{}, err
	}
	rule.AgentID = strings.TrimSpace(rule.AgentID)
	if err := domain.ValidateCommissionRule(rule); err != nil {
		return domain.CommissionRule{}, domain.ErrValidation(err.Error())
	}
	rule.ID = "comm_" + uuid.NewString()

	created, err := s.repos.Commissions.Create(ctx, rule)
	if err != nil {
		return domain.CommissionRule{}, storeErr("create commission rule", err)
	}

	existing, err := s.repos.Commissions.ListByAgent(ctx, created.AgentID)
	if err == nil {
		if conflicts := policy.DetectConflicts(existing); len(conflicts) > 0 {
			s.logger.Warn("commission rule conflicts", "agent_id", created.AgentID, "count", len(conflicts))
		}
	}
	return created, nil
}

// GameSettingInput holds the fields for a new game setting.
type GameSettingInput struct {
	GameID       string `json:"game_id"`
	SettingKey   string `json:"setting_key"`
	SettingValue string `json:"setting_value"`
	SettingType  string `json:"setting_type"`
	Description  string `json:"description"`
}

// CreateGameSetting stores a per-game key/value entry. The type defaults to string.
func (s *ManagerService) CreateGameSetting(ctx context.Context, sess domain.Session, in GameSettingInput) (domain.GameSetting, error) {
	if err := requireManager(sess); err != nil {
		return domain.GameSetting{}, err
	}
	if strings.TrimSpace(in.GameID) == "" || strings.TrimSpace(in.SettingKey) == "" {
		return domain.GameSetting{}, domain.ErrValidation("game_id and setting_key are required")
	}
	typ := strings.TrimSpace(in.SettingType)
	if typ == "" {
		typ = "string"
	}

	setting, err := s.repos.GameSettings.Create(ctx, domain.GameSetting{
		ID:           "setting_" + uuid.NewString(),
		GameID:       strings.TrimSpace(in.GameID),
		SettingKey:   strings.TrimSpace(in.SettingKey),
		SettingValue: in.SettingValue,
		SettingType:  typ,
		Description:  strings.TrimSpace(in.Description),
	})
	if err != nil {
		return domain.GameSetting{}, storeErr("create game setting", err)
	}
	return setting, nil
}

// SendNotification creates a notification, broadcast unless a recipient is given.
func (s *ManagerService) SendNotification(ctx context.Context, sess domain.Session, in domain.NewNotification) (domain.Notification, error) {
	return s.center.Create(ctx, sess, in)
}

// NotificationStats returns total and unread counts grouped by type.
func (s *ManagerService) NotificationStats(ctx context.Context, sess domain.Session) (notify.Stats, error) {
	return s.center.Stats(ctx, sess)
}

// ListNotificationTypes returns the configured notification types.
func (s *ManagerService) ListNotificationTypes(ctx context.Context, sess domain.Session) ([]domain.NotificationType, error) {
	if err := requireManager(sess); err != nil {
		return nil, err
	}
	types, err := s.repos.NotificationTypes.List(ctx)
	if err != nil {
		return nil, storeErr("list notification types", err)
	}
	return types, nil
}

// emit writes an outbox event. The mutation already succeeded, so a
// failure is only logged.
func (s *ManagerService) emit(ctx context.Context, draft domain.OutboxDraft) {
	if err := s.repos.Outbox.Insert(ctx, draft); err != nil {
		s.logger.Error("outbox insert failed",
			"event_type", draft.EventType,
			"aggregate_id", draft.AggregateID,
			"error", err,
		)
	}
}

func (s *ManagerService) announce(ctx context.Context, sess domain.Session, n domain.NewNotification) {
	if _, err := s.center.Create(ctx, sess, n); err != nil {
		s.logger.Error("announcement failed", "title", n.Title, "error", err)
	}
}
