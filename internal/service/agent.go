package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/gameportal/portal/internal/analytics"
	"github.com/gameportal/portal/internal/domain"
	"github.com/gameportal/portal/internal/notify"
	"github.com/gameportal/portal/internal/policy"
	"github.com/gameportal/portal/internal/repository"
	"github.com/gameportal/portal/internal/resolve"
)

// AgentService loads the agent dashboard and the agent's notifications.
type AgentService struct {
	repos         repository.Set
	center        *notify.Center
	analyticsDate string
	logger        *slog.Logger
	now           func() time.Time
}

// NewAgentService creates an AgentService.
func NewAgentService(repos repository.Set, center *notify.Center, analyticsDate string, logger *slog.Logger) *AgentService {
	return &AgentService{
		repos:         repos,
		center:        center,
		analyticsDate: analyticsDate,
		logger:        logger,
		now:           time.Now,
	}
}

// AgentDashboard is everything the agent view renders after one load.
type AgentDashboard struct {
	Date              string                           `json:"date"`
	Status            string                           `json:"status"`
	FailedCollections []string                         `json:"failed_collections,omitempty"`
	Agent             *domain.User                     `json:"agent,omitempty"`
	AssignedGames     []domain.Game                    `json:"assigned_games"`
	Credentials       []resolve.ResolvedCredential     `json:"credentials"`
	Notifications     []domain.Notification            `json:"notifications"`
	UnreadCount       int                              `json:"unread_count"`
	Performance       domain.AgentPerformanceSummary   `json:"performance"`
	GameAnalytics     []domain.GameAnalyticsSummary    `json:"game_analytics"`
	CommissionRules   []resolve.ResolvedCommissionRule `json:"commission_rules"`
	Earnings          policy.EarningsReport            `json:"earnings"`
}

// LoadDashboard fetches the viewer's slice of every collection and
// aggregates it. Fetch failures degrade the affected section to empty.
func (s *AgentService) LoadDashboard(ctx context.Context, sess domain.Session, date string) (*AgentDashboard, error) {
	if !sess.IsAgent() {
		return nil, domain.ErrForbidden("agent dashboard requires the agent role")
	}
	date, err := resolveDate(date, s.analyticsDate, s.now)
	if err != nil {
		return nil, err
	}
	agentID := sess.UserID

	var (
		agent     *domain.User
		games     []domain.Game
		creds     []domain.Credential
		gameRows  []domain.MetricRecord
		agentRows []domain.MetricRecord
		rules     []domain.CommissionRule
		page      *notify.Page
	)
	l := newLoader(ctx, s.logger, "agent")
	l.group.Go(func() error {
		u, err := s.repos.Users.FindByID(l.ctx, agentID)
		if err != nil {
			l.fail("users", err)
			return nil
		}
		agent = u
		return nil
	})
	l.group.Go(func() error {
		games = []domain.Game{}
		assigned, err := s.repos.AgentGames.ListByAgent(l.ctx, agentID)
		if err != nil {
			l.fail("agent_games", err)
			return nil
		}
		ids := make([]string, 0, len(assigned))
		for _, ag := range assigned {
			ids = append(ids, ag.GameID)
		}
		found, err := s.repos.Games.ListByIDs(l.ctx, ids)
		if err != nil {
			l.fail("games", err)
			return nil
		}
		if found != nil {
			games = found
		}
		return nil
	})
	l.group.Go(func() error {
		p, err := s.center.List(l.ctx, sess)
		if err != nil {
			l.fail("notifications", err)
			return nil
		}
		page = p
		return nil
	})
	fetch(l, "game_credentials", &creds, func(ctx context.Context) ([]domain.Credential, error) {
		return s.repos.Credentials.ListAssignedTo(ctx, agentID)
	})
	fetch(l, "game_analytics", &gameRows, func(ctx context.Context) ([]domain.MetricRecord, error) {
		return s.repos.Metrics.GameAnalytics(ctx, date, agentID)
	})
	fetch(l, "agent_performance", &agentRows, func(ctx context.Context) ([]domain.MetricRecord, error) {
		return s.repos.Metrics.AgentPerformance(ctx, agentID)
	})
	fetch(l, "commission_settings", &rules, func(ctx context.Context) ([]domain.CommissionRule, error) {
		return s.repos.Commissions.ListByAgent(ctx, agentID)
	})
	status, failed := l.wait()

	var agents []domain.User
	if agent != nil {
		agents = append(agents, *agent)
	}
	idx := resolve.NewIndex(games, agents, s.logger)

	perf := analytics.AgentSummary(
		analytics.PivotAgents(agentRows, idx),
		agentID,
		idx.AgentNameOr(agentID, domain.UnknownAgent),
	)
	gameSummaries := analytics.PadGames(analytics.PivotGames(gameRows, idx), games)

	d := &AgentDashboard{
		Date:              date,
		Status:            status,
		FailedCollections: failed,
		Agent:             agent,
		AssignedGames:     games,
		Credentials:       resolve.Credentials(idx, creds),
		Notifications:     []domain.Notification{},
		Performance:       perf,
		GameAnalytics:     gameSummaries,
		CommissionRules:   resolve.CommissionRules(idx, rules),
		Earnings:          displayEarnings(policy.AgentEarnings(agentID, gameSummaries, rules)),
	}
	if page != nil {
		d.Notifications = page.Items()
		d.UnreadCount = page.UnreadCount()
	}
	return d, nil
}

// displayEarnings rounds every amount to cents. The total is rounded from
// the exact sum, not summed from rounded amounts.
func displayEarnings(r policy.EarningsReport) policy.EarningsReport {
	games := make([]policy.GameEarning, len(r.Games))
	for i, g := range r.Games {
		g.Amount = policy.RoundForDisplay(g.Amount)
		games[i] = g
	}
	r.Games = games
	r.Total = policy.RoundForDisplay(r.Total)
	return r
}

// NotificationFeed is the agent's notification page after an operation.
type NotificationFeed struct {
	Notifications []domain.Notification `json:"notifications"`
	UnreadCount   int                   `json:"unread_count"`
	Transitioned  int                   `json:"transitioned"`
}

func feed(page *notify.Page, transitioned int) *NotificationFeed {
	return &NotificationFeed{
		Notifications: page.Items(),
		UnreadCount:   page.UnreadCount(),
		Transitioned:  transitioned,
	}
}

// Notifications returns the viewer's current page.
func (s *AgentService) Notifications(ctx context.Context, sess domain.Session) (*NotificationFeed, error) {
	page, err := s.center.List(ctx, sess)
	if err != nil {
		return nil, err
	}
	return feed(page, 0), nil
}

// MarkAsRead marks one notification on the viewer's page as read. Ids not
// on the page and notifications already read leave the page unchanged.
func (s *AgentService) MarkAsRead(ctx context.Context, sess domain.Session, id string) (*NotificationFeed, error) {
	page, err := s.center.List(ctx, sess)
	if err != nil {
		return nil, err
	}
	ok, err := s.center.MarkAsRead(ctx, page, id)
	if err != nil {
		return nil, err
	}
	n := 0
	if ok {
		n = 1
	}
	return feed(page, n), nil
}

// MarkAllAsRead marks every unread notification on the viewer's page as read.
func (s *AgentService) MarkAllAsRead(ctx context.Context, sess domain.Session) (*NotificationFeed, error) {
	page, err := s.center.List(ctx, sess)
	if err != nil {
		return nil, err
	}
	n, err := s.center.MarkAllAsRead(ctx, page)
	if err != nil {
		return nil, err
	}
	return feed(page, n), nil
}
