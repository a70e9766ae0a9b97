package domain

// EntityKind tells which reference collection a MetricRecord points at.
type EntityKind string

const (
	EntityGame  EntityKind = "game"
	EntityAgent EntityKind = "agent"
)

// MetricRecord is one immutable (entity, metric_type, value, date) fact
// written by the metering pipeline into game_analytics or agent_performance.
type MetricRecord struct {
	ID          string     `json:"id"`
	EntityID    string     `json:"entity_id"`
	EntityKind  EntityKind `json:"entity_kind"`
	AgentID     string     `json:"agent_id,omitempty"` // game rows only: owning agent, if scoped
	MetricType  string     `json:"metric_type"`
	MetricValue float64    `json:"metric_value"`
	Date        string     `json:"date"` // YYYY-MM-DD
}

// GameMetric is the closed set of metric types understood for games.
type GameMetric string

const (
	GameMetricRevenue  GameMetric = "revenue"
	GameMetricPlayers  GameMetric = "players"
	GameMetricSessions GameMetric = "sessions"
)

// ParseGameMetric maps a raw metric_type onto the game enumeration.
// Unknown types return false and must be ignored by callers.
func ParseGameMetric(s string) (GameMetric, bool) {
	switch m := GameMetric(s); m {
	case GameMetricRevenue, GameMetricPlayers, GameMetricSessions:
		return m, true
	}
	return "", false
}

// AgentMetric is the closed set of metric types understood for agents.
type AgentMetric string

const (
	AgentMetricTotalRevenue     AgentMetric = "total_revenue"
	AgentMetricActivePlayers    AgentMetric = "active_players"
	AgentMetricReferrals        AgentMetric = "referrals"
	AgentMetricCommissionEarned AgentMetric = "commission_earned"
)

// ParseAgentMetric maps a raw metric_type onto the agent enumeration.
func ParseAgentMetric(s string) (AgentMetric, bool) {
	switch m := AgentMetric(s); m {
	case AgentMetricTotalRevenue, AgentMetricActivePlayers, AgentMetricReferrals, AgentMetricCommissionEarned:
		return m, true
	}
	return "", false
}

// GameAnalyticsSummary is the per-game pivot of one day's metrics.
type GameAnalyticsSummary struct {
	GameID    string  `json:"game_id"`
	GameTitle string  `json:"game_title"`
	Revenue   float64 `json:"revenue"`
	Players   float64 `json:"players"`
	Sessions  float64 `json:"sessions"`
}

// AgentPerformanceSummary is the per-agent pivot of last-known metrics.
type AgentPerformanceSummary struct {
	AgentID          string  `json:"agent_id"`
	AgentName        string  `json:"agent_name"`
	TotalRevenue     float64 `json:"total_revenue"`
	ActivePlayers    float64 `json:"active_players"`
	Referrals        float64 `json:"referrals"`
	CommissionEarned float64 `json:"commission_earned"`
}
