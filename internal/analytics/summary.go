package analytics

import "github.com/gameportal/portal/internal/domain"

// PadGames appends a zero summary for every game in games that has no
// summary yet, in reference order. Existing summaries keep their position.
func PadGames(summaries []domain.GameAnalyticsSummary, games []domain.Game) []domain.GameAnalyticsSummary {
	seen := make(map[string]bool, len(summaries))
	out := make([]domain.GameAnalyticsSummary, 0, len(summaries)+len(games))
	for _, s := range summaries {
		seen[s.GameID] = true
		out = append(out, s)
	}
	for _, g := range games {
		if seen[g.ID] {
			continue
		}
		seen[g.ID] = true
		out = append(out, domain.GameAnalyticsSummary{GameID: g.ID, GameTitle: g.Title})
	}
	return out
}

// PadAgents is PadGames for agent summaries.
func PadAgents(summaries []domain.AgentPerformanceSummary, agents []domain.User) []domain.AgentPerformanceSummary {
	seen := make(map[string]bool, len(summaries))
	out := make([]domain.AgentPerformanceSummary, 0, len(summaries)+len(agents))
	for _, s := range summaries {
		seen[s.AgentID] = true
		out = append(out, s)
	}
	for _, a := range agents {
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		out = append(out, domain.AgentPerformanceSummary{AgentID: a.ID, AgentName: a.Name})
	}
	return out
}

// AgentSummary returns the summary for agentID, or an all-zero summary
// carrying name when the agent has no metric rows.
func AgentSummary(summaries []domain.AgentPerformanceSummary, agentID, name string) domain.AgentPerformanceSummary {
	for _, s := range summaries {
		if s.AgentID == agentID {
			return s
		}
	}
	return domain.AgentPerformanceSummary{AgentID: agentID, AgentName: name}
}

// Overview holds the manager dashboard's headline totals.
type Overview struct {
	TotalGames    int     `json:"total_games"`
	TotalAgents   int     `json:"total_agents"`
	TotalRevenue  float64 `json:"total_revenue"`
	TotalPlayers  float64 `json:"total_players"`
	TotalSessions float64 `json:"total_sessions"`
}

// Totals sums game summaries into an Overview.
func Totals(gameCount, agentCount int, games []domain.GameAnalyticsSummary) Overview {
	o := Overview{TotalGames: gameCount, TotalAgents: agentCount}
	for _, g := range games {
		o.TotalRevenue += g.Revenue
		o.TotalPlayers += g.Players
		o.TotalSessions += g.Sessions
	}
	return o
}
