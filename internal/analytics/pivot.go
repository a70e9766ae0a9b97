// Package analytics pivots metric rows into per-entity summaries.
//
// Rows are grouped by entity_id and emitted in first-seen order. Known
// metric types fill the matching summary field; unknown types are ignored.
// When an entity has several rows for one metric, the row with the latest
// date wins and equal dates fall back to input order (last wins).
package analytics

import "github.com/gameportal/portal/internal/domain"

// GameTitles resolves game ids to titles. *resolve.Index satisfies it.
type GameTitles interface {
	GameTitle(id string) (string, bool)
}

// AgentNames resolves agent ids to names. *resolve.Index satisfies it.
type AgentNames interface {
	AgentName(id string) (string, bool)
}

type gameGroup struct {
	summary domain.GameAnalyticsSummary
	dates   map[domain.GameMetric]string
}

// PivotGames builds one GameAnalyticsSummary per distinct game id in records.
// Records of another entity kind are skipped.
func PivotGames(records []domain.MetricRecord, titles GameTitles) []domain.GameAnalyticsSummary {
	var order []*gameGroup
	byID := make(map[string]*gameGroup)

	for _, r := range records {
		if r.EntityKind != "" && r.EntityKind != domain.EntityGame {
			continue
		}
		g, ok := byID[r.EntityID]
		if !ok {
			g = &gameGroup{
				summary: domain.GameAnalyticsSummary{GameID: r.EntityID, GameTitle: gameTitle(titles, r.EntityID)},
				dates:   make(map[domain.GameMetric]string),
			}
			byID[r.EntityID] = g
			order = append(order, g)
		}

		m, ok := domain.ParseGameMetric(r.MetricType)
		if !ok {
			continue
		}
		if prev, seen := g.dates[m]; seen && r.Date < prev {
			continue
		}
		g.dates[m] = r.Date

		switch m {
		case domain.GameMetricRevenue:
			g.summary.Revenue = r.MetricValue
		case domain.GameMetricPlayers:
			g.summary.Players = r.MetricValue
		case domain.GameMetricSessions:
			g.summary.Sessions = r.MetricValue
		}
	}

	out := make([]domain.GameAnalyticsSummary, len(order))
	for i, g := range order {
		out[i] = g.summary
	}
	return out
}

type agentGroup struct {
	summary domain.AgentPerformanceSummary
	dates   map[domain.AgentMetric]string
}

// PivotAgents builds one AgentPerformanceSummary per distinct agent id in
// records, keeping the last-known value of each metric.
func PivotAgents(records []domain.MetricRecord, names AgentNames) []domain.AgentPerformanceSummary {
	var order []*agentGroup
	byID := make(map[string]*agentGroup)

	for _, r := range records {
		if r.EntityKind != "" && r.EntityKind != domain.EntityAgent {
			continue
		}
		a, ok := byID[r.EntityID]
		if !ok {
			a = &agentGroup{
				summary: domain.AgentPerformanceSummary{AgentID: r.EntityID, AgentName: agentName(names, r.EntityID)},
				dates:   make(map[domain.AgentMetric]string),
			}
			byID[r.EntityID] = a
			order = append(order, a)
		}

		m, ok := domain.ParseAgentMetric(r.MetricType)
		if !ok {
			continue
		}
		if prev, seen := a.dates[m]; seen && r.Date < prev {
			continue
		}
		a.dates[m] = r.Date

		switch m {
		case domain.AgentMetricTotalRevenue:
			a.summary.TotalRevenue = r.MetricValue
		case domain.AgentMetricActivePlayers:
			a.summary.ActivePlayers = r.MetricValue
		case domain.AgentMetricReferrals:
			a.summary.Referrals = r.MetricValue
		case domain.AgentMetricCommissionEarned:
			a.summary.CommissionEarned = r.MetricValue
		}
	}

	out := make([]domain.AgentPerformanceSummary, len(order))
	for i, a := range order {
		out[i] = a.summary
	}
	return out
}

func gameTitle(titles GameTitles, id string) string {
	if titles != nil {
		if t, ok := titles.GameTitle(id); ok {
			return t
		}
	}
	return domain.UnknownGame
}

func agentName(names AgentNames, id string) string {
	if names != nil {
		if n, ok := names.AgentName(id); ok {
			return n
		}
	}
	return domain.UnknownAgent
}
