package policy

import (
	"github.com/gameportal/portal/internal/domain"
	"github.com/shopspring/decimal"
)

// RuleSource tells which kind of rule produced a commission.
type RuleSource string

const (
	RuleSpecific RuleSource = "specific"
	RuleFallback RuleSource = "fallback"
	RuleNone     RuleSource = "none"
)

// CommissionEvaluation holds the result of a commission computation.
// Amount is unrounded; round only for display.
type CommissionEvaluation struct {
	RuleID string     `json:"rule_id,omitempty"`
	Source RuleSource `json:"source"`
	Amount float64    `json:"amount"`
}

// SelectRule picks the rule that applies to (agentID, gameID). A rule for
// the game beats a fallback rule; among equals the first encountered wins.
// Rules of other agents are skipped.
func SelectRule(rules []domain.CommissionRule, agentID, gameID string) (domain.CommissionRule, RuleSource) {
	var fallback *domain.CommissionRule
	for i := range rules {
		r := &rules[i]
		if r.AgentID != agentID {
			continue
		}
		if r.AppliesTo(gameID) {
			return *r, RuleSpecific
		}
		if r.IsFallback() && fallback == nil {
			fallback = r
		}
	}
	if fallback != nil {
		return *fallback, RuleFallback
	}
	return domain.CommissionRule{}, RuleNone
}

// Amount applies rule to revenue: percentage rules take rate percent of
// revenue, fixed rules pay the rate. The result is never negative.
func Amount(revenue float64, rule domain.CommissionRule) float64 {
	var amt float64
	switch rule.CommissionType {
	case domain.CommissionPercentage:
		amt = revenue * rule.CommissionRate / 100
	case domain.CommissionFixed:
		amt = rule.CommissionRate
	}
	if amt < 0 {
		return 0
	}
	return amt
}

// EvaluateCommission selects the applicable rule and computes the amount.
// No applicable rule yields zero.
func EvaluateCommission(revenue float64, rules []domain.CommissionRule, agentID, gameID string) CommissionEvaluation {
	rule, src := SelectRule(rules, agentID, gameID)
	if src == RuleNone {
		return CommissionEvaluation{Source: RuleNone}
	}
	return CommissionEvaluation{RuleID: rule.ID, Source: src, Amount: Amount(revenue, rule)}
}

// RoundForDisplay rounds v half away from zero to 2 decimals.
func RoundForDisplay(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// FormatForDisplay renders v with exactly 2 decimals.
func FormatForDisplay(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// RuleConflict reports more than one rule for the same (agent, game) scope.
// A nil GameID is the agent's fallback scope.
type RuleConflict struct {
	AgentID string   `json:"agent_id"`
	GameID  *string  `json:"game_id"`
	RuleIDs []string `json:"rule_ids"`
	Applied string   `json:"applied_rule_id"`
}

// DetectConflicts lists every scope with more than one rule, in the order
// the scope first appears. Applied is the rule SelectRule would use.
func DetectConflicts(rules []domain.CommissionRule) []RuleConflict {
	type scope struct {
		agent, game string
		fallback    bool
	}
	var order []scope
	byScope := make(map[scope][]string)
	gameOf := make(map[scope]*string)

	for _, r := range rules {
		s := scope{agent: r.AgentID, fallback: r.IsFallback()}
		if !s.fallback {
			s.game = *r.GameID
		}
		if _, ok := byScope[s]; !ok {
			order = append(order, s)
			gameOf[s] = r.GameID
		}
		byScope[s] = append(byScope[s], r.ID)
	}

	out := make([]RuleConflict, 0)
	for _, s := range order {
		ids := byScope[s]
		if len(ids) < 2 {
			continue
		}
		out = append(out, RuleConflict{AgentID: s.agent, GameID: gameOf[s], RuleIDs: ids, Applied: ids[0]})
	}
	return out
}

// GameEarning is the commission an agent earns on one game.
type GameEarning struct {
	GameID    string     `json:"game_id"`
	GameTitle string     `json:"game_title"`
	Revenue   float64    `json:"revenue"`
	RuleID    string     `json:"rule_id,omitempty"`
	Source    RuleSource `json:"source"`
	Amount    float64    `json:"amount"`
}

// EarningsReport is the per-game commission breakdown for one agent.
type EarningsReport struct {
	AgentID string        `json:"agent_id"`
	Games   []GameEarning `json:"games"`
	Total   float64       `json:"total"`
}

// AgentEarnings computes the agent's commission on each game summary.
// Total is the exact sum of the unrounded amounts.
func AgentEarnings(agentID string, games []domain.GameAnalyticsSummary, rules []domain.CommissionRule) EarningsReport {
	report := EarningsReport{AgentID: agentID, Games: make([]GameEarning, 0, len(games))}
	for _, g := range games {
		ev := EvaluateCommission(g.Revenue, rules, agentID, g.GameID)
		report.Games = append(report.Games, GameEarning{
			GameID:    g.GameID,
			GameTitle: g.GameTitle,
			Revenue:   g.Revenue,
			RuleID:    ev.RuleID,
			Source:    ev.Source,
			Amount:    ev.Amount,
		})
		report.Total += ev.Amount
	}
	return report
}
