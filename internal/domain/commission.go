package domain

// CommissionType selects how a rule's rate is applied.
type CommissionType string

const (
	CommissionPercentage CommissionType = "percentage"
	CommissionFixed      CommissionType = "fixed"
)

// Valid reports whether t is a supported commission type.
func (t CommissionType) Valid() bool {
	return t == CommissionPercentage || t == CommissionFixed
}

// CommissionRule is a commission_settings row. A nil GameID makes the rule
// a fallback for every game of the agent.
type CommissionRule struct {
	ID             string         `json:"id"`
	AgentID        string         `json:"agent_id"`
	GameID         *string        `json:"game_id"`
	CommissionRate float64        `json:"commission_rate"`
	CommissionType CommissionType `json:"commission_type"`
}

// IsFallback reports whether the rule applies to all games of its agent.
func (r CommissionRule) IsFallback() bool {
	return r.GameID == nil
}

// AppliesTo reports whether the rule is the specific rule for gameID.
func (r CommissionRule) AppliesTo(gameID string) bool {
	return r.GameID != nil && *r.GameID == gameID
}
