package resolve

import "github.com/gameportal/portal/internal/domain"

// ResolvedCredential is a credential with its game title and agent name.
type ResolvedCredential struct {
	domain.Credential
	GameTitle string `json:"game_title"`
	AgentName string `json:"agent_name"`
}

// ResolvedCommissionRule is a commission rule with its agent name and game
// title. Fallback rules carry the "All Games" title.
type ResolvedCommissionRule struct {
	domain.CommissionRule
	AgentName string `json:"agent_name"`
	GameTitle string `json:"game_title"`
}

// ResolvedGameSetting is a game setting with its game title.
type ResolvedGameSetting struct {
	domain.GameSetting
	GameTitle string `json:"game_title"`
}

// Credentials attaches game_title and agent_name to each credential.
// The input slice is not modified.
func Credentials(idx *Index, creds []domain.Credential) []ResolvedCredential {
	out := make([]ResolvedCredential, len(creds))
	for i, c := range creds {
		out[i] = ResolvedCredential{
			Credential: c,
			GameTitle:  idx.GameTitleOr(c.GameID, domain.UnknownGame),
			AgentName:  idx.AgentNameOr(c.AssignedTo, domain.Unassigned),
		}
	}
	return out
}

// CommissionRules attaches agent_name and game_title to each rule. A rule
// without a game resolves to "All Games" without consulting the index.
func CommissionRules(idx *Index, rules []domain.CommissionRule) []ResolvedCommissionRule {
	out := make([]ResolvedCommissionRule, len(rules))
	for i, r := range rules {
		title := domain.AllGames
		if !r.IsFallback() {
			title = idx.GameTitleOr(*r.GameID, domain.UnknownGame)
		}
		out[i] = ResolvedCommissionRule{
			CommissionRule: r,
			AgentName:      idx.AgentNameOr(r.AgentID, domain.UnknownAgent),
			GameTitle:      title,
		}
	}
	return out
}

// GameSettings attaches game_title to each setting.
func GameSettings(idx *Index, settings []domain.GameSetting) []ResolvedGameSetting {
	out := make([]ResolvedGameSetting, len(settings))
	for i, s := range settings {
		out[i] = ResolvedGameSetting{
			GameSetting: s,
			GameTitle:   idx.GameTitleOr(s.GameID, domain.UnknownGame),
		}
	}
	return out
}
