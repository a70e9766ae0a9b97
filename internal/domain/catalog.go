package domain

import "time"

// Role identifies which portal view a user is allowed to open.
type Role string

const (
	RoleManager Role = "manager"
	RoleAgent   Role = "agent"
)

// Valid reports whether r is a known portal role.
func (r Role) Valid() bool {
	return r == RoleManager || r == RoleAgent
}

// Game is a games row curated by the manager.
type Game struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	PlayerLink  string    `json:"player_link"`
	AgentLink   string    `json:"agent_link"`
	CreatedAt   time.Time `json:"created_at"`
}

// User is a users row. Agents are users with RoleAgent.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	ReferralCode string    `json:"referral_code,omitempty"`
	Status       string    `json:"status"` // active, suspended
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Credential is a game_credentials row: a game login handed to an agent.
type Credential struct {
	ID         string    `json:"id"`
	GameID     string    `json:"game_id"`
	Username   string    `json:"username"`
	Password   string    `json:"password"`
	AssignedTo string    `json:"assigned_to"`
	CreatedAt  time.Time `json:"created_at"`
}

// AgentGame links an agent to a game it may operate (agent_games).
type AgentGame struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agent_id"`
	GameID    string    `json:"game_id"`
	CreatedAt time.Time `json:"created_at"`
}

// GameSetting is a per-game key/value configuration entry.
type GameSetting struct {
	ID           string `json:"id"`
	GameID       string `json:"game_id"`
	SettingKey   string `json:"setting_key"`
	SettingValue string `json:"setting_value"`
	SettingType  string `json:"setting_type"`
	Description  string `json:"description"`
}

// Display placeholders for references that do not resolve.
const (
	UnknownGame  = "Unknown Game"
	UnknownAgent = "Unknown Agent"
	Unassigned   = "Unassigned"
	AllGames     = "All Games"
)
