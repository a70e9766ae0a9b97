package domain

// Session is the explicit identity of the viewer, passed into every
// dashboard and notification call instead of being read from globals.
type Session struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

// IsManager reports whether the session may use the manager view.
func (s Session) IsManager() bool { return s.Role == RoleManager }

// IsAgent reports whether the session may use the agent view.
func (s Session) IsAgent() bool { return s.Role == RoleAgent && s.UserID != "" }
