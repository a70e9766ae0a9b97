package policy

import "github.com/gameportal/portal/internal/domain"

// Account statuses stored on users.
const (
	AccountActive    = "active"
	AccountSuspended = "suspended"
)

// AccountStatus holds the results of the login eligibility checks.
type AccountStatus struct {
	RoleMatches   bool `json:"role_matches"`
	AccountActive bool `json:"account_active"`
	HasPassword   bool `json:"has_password"`
}

// EvaluateAccountPolicy checks whether a user may open the view for role.
// This is a blocking policy: all checks must pass.
func EvaluateAccountPolicy(u *domain.User, role domain.Role) AccountStatus {
	return AccountStatus{
		RoleMatches:   u.Role == role && role.Valid(),
		AccountActive: u.Status == "" || u.Status == AccountActive,
		HasPassword:   u.PasswordHash != "",
	}
}

// IsCleared returns true if all account checks pass.
func (s AccountStatus) IsCleared() bool {
	return s.RoleMatches && s.AccountActive && s.HasPassword
}
