package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// DateLayout is the layout of MetricRecord dates.
const DateLayout = "2006-01-02"

// ValidateEmail checks if an email address is valid.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidateDate checks that s is a calendar date in YYYY-MM-DD form.
func ValidateDate(s string) error {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return nil
}

// ValidateNewNotification checks the fields a manager must supply.
func ValidateNewNotification(n NewNotification) error {
	if strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if strings.TrimSpace(n.Message) == "" {
		return fmt.Errorf("message is required")
	}
	if n.Priority != "" && ParsePriority(n.Priority) != Priority(n.Priority) {
		return fmt.Errorf("unknown priority %q", n.Priority)
	}
	return nil
}

// ValidateCommissionRule checks a rule before it is stored.
func ValidateCommissionRule(r CommissionRule) error {
	if r.AgentID == "" {
		return fmt.Errorf("agent_id is required")
	}
	if !r.CommissionType.Valid() {
		return fmt.Errorf("unknown commission_type %q", r.CommissionType)
	}
	if r.CommissionRate < 0 {
		return fmt.Errorf("commission_rate must not be negative, got %v", r.CommissionRate)
	}
	if r.CommissionType == CommissionPercentage && r.CommissionRate > 100 {
		return fmt.Errorf("percentage commission_rate must be at most 100, got %v", r.CommissionRate)
	}
	if r.GameID != nil && *r.GameID == "" {
		return fmt.Errorf("game_id must be omitted or non-empty")
	}
	return nil
}
