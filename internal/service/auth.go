package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gameportal/portal/internal/auth"
	"github.com/gameportal/portal/internal/domain"
	"github.com/gameportal/portal/internal/guard"
	"github.com/gameportal/portal/internal/policy"
	"github.com/gameportal/portal/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength applies to every account the portal creates.
const MinPasswordLength = 8

// AuthService handles manager and agent login.
type AuthService struct {
	users   repository.UserRepository
	jwtMgr  *auth.JWTManager
	limiter *guard.RateLimiter
	lockout *guard.Lockout
	logger  *slog.Logger
}

// NewAuthService creates a new AuthService. limiter and lockout may be nil.
func NewAuthService(
	users repository.UserRepository,
	jwtMgr *auth.JWTManager,
	limiter *guard.RateLimiter,
	lockout *guard.Lockout,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:   users,
		jwtMgr:  jwtMgr,
		limiter: limiter,
		lockout: lockout,
		logger:  logger,
	}
}

// LoginInput holds the login request fields.
type LoginInput struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

// AuthResult is returned on successful login.
type AuthResult struct {
	Token        string      `json:"token"`
	UserID       string      `json:"user_id"`
	Email        string      `json:"email"`
	Name         string      `json:"name"`
	Role         domain.Role `json:"role"`
	ReferralCode string      `json:"referral_code,omitempty"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login authenticates a user for the view named by input.Role and returns
// a JWT for the matching realm.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	realm, err := auth.RealmFor(input.Role)
	if err != nil {
		return nil, domain.ErrValidation("role must be manager or agent")
	}
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, domain.ErrValidation("email and password are required")
	}

	if s.limiter != nil {
		if err := s.limiter.Allow(ctx, string(realm)+":"+email); err != nil {
			return nil, err
		}
	}
	if s.lockout != nil {
		if err := s.lockout.CheckLocked(ctx, email, string(realm)); err != nil {
			return nil, err
		}
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, domain.ErrUnavailable("find user", err)
	}
	if user == nil {
		s.recordAttempt(ctx, email, realm, false)
		return nil, domain.ErrUnauthorized("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		s.recordAttempt(ctx, email, realm, false)
		return nil, domain.ErrUnauthorized("invalid credentials")
	}

	status := policy.EvaluateAccountPolicy(user, input.Role)
	if !status.IsCleared() {
		s.recordAttempt(ctx, email, realm, false)
		s.logger.Warn("login refused by account policy",
			"user_id", user.ID,
			"realm", realm,
			"role_matches", status.RoleMatches,
			"account_active", status.AccountActive,
		)
		if status.RoleMatches && !status.AccountActive {
			return nil, domain.ErrForbidden("account suspended")
		}
		return nil, domain.ErrUnauthorized("invalid credentials")
	}
	s.recordAttempt(ctx, email, realm, true)

	token, err := s.jwtMgr.GenerateToken(realm, user.ID, user.Email)
	if err != nil {
		return nil, domain.ErrInternal("generate token", err)
	}

	return &AuthResult{
		Token:        token,
		UserID:       user.ID,
		Email:        user.Email,
		Name:         user.Name,
		Role:         user.Role,
		ReferralCode: user.ReferralCode,
	}, nil
}

// VerifySession confirms the token's subject still exists, still holds the
// token's role and is not suspended.
func (s *AuthService) VerifySession(ctx context.Context, sess domain.Session) error {
	user, err := s.users.FindByID(ctx, sess.UserID)
	if err != nil {
		return domain.ErrUnavailable("find user", err)
	}
	if user == nil {
		return domain.ErrUnauthorized("account no longer exists")
	}
	status := policy.EvaluateAccountPolicy(user, sess.Role)
	switch {
	case !status.RoleMatches:
		return domain.ErrUnauthorized("account role changed")
	case !status.AccountActive:
		return domain.ErrForbidden("account suspended")
	}
	return nil
}

func (s *AuthService) recordAttempt(ctx context.Context, email string, realm auth.Realm, success bool) {
	if s.lockout != nil {
		s.lockout.RecordAttempt(ctx, email, string(realm), success)
	}
}

// EnsureManager creates the bootstrap manager account when it does not
// exist yet. An empty email disables bootstrapping.
func (s *AuthService) EnsureManager(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" {
		return nil
	}
	if err := domain.ValidateEmail(email); err != nil {
		return fmt.Errorf("bootstrap manager: %w", err)
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("bootstrap manager: find user: %w", err)
	}
	if existing != nil {
		if existing.Role != domain.RoleManager {
			return fmt.Errorf("bootstrap manager: %s exists with role %s", email, existing.Role)
		}
		return nil
	}
	if len(password) < MinPasswordLength {
		return fmt.Errorf("bootstrap manager: password must be at least %d characters", MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("bootstrap manager: hash password: %w", err)
	}
	mgr, err := s.users.Create(ctx, domain.User{
		ID:           "mgr_" + uuid.NewString(),
		Name:         "Manager",
		Email:        email,
		Role:         domain.RoleManager,
		Status:       policy.AccountActive,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("bootstrap manager: create: %w", err)
	}
	s.logger.Info("bootstrap manager created", "user_id", mgr.ID, "email", mgr.Email)
	return nil
}
