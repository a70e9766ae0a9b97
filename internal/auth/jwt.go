package auth

import (
	"fmt"
	"time"

	"github.com/gameportal/portal/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Realm identifies the JWT authentication realm. Each realm opens one view.
type Realm string

const (
	RealmManager Realm = "manager"
	RealmAgent   Realm = "agent"
)

// RealmFor maps a portal role onto its realm.
func RealmFor(role domain.Role) (Realm, error) {
	switch role {
	case domain.RoleManager:
		return RealmManager, nil
	case domain.RoleAgent:
		return RealmAgent, nil
	}
	return "", fmt.Errorf("no realm for role %q", role)
}

// Role returns the portal role a realm grants.
func (r Realm) Role() domain.Role {
	return domain.Role(r)
}

// Claims holds the custom JWT claims for both realms.
type Claims struct {
	jwt.RegisteredClaims
	Realm Realm  `json:"realm"`
	Email string `json:"email,omitempty"`
}

// Session builds the explicit viewer identity from the claims.
func (c *Claims) Session() domain.Session {
	return domain.Session{UserID: c.Subject, Email: c.Email, Role: c.Realm.Role()}
}

// Issuer is stamped on every portal token and required on validation.
const Issuer = "gameportal"

// clockSkew tolerates small clock differences between portal replicas.
const clockSkew = 30 * time.Second

// JWTManager issues and checks HS256 tokens. The audience of a token is
// its realm, so a manager token never validates as an agent token.
type JWTManager struct {
	secret []byte
	expiry map[Realm]time.Duration
	now    func() time.Time
}

// NewJWTManager creates a JWT manager with realm-specific expiry durations.
func NewJWTManager(secret string, managerExpiry, agentExpiry time.Duration) *JWTManager {
	return &JWTManager{
		secret: []byte(secret),
		expiry: map[Realm]time.Duration{
			RealmManager: managerExpiry,
			RealmAgent:   agentExpiry,
		},
		now: time.Now,
	}
}

// GenerateToken signs a token for subjectID in realm.
func (m *JWTManager) GenerateToken(realm Realm, subjectID, email string) (string, error) {
	expiry, ok := m.expiry[realm]
	if !ok {
		return "", fmt.Errorf("unknown realm: %s", realm)
	}
	if subjectID == "" {
		return "", fmt.Errorf("subject is required")
	}

	now := m.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   subjectID,
			Audience:  jwt.ClaimStrings{string(realm)},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			ID:        uuid.NewString(),
		},
		Realm: realm,
		Email: email,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *JWTManager) parse(tokenString string, opts ...jwt.ParserOption) (*Claims, error) {
	opts = append(opts,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
		jwt.WithTimeFunc(m.now),
	)
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	return claims, nil
}

// ValidateToken checks signature, issuer and expiry for a token of any realm.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if _, ok := m.expiry[claims.Realm]; !ok {
		return nil, fmt.Errorf("unknown realm: %s", claims.Realm)
	}
	return claims, nil
}

// ValidateTokenForRealm validates a token whose audience is expectedRealm.
func (m *JWTManager) ValidateTokenForRealm(tokenString string, expectedRealm Realm) (*Claims, error) {
	claims, err := m.parse(tokenString, jwt.WithAudience(string(expectedRealm)))
	if err != nil {
		return nil, err
	}
	if claims.Realm != expectedRealm {
		return nil, fmt.Errorf("expected realm %s, got %s", expectedRealm, claims.Realm)
	}
	return claims, nil
}
