package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gameportal/portal/internal/domain"
)

type contextKey string

const sessionKey contextKey = "auth_session"

// SessionFromContext returns the viewer session set by the realm middleware.
func SessionFromContext(ctx context.Context) (domain.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(domain.Session)
	return sess, ok
}

// WithSession returns ctx carrying sess.
func WithSession(ctx context.Context, sess domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// SessionVerifier re-checks a token's subject on each request, so a
// suspended account loses access before its token expires.
type SessionVerifier interface {
	VerifySession(ctx context.Context, sess domain.Session) error
}

// AuthenticateManager admits requests carrying a valid manager token.
// verifier may be nil.
func AuthenticateManager(jwtMgr *JWTManager, verifier SessionVerifier) func(http.Handler) http.Handler {
	return authenticateRealm(jwtMgr, RealmManager, verifier)
}

// AuthenticateAgent admits requests carrying a valid agent token.
// verifier may be nil.
func AuthenticateAgent(jwtMgr *JWTManager, verifier SessionVerifier) func(http.Handler) http.Handler {
	return authenticateRealm(jwtMgr, RealmAgent, verifier)
}

func authenticateRealm(jwtMgr *JWTManager, realm Realm, verifier SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeAuthError(w, domain.ErrUnauthorized("missing bearer token"))
				return
			}
			claims, err := jwtMgr.ValidateTokenForRealm(token, realm)
			if err != nil {
				writeAuthError(w, domain.ErrUnauthorized("invalid or expired token"))
				return
			}

			sess := claims.Session()
			if verifier != nil {
				if err := verifier.VerifySession(r.Context(), sess); err != nil {
					writeAuthError(w, err)
					return
				}
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeAuthError(w http.ResponseWriter, err error) {
	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		appErr = domain.ErrInternal("internal server error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Status)
	json.NewEncoder(w).Encode(map[string]string{
		"code":    string(appErr.Code),
		"message": appErr.Message,
	})
}
