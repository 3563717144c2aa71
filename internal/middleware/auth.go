package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"taskboard/internal/domain"
)

type contextKey string

const (
	// ContextKeySession is the key for storing the session in request context.
	ContextKeySession contextKey = "session"
)

// SessionMiddleware validates HMAC-signed session tokens and attaches the
// resulting session descriptor to the request context. The descriptor is
// whatever the token claims: the core reads identity and display name but
// does no further verification.
type SessionMiddleware struct {
	secret []byte
}

// NewSessionMiddleware creates a SessionMiddleware with the signing secret.
func NewSessionMiddleware(secret string) *SessionMiddleware {
	return &SessionMiddleware{secret: []byte(secret)}
}

// Require rejects requests without a valid session token.
func (m *SessionMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.sessionFromRequest(r)
		if err != nil {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ContextKeySession, session)))
	})
}

// Optional attaches a session when a valid token is present and passes the
// request through as an anonymous visitor otherwise.
func (m *SessionMiddleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.sessionFromRequest(r)
		if err == nil {
			r = r.WithContext(context.WithValue(r.Context(), ContextKeySession, session))
		}
		next.ServeHTTP(w, r)
	})
}

// sessionFromRequest parses the Bearer token and extracts the session
// descriptor from its claims.
func (m *SessionMiddleware) sessionFromRequest(r *http.Request) (*domain.Session, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, domain.ErrInvalidToken
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return nil, domain.ErrInvalidToken
	}

	token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrInvalidToken
	}

	email, _ := claims["email"].(string)
	if email == "" {
		return nil, domain.ErrInvalidToken
	}
	name, _ := claims["name"].(string)

	return &domain.Session{Identity: email, DisplayName: name}, nil
}

// GetSessionFromContext retrieves the session from request context, or
// ErrMissingIdentity for anonymous requests.
func GetSessionFromContext(ctx context.Context) (*domain.Session, error) {
	session, ok := ctx.Value(ContextKeySession).(*domain.Session)
	if !ok || session == nil {
		return nil, domain.ErrMissingIdentity
	}
	return session, nil
}

// MintToken issues a signed session token for the identity. Used by the
// mint-token command for local development.
func MintToken(secret, email, name string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"email": email,
		"name":  name,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
