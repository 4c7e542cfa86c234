package tasknest

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey string

const userContextKey contextKey = "authedUser"

// SessionCookieName is the cookie the session token travels in.
const SessionCookieName = "token"

// Middleware is the session guard. It accepts the token either as the
// HTTP-only cookie or an Authorization: Bearer header, verifies it and loads
// the credential record. Any failure yields the same unauthenticated
// response with no side effects.
type Middleware struct {
	Tokens *TokenIssuer
	Users  UserStore
	Logger *slog.Logger
}

// RequireUser wraps a handler so it only runs for authenticated callers, with
// the loaded user available via UserFrom.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := m.authenticate(r)
		if user == nil {
			writeAuthError(w, http.StatusUnauthorized, ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

func (m *Middleware) authenticate(r *http.Request) *User {
	var candidates []string
	if header := r.Header.Get("Authorization"); header != "" {
		candidates = append(candidates, header)
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		candidates = append(candidates, cookie.Value)
	}

	for _, candidate := range candidates {
		userId, err := m.Tokens.Verify(candidate)
		if err != nil {
			continue
		}
		user, err := m.Users.GetUserById(userId)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Warn("valid token for missing user", "userId", userId)
			}
			continue
		}
		return user
	}
	return nil
}

func withUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFrom returns the authenticated user stored by RequireUser, or nil.
func UserFrom(ctx context.Context) *User {
	user, _ := ctx.Value(userContextKey).(*User)
	return user
}
