package tasknest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
)

// GoogleVerifier is the surface the endpoint layer needs from the OAuth
// plumbing: start a browser flow, finish it, and validate SPA/native ID
// tokens. Implemented by the oauth2 package; faked in tests.
type GoogleVerifier interface {
	AuthCodeURL(state string) string
	Exchange(r *http.Request, code string) (ExternalProfile, error)
	VerifyIDToken(r *http.Request, idToken string) (ExternalProfile, error)
}

// Server is the HTTP endpoint layer. All orchestration lives in the injected
// services; handlers validate input, delegate, and shape responses.
type Server struct {
	Auth       *AuthService
	Bridge     *OAuthBridge
	Google     GoogleVerifier
	Todos      TodoStore
	Users      UserStore
	Session    *scs.SessionManager
	Middleware *Middleware
	Logger     *slog.Logger

	// CookieSecure marks session cookies Secure (production).
	CookieSecure bool

	// OAuthSuccessURL is the fallback redirect target after a browser OAuth
	// login when the caller did not supply redirect_uri.
	OAuthSuccessURL string
}

// EnsureDefaults fills derived fields so a Server can be built by literal.
func (s *Server) EnsureDefaults() *Server {
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	if s.Middleware == nil {
		s.Middleware = &Middleware{Tokens: s.Auth.Tokens, Users: s.Users, Logger: s.Logger}
	}
	if s.OAuthSuccessURL == "" {
		s.OAuthSuccessURL = "todo-app://auth/success"
	}
	return s
}

// Handler assembles the full route table.
func (s *Server) Handler() http.Handler {
	s.EnsureDefaults()

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	auth.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	auth.HandleFunc("/logout", s.handleLogout).Methods(http.MethodGet)
	auth.HandleFunc("/forgotpassword", s.handleForgotPassword).Methods(http.MethodPost)
	auth.HandleFunc("/resetpassword/{resettoken}", s.handleResetPassword).Methods(http.MethodPut)
	auth.HandleFunc("/google", s.handleGoogleRedirect).Methods(http.MethodGet)
	auth.HandleFunc("/google/callback", s.handleGoogleCallback).Methods(http.MethodGet)
	auth.HandleFunc("/google/mobile", s.handleGoogleMobile).Methods(http.MethodPost)
	auth.HandleFunc("/google/web", s.handleGoogleWeb).Methods(http.MethodPost)

	authed := auth.NewRoute().Subrouter()
	authed.Use(s.Middleware.RequireUser)
	authed.HandleFunc("/me", s.handleMe).Methods(http.MethodGet)
	authed.HandleFunc("/updatedetails", s.handleUpdateDetails).Methods(http.MethodPut)
	authed.HandleFunc("/updatepassword", s.handleUpdatePassword).Methods(http.MethodPut)
	authed.HandleFunc("/preferences", s.handleUpdatePreferences).Methods(http.MethodPut)

	todos := api.PathPrefix("/todos").Subrouter()
	todos.Use(s.Middleware.RequireUser)
	todos.HandleFunc("/stats/overview", s.handleTodoStats).Methods(http.MethodGet)
	todos.HandleFunc("/clear-all", s.handleClearTodos).Methods(http.MethodDelete)
	todos.HandleFunc("/bulk", s.handleBulkUpdateTodos).Methods(http.MethodPatch)
	todos.HandleFunc("/bulk", s.handleBulkDeleteTodos).Methods(http.MethodDelete)
	todos.HandleFunc("", s.handleListTodos).Methods(http.MethodGet)
	todos.HandleFunc("", s.handleCreateTodo).Methods(http.MethodPost)
	todos.HandleFunc("/{id}", s.handleGetTodo).Methods(http.MethodGet)
	todos.HandleFunc("/{id}", s.handleUpdateTodo).Methods(http.MethodPut)
	todos.HandleFunc("/{id}", s.handleDeleteTodo).Methods(http.MethodDelete)
	todos.HandleFunc("/{id}/toggle", s.handleToggleTodo).Methods(http.MethodPatch)
	todos.HandleFunc("/{id}/subtasks", s.handleAddSubtask).Methods(http.MethodPost)
	todos.HandleFunc("/{id}/subtasks/{subtaskId}", s.handleUpdateSubtask).Methods(http.MethodPut)
	todos.HandleFunc("/{id}/subtasks/{subtaskId}", s.handleDeleteSubtask).Methods(http.MethodDelete)

	users := api.PathPrefix("/users").Subrouter()
	users.Use(s.Middleware.RequireUser)
	users.HandleFunc("/profile", s.handleGetProfile).Methods(http.MethodGet)
	users.HandleFunc("/profile", s.handleUpdateProfile).Methods(http.MethodPut)
	users.HandleFunc("/avatar", s.handleUpdateAvatar).Methods(http.MethodPut)
	users.HandleFunc("/account", s.handleDeleteAccount).Methods(http.MethodDelete)
	users.HandleFunc("/birthday", s.handleBirthday).Methods(http.MethodGet)

	if s.Session != nil {
		return s.Session.LoadAndSave(r)
	}
	return r
}

// ----------------------------------------------------------------------------
// Response helpers

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

func writeAuthError(w http.ResponseWriter, status int, authErr *AuthError) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"message": authErr.Message,
		"code":    authErr.Code,
		"field":   authErr.Field,
	})
}

// statusForCode maps stable error codes onto HTTP statuses.
func statusForCode(code string) int {
	switch code {
	case ErrCodeValidationFailed, ErrCodeWeakPassword, ErrCodeDuplicateEmail,
		ErrCodeInvalidResetToken, ErrCodeMissingIDToken:
		return http.StatusBadRequest
	case ErrCodeInvalidCreds, ErrCodeUnauthenticated, ErrCodeProviderError:
		return http.StatusUnauthorized
	case ErrCodeNoSuchUser, ErrCodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError turns any error into a structured response. Unexpected errors
// are logged and surfaced as a generic internal error without leaking
// internals.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		writeAuthError(w, statusForCode(authErr.Code), authErr)
		return
	}
	switch {
	case errors.Is(err, ErrDuplicateEmail):
		writeAuthError(w, http.StatusBadRequest, ErrEmailAlreadyRegistered)
	case errors.Is(err, ErrUserNotFound):
		writeAuthError(w, http.StatusNotFound, NewAuthError(ErrCodeNotFound, "User not found", ""))
	case errors.Is(err, ErrTodoNotFound):
		writeAuthError(w, http.StatusNotFound, NewAuthError(ErrCodeNotFound, "Todo not found", ""))
	default:
		s.Logger.Error("unexpected error", "error", err)
		writeAuthError(w, http.StatusInternalServerError, NewAuthError(ErrCodeInternal, "Server error", ""))
	}
}

// sendTokenResponse sets the session cookie and returns the token plus the
// public user shape, as every successful auth operation does.
func (s *Server) sendTokenResponse(w http.ResponseWriter, status int, user *User, token string) {
	s.setSessionCookie(w, token, time.Now().Add(s.Auth.Tokens.TTL))
	writeJSON(w, status, map[string]any{
		"success": true,
		"token":   token,
		"user":    user.PublicProfile(),
	})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Now(),
		HttpOnly: true,
		Secure:   s.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

func decodeJSON(r *http.Request, dst any) *AuthError {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return NewAuthError(ErrCodeValidationFailed, "Invalid request body", "")
	}
	return nil
}
