package tasknest

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gorilla/mux"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func validateEmail(email string) *AuthError {
	if !emailRegex.MatchString(NormalizeEmail(email)) {
		return NewAuthError(ErrCodeValidationFailed, "Please provide a valid email", "email")
	}
	return nil
}

func validateName(name string) *AuthError {
	n := len(strings.TrimSpace(name))
	if n < 2 || n > 50 {
		return NewAuthError(ErrCodeValidationFailed, "Name must be between 2 and 50 characters", "name")
	}
	return nil
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if authErr := decodeJSON(r, &req); authErr != nil {
		writeAuthError(w, http.StatusBadRequest, authErr)
		return
	}
	if authErr := validateName(req.Name); authErr != nil {
		writeAuthError(w, http.StatusBadRequest, authErr)
		return
	}
	if authErr := validateEmail(req.Email); authErr != nil {
		writeAuthError(w, http.StatusBadRequest, authErr)
		return
	}

	user, token, err := s.Auth.Register(strings.TrimSpace(req.Name), req.Email, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.sendTokenResponse(w, http.StatusCreated, user, token)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if authErr := decodeJSON(r, &req); authErr != nil {
		writeAuthError(w, http.StatusBadRequest, authErr)
		return
	}
	if authErr := validateEmail(req.Email); authErr != nil {
		writeAuthError(w, http.StatusBadRequest, authErr)
		return
	}
	if req.Password == "" {
		writeAuthError(w, http.StatusBadRequest,
			NewAuthError(ErrCodeValidationFailed, "Please provide a password", "password"))
		return
	}

	user, token, err := s.Auth.Login(req.Email, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.sendTokenResponse(w, http.StatusOK, user, token)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    user.PublicProfile(),
	})
}

func (s *Server) handleUpdateDetails(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if authErr := decodeJSON(r, &req); authErr != nil {
		writeAuthError(w, http.StatusBadRequest, authErr)
		return
	}

	if req.Name != "" {
		if authErr := validateName(req.Name); authErr != nil {
			writeAuthError(w, http.StatusBadRequest, authErr)
			return
		}
		user.Name = strings.TrimSpace(req.Name)
	}
	if req.Email != "" {
		if authErr := validateEmail(req.Email); authErr != nil {
			writeAuthError(w, http.StatusBadRequest, authErr)
			return
		}
		email := NormalizeEmail(req.Email)
		if email != user.Email {
			existing, err := s.Users.GetUserByEmail(email)
			if err == nil && existing.ID != user.ID {
				writeAuthError(w, http.StatusBadRequest, ErrEmailAlreadyRegistered)
				return
			}
			if err != nil && !errors.Is(err, ErrUserNotFound) {
				s.writeError(w, err)
				return
			}
		}
		user.Email = email
	}

	if err := s.Users.SaveUser(user); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    user.PublicProfile(),
	})
}

func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if authErr := decodeJSON(r, &req); authErr != nil {
		writeAuthError(w, http.StatusBadRequest, authErr)
		return
	}
	if req.CurrentPassword == "" {
		writeAuthError(w, http.StatusBadRequest,
			NewAuthError(ErrCodeValidationFailed, "Please provide current password", "currentPassword"))
		return
	}

	token, err := s.Auth.ChangePassword(user, req.CurrentPassword, req.NewPassword)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.sendTokenResponse(w, http.StatusOK, user, token)
}

func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())
	var req struct {
		Preferences map[string]any `json:"preferences"`
	}
	if authErr := decodeJSON(r, &req); authErr != nil {
		writeAuthError(w, http.StatusBadRequest, authErr)
		return
	}

	user.Preferences = req.Preferences
	if err := s.Users.SaveUser(user); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"preferences": user.Preferences,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "User logged out successfully",
	})
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if authErr := decodeJSON(r, &req); authErr != nil {
		writeAuthError(w, http.StatusBadRequest, authErr)
		return
	}
	if authErr := validateEmail(req.Email); authErr != nil {
		writeAuthError(w, http.StatusBadRequest, authErr)
		return
	}

	raw, err := s.Auth.RequestPasswordReset(req.Email)
	if err != nil {
		s.writeError(w, err)
		return
	}

	body := map[string]any{
		"success": true,
		"message": "Password reset email sent successfully",
	}
	if s.Auth.EchoResetToken {
		body["resetToken"] = raw
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	rawToken := mux.Vars(r)["resettoken"]
	var req struct {
		Password string `json:"password"`
	}
	if authErr := decodeJSON(r, &req); authErr != nil {
		writeAuthError(w, http.StatusBadRequest, authErr)
		return
	}

	user, token, err := s.Auth.CompletePasswordReset(rawToken, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.sendTokenResponse(w, http.StatusOK, user, token)
}

// ----------------------------------------------------------------------------
// Google OAuth

const (
	oauthStateCookie    = "oauthstate"
	sessionRedirectURI  = "oauthRedirectURI"
	oauthStateLifetime  = 10 * time.Minute
)

func generateOAuthState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// handleGoogleRedirect starts the browser flow: remember where to send the
// user afterwards, pin a state nonce in a cookie, and hand off to Google.
func (s *Server) handleGoogleRedirect(w http.ResponseWriter, r *http.Request) {
	if redirectURI := r.URL.Query().Get("redirect_uri"); redirectURI != "" && s.Session != nil {
		s.Session.Put(r.Context(), sessionRedirectURI, redirectURI)
	}

	state, err := generateOAuthState()
	if err != nil {
		s.writeError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(oauthStateLifetime),
		HttpOnly: true,
		Secure:   s.CookieSecure,
	})
	http.Redirect(w, r, s.Google.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		writeAuthError(w, http.StatusUnauthorized, ErrProviderError)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Path: "/", MaxAge: -1})

	profile, err := s.Google.Exchange(r, r.URL.Query().Get("code"))
	if err != nil {
		s.Logger.Warn("google code exchange failed", "error", err)
		writeAuthError(w, http.StatusUnauthorized, ErrProviderError)
		return
	}

	user, err := s.Bridge.Resolve(profile)
	if err != nil {
		s.writeError(w, err)
		return
	}
	token, err := s.Auth.Tokens.Issue(user.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.setSessionCookie(w, token, time.Now().Add(s.Auth.Tokens.TTL))

	redirectURI := r.URL.Query().Get("redirect_uri")
	if redirectURI == "" && s.Session != nil {
		redirectURI = s.Session.PopString(r.Context(), sessionRedirectURI)
	}
	if redirectURI == "" {
		redirectURI = s.OAuthSuccessURL
	}

	serialized, _ := json.Marshal(user.PublicProfile())
	separator := "?"
	if strings.Contains(redirectURI, "?") {
		separator = "&"
	}
	target := redirectURI + separator +
		"token=" + url.QueryEscape(token) +
		"&user=" + url.QueryEscape(string(serialized))
	http.Redirect(w, r, target, http.StatusFound)
}

// handleGoogleMobile authenticates a native app that already holds a Google
// ID token plus the profile it was issued for. The token is still verified
// server side before the profile is trusted.
func (s *Server) handleGoogleMobile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDToken string `json:"idToken"`
		User    struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Email string `json:"email"`
			Photo string `json:"photo"`
		} `json:"user"`
	}
	if authErr := decodeJSON(r, &req); authErr != nil {
		writeAuthError(w, http.StatusBadRequest, authErr)
		return
	}
	if req.IDToken == "" || req.User.ID == "" {
		writeAuthError(w, http.StatusBadRequest,
			NewAuthError(ErrCodeMissingIDToken, "ID token and user info are required", "idToken"))
		return
	}

	if _, err := s.Google.VerifyIDToken(r, req.IDToken); err != nil {
		s.Logger.Warn("google id token rejected", "error", err)
		writeAuthError(w, http.StatusUnauthorized, ErrProviderError)
		return
	}

	s.finishTokenLogin(w, ExternalProfile{
		ID:        req.User.ID,
		Name:      req.User.Name,
		Email:     req.User.Email,
		AvatarURL: req.User.Photo,
	})
}

// handleGoogleWeb authenticates a SPA holding only an ID token; the profile
// comes from the verified token payload.
func (s *Server) handleGoogleWeb(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDToken string `json:"idToken"`
	}
	if authErr := decodeJSON(r, &req); authErr != nil {
		writeAuthError(w, http.StatusBadRequest, authErr)
		return
	}
	if req.IDToken == "" {
		writeAuthError(w, http.StatusBadRequest, ErrMissingIDToken)
		return
	}

	profile, err := s.Google.VerifyIDToken(r, req.IDToken)
	if err != nil {
		s.Logger.Warn("google id token rejected", "error", err)
		writeAuthError(w, http.StatusUnauthorized, ErrProviderError)
		return
	}
	s.finishTokenLogin(w, profile)
}

func (s *Server) finishTokenLogin(w http.ResponseWriter, profile ExternalProfile) {
	user, err := s.Bridge.Resolve(profile)
	if err != nil {
		s.writeError(w, err)
		return
	}
	token, err := s.Auth.Tokens.Issue(user.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.sendTokenResponse(w, http.StatusOK, user, token)
}
