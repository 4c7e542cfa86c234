package tasknest

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// AuthService orchestrates the credential store, password hasher, token
// issuer, reset-token generator and email sender behind the HTTP endpoints.
type AuthService struct {
	Users  UserStore
	Tokens *TokenIssuer
	Email  Sender
	Logger *slog.Logger

	// BaseURL is used to build the password-reset link emailed to users.
	BaseURL string

	// EchoResetToken returns the raw reset secret in the forgot-password
	// response. Enabled only outside production.
	EchoResetToken bool
}

func NewAuthService(users UserStore, tokens *TokenIssuer, email Sender, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{Users: users, Tokens: tokens, Email: email, Logger: logger}
}

// Register creates a local account and returns it with a fresh session
// token. The welcome email is fire-and-forget: delivery failure is logged
// and never rolls back the registration.
func (s *AuthService) Register(name, email, password string) (*User, string, error) {
	if authErr := ValidatePassword(password); authErr != nil {
		return nil, "", authErr
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, "", err
	}
	user := &User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        NormalizeEmail(email),
		PasswordHash: hash,
		Provider:     ProviderLocal,
	}
	if err := s.Users.CreateUser(user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, "", ErrEmailAlreadyRegistered
		}
		return nil, "", err
	}

	if s.Email != nil {
		if err := s.Email.SendWelcomeEmail(user.Email, user.Name); err != nil {
			s.Logger.Warn("failed to send welcome email", "userId", user.ID, "error", err)
		}
	}

	token, err := s.Tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login verifies an email/password pair. Unknown email and wrong password
// yield the same ErrInvalidCredentials.
func (s *AuthService) Login(email, password string) (*User, string, error) {
	user, err := s.Users.GetUserByEmail(NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if !CheckPassword(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.Tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// ChangePassword rotates the password hash after verifying the current
// password and re-issues a session token. Previously issued tokens remain
// valid until their natural expiry.
func (s *AuthService) ChangePassword(user *User, currentPassword, newPassword string) (string, error) {
	if !CheckPassword(currentPassword, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}
	if authErr := ValidatePassword(newPassword); authErr != nil {
		return "", authErr
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return "", err
	}
	user.PasswordHash = hash
	if err := s.Users.SaveUser(user); err != nil {
		return "", err
	}
	return s.Tokens.Issue(user.ID)
}

// RequestPasswordReset moves the account into the pending-reset state and
// emails the raw secret. If delivery fails after the token was stored, the
// stored hash and expiry are rolled back so the user is not left with a
// pending reset they cannot complete.
func (s *AuthService) RequestPasswordReset(email string) (string, error) {
	user, err := s.Users.GetUserByEmail(NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", ErrNoUserWithThatEmail
		}
		return "", err
	}

	raw, err := GenerateResetToken()
	if err != nil {
		return "", err
	}
	user.SetResetToken(raw, time.Now())
	if err := s.Users.SaveUser(user); err != nil {
		return "", err
	}

	resetLink := fmt.Sprintf("%s/reset-password/%s", s.BaseURL, raw)
	if err := s.Email.SendPasswordResetEmail(user.Email, resetLink); err != nil {
		s.Logger.Error("failed to send reset email, rolling back reset token", "userId", user.ID, "error", err)
		user.ClearResetToken()
		if rbErr := s.Users.SaveUser(user); rbErr != nil {
			s.Logger.Error("failed to roll back reset token", "userId", user.ID, "error", rbErr)
		}
		return "", ErrEmailDeliveryFailed
	}
	return raw, nil
}

// CompletePasswordReset consumes a raw reset secret. A wrong secret and an
// expired one fail identically. Success rotates the password, clears the
// reset fields and issues a fresh session token.
func (s *AuthService) CompletePasswordReset(rawToken, newPassword string) (*User, string, error) {
	if authErr := ValidatePassword(newPassword); authErr != nil {
		return nil, "", authErr
	}

	user, err := s.Users.GetUserByResetToken(HashResetToken(rawToken), time.Now())
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, "", ErrInvalidOrExpiredToken
		}
		return nil, "", err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return nil, "", err
	}
	user.PasswordHash = hash
	user.ClearResetToken()
	if err := s.Users.SaveUser(user); err != nil {
		return nil, "", err
	}

	token, err := s.Tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}
