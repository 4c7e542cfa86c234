package tasknest

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// ExternalProfile is the identity assertion received from Google after a
// verified OAuth exchange or ID-token validation.
type ExternalProfile struct {
	ID        string
	Name      string
	Email     string
	AvatarURL string
}

// OAuthBridge maps an external identity assertion onto a local user record.
// Resolve is idempotent find-or-create keyed by (externalId, email) and is
// the only piece of the core that performs an implicit write on every call.
type OAuthBridge struct {
	Users  UserStore
	Logger *slog.Logger
}

func NewOAuthBridge(users UserStore, logger *slog.Logger) *OAuthBridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &OAuthBridge{Users: users, Logger: logger}
}

// Resolve finds or creates the user for an external profile. Precedence:
// match by stored google id, else by email (linking the google id onto the
// existing account rather than creating a duplicate), else create new with
// provider=google and a verified email. The stored avatar is refreshed to
// the provider's latest value on every successful resolve.
func (b *OAuthBridge) Resolve(profile ExternalProfile) (*User, error) {
	if profile.ID == "" || profile.Email == "" {
		return nil, ErrProviderError
	}
	email := NormalizeEmail(profile.Email)
	avatar := UpgradeAvatarURL(profile.AvatarURL)

	user, err := b.Users.GetUserByGoogleId(profile.ID)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		user, err = b.Users.GetUserByEmail(email)
		if err != nil {
			if !errors.Is(err, ErrUserNotFound) {
				return nil, err
			}
			return b.createUser(profile, email, avatar)
		}
		b.Logger.Info("linking google identity to existing account", "userId", user.ID)
	}

	user.GoogleID = profile.ID
	user.Provider = ProviderGoogle
	user.IsEmailVerified = true
	user.Avatar = avatar
	if err := b.Users.SaveUser(user); err != nil {
		return nil, fmt.Errorf("failed to update user on oauth resolve: %w", err)
	}
	return user, nil
}

func (b *OAuthBridge) createUser(profile ExternalProfile, email, avatar string) (*User, error) {
	user := &User{
		ID:              uuid.NewString(),
		Name:            profile.Name,
		Email:           email,
		GoogleID:        profile.ID,
		Provider:        ProviderGoogle,
		Avatar:          avatar,
		IsEmailVerified: true,
	}
	if err := b.Users.CreateUser(user); err != nil {
		return nil, fmt.Errorf("failed to create oauth user: %w", err)
	}
	b.Logger.Info("created new google user", "userId", user.ID)
	return user, nil
}

// UpgradeAvatarURL rewrites Google's default 96px avatar variant to the
// 400px one. Other URLs pass through unchanged.
func UpgradeAvatarURL(url string) string {
	return strings.Replace(url, "s96-c", "s400-c", 1)
}
