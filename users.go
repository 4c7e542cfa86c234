package tasknest

import (
	"strings"
	"time"
)

// Provider identifies how an account authenticates.
type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderGoogle Provider = "google"
)

// User is the sole persisted auth entity. PasswordHash is only set for
// provider=local accounts (a local account that later links Google keeps it).
// ResetPasswordToken holds the sha256 of the raw reset secret, never the
// secret itself; both reset fields are nil/empty when no reset is pending.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	GoogleID     string
	Provider     Provider

	Avatar          string
	DateOfBirth     *time.Time
	Preferences     map[string]any
	IsEmailVerified bool

	ResetPasswordToken  string
	ResetPasswordExpire *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasPendingReset reports whether a reset token is stored and not yet past
// its expiry. An expired token may still be present (lazy invalidation).
func (u *User) HasPendingReset(now time.Time) bool {
	return u.ResetPasswordToken != "" && u.ResetPasswordExpire != nil && u.ResetPasswordExpire.After(now)
}

// ClearResetToken transitions the record back to the no-pending-reset state.
func (u *User) ClearResetToken() {
	u.ResetPasswordToken = ""
	u.ResetPasswordExpire = nil
}

// PublicProfile is the outward serialization of a user. The password hash and
// reset fields never appear here.
func (u *User) PublicProfile() map[string]any {
	profile := map[string]any{
		"id":              u.ID,
		"name":            u.Name,
		"email":           u.Email,
		"avatar":          u.Avatar,
		"preferences":     u.Preferences,
		"isEmailVerified": u.IsEmailVerified,
		"provider":        string(u.Provider),
		"createdAt":       u.CreatedAt,
	}
	if u.DateOfBirth != nil {
		profile["dateOfBirth"] = *u.DateOfBirth
	} else {
		profile["dateOfBirth"] = nil
	}
	return profile
}

// Age returns the user's age in full years, or -1 when no date of birth is set.
func (u *User) Age(now time.Time) int {
	if u.DateOfBirth == nil {
		return -1
	}
	dob := *u.DateOfBirth
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

// IsBirthday reports whether now falls on the user's birthday.
func (u *User) IsBirthday(now time.Time) bool {
	if u.DateOfBirth == nil {
		return false
	}
	return now.Month() == u.DateOfBirth.Month() && now.Day() == u.DateOfBirth.Day()
}

// NormalizeEmail case-normalizes an email address for lookup and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserStore manages persisted user records. Writes are atomic at the
// single-record granularity; concurrent writers for the same user resolve
// last-write-wins.
type UserStore interface {
	// CreateUser persists a new user. Returns ErrDuplicateEmail if the
	// (normalized) email is already taken.
	CreateUser(user *User) error

	// GetUserById retrieves a user by ID. Returns ErrUserNotFound if missing.
	GetUserById(userId string) (*User, error)

	// GetUserByEmail retrieves a user by normalized email.
	GetUserByEmail(email string) (*User, error)

	// GetUserByGoogleId retrieves a user by their external Google subject id.
	GetUserByGoogleId(googleId string) (*User, error)

	// GetUserByResetToken retrieves the user whose stored reset-token hash
	// matches tokenHash AND whose expiry is after now. An expired-but-present
	// token does not match.
	GetUserByResetToken(tokenHash string, now time.Time) (*User, error)

	// SaveUser updates an existing user record.
	SaveUser(user *User) error

	// DeleteUser removes a user record.
	DeleteUser(userId string) error
}
