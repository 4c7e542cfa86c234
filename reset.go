package tasknest

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ResetTokenExpiry is the fixed validity window for password-reset tokens.
const ResetTokenExpiry = 10 * time.Minute

// GenerateResetToken produces the raw one-time reset secret delivered to the
// user out of band. Only its hash is ever persisted.
func GenerateResetToken() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashResetToken derives the stored form of a raw reset secret.
func HashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// SetResetToken stores the hashed secret and its absolute expiry on the user
// record, moving it into the pending-reset state.
func (u *User) SetResetToken(raw string, now time.Time) {
	u.ResetPasswordToken = HashResetToken(raw)
	expire := now.Add(ResetTokenExpiry)
	u.ResetPasswordExpire = &expire
}
