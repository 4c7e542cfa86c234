package tasknest

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is the uniform rejection for session tokens. Signature
// mismatch, malformed structure and elapsed expiry are indistinguishable to
// the caller.
var ErrInvalidToken = errors.New("invalid token")

// DefaultSessionTTL bounds a session when no explicit TTL is configured.
const DefaultSessionTTL = 30 * 24 * time.Hour

// TokenIssuer creates and verifies signed, time-limited session tokens.
// Tokens are stateless; expiry is the only bound on their lifetime.
type TokenIssuer struct {
	SecretKey string
	Issuer    string
	TTL       time.Duration
}

func NewTokenIssuer(secretKey, issuer string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if issuer == "" {
		issuer = "tasknest"
	}
	return &TokenIssuer{SecretKey: secretKey, Issuer: issuer, TTL: ttl}
}

// Issue signs a session token embedding the user id and an expiry claim.
func (t *TokenIssuer) Issue(userId string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userId,
		"iss": t.Issuer,
		"iat": now.Unix(),
		"exp": now.Add(t.TTL).Unix(),
	})
	signed, err := token.SignedString([]byte(t.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a session token, returning the embedded user
// id. Every failure mode collapses into ErrInvalidToken. A "Bearer " prefix
// is tolerated since middleware passes header values through unchanged.
func (t *TokenIssuer) Verify(tokenString string) (string, error) {
	tokenString = strings.TrimSpace(tokenString)
	if after, ok := strings.CutPrefix(tokenString, "Bearer "); ok {
		tokenString = strings.TrimSpace(after)
	}
	if tokenString == "" {
		return "", ErrInvalidToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(t.SecretKey), nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}
