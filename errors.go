package tasknest

import "errors"

// Error codes surfaced at the endpoint boundary. Every failure a caller can
// act on maps to exactly one of these; anything else becomes ErrCodeInternal.
const (
	ErrCodeValidationFailed  = "validation_failed"
	ErrCodeInvalidCreds      = "invalid_credentials"
	ErrCodeWeakPassword      = "weak_password"
	ErrCodeDuplicateEmail    = "duplicate_email"
	ErrCodeNoSuchUser        = "no_such_user"
	ErrCodeInvalidResetToken = "invalid_or_expired_token"
	ErrCodeEmailDelivery     = "email_delivery_failed"
	ErrCodeProviderError     = "provider_error"
	ErrCodeMissingIDToken    = "missing_id_token"
	ErrCodeUnauthenticated   = "unauthenticated"
	ErrCodeNotFound          = "not_found"
	ErrCodeInternal          = "internal_error"
)

// AuthError is a structured error with a stable code, a human message and
// optionally the input field it refers to.
type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *AuthError) Error() string {
	return e.Message
}

func NewAuthError(code, message, field string) *AuthError {
	return &AuthError{Code: code, Message: message, Field: field}
}

// Store-level sentinels. Stores return these; the endpoint layer maps them
// onto AuthError codes.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrTodoNotFound   = errors.New("todo not found")
)

// Uniform rejections. Both deliberately carry no detail about which half of
// the check failed.
var (
	ErrInvalidCredentials     = NewAuthError(ErrCodeInvalidCreds, "Invalid credentials", "")
	ErrInvalidOrExpiredToken  = NewAuthError(ErrCodeInvalidResetToken, "Invalid or expired reset token", "")
	ErrUnauthenticated        = NewAuthError(ErrCodeUnauthenticated, "Not authorized to access this resource", "")
	ErrEmailDeliveryFailed    = NewAuthError(ErrCodeEmailDelivery, "Email could not be sent", "")
	ErrMissingIDToken         = NewAuthError(ErrCodeMissingIDToken, "ID token is required", "idToken")
	ErrProviderError          = NewAuthError(ErrCodeProviderError, "Provider authentication failed", "")
	ErrNoUserWithThatEmail    = NewAuthError(ErrCodeNoSuchUser, "No user found with that email address", "email")
	ErrEmailAlreadyRegistered = NewAuthError(ErrCodeDuplicateEmail, "User already exists with this email", "email")
)
