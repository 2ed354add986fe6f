package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Identity resolution errors
	ErrUserNotFound  = errors.New("user not found")
	ErrMultipleUsers = errors.New("multiple users matched")

	// Credential errors
	ErrCredentialNotFound = errors.New("credential not found")
	ErrActionNotFound     = errors.New("password action not found")
	ErrActionExpired      = errors.New("password action expired")
)

// Machine-readable codes returned to clients on authentication failures.
const (
	CodeLoginInvalid           = "login.invalid"
	CodePasswordIncorrect      = "password.incorrect"
	CodePasswordIncorrectWarn  = "password.incorrect.warn.user"
	CodePasswordIncorrectBlock = "password.incorrect.block.user"
	CodeUserBlocked            = "user.blocked"
	CodePasswordPreviouslyUsed = "password.previously.used"
)

// AuthError is an authentication failure carrying a machine-readable code.
// Codes are stable across releases; clients branch on them.
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// NewAuthError constructs an AuthError with the given code and message.
func NewAuthError(code, message string) *AuthError {
	return &AuthError{Code: code, Message: message}
}
