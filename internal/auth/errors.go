package auth

import (
	"errors"

	"github.com/spec-kit/contacts-service/internal/domain"
)

// ErrorKind classifies failures of the auth core. The HTTP layer maps kinds
// to status codes; the core never decides on transport details.
type ErrorKind string

const (
	KindInvalidCredentials  ErrorKind = "INVALID_CREDENTIALS"
	KindUnconfirmed         ErrorKind = "UNCONFIRMED"
	KindExpiredToken        ErrorKind = "TOKEN_EXPIRED"
	KindInvalidToken        ErrorKind = "INVALID_TOKEN"
	KindMissingSubject      ErrorKind = "MISSING_SUBJECT"
	KindUserNotFound        ErrorKind = "USER_NOT_FOUND"
	KindInvalidRefreshToken ErrorKind = "INVALID_REFRESH_TOKEN"
	KindInvalidScope        ErrorKind = "INVALID_SCOPE"
	KindForbidden           ErrorKind = "FORBIDDEN"
	KindNotFound            ErrorKind = "NOT_FOUND"
	KindConflict            ErrorKind = "CONFLICT"
)

// Error is the typed result of a failed auth operation.
type Error struct {
	Kind    ErrorKind
	Message string
	// Scope is set when the failure happened while redeeming a scoped token.
	Scope domain.TokenScope
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind so callers can compare against the sentinel values below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidCredentials  = &Error{Kind: KindInvalidCredentials, Message: "invalid credentials"}
	ErrUnconfirmed         = &Error{Kind: KindUnconfirmed, Message: "Email not confirmed"}
	ErrInvalidToken        = &Error{Kind: KindInvalidToken, Message: "Invalid token"}
	ErrInvalidRefreshToken = &Error{Kind: KindInvalidRefreshToken, Message: "Invalid refresh token"}
	ErrForbidden           = &Error{Kind: KindForbidden, Message: "Forbidden"}
	ErrUserNotFound        = &Error{Kind: KindUserNotFound, Message: "User not found"}
)

func newError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// NewError builds an auth error for callers outside the package (service layer).
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf extracts the ErrorKind carried by err, if any.
func KindOf(err error) (ErrorKind, bool) {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Kind, true
	}
	return "", false
}
