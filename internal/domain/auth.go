package domain

import "time"

// TokenScope restricts a token to a single purpose.
// Access and refresh tokens carry no scope.
type TokenScope string

const (
	ScopeNone          TokenScope = ""
	ScopeEmailVerify   TokenScope = "email_verify"
	ScopeResetPassword TokenScope = "reset_password"
)

// TokenClaims is the decoded payload of a signed token.
type TokenClaims struct {
	Subject   string
	Scope     TokenScope
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
