package auth

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/contacts-service/internal/domain"
)

// Fixed lifetimes of the scoped, single-purpose tokens.
const (
	EmailVerifyTTL   = 24 * time.Hour
	ResetPasswordTTL = time.Hour
)

// Claim names.
const (
	claimSubject   = "sub"
	claimIssuedAt  = "iat"
	claimExpiresAt = "exp"
	claimID        = "jti"
	claimScope     = "scope"
)

// Issuer mints the four token kinds on top of a Codec.
type Issuer struct {
	codec      *Codec
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewIssuer builds an issuer with the configured access and refresh lifetimes.
func NewIssuer(codec *Codec, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{codec: codec, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// AccessTTL returns the access token lifetime.
func (i *Issuer) AccessTTL() time.Duration {
	return i.accessTTL
}

// CreateAccessToken issues a short-lived access token for subject.
func (i *Issuer) CreateAccessToken(subject string) (string, error) {
	return i.create(subject, domain.ScopeNone, i.accessTTL)
}

// CreateRefreshToken issues a long-lived refresh token for subject.
func (i *Issuer) CreateRefreshToken(subject string) (string, error) {
	return i.create(subject, domain.ScopeNone, i.refreshTTL)
}

// CreateEmailVerifyToken issues a 24h token redeemable only for email confirmation.
func (i *Issuer) CreateEmailVerifyToken(subject string) (string, error) {
	return i.create(subject, domain.ScopeEmailVerify, EmailVerifyTTL)
}

// CreateResetPasswordToken issues a 1h token redeemable only for a password reset.
func (i *Issuer) CreateResetPasswordToken(subject string) (string, error) {
	return i.create(subject, domain.ScopeResetPassword, ResetPasswordTTL)
}

func (i *Issuer) create(subject string, scope domain.TokenScope, ttl time.Duration) (string, error) {
	now := i.codec.Now().UTC().Truncate(time.Second)
	claims := map[string]any{
		claimSubject:   subject,
		claimIssuedAt:  now.Unix(),
		claimExpiresAt: now.Add(ttl).Unix(),
		claimID:        uuid.NewString(),
	}
	if scope != domain.ScopeNone {
		claims[claimScope] = string(scope)
	}
	return i.codec.Encode(claims)
}

// Parse decodes a token into typed claims. Errors are the codec's
// ErrExpiredToken or ErrMalformedToken.
func (i *Issuer) Parse(token string) (*domain.TokenClaims, error) {
	raw, err := i.codec.Decode(token)
	if err != nil {
		return nil, err
	}
	claims := &domain.TokenClaims{}
	claims.Subject, _ = raw[claimSubject].(string)
	claims.ID, _ = raw[claimID].(string)
	if scope, ok := raw[claimScope].(string); ok {
		claims.Scope = domain.TokenScope(scope)
	}
	claims.IssuedAt = numericTime(raw[claimIssuedAt])
	claims.ExpiresAt = numericTime(raw[claimExpiresAt])
	return claims, nil
}

// VerifyScoped validates a single-purpose token and returns its subject.
// These tokens are stateless: they stay redeemable until they expire.
func (i *Issuer) VerifyScoped(token string, scope domain.TokenScope) (string, error) {
	claims, err := i.Parse(token)
	if err != nil {
		if errors.Is(err, ErrExpiredToken) {
			return "", &Error{Kind: KindExpiredToken, Message: "Token expired", Scope: scope, Err: err}
		}
		return "", &Error{Kind: KindInvalidToken, Message: "Invalid token", Scope: scope, Err: err}
	}
	if claims.Scope != scope {
		return "", &Error{Kind: KindInvalidScope, Message: "Invalid token scope", Scope: scope}
	}
	if claims.Subject == "" {
		return "", &Error{Kind: KindMissingSubject, Message: "Invalid token payload", Scope: scope}
	}
	return claims.Subject, nil
}

func numericTime(v any) time.Time {
	switch n := v.(type) {
	case float64:
		return time.Unix(int64(n), 0).UTC()
	case int64:
		return time.Unix(n, 0).UTC()
	case json.Number:
		if sec, err := n.Int64(); err == nil {
			return time.Unix(sec, 0).UTC()
		}
	}
	return time.Time{}
}
