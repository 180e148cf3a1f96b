package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/contacts-service/internal/domain"
)

const (
	testAccessTTL  = 15 * time.Minute
	testRefreshTTL = 7 * 24 * time.Hour
)

func newTestIssuer(t *testing.T, opts ...CodecOption) *Issuer {
	t.Helper()
	codec, err := NewCodec(testSecret, "HS256", opts...)
	require.NoError(t, err)
	return NewIssuer(codec, testAccessTTL, testRefreshTTL)
}

func TestIssuerLifetimesAndScopes(t *testing.T) {
	issuer := newTestIssuer(t)

	cases := []struct {
		name  string
		mint  func(string) (string, error)
		ttl   time.Duration
		scope domain.TokenScope
	}{
		{"access", issuer.CreateAccessToken, testAccessTTL, domain.ScopeNone},
		{"refresh", issuer.CreateRefreshToken, testRefreshTTL, domain.ScopeNone},
		{"email verify", issuer.CreateEmailVerifyToken, 24 * time.Hour, domain.ScopeEmailVerify},
		{"reset password", issuer.CreateResetPasswordToken, time.Hour, domain.ScopeResetPassword},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token, err := tc.mint("a@x.com")
			require.NoError(t, err)

			claims, err := issuer.Parse(token)
			require.NoError(t, err)
			assert.Equal(t, "a@x.com", claims.Subject)
			assert.Equal(t, tc.scope, claims.Scope)
			assert.NotEmpty(t, claims.ID)
			assert.Equal(t, tc.ttl, claims.ExpiresAt.Sub(claims.IssuedAt))
		})
	}
}

func TestIssuerUniqueTokenIDs(t *testing.T) {
	issuer := newTestIssuer(t)

	seen := make(map[string]bool)
	tokens := make(map[string]bool)
	for i := 0; i < 50; i++ {
		token, err := issuer.CreateRefreshToken("a@x.com")
		require.NoError(t, err)
		claims, err := issuer.Parse(token)
		require.NoError(t, err)

		assert.False(t, seen[claims.ID], "jti must not repeat")
		seen[claims.ID] = true
		tokens[token] = true
	}
	assert.Len(t, tokens, 50, "same-second tokens still differ")
}

func TestIssuerExpiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := now
	issuer := newTestIssuer(t, WithClock(func() time.Time { return clock }))

	token, err := issuer.CreateAccessToken("a@x.com")
	require.NoError(t, err)

	clock = now.Add(testAccessTTL - time.Second)
	_, err = issuer.Parse(token)
	require.NoError(t, err)

	clock = now.Add(testAccessTTL + time.Second)
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyScoped(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := now
	issuer := newTestIssuer(t, WithClock(func() time.Time { return clock }))

	verify, err := issuer.CreateEmailVerifyToken("a@x.com")
	require.NoError(t, err)
	reset, err := issuer.CreateResetPasswordToken("a@x.com")
	require.NoError(t, err)
	access, err := issuer.CreateAccessToken("a@x.com")
	require.NoError(t, err)

	subject, err := issuer.VerifyScoped(verify, domain.ScopeEmailVerify)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", subject)

	subject, err = issuer.VerifyScoped(reset, domain.ScopeResetPassword)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", subject)

	assertKind := func(err error, kind ErrorKind, scope domain.TokenScope) {
		t.Helper()
		var authErr *Error
		require.True(t, errors.As(err, &authErr))
		assert.Equal(t, kind, authErr.Kind)
		assert.Equal(t, scope, authErr.Scope)
	}

	_, err = issuer.VerifyScoped(reset, domain.ScopeEmailVerify)
	assertKind(err, KindInvalidScope, domain.ScopeEmailVerify)

	_, err = issuer.VerifyScoped(access, domain.ScopeResetPassword)
	assertKind(err, KindInvalidScope, domain.ScopeResetPassword)

	_, err = issuer.VerifyScoped("garbage", domain.ScopeEmailVerify)
	assertKind(err, KindInvalidToken, domain.ScopeEmailVerify)

	clock = now.Add(2 * time.Hour)
	_, err = issuer.VerifyScoped(reset, domain.ScopeResetPassword)
	assertKind(err, KindExpiredToken, domain.ScopeResetPassword)

	// still inside the 24h window, and redeemable more than once
	_, err = issuer.VerifyScoped(verify, domain.ScopeEmailVerify)
	require.NoError(t, err)
	_, err = issuer.VerifyScoped(verify, domain.ScopeEmailVerify)
	require.NoError(t, err)
}

func TestVerifyScopedMissingSubject(t *testing.T) {
	issuer := newTestIssuer(t)

	token, err := issuer.CreateEmailVerifyToken("")
	require.NoError(t, err)

	_, err = issuer.VerifyScoped(token, domain.ScopeEmailVerify)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindMissingSubject, kind)
}
