package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, AlgorithmHS256, cfg.Auth.JWTAlgorithm)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL())
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTTL())
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
}

func TestLoad_HS512(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "test-secret")
	t.Setenv("AUTH_JWT_ALGORITHM", "HS512")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, AlgorithmHS512, cfg.Auth.JWTAlgorithm)
}

func TestLoad_AlgorithmIsCaseSensitive(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "test-secret")

	for _, alg := range []string{"hs256", "Hs512"} {
		t.Setenv("AUTH_JWT_ALGORITHM", alg)
		_, err := Load()
		require.Error(t, err, alg)
		assert.Contains(t, err.Error(), "AUTH_JWT_ALGORITHM")
	}
}

func TestLoad_RejectsUnsupportedAlgorithm(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "test-secret")
	t.Setenv("AUTH_JWT_ALGORITHM", "RS256")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_JWT_ALGORITHM")
}

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestAuthConfigValidate(t *testing.T) {
	base := AuthConfig{JWTSecret: "s", JWTAlgorithm: AlgorithmHS256, AccessTokenTTLMinutes: 15, RefreshTokenTTLDays: 7}
	require.NoError(t, base.Validate())

	noAccess := base
	noAccess.AccessTokenTTLMinutes = 0
	assert.Error(t, noAccess.Validate())

	noRefresh := base
	noRefresh.RefreshTokenTTLDays = -1
	assert.Error(t, noRefresh.Validate())

	none := base
	none.JWTAlgorithm = "none"
	assert.Error(t, none.Validate())
}
