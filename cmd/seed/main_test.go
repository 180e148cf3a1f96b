package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/contacts-service/internal/auth"
	"github.com/spec-kit/contacts-service/internal/config"
	"github.com/spec-kit/contacts-service/internal/domain"
	"github.com/spec-kit/contacts-service/internal/repository"
)

func TestSeedAdminIsIdempotent(t *testing.T) {
	ctx := context.Background()
	users := repository.NewMemoryUserRepository()
	hasher := auth.NewHasher(4)
	seed := config.SeedConfig{AdminEmail: "root@example.com", AdminPassword: "s3cret!"}

	created, err := seedAdmin(ctx, users, hasher, seed)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = seedAdmin(ctx, users, hasher, seed)
	require.NoError(t, err)
	assert.False(t, created)

	admin, err := users.FindByEmail(ctx, "ROOT@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
	assert.True(t, admin.Confirmed)
	assert.True(t, hasher.Verify("s3cret!", admin.PasswordHash))
}
