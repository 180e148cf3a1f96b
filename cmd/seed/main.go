package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/contacts-service/internal/auth"
	"github.com/spec-kit/contacts-service/internal/config"
	"github.com/spec-kit/contacts-service/internal/domain"
	"github.com/spec-kit/contacts-service/internal/observability"
	"github.com/spec-kit/contacts-service/internal/persistence"
	"github.com/spec-kit/contacts-service/internal/repository"
)

// seed creates the bootstrap admin account from ADMIN_EMAIL and ADMIN_PASSWORD.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.Seed.AdminEmail == "" || cfg.Seed.AdminPassword == "" {
		logger.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	if !pg.Enabled() {
		logger.Fatal("POSTGRES_DSN is required for seeding")
	}
	if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	created, err := seedAdmin(ctx, repository.NewUserRepository(pg.Pool), auth.NewHasher(cfg.Auth.BcryptCost), cfg.Seed)
	if err != nil {
		logger.Fatal("failed to seed admin", zap.Error(err))
	}
	if created {
		logger.Info("admin created", zap.String("email", cfg.Seed.AdminEmail))
	} else {
		logger.Info("admin already exists", zap.String("email", cfg.Seed.AdminEmail))
	}
}

func seedAdmin(ctx context.Context, users repository.UserRepository, hasher *auth.Hasher, seed config.SeedConfig) (bool, error) {
	_, err := users.FindByEmail(ctx, seed.AdminEmail)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, err
	}

	hash, err := hasher.Hash(seed.AdminPassword)
	if err != nil {
		return false, err
	}
	admin := &domain.User{
		Email:        seed.AdminEmail,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		Confirmed:    true,
	}
	return true, users.Create(ctx, admin)
}
