package service

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/contacts-service/internal/cache"
	"github.com/spec-kit/contacts-service/internal/domain"
	"github.com/spec-kit/contacts-service/internal/repository"
	"github.com/spec-kit/contacts-service/internal/storage"
	apperrors "github.com/spec-kit/contacts-service/pkg/util/errorutil"
)

// AvatarUploader stores an avatar image and returns its public URL.
type AvatarUploader interface {
	Upload(ctx context.Context, userID, contentType string, body io.Reader, size int64) (string, error)
}

// UserService serves profile reads and admin operations on accounts.
type UserService struct {
	users   repository.UserRepository
	cache   *cache.UserCache
	avatars AvatarUploader
	logger  *zap.Logger
}

// NewUserService constructs the service. avatars may be nil when storage is not configured.
func NewUserService(users repository.UserRepository, userCache *cache.UserCache, avatars AvatarUploader, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, cache: userCache, avatars: avatars, logger: logger}
}

// Me returns the caller's profile, served from the cache when possible.
func (s *UserService) Me(ctx context.Context, email string) (*domain.User, error) {
	if user, ok := s.cache.Get(ctx, email); ok {
		return user, nil
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}
	s.cache.Set(ctx, user)
	return user, nil
}

// List returns every account ordered by creation time.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// Get loads a single account by id.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, err
	}
	return user, nil
}

// SetRole changes an account's role.
func (s *UserService) SetRole(ctx context.Context, id string, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": role})
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == role {
		return user, nil
	}
	if err := s.users.SetRole(ctx, user.ID, role); err != nil {
		return nil, err
	}
	user.Role = role
	s.cache.Invalidate(ctx, user.Email)
	s.logger.Info("role changed", zap.String("user_id", user.ID), zap.String("role", string(role)))
	return user, nil
}

// UpdateAvatar uploads a new avatar for user and stores its URL.
func (s *UserService) UpdateAvatar(ctx context.Context, userID, contentType string, body io.Reader, size int64) (*domain.User, error) {
	if s.avatars == nil {
		return nil, errStorageUnavailable(storage.ErrNotConfigured)
	}
	url, err := s.avatars.Upload(ctx, userID, contentType, body, size)
	if err != nil {
		if errors.Is(err, storage.ErrNotConfigured) {
			return nil, errStorageUnavailable(err)
		}
		return nil, err
	}

	if err := s.users.SetAvatar(ctx, userID, &url); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, user.Email)
	return user, nil
}

func errStorageUnavailable(cause error) error {
	return &apperrors.DomainError{
		Code:       "STORAGE_UNAVAILABLE",
		Message:    "avatar storage is not configured",
		HTTPStatus: 503,
		Err:        cause,
	}
}
