package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/contacts-service/internal/domain"
)

// UserTTL is how long a cached profile stays valid.
const UserTTL = 300 * time.Second

// Store is the part of the go-redis client the cache uses. *redis.Client satisfies it.
type Store interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// UserCache keeps public profile snapshots keyed by email. Cache errors never
// fail a request: a broken Redis behaves like an empty cache.
type UserCache struct {
	store  Store
	ttl    time.Duration
	logger *zap.Logger
}

// NewUserCache builds a cache. A nil store disables caching.
func NewUserCache(store Store, logger *zap.Logger) *UserCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserCache{store: store, ttl: UserTTL, logger: logger}
}

// cachedUser omits credentials; only the public profile is written to Redis.
type cachedUser struct {
	ID        string      `json:"id"`
	Username  *string     `json:"username,omitempty"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	Confirmed bool        `json:"confirmed"`
	Avatar    *string     `json:"avatar,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

func key(email string) string {
	return "user:" + email
}

// Get returns the cached profile for email.
func (c *UserCache) Get(ctx context.Context, email string) (*domain.User, bool) {
	if c == nil || c.store == nil {
		return nil, false
	}
	raw, err := c.store.Get(ctx, key(email)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("user cache get failed", zap.String("email", email), zap.Error(err))
		}
		return nil, false
	}
	var entry cachedUser
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.logger.Warn("user cache entry corrupt", zap.String("email", email), zap.Error(err))
		return nil, false
	}
	return &domain.User{
		ID:        entry.ID,
		Username:  entry.Username,
		Email:     entry.Email,
		Role:      entry.Role,
		Confirmed: entry.Confirmed,
		Avatar:    entry.Avatar,
		CreatedAt: entry.CreatedAt,
	}, true
}

// Set stores the profile of user for UserTTL.
func (c *UserCache) Set(ctx context.Context, user *domain.User) {
	if c == nil || c.store == nil || user == nil {
		return
	}
	raw, err := json.Marshal(cachedUser{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		Confirmed: user.Confirmed,
		Avatar:    user.Avatar,
		CreatedAt: user.CreatedAt,
	})
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, key(user.Email), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("user cache set failed", zap.String("email", user.Email), zap.Error(err))
	}
}

// Invalidate drops the cached profile for email.
func (c *UserCache) Invalidate(ctx context.Context, email string) {
	if c == nil || c.store == nil {
		return
	}
	if err := c.store.Del(ctx, key(email)).Err(); err != nil {
		c.logger.Warn("user cache invalidate failed", zap.String("email", email), zap.Error(err))
	}
}
