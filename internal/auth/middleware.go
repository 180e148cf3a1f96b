package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/contacts-service/internal/domain"
)

const userKey = "auth_user"

// UserFinder is the slice of the user store the resolver depends on.
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Resolver turns a bearer access token into the user it speaks for.
type Resolver struct {
	issuer *Issuer
	users  UserFinder
}

// NewResolver constructs a resolver.
func NewResolver(issuer *Issuer, users UserFinder) *Resolver {
	return &Resolver{issuer: issuer, users: users}
}

// Resolve validates the token and loads its user. Refresh tokens are not
// told apart from access tokens here; both carry no scope.
func (r *Resolver) Resolve(ctx context.Context, bearer string) (*domain.User, error) {
	claims, err := r.issuer.Parse(bearer)
	if err != nil {
		if errors.Is(err, ErrExpiredToken) {
			return nil, newError(KindExpiredToken, "Token expired", err)
		}
		return nil, newError(KindInvalidToken, "Invalid token", err)
	}
	if claims.Scope != domain.ScopeNone {
		return nil, newError(KindInvalidToken, "Invalid token", nil)
	}
	if claims.Subject == "" {
		return nil, newError(KindMissingSubject, "Invalid token payload", nil)
	}

	user, err := r.users.FindByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Handle enforces authentication for protected routes.
func (r *Resolver) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return newError(KindInvalidToken, "Not authenticated", nil)
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return newError(KindInvalidToken, "Invalid authorization header", nil)
	}

	user, err := r.Resolve(c.UserContext(), strings.TrimSpace(parts[1]))
	if err != nil {
		return err
	}

	c.Locals(userKey, user)
	return c.Next()
}

// UserFromContext retrieves the authenticated user.
func UserFromContext(c *fiber.Ctx) (*domain.User, bool) {
	val := c.Locals(userKey)
	if val == nil {
		return nil, false
	}
	user, ok := val.(*domain.User)
	return user, ok && user != nil
}
