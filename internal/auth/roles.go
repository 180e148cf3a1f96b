package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/contacts-service/internal/domain"
)

// RoleSet is an explicit allow-list. There is no role hierarchy: admin is
// not implicitly a moderator.
type RoleSet map[domain.Role]struct{}

// NewRoleSet builds a set from roles.
func NewRoleSet(roles ...domain.Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, role := range roles {
		set[role] = struct{}{}
	}
	return set
}

// Contains reports membership.
func (s RoleSet) Contains(role domain.Role) bool {
	_, ok := s[role]
	return ok
}

var (
	AdminOnly        = NewRoleSet(domain.RoleAdmin)
	AdminOrModerator = NewRoleSet(domain.RoleAdmin, domain.RoleModerator)
)

// Authorize checks an already resolved identity against allowed.
func Authorize(user *domain.User, allowed RoleSet) (*domain.User, error) {
	if user == nil {
		return nil, newError(KindInvalidToken, "Not authenticated", nil)
	}
	if !allowed.Contains(user.Role) {
		return nil, ErrForbidden
	}
	return user, nil
}

// RequireRoles gates a route on the caller's role. It must run after Resolver.Handle.
func RequireRoles(allowed RoleSet) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, _ := UserFromContext(c)
		if _, err := Authorize(user, allowed); err != nil {
			return err
		}
		return c.Next()
	}
}
