package dto

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/spec-kit/contacts-service/internal/domain"
)

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        string      `json:"id"`
	Username  *string     `json:"username"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	Confirmed bool        `json:"confirmed"`
	Avatar    *string     `json:"avatar"`
	CreatedAt time.Time   `json:"created_at"`
}

// NewUserResponse maps a domain user. Credentials are never exposed.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		Confirmed: u.Confirmed,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
	}
}

// NewUserListResponse maps a slice of users.
func NewUserListResponse(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}

// RoleUpdateRequest payload for PATCH /api/users/:id/role.
type RoleUpdateRequest struct {
	Role domain.Role `json:"role"`
}

// Validate will run validation rules.
func (r RoleUpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Role, validation.Required,
			validation.In(domain.RoleAdmin, domain.RoleModerator, domain.RoleUser)),
	)
}

// AvatarResponse is returned after an avatar upload.
type AvatarResponse struct {
	AvatarURL string       `json:"avatar_url"`
	User      UserResponse `json:"user"`
}
