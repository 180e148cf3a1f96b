package domain

import "time"

// Role is the closed set of account roles.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleUser      Role = "user"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleUser:
		return true
	}
	return false
}

// User is the identity record behind every authenticated request.
type User struct {
	ID           string
	Username     *string
	Email        string
	PasswordHash string
	Role         Role
	Confirmed    bool
	RefreshToken *string
	Avatar       *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName returns the username or a generic fallback used in emails.
func (u *User) DisplayName() string {
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	return "user"
}
