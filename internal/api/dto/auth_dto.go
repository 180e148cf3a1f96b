package dto

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// SignupRequest payload for POST /api/auth/signup.
type SignupRequest struct {
	Username *string `json:"username"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
}

// Normalize trims whitespace around the email and username.
func (r *SignupRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
	if r.Username != nil {
		trimmed := strings.TrimSpace(*r.Username)
		if trimmed == "" {
			r.Username = nil
		} else {
			r.Username = &trimmed
		}
	}
}

// Validate will run validation rules.
func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.NilOrNotEmpty, validation.RuneLength(2, 32)),
		validation.Field(&r.Email, validation.Required, validation.RuneLength(3, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.RuneLength(6, 64)),
	)
}

// LoginRequest payload for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.RuneLength(6, 128)),
	)
}

// EmailRequest carries a single address (resend confirmation, reset request).
type EmailRequest struct {
	Email string `json:"email"`
}

// Validate will run validation rules.
func (r EmailRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// RefreshRequest payload for POST /api/auth/refresh_token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ResetPasswordRequest payload for POST /api/auth/reset_password/:token.
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

// Validate will run validation rules.
func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NewPassword, validation.Required, validation.RuneLength(6, 64)),
	)
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// SignupResponse is returned by signup.
type SignupResponse struct {
	User   UserResponse `json:"user"`
	Detail string       `json:"detail"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}
