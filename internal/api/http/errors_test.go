package http

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/contacts-service/internal/auth"
	"github.com/spec-kit/contacts-service/internal/domain"
	apperrors "github.com/spec-kit/contacts-service/pkg/util/errorutil"
)

func TestToDomainError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid credentials", auth.NewError(auth.KindInvalidCredentials, "Invalid email"), http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"expired", auth.NewError(auth.KindExpiredToken, "Token expired"), http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"stale refresh", auth.ErrInvalidRefreshToken, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN"},
		{"unknown user", auth.ErrUserNotFound, http.StatusUnauthorized, "USER_NOT_FOUND"},
		{"unconfirmed", auth.ErrUnconfirmed, http.StatusForbidden, "UNCONFIRMED"},
		{"forbidden", auth.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"not found", auth.NewError(auth.KindNotFound, "User not found"), http.StatusNotFound, "NOT_FOUND"},
		{"conflict", auth.NewError(auth.KindConflict, "Account already exists"), http.StatusConflict, "CONFLICT"},
		{"scoped failure", &auth.Error{Kind: auth.KindExpiredToken, Message: "Token expired", Scope: domain.ScopeResetPassword}, http.StatusBadRequest, "TOKEN_EXPIRED"},
		{"wrapped auth", fmt.Errorf("login: %w", auth.ErrUnconfirmed), http.StatusForbidden, "UNCONFIRMED"},
		{"fiber", fiber.NewError(fiber.StatusUnsupportedMediaType, "nope"), http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE"},
		{"fiber not found", fiber.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"domain", apperrors.NewValidationError("bad", nil), http.StatusUnprocessableEntity, "VALIDATION_FAILED"},
		{"no rows", pgx.ErrNoRows, http.StatusNotFound, "NOT_FOUND"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToDomainError(tt.err)
			assert.Equal(t, tt.status, got.HTTPStatus)
			assert.Equal(t, tt.code, got.Code)
		})
	}
}
