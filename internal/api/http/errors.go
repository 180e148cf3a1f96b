package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/contacts-service/internal/auth"
	"github.com/spec-kit/contacts-service/internal/domain"
	apperrors "github.com/spec-kit/contacts-service/pkg/util/errorutil"
)

// ToDomainError maps any handler error onto the transport error model.
// Auth errors map by kind; failures while redeeming a scoped token
// (confirm email, reset password) are reported as 400 instead of 401.
func ToDomainError(err error) *apperrors.DomainError {
	var authErr *auth.Error
	if errors.As(err, &authErr) {
		return &apperrors.DomainError{
			Code:       string(authErr.Kind),
			Message:    authErr.Message,
			HTTPStatus: authStatus(authErr),
			Err:        authErr.Err,
		}
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return &apperrors.DomainError{
			Code:       statusCode(fiberErr.Code),
			Message:    fiberErr.Message,
			HTTPStatus: fiberErr.Code,
		}
	}

	return apperrors.ToDomainError(err)
}

func authStatus(e *auth.Error) int {
	if e.Scope != domain.ScopeNone {
		return http.StatusBadRequest
	}
	switch e.Kind {
	case auth.KindInvalidCredentials,
		auth.KindExpiredToken,
		auth.KindInvalidToken,
		auth.KindMissingSubject,
		auth.KindUserNotFound,
		auth.KindInvalidRefreshToken,
		auth.KindInvalidScope:
		return http.StatusUnauthorized
	case auth.KindUnconfirmed, auth.KindForbidden:
		return http.StatusForbidden
	case auth.KindNotFound:
		return http.StatusNotFound
	case auth.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func statusCode(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "HTTP_ERROR"
	}
	return strings.ToUpper(strings.ReplaceAll(text, " ", "_"))
}
