package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/contacts-service/internal/api/dto"
	"github.com/spec-kit/contacts-service/internal/auth"
	"github.com/spec-kit/contacts-service/internal/domain"
	"github.com/spec-kit/contacts-service/internal/service"
	apperrors "github.com/spec-kit/contacts-service/pkg/util/errorutil"
)

// MaxAvatarSize is the largest accepted avatar upload.
const MaxAvatarSize = 2 << 20

var avatarTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
	"image/webp": true,
}

// UsersHandler exposes profile and admin endpoints under /api/users.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// Me handles GET /api/users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	current, err := currentUser(c)
	if err != nil {
		return err
	}
	user, err := h.users.Me(c.UserContext(), current.Email)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}

// List handles GET /api/users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	users, err := h.users.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserListResponse(users))
}

// Get handles GET /api/users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	user, err := h.users.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}

// SetRole handles PATCH /api/users/:id/role.
func (h *UsersHandler) SetRole(c *fiber.Ctx) error {
	var req dto.RoleUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	if err := dto.Check(req); err != nil {
		return err
	}

	user, err := h.users.SetRole(c.UserContext(), c.Params("id"), domain.Role(req.Role))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}

// UpdateAvatar handles PUT and PATCH /api/users/avatar (multipart field "file").
func (h *UsersHandler) UpdateAvatar(c *fiber.Ctx) error {
	current, err := currentUser(c)
	if err != nil {
		return err
	}

	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewBadRequest("file is required")
	}
	if header.Size > MaxAvatarSize {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "file exceeds 2MB")
	}
	contentType := header.Header.Get(fiber.HeaderContentType)
	if !avatarTypes[contentType] {
		return fiber.NewError(fiber.StatusUnsupportedMediaType, "only png, jpeg and webp images are accepted")
	}

	file, err := header.Open()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer file.Close()

	user, err := h.users.UpdateAvatar(c.UserContext(), current.ID, contentType, file, header.Size)
	if err != nil {
		return err
	}
	avatarURL := ""
	if user.Avatar != nil {
		avatarURL = *user.Avatar
	}
	return c.JSON(dto.AvatarResponse{AvatarURL: avatarURL, User: dto.NewUserResponse(user)})
}

func currentUser(c *fiber.Ctx) (*domain.User, error) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return nil, auth.NewError(auth.KindInvalidToken, "Not authenticated")
	}
	return user, nil
}
