package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/contacts-service/internal/api/dto"
	"github.com/spec-kit/contacts-service/internal/service"
	apperrors "github.com/spec-kit/contacts-service/pkg/util/errorutil"
)

// ContactsHandler exposes the caller's address book under /api/contacts.
type ContactsHandler struct {
	contacts *service.ContactService
}

// NewContactsHandler constructs handler.
func NewContactsHandler(contactService *service.ContactService) *ContactsHandler {
	return &ContactsHandler{contacts: contactService}
}

// List handles GET /api/contacts?skip=&limit=.
func (h *ContactsHandler) List(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	contacts, err := h.contacts.List(c.UserContext(), user.ID,
		c.QueryInt("skip", 0),
		c.QueryInt("limit", service.DefaultContactLimit))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewContactListResponse(contacts))
}

// Search handles GET /api/contacts/search?q=.
func (h *ContactsHandler) Search(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	contacts, err := h.contacts.Search(c.UserContext(), user.ID, c.Query("q"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewContactListResponse(contacts))
}

// UpcomingBirthdays handles GET /api/contacts/upcoming-birthdays?days=.
func (h *ContactsHandler) UpcomingBirthdays(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	contacts, err := h.contacts.UpcomingBirthdays(c.UserContext(), user.ID, c.QueryInt("days", service.DefaultBirthdayDays))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewContactListResponse(contacts))
}

// Get handles GET /api/contacts/:id.
func (h *ContactsHandler) Get(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	contact, err := h.contacts.Get(c.UserContext(), user.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewContactResponse(contact))
}

// Create handles POST /api/contacts.
func (h *ContactsHandler) Create(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	input, err := parseContact(c)
	if err != nil {
		return err
	}
	contact, err := h.contacts.Create(c.UserContext(), user.ID, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewContactResponse(contact))
}

// Update handles PUT /api/contacts/:id.
func (h *ContactsHandler) Update(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	input, err := parseContact(c)
	if err != nil {
		return err
	}
	contact, err := h.contacts.Update(c.UserContext(), user.ID, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewContactResponse(contact))
}

// Delete handles DELETE /api/contacts/:id.
func (h *ContactsHandler) Delete(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if _, err := h.contacts.Delete(c.UserContext(), user.ID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func parseContact(c *fiber.Ctx) (service.ContactInput, error) {
	var req dto.ContactRequest
	if err := c.BodyParser(&req); err != nil {
		return service.ContactInput{}, apperrors.NewBadRequest("invalid payload")
	}
	if err := dto.Check(req); err != nil {
		return service.ContactInput{}, err
	}
	input, err := req.ToInput()
	if err != nil {
		return service.ContactInput{}, apperrors.NewValidationError(err.Error(), nil)
	}
	return input, nil
}
