package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/contacts-service/internal/domain"
	"github.com/spec-kit/contacts-service/internal/repository"
	apperrors "github.com/spec-kit/contacts-service/pkg/util/errorutil"
)

// Default and maximum page sizes for contact listing.
const (
	DefaultContactLimit = 10
	MaxContactLimit     = 100
	DefaultBirthdayDays = 7
)

// ContactInput carries validated contact fields.
type ContactInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Birthday  time.Time
	Extra     *string
}

// ContactService implements the per-user address book.
type ContactService struct {
	contacts repository.ContactRepository
	now      func() time.Time
}

// NewContactService constructs the service.
func NewContactService(contacts repository.ContactRepository) *ContactService {
	return &ContactService{contacts: contacts, now: time.Now}
}

// List returns a page of the owner's contacts.
func (s *ContactService) List(ctx context.Context, userID string, skip, limit int) ([]domain.Contact, error) {
	if skip < 0 {
		skip = 0
	}
	if limit < 1 || limit > MaxContactLimit {
		return nil, apperrors.NewValidationError("limit must be between 1 and 100", map[string]any{"limit": limit})
	}
	return s.contacts.List(ctx, userID, limit, skip)
}

// Search matches the term against first name, last name and email.
func (s *ContactService) Search(ctx context.Context, userID, term string) ([]domain.Contact, error) {
	if term == "" {
		return nil, apperrors.NewValidationError("query must not be empty", map[string]any{"q": term})
	}
	return s.contacts.Search(ctx, userID, term)
}

// UpcomingBirthdays lists contacts whose birthday falls within the next days.
func (s *ContactService) UpcomingBirthdays(ctx context.Context, userID string, days int) ([]domain.Contact, error) {
	if days < 1 || days > 365 {
		return nil, apperrors.NewValidationError("days must be between 1 and 365", map[string]any{"days": days})
	}
	return s.contacts.UpcomingBirthdays(ctx, userID, s.now().UTC(), days)
}

// Get loads one contact of the owner.
func (s *ContactService) Get(ctx context.Context, userID, id string) (*domain.Contact, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, contactNotFound(id)
	}
	contact, err := s.contacts.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, contactNotFound(id)
		}
		return nil, err
	}
	return contact, nil
}

// Create adds a contact for the owner.
func (s *ContactService) Create(ctx context.Context, userID string, input ContactInput) (*domain.Contact, error) {
	contact := &domain.Contact{UserID: userID}
	applyContactInput(contact, input)
	if err := s.contacts.Create(ctx, contact); err != nil {
		return nil, mapContactWriteError(err, contact)
	}
	return contact, nil
}

// Update replaces all fields of an owned contact.
func (s *ContactService) Update(ctx context.Context, userID, id string, input ContactInput) (*domain.Contact, error) {
	contact, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	applyContactInput(contact, input)
	if err := s.contacts.Update(ctx, contact); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, contactNotFound(id)
		}
		return nil, mapContactWriteError(err, contact)
	}
	return contact, nil
}

// Delete removes an owned contact and returns it.
func (s *ContactService) Delete(ctx context.Context, userID, id string) (*domain.Contact, error) {
	contact, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.contacts.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, contactNotFound(id)
		}
		return nil, err
	}
	return contact, nil
}

func applyContactInput(contact *domain.Contact, input ContactInput) {
	contact.FirstName = input.FirstName
	contact.LastName = input.LastName
	contact.Email = input.Email
	contact.Phone = input.Phone
	contact.Birthday = input.Birthday
	contact.Extra = input.Extra
}

func mapContactWriteError(err error, contact *domain.Contact) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return apperrors.NewConflict("contact with this email already exists", map[string]any{"email": contact.Email})
	}
	return err
}

func contactNotFound(id string) error {
	return apperrors.NewNotFound("contact", map[string]any{"id": id})
}
