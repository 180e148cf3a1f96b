package dto

import (
	"errors"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"

	"github.com/spec-kit/contacts-service/internal/domain"
	"github.com/spec-kit/contacts-service/internal/service"
)

// DateLayout is the wire format of birthdays.
const DateLayout = "2006-01-02"

var namePattern = regexp.MustCompile(`^\p{L}[\p{L}\-._']{0,24}$`)

// ContactRequest payload for creating or replacing a contact.
type ContactRequest struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	Birthday  string  `json:"birthday"`
	Extra     *string `json:"extra"`

	now func() time.Time
}

// Validate will run validation rules.
func (r ContactRequest) Validate() error {
	now := r.now
	if now == nil {
		now = time.Now
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Match(namePattern)),
		validation.Field(&r.LastName, validation.Required, validation.Match(namePattern)),
		validation.Field(&r.Email, validation.Required, validation.RuneLength(3, 100), is.Email),
		validation.Field(&r.Phone, validation.Required, validation.By(validPhone)),
		validation.Field(&r.Birthday, validation.Required, validation.By(pastDate(now))),
		validation.Field(&r.Extra, validation.RuneLength(0, 250)),
	)
}

// ToInput converts a validated request.
func (r ContactRequest) ToInput() (service.ContactInput, error) {
	birthday, err := time.Parse(DateLayout, r.Birthday)
	if err != nil {
		return service.ContactInput{}, err
	}
	phone, err := NormalizePhone(r.Phone)
	if err != nil {
		return service.ContactInput{}, err
	}
	return service.ContactInput{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     strings.TrimSpace(r.Email),
		Phone:     phone,
		Birthday:  birthday,
		Extra:     r.Extra,
	}, nil
}

// NormalizePhone prefixes a missing "+" and checks the number: Ukrainian
// (+380) numbers need exactly nine subscriber digits, everything else must be
// E.164 with 8 to 15 digits and a known country code.
func NormalizePhone(raw string) (string, error) {
	v := strings.TrimSpace(raw)
	if !strings.HasPrefix(v, "+") {
		v = "+" + v
	}
	digits := v[1:]
	if digits == "" || strings.Trim(digits, "0123456789") != "" {
		return "", errors.New("must contain digits only")
	}

	if strings.HasPrefix(v, "+380") {
		if len(digits) != 12 {
			return "", errors.New("must be in format +380XXXXXXXXX")
		}
		return v, nil
	}

	if digits[0] == '0' {
		return "", errors.New("country code cannot start with 0")
	}
	if len(digits) < 8 || len(digits) > 15 {
		return "", errors.New("must follow E.164 format (+CountryCodeNumber)")
	}
	if _, err := phonenumbers.Parse(v, ""); err != nil {
		return "", errors.New("unknown country code")
	}
	return v, nil
}

func validPhone(value interface{}) error {
	s, _ := value.(string)
	_, err := NormalizePhone(s)
	return err
}

func pastDate(now func() time.Time) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		d, err := time.Parse(DateLayout, s)
		if err != nil {
			return errors.New("must be a date in YYYY-MM-DD format")
		}
		today := now().UTC().Format(DateLayout)
		if d.Format(DateLayout) > today {
			return errors.New("cannot be in the future")
		}
		return nil
	}
}

// ContactResponse is the wire view of a contact.
type ContactResponse struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Birthday  string    `json:"birthday"`
	Extra     *string   `json:"extra"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewContactResponse maps a domain contact.
func NewContactResponse(c *domain.Contact) ContactResponse {
	return ContactResponse{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		Birthday:  c.Birthday.Format(DateLayout),
		Extra:     c.Extra,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// NewContactListResponse maps a slice of contacts.
func NewContactListResponse(contacts []domain.Contact) []ContactResponse {
	out := make([]ContactResponse, 0, len(contacts))
	for i := range contacts {
		out = append(out, NewContactResponse(&contacts[i]))
	}
	return out
}
