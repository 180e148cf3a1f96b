package dto

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/contacts-service/internal/domain"
	apperrors "github.com/spec-kit/contacts-service/pkg/util/errorutil"
)

func strPtr(s string) *string { return &s }

func TestSignupRequestValidate(t *testing.T) {
	cases := []struct {
		name  string
		req   SignupRequest
		field string
	}{
		{"valid", SignupRequest{Email: "a@x.com", Password: "secret1"}, ""},
		{"valid with username", SignupRequest{Username: strPtr("al"), Email: "a@x.com", Password: "secret1"}, ""},
		{"short password", SignupRequest{Email: "a@x.com", Password: "12345"}, "password"},
		{"long password", SignupRequest{Email: "a@x.com", Password: strings.Repeat("p", 65)}, "password"},
		{"bad email", SignupRequest{Email: "not-an-email", Password: "secret1"}, "email"},
		{"short username", SignupRequest{Username: strPtr("a"), Email: "a@x.com", Password: "secret1"}, "username"},
		{"long username", SignupRequest{Username: strPtr(strings.Repeat("u", 33)), Email: "a@x.com", Password: "secret1"}, "username"},
		{"cyrillic username", SignupRequest{Username: strPtr(strings.Repeat("ж", 20)), Email: "a@x.com", Password: "secret1"}, ""},
		{"cyrillic password at max", SignupRequest{Email: "a@x.com", Password: strings.Repeat("п", 64)}, ""},
		{"cyrillic password too long", SignupRequest{Email: "a@x.com", Password: strings.Repeat("п", 65)}, "password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Check(tc.req)
			if tc.field == "" {
				assert.NoError(t, err)
				return
			}
			var domainErr *apperrors.DomainError
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, 422, domainErr.HTTPStatus)
			assert.Contains(t, domainErr.Details, tc.field)
		})
	}
}

func TestSignupRequestNormalize(t *testing.T) {
	req := SignupRequest{Username: strPtr("   "), Email: "  a@x.com "}
	req.Normalize()
	assert.Nil(t, req.Username)
	assert.Equal(t, "a@x.com", req.Email)
}

func TestResetPasswordRequestValidate(t *testing.T) {
	assert.NoError(t, Check(ResetPasswordRequest{NewPassword: "newpass1"}))
	assert.Error(t, Check(ResetPasswordRequest{NewPassword: "123"}))
	assert.Error(t, Check(ResetPasswordRequest{}))
	assert.NoError(t, Check(ResetPasswordRequest{NewPassword: strings.Repeat("п", 35)}))
}

func TestRoleUpdateRequestValidate(t *testing.T) {
	assert.NoError(t, Check(RoleUpdateRequest{Role: "moderator"}))
	assert.Error(t, Check(RoleUpdateRequest{Role: "root"}))
	assert.Error(t, Check(RoleUpdateRequest{}))
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"+380501234567", "+380501234567", true},
		{"380501234567", "+380501234567", true},
		{"+38050123456", "", false},
		{"+3805012345678", "", false},
		{"+4915112345678", "+4915112345678", true},
		{"14155552671", "+14155552671", true},
		{"+0123456789", "", false},
		{"+1234567", "", false},
		{"+1234567890123456", "", false},
		{"+1 415 555 2671", "", false},
		{"+", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := NormalizePhone(tc.in)
			if !tc.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func validContact() ContactRequest {
	return ContactRequest{
		FirstName: "Olena",
		LastName:  "Kovalenko-Shevchuk",
		Email:     "olena@x.com",
		Phone:     "380501234567",
		Birthday:  "1990-05-17",
		now:       func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func TestContactRequestValidate(t *testing.T) {
	require.NoError(t, Check(validContact()))

	cyrillic := validContact()
	cyrillic.FirstName = "Олена"
	assert.NoError(t, Check(cyrillic))

	mutate := map[string]func(*ContactRequest){
		"first_name": func(r *ContactRequest) { r.FirstName = "-Olena" },
		"last_name":  func(r *ContactRequest) { r.LastName = strings.Repeat("k", 26) },
		"email":      func(r *ContactRequest) { r.Email = "nope" },
		"phone":      func(r *ContactRequest) { r.Phone = "+38050" },
		"birthday":   func(r *ContactRequest) { r.Birthday = "2025-06-02" },
		"extra":      func(r *ContactRequest) { r.Extra = strPtr(strings.Repeat("e", 251)) },
	}
	for field, fn := range mutate {
		t.Run(field, func(t *testing.T) {
			req := validContact()
			fn(&req)
			var domainErr *apperrors.DomainError
			require.True(t, errors.As(Check(req), &domainErr))
			assert.Contains(t, domainErr.Details, field)
		})
	}

	today := validContact()
	today.Birthday = "2025-06-01"
	assert.NoError(t, Check(today), "today is not in the future")

	malformed := validContact()
	malformed.Birthday = "17.05.1990"
	assert.Error(t, Check(malformed))
}

func TestContactRequestToInput(t *testing.T) {
	in, err := validContact().ToInput()
	require.NoError(t, err)
	assert.Equal(t, "+380501234567", in.Phone)
	assert.Equal(t, time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC), in.Birthday)

	resp := NewContactResponse(&domain.Contact{ID: "c1", Birthday: in.Birthday, Phone: in.Phone})
	assert.Equal(t, "1990-05-17", resp.Birthday)
	assert.Equal(t, "c1", resp.ID)
}
