package domain

import "time"

// Contact is an address-book entry owned by a single user.
type Contact struct {
	ID        string
	UserID    string
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Birthday  time.Time
	Extra     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
