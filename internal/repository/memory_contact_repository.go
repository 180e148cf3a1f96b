package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/contacts-service/internal/domain"
)

// MemoryContactRepository is the in-process counterpart of the Postgres store.
type MemoryContactRepository struct {
	mu       sync.RWMutex
	contacts map[string]*domain.Contact
	seq      int64
	order    map[string]int64
}

// NewMemoryContactRepository returns an empty in-memory store.
func NewMemoryContactRepository() *MemoryContactRepository {
	return &MemoryContactRepository{
		contacts: make(map[string]*domain.Contact),
		order:    make(map[string]int64),
	}
}

func (r *MemoryContactRepository) Create(_ context.Context, contact *domain.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTaken(contact.Email, "") {
		return ErrDuplicate
	}
	now := time.Now().UTC()
	contact.ID = uuid.NewString()
	contact.CreatedAt = now
	contact.UpdatedAt = now

	stored := *contact
	r.contacts[contact.ID] = &stored
	r.seq++
	r.order[contact.ID] = r.seq
	return nil
}

func (r *MemoryContactRepository) Update(_ context.Context, contact *domain.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.contacts[contact.ID]
	if !ok || current.UserID != contact.UserID {
		return pgx.ErrNoRows
	}
	if r.emailTaken(contact.Email, contact.ID) {
		return ErrDuplicate
	}
	contact.CreatedAt = current.CreatedAt
	contact.UpdatedAt = time.Now().UTC()

	stored := *contact
	r.contacts[contact.ID] = &stored
	return nil
}

func (r *MemoryContactRepository) Delete(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.contacts[id]
	if !ok || current.UserID != userID {
		return pgx.ErrNoRows
	}
	delete(r.contacts, id)
	delete(r.order, id)
	return nil
}

func (r *MemoryContactRepository) GetByID(_ context.Context, userID, id string) (*domain.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	contact, ok := r.contacts[id]
	if !ok || contact.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	clone := *contact
	return &clone, nil
}

func (r *MemoryContactRepository) List(_ context.Context, userID string, limit, offset int) ([]domain.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owned := r.owned(userID, func(*domain.Contact) bool { return true })
	if offset >= len(owned) {
		return []domain.Contact{}, nil
	}
	end := offset + limit
	if end > len(owned) {
		end = len(owned)
	}
	return owned[offset:end], nil
}

func (r *MemoryContactRepository) Search(_ context.Context, userID, term string) ([]domain.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(term)
	return r.owned(userID, func(c *domain.Contact) bool {
		return strings.Contains(strings.ToLower(c.FirstName), needle) ||
			strings.Contains(strings.ToLower(c.LastName), needle) ||
			strings.Contains(strings.ToLower(c.Email), needle)
	}), nil
}

func (r *MemoryContactRepository) UpcomingBirthdays(_ context.Context, userID string, today time.Time, days int) ([]domain.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	start, end, wraps := BirthdayWindow(today, days)
	matches := r.owned(userID, func(c *domain.Contact) bool {
		md := c.Birthday.Format("01-02")
		if wraps {
			return md >= start || md <= end
		}
		return md >= start && md <= end
	})
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Birthday.Format("01-02") < matches[j].Birthday.Format("01-02")
	})
	return matches, nil
}

// owned returns copies of the user's contacts in insertion order. Callers hold the lock.
func (r *MemoryContactRepository) owned(userID string, keep func(*domain.Contact) bool) []domain.Contact {
	out := make([]domain.Contact, 0)
	for _, c := range r.contacts {
		if c.UserID == userID && keep(c) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return r.order[out[i].ID] < r.order[out[j].ID]
	})
	return out
}

func (r *MemoryContactRepository) emailTaken(email, exceptID string) bool {
	key := strings.ToLower(email)
	for id, c := range r.contacts {
		if id != exceptID && strings.ToLower(c.Email) == key {
			return true
		}
	}
	return false
}
