package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/contacts-service/internal/domain"
	apperrors "github.com/spec-kit/contacts-service/pkg/util/errorutil"
)

// ContactRepository encapsulates contact persistence. Every call is scoped
// to the owning user; a contact owned by someone else is reported as pgx.ErrNoRows.
type ContactRepository interface {
	Create(ctx context.Context, contact *domain.Contact) error
	Update(ctx context.Context, contact *domain.Contact) error
	Delete(ctx context.Context, userID, id string) error
	GetByID(ctx context.Context, userID, id string) (*domain.Contact, error)
	List(ctx context.Context, userID string, limit, offset int) ([]domain.Contact, error)
	Search(ctx context.Context, userID, term string) ([]domain.Contact, error)
	UpcomingBirthdays(ctx context.Context, userID string, today time.Time, days int) ([]domain.Contact, error)
}

// BirthdayWindow returns the MM-DD bounds of the window starting at today and
// spanning days, and whether the window wraps over the new year.
func BirthdayWindow(today time.Time, days int) (start, end string, wraps bool) {
	start = today.Format("01-02")
	end = today.AddDate(0, 0, days).Format("01-02")
	return start, end, start > end
}

type contactRepository struct {
	pool *pgxpool.Pool
}

// NewContactRepository instantiates repository.
func NewContactRepository(pool *pgxpool.Pool) ContactRepository {
	return &contactRepository{pool: pool}
}

const contactColumns = `id, user_id, first_name, last_name, email, phone, birthday, extra, created_at, updated_at`

func (r *contactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	const query = `
        INSERT INTO contacts (user_id, first_name, last_name, email, phone, birthday, extra)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		contact.UserID,
		contact.FirstName,
		contact.LastName,
		contact.Email,
		contact.Phone,
		contact.Birthday,
		contact.Extra,
	).Scan(&contact.ID, &contact.CreatedAt, &contact.UpdatedAt)
	if apperrors.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *contactRepository) Update(ctx context.Context, contact *domain.Contact) error {
	const query = `
        UPDATE contacts SET first_name=$1, last_name=$2, email=$3, phone=$4, birthday=$5, extra=$6, updated_at=NOW()
        WHERE id=$7 AND user_id=$8
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		contact.FirstName,
		contact.LastName,
		contact.Email,
		contact.Phone,
		contact.Birthday,
		contact.Extra,
		contact.ID,
		contact.UserID,
	).Scan(&contact.UpdatedAt)
	if apperrors.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *contactRepository) Delete(ctx context.Context, userID, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM contacts WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *contactRepository) GetByID(ctx context.Context, userID, id string) (*domain.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id=$1 AND user_id=$2`
	return scanContact(r.pool.QueryRow(ctx, query, id, userID))
}

func (r *contactRepository) List(ctx context.Context, userID string, limit, offset int) ([]domain.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE user_id=$1 ORDER BY created_at, id LIMIT $2 OFFSET $3`
	return r.collect(ctx, query, userID, limit, offset)
}

func (r *contactRepository) Search(ctx context.Context, userID, term string) ([]domain.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts
        WHERE user_id=$1 AND (first_name ILIKE $2 OR last_name ILIKE $2 OR email ILIKE $2)
        ORDER BY created_at, id`
	return r.collect(ctx, query, userID, "%"+term+"%")
}

func (r *contactRepository) UpcomingBirthdays(ctx context.Context, userID string, today time.Time, days int) ([]domain.Contact, error) {
	start, end, wraps := BirthdayWindow(today, days)
	cond := `to_char(birthday, 'MM-DD') BETWEEN $2 AND $3`
	if wraps {
		cond = `(to_char(birthday, 'MM-DD') >= $2 OR to_char(birthday, 'MM-DD') <= $3)`
	}
	query := `SELECT ` + contactColumns + ` FROM contacts
        WHERE user_id=$1 AND ` + cond + `
        ORDER BY EXTRACT(MONTH FROM birthday), EXTRACT(DAY FROM birthday)`
	return r.collect(ctx, query, userID, start, end)
}

func (r *contactRepository) collect(ctx context.Context, query string, args ...any) ([]domain.Contact, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := make([]domain.Contact, 0)
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, *contact)
	}
	return contacts, rows.Err()
}

func scanContact(row pgx.Row) (*domain.Contact, error) {
	var contact domain.Contact
	if err := row.Scan(
		&contact.ID,
		&contact.UserID,
		&contact.FirstName,
		&contact.LastName,
		&contact.Email,
		&contact.Phone,
		&contact.Birthday,
		&contact.Extra,
		&contact.CreatedAt,
		&contact.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &contact, nil
}
