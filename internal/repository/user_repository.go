package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/contacts-service/internal/domain"
	apperrors "github.com/spec-kit/contacts-service/pkg/util/errorutil"
)

// ErrDuplicate is returned when a unique key (email) is already taken.
var ErrDuplicate = errors.New("duplicate key")

// UserRepository defines persistence access for user accounts.
// Lookups that find nothing return pgx.ErrNoRows.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// FindByEmail matches case-insensitively.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	// Column-targeted writes; concurrent changes to different columns never
	// overwrite each other.
	SetConfirmed(ctx context.Context, id string, confirmed bool) error
	SetRole(ctx context.Context, id string, role domain.Role) error
	SetAvatar(ctx context.Context, id string, avatar *string) error
	SetPasswordHash(ctx context.Context, id, hash string) error
	// SetRefreshToken overwrites the stored refresh token; nil clears it.
	SetRefreshToken(ctx context.Context, id string, token *string) error
	// RotateRefreshToken replaces current with next only if current is still
	// the stored value. It reports false when another rotation won the race.
	RotateRefreshToken(ctx context.Context, id, current, next string) (bool, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, username, email, password_hash, role, confirmed, refresh_token, avatar, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (username, email, password_hash, role, confirmed)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Confirmed,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if apperrors.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *userRepository) SetConfirmed(ctx context.Context, id string, confirmed bool) error {
	return r.exec(ctx, `UPDATE users SET confirmed=$1, updated_at=NOW() WHERE id=$2`, confirmed, id)
}

func (r *userRepository) SetRole(ctx context.Context, id string, role domain.Role) error {
	return r.exec(ctx, `UPDATE users SET role=$1, updated_at=NOW() WHERE id=$2`, role, id)
}

func (r *userRepository) SetAvatar(ctx context.Context, id string, avatar *string) error {
	return r.exec(ctx, `UPDATE users SET avatar=$1, updated_at=NOW() WHERE id=$2`, avatar, id)
}

func (r *userRepository) SetPasswordHash(ctx context.Context, id, hash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash=$1, updated_at=NOW() WHERE id=$2`, hash, id)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email)=lower($1)`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (r *userRepository) SetRefreshToken(ctx context.Context, id string, token *string) error {
	return r.exec(ctx, `UPDATE users SET refresh_token=$1, updated_at=NOW() WHERE id=$2`, token, id)
}

func (r *userRepository) RotateRefreshToken(ctx context.Context, id, current, next string) (bool, error) {
	const query = `
        UPDATE users SET refresh_token=$1, updated_at=NOW()
        WHERE id=$2 AND refresh_token=$3`
	cmd, err := r.pool.Exec(ctx, query, next, id, current)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

// exec runs a single-row update and reports a missing row as pgx.ErrNoRows.
func (r *userRepository) exec(ctx context.Context, query string, args ...any) error {
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Confirmed,
		&user.RefreshToken,
		&user.Avatar,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
