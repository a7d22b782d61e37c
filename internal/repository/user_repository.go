package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/algobucks/platform/internal/model"
)

// ErrInsufficientCodecoins is returned when a debit would push a
// contestant's balance below zero.
var ErrInsufficientCodecoins = errors.New("insufficient codecoins")

// UserRepository handles contestant account data access.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByID retrieves a user by numeric ID.
func (r *UserRepository) GetByID(ctx context.Context, id int) (*model.User, error) {
	u := &model.User{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, username, full_name, password_hash, codecoins, created_at, updated_at
		 FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.Username, &u.FullName, &u.PasswordHash, &u.Codecoins, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByEmail retrieves a user by email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u := &model.User{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, username, full_name, password_hash, codecoins, created_at, updated_at
		 FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Email, &u.Username, &u.FullName, &u.PasswordHash, &u.Codecoins, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create inserts a new user account.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO users (email, username, full_name, password_hash, codecoins)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		u.Email, u.Username, u.FullName, u.PasswordHash, u.Codecoins,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}

// AdjustCodecoins atomically credits (positive delta) or debits
// (negative delta) a contestant's balance. A debit that would go
// negative does not apply and returns ErrInsufficientCodecoins.
func (r *UserRepository) AdjustCodecoins(ctx context.Context, userID int, delta int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET codecoins = codecoins + $1, updated_at = NOW()
		 WHERE id = $2 AND codecoins + $1 >= 0`,
		delta, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Distinguish "no such user" from "balance too low".
		var exists bool
		if err := r.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return pgx.ErrNoRows
		}
		return ErrInsufficientCodecoins
	}
	return nil
}

// Update modifies a user's profile fields.
func (r *UserRepository) Update(ctx context.Context, u *model.User) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET email = $1, username = $2, full_name = $3, updated_at = NOW()
		 WHERE id = $4`,
		u.Email, u.Username, u.FullName, u.ID)
	return err
}

// UpdatePassword replaces a user's password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`,
		passwordHash, id)
	return err
}

// Delete removes a user account.
func (r *UserRepository) Delete(ctx context.Context, id int) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

// ListPaginated retrieves users with optional username/email search.
func (r *UserRepository) ListPaginated(ctx context.Context, search string, limit, offset int) ([]model.User, int, error) {
	baseQuery := ` FROM users`
	var args []any
	if search != "" {
		args = append(args, "%"+search+"%")
		baseQuery += fmt.Sprintf(` WHERE username ILIKE $%d OR email ILIKE $%d`, len(args), len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, email, username, full_name, password_hash, codecoins, created_at, updated_at` +
		baseQuery +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Username, &u.FullName, &u.PasswordHash,
			&u.Codecoins, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}
