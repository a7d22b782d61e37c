package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/algobucks/platform/internal/model"
)

type AdminUserService struct {
	pool *pgxpool.Pool
}

func NewAdminUserService(pool *pgxpool.Pool) *AdminUserService {
	return &AdminUserService{pool: pool}
}

// ListAdmins retrieves a paginated list of admins.
func (s *AdminUserService) ListAdmins(ctx context.Context, page, perPage int) ([]model.Admin, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	offset := (page - 1) * perPage

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM admins").Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, email, name, created_at, updated_at
		 FROM admins
		 ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		perPage, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	admins := []model.Admin{}
	for rows.Next() {
		var a model.Admin
		if err := rows.Scan(&a.ID, &a.Email, &a.Name, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, 0, err
		}
		admins = append(admins, a)
	}

	return admins, total, nil
}

// CreateAdmin creates a new admin user.
func (s *AdminUserService) CreateAdmin(ctx context.Context, email, name, password string) (*model.Admin, error) {
	// Check if email exists
	var exists bool
	err := s.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM admins WHERE email = $1)", email).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.New("email already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var admin model.Admin
	err = s.pool.QueryRow(ctx,
		"INSERT INTO admins (email, name, password_hash) VALUES ($1, $2, $3) RETURNING id, email, name, created_at, updated_at",
		email, name, string(hashedPassword),
	).Scan(&admin.ID, &admin.Email, &admin.Name, &admin.CreatedAt, &admin.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &admin, nil
}

// UpdateAdmin updates an existing admin user.
func (s *AdminUserService) UpdateAdmin(ctx context.Context, id int, email, name, password string) (*model.Admin, error) {
	// Check if admin exists
	var exists bool
	err := s.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM admins WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.New("admin not found")
	}

	// Check email uniqueness if changed
	var emailExists bool
	err = s.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM admins WHERE email = $1 AND id != $2)", email, id).Scan(&emailExists)
	if err != nil {
		return nil, err
	}
	if emailExists {
		return nil, errors.New("email already registered")
	}

	var errUpdate error
	if password != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		_, errUpdate = s.pool.Exec(ctx,
			"UPDATE admins SET email = $1, name = $2, password_hash = $3, updated_at = NOW() WHERE id = $4",
			email, name, string(hashedPassword), id,
		)
	} else {
		_, errUpdate = s.pool.Exec(ctx,
			"UPDATE admins SET email = $1, name = $2, updated_at = NOW() WHERE id = $3",
			email, name, id,
		)
	}
	if errUpdate != nil {
		return nil, errUpdate
	}

	// Return updated admin
	var admin model.Admin
	err = s.pool.QueryRow(ctx,
		"SELECT id, email, name, created_at, updated_at FROM admins WHERE id = $1",
		id,
	).Scan(&admin.ID, &admin.Email, &admin.Name, &admin.CreatedAt, &admin.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &admin, nil
}

// DeleteAdmin deletes an admin user.
func (s *AdminUserService) DeleteAdmin(ctx context.Context, id int) error {
	res, err := s.pool.Exec(ctx, "DELETE FROM admins WHERE id = $1", id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return errors.New("admin not found")
	}
	return nil
}
