package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/algobucks/platform/internal/model"
)

// RegistrationRepository handles contest registration data access.
type RegistrationRepository struct {
	pool *pgxpool.Pool
}

// NewRegistrationRepository creates a new RegistrationRepository.
func NewRegistrationRepository(pool *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{pool: pool}
}

// Register records a contestant's entry. Returns false if the user was
// already registered (no row inserted).
func (r *RegistrationRepository) Register(ctx context.Context, contestID uuid.UUID, userID int) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO contest_registrations (contest_id, user_id)
		 VALUES ($1, $2)
		 ON CONFLICT (contest_id, user_id) DO NOTHING`,
		contestID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Unregister removes a registration. Returns false if none existed.
func (r *RegistrationRepository) Unregister(ctx context.Context, contestID uuid.UUID, userID int) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM contest_registrations WHERE contest_id = $1 AND user_id = $2`,
		contestID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// IsRegistered reports whether a contestant has registered.
func (r *RegistrationRepository) IsRegistered(ctx context.Context, contestID uuid.UUID, userID int) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM contest_registrations WHERE contest_id = $1 AND user_id = $2)`,
		contestID, userID,
	).Scan(&exists)
	return exists, err
}

// CountByContest returns the number of registered contestants.
func (r *RegistrationRepository) CountByContest(ctx context.Context, contestID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM contest_registrations WHERE contest_id = $1`,
		contestID,
	).Scan(&count)
	return count, err
}

// ListByUser returns all registrations for a contestant, newest first.
func (r *RegistrationRepository) ListByUser(ctx context.Context, userID int) ([]model.ContestRegistration, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT contest_id, user_id, registered_at
		 FROM contest_registrations
		 WHERE user_id = $1
		 ORDER BY registered_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regs []model.ContestRegistration
	for rows.Next() {
		var reg model.ContestRegistration
		if err := rows.Scan(&reg.ContestID, &reg.UserID, &reg.RegisteredAt); err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}
