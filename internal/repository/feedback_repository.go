package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/algobucks/platform/internal/model"
)

// FeedbackRepository handles post-contest feedback data access.
type FeedbackRepository struct {
	pool *pgxpool.Pool
}

// NewFeedbackRepository creates a new FeedbackRepository.
func NewFeedbackRepository(pool *pgxpool.Pool) *FeedbackRepository {
	return &FeedbackRepository{pool: pool}
}

// Upsert records a contestant's rating, overwriting any earlier one.
func (r *FeedbackRepository) Upsert(ctx context.Context, fb *model.ContestFeedback) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO contest_feedback (contest_id, user_id, rating, comments)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (contest_id, user_id) DO UPDATE
		 SET rating = EXCLUDED.rating, comments = EXCLUDED.comments, submitted_at = NOW()
		 RETURNING submitted_at`,
		fb.ContestID, fb.UserID, fb.Rating, fb.Comments,
	).Scan(&fb.SubmittedAt)
}

// ListByContest returns all feedback for a contest, newest first.
func (r *FeedbackRepository) ListByContest(ctx context.Context, contestID uuid.UUID) ([]model.ContestFeedback, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT contest_id, user_id, rating, comments, submitted_at
		 FROM contest_feedback
		 WHERE contest_id = $1
		 ORDER BY submitted_at DESC`, contestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.ContestFeedback
	for rows.Next() {
		var fb model.ContestFeedback
		if err := rows.Scan(&fb.ContestID, &fb.UserID, &fb.Rating, &fb.Comments, &fb.SubmittedAt); err != nil {
			return nil, err
		}
		items = append(items, fb)
	}
	return items, rows.Err()
}

// AverageRating returns the mean rating for a contest, or 0 when no
// feedback exists.
func (r *FeedbackRepository) AverageRating(ctx context.Context, contestID uuid.UUID) (float64, int, error) {
	var avg float64
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(AVG(rating), 0), COUNT(*)
		 FROM contest_feedback WHERE contest_id = $1`, contestID,
	).Scan(&avg, &count)
	return avg, count, err
}
