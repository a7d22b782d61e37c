package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/algobucks/platform/internal/model"
)

// ClarificationRepository handles clarification data access.
type ClarificationRepository struct {
	pool *pgxpool.Pool
}

// NewClarificationRepository creates a new ClarificationRepository.
func NewClarificationRepository(pool *pgxpool.Pool) *ClarificationRepository {
	return &ClarificationRepository{pool: pool}
}

// Create inserts a contestant question. A nil UserID makes it an admin
// broadcast visible to everyone.
func (r *ClarificationRepository) Create(ctx context.Context, cl *model.Clarification) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO clarifications (contest_id, user_id, question, answer, answered_by, answered_at)
		 VALUES ($1, $2, $3, $4, $5, CASE WHEN $4::TEXT IS NULL THEN NULL ELSE NOW() END)
		 RETURNING id, created_at`,
		cl.ContestID, cl.UserID, cl.Question, cl.Answer, cl.AnsweredBy,
	).Scan(&cl.ID, &cl.CreatedAt)
}

// GetByID retrieves a clarification.
func (r *ClarificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Clarification, error) {
	cl := &model.Clarification{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, contest_id, user_id, question, answer, answered_by, created_at, answered_at
		 FROM clarifications WHERE id = $1`, id,
	).Scan(&cl.ID, &cl.ContestID, &cl.UserID, &cl.Question, &cl.Answer,
		&cl.AnsweredBy, &cl.CreatedAt, &cl.AnsweredAt)
	if err != nil {
		return nil, err
	}
	return cl, nil
}

// Answer records an admin's answer to a pending question.
func (r *ClarificationRepository) Answer(ctx context.Context, id uuid.UUID, adminID int, answer string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE clarifications
		 SET answer = $1, answered_by = $2, answered_at = NOW()
		 WHERE id = $3`,
		answer, adminID, id)
	return err
}

// ListForUser returns a contestant's own questions plus every answered
// broadcast for the contest, newest first.
func (r *ClarificationRepository) ListForUser(ctx context.Context, contestID uuid.UUID, userID int) ([]model.Clarification, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, contest_id, user_id, question, answer, answered_by, created_at, answered_at
		 FROM clarifications
		 WHERE contest_id = $1 AND (user_id = $2 OR user_id IS NULL)
		 ORDER BY created_at DESC`, contestID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectClarifications(rows)
}

// ListByContest returns every clarification for a contest (admin view),
// unanswered first, then newest first.
func (r *ClarificationRepository) ListByContest(ctx context.Context, contestID uuid.UUID) ([]model.Clarification, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, contest_id, user_id, question, answer, answered_by, created_at, answered_at
		 FROM clarifications
		 WHERE contest_id = $1
		 ORDER BY (answer IS NULL) DESC, created_at DESC`, contestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectClarifications(rows)
}

func collectClarifications(rows pgx.Rows) ([]model.Clarification, error) {
	var items []model.Clarification
	for rows.Next() {
		var cl model.Clarification
		if err := rows.Scan(&cl.ID, &cl.ContestID, &cl.UserID, &cl.Question, &cl.Answer,
			&cl.AnsweredBy, &cl.CreatedAt, &cl.AnsweredAt); err != nil {
			return nil, err
		}
		items = append(items, cl)
	}
	return items, rows.Err()
}
