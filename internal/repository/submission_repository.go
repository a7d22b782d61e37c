package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/algobucks/platform/internal/model"
)

// ProblemStanding is one contestant's best result on one problem.
type ProblemStanding struct {
	UserID      int       `json:"user_id"`
	Username    string    `json:"username"`
	ProblemID   uuid.UUID `json:"problem_id"`
	BestScore   int       `json:"best_score"`
	Attempts    int       `json:"attempts"`
	FirstSolved *int64    `json:"first_solved_ms,omitempty"`
}

// SubmissionRepository handles submission data access.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

// Create inserts an evaluated submission.
func (r *SubmissionRepository) Create(ctx context.Context, s *model.Submission) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO submissions (contest_id, problem_id, user_id, language, code,
		                          kind, verdict, passed, total, runtime_ms, score)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, submitted_at`,
		s.ContestID, s.ProblemID, s.UserID, s.Language, s.Code,
		s.Kind, s.Verdict, s.Passed, s.Total, s.RuntimeMS, s.Score,
	).Scan(&s.ID, &s.SubmittedAt)
}

// GetByID retrieves a submission by its UUID.
func (r *SubmissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Submission, error) {
	s := &model.Submission{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, contest_id, problem_id, user_id, language, code, kind, verdict,
		        passed, total, runtime_ms, score, submitted_at
		 FROM submissions WHERE id = $1`, id,
	).Scan(&s.ID, &s.ContestID, &s.ProblemID, &s.UserID, &s.Language, &s.Code, &s.Kind,
		&s.Verdict, &s.Passed, &s.Total, &s.RuntimeMS, &s.Score, &s.SubmittedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListByContestUser retrieves a contestant's recorded submissions in a
// contest, optionally narrowed to one problem. RUN rows are never
// stored so only DRY_RUN and SUBMIT appear here.
func (r *SubmissionRepository) ListByContestUser(ctx context.Context, contestID uuid.UUID, userID int, problemID *uuid.UUID, limit, offset int) ([]model.Submission, int, error) {
	baseQuery := ` FROM submissions WHERE contest_id = $1 AND user_id = $2`
	args := []any{contestID, userID}

	if problemID != nil {
		args = append(args, *problemID)
		baseQuery += fmt.Sprintf(` AND problem_id = $%d`, len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, contest_id, problem_id, user_id, language, code, kind, verdict,
	                 passed, total, runtime_ms, score, submitted_at` +
		baseQuery +
		fmt.Sprintf(` ORDER BY submitted_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var subs []model.Submission
	for rows.Next() {
		var s model.Submission
		if err := rows.Scan(&s.ID, &s.ContestID, &s.ProblemID, &s.UserID, &s.Language, &s.Code,
			&s.Kind, &s.Verdict, &s.Passed, &s.Total, &s.RuntimeMS, &s.Score, &s.SubmittedAt); err != nil {
			return nil, 0, err
		}
		subs = append(subs, s)
	}
	return subs, total, rows.Err()
}

// BestPerProblem aggregates every contestant's best SUBMIT score per
// problem for a contest. This is the raw material for standings.
func (r *SubmissionRepository) BestPerProblem(ctx context.Context, contestID uuid.UUID) ([]ProblemStanding, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.user_id, u.username, s.problem_id,
		        MAX(s.score) AS best_score,
		        COUNT(*) AS attempts,
		        (EXTRACT(EPOCH FROM MIN(s.submitted_at) FILTER (WHERE s.verdict = 'ACCEPTED')) * 1000)::BIGINT
		 FROM submissions s
		 JOIN users u ON s.user_id = u.id
		 WHERE s.contest_id = $1 AND s.kind = 'SUBMIT'
		 GROUP BY s.user_id, u.username, s.problem_id`, contestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var standings []ProblemStanding
	for rows.Next() {
		var ps ProblemStanding
		if err := rows.Scan(&ps.UserID, &ps.Username, &ps.ProblemID,
			&ps.BestScore, &ps.Attempts, &ps.FirstSolved); err != nil {
			return nil, err
		}
		standings = append(standings, ps)
	}
	return standings, rows.Err()
}

// CountSince returns the number of recorded submissions after a cutoff.
// Used by the admin dashboard.
func (r *SubmissionRepository) CountSince(ctx context.Context, contestID *uuid.UUID, interval string) (int, error) {
	query := `SELECT COUNT(*) FROM submissions WHERE submitted_at > NOW() - $1::INTERVAL`
	args := []any{interval}
	if contestID != nil {
		args = append(args, *contestID)
		query += fmt.Sprintf(` AND contest_id = $%d`, len(args))
	}
	var count int
	err := r.pool.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}
