package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/algobucks/platform/internal/model"
)

// ContestantResult combines user data with session progress for the
// admin monitor and results views.
type ContestantResult struct {
	UserID        int                `json:"user_id"`
	Username      string             `json:"username"`
	FullName      string             `json:"full_name"`
	Phase         model.ContestPhase `json:"phase"`
	CurrentIndex  int                `json:"current_index"`
	AutoSubmitted bool               `json:"auto_submitted"`
	StartedAt     *time.Time         `json:"started_at"`
	CompletedAt   *time.Time         `json:"completed_at"`
	Score         int                `json:"score"`
	Solved        int                `json:"solved"`
}

// ContestSessionRepository handles contest session data access.
type ContestSessionRepository struct {
	pool *pgxpool.Pool
}

// NewContestSessionRepository creates a new ContestSessionRepository.
func NewContestSessionRepository(pool *pgxpool.Pool) *ContestSessionRepository {
	return &ContestSessionRepository{pool: pool}
}

// GetByContestAndUser retrieves a session for one contest-user pair.
func (r *ContestSessionRepository) GetByContestAndUser(ctx context.Context, contestID uuid.UUID, userID int) (*model.ContestSession, error) {
	s := &model.ContestSession{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, contest_id, user_id, started_at, completed_at, phase, current_index, auto_submitted
		 FROM contest_sessions
		 WHERE contest_id = $1 AND user_id = $2`, contestID, userID,
	).Scan(&s.ID, &s.ContestID, &s.UserID, &s.StartedAt, &s.CompletedAt,
		&s.Phase, &s.CurrentIndex, &s.AutoSubmitted)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a new contest session (contestant enters the contest).
// Joining twice is a no-op thanks to the unique constraint.
func (r *ContestSessionRepository) Create(ctx context.Context, s *model.ContestSession) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO contest_sessions (contest_id, user_id, phase)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (contest_id, user_id) DO NOTHING
		 RETURNING id, started_at`,
		s.ContestID, s.UserID, model.PhaseGuidelines,
	).Scan(&s.ID, &s.StartedAt)
}

// UpdatePhase advances a session's phase and problem cursor.
func (r *ContestSessionRepository) UpdatePhase(ctx context.Context, contestID uuid.UUID, userID int, phase model.ContestPhase, currentIndex int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE contest_sessions
		 SET phase = $1, current_index = $2
		 WHERE contest_id = $3 AND user_id = $4`,
		phase, currentIndex, contestID, userID)
	return err
}

// Complete marks a session as completed.
func (r *ContestSessionRepository) Complete(ctx context.Context, contestID uuid.UUID, userID int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE contest_sessions
		 SET phase = $1, completed_at = NOW()
		 WHERE contest_id = $2 AND user_id = $3 AND completed_at IS NULL`,
		model.PhaseCompleted, contestID, userID)
	return err
}

// MarkAutoSubmitted flags a session whose final code arrived via the
// auto-submit queue rather than an explicit submit.
func (r *ContestSessionRepository) MarkAutoSubmitted(ctx context.Context, contestID uuid.UUID, userID int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE contest_sessions SET auto_submitted = TRUE
		 WHERE contest_id = $1 AND user_id = $2`,
		contestID, userID)
	return err
}

// ListByUser retrieves all sessions for a given contestant.
func (r *ContestSessionRepository) ListByUser(ctx context.Context, userID int) ([]model.ContestSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, contest_id, user_id, started_at, completed_at, phase, current_index, auto_submitted
		 FROM contest_sessions
		 WHERE user_id = $1
		 ORDER BY started_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.ContestSession
	for rows.Next() {
		var s model.ContestSession
		if err := rows.Scan(&s.ID, &s.ContestID, &s.UserID, &s.StartedAt, &s.CompletedAt,
			&s.Phase, &s.CurrentIndex, &s.AutoSubmitted); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// ListByContest retrieves contestant results for a contest with optional
// phase filter and pagination. Score and solved counts come from the
// best SUBMIT row per problem.
func (r *ContestSessionRepository) ListByContest(ctx context.Context, contestID uuid.UUID, page, perPage int, phase *model.ContestPhase) ([]ContestantResult, int64, error) {
	offset := (page - 1) * perPage

	whereClause := ` WHERE cs.contest_id = $1`
	args := []any{contestID}

	if phase != nil && *phase != "" {
		args = append(args, *phase)
		whereClause += fmt.Sprintf(" AND cs.phase = $%d", len(args))
	}

	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM contest_sessions cs`+whereClause, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT
			u.id, u.username, u.full_name,
			cs.phase, cs.current_index, cs.auto_submitted, cs.started_at, cs.completed_at,
			COALESCE(sc.score, 0), COALESCE(sc.solved, 0)
		FROM contest_sessions cs
		JOIN users u ON cs.user_id = u.id
		LEFT JOIN LATERAL (
			SELECT SUM(best.score) AS score, COUNT(*) FILTER (WHERE best.score > 0) AS solved
			FROM (
				SELECT MAX(s.score) AS score
				FROM submissions s
				WHERE s.contest_id = cs.contest_id AND s.user_id = cs.user_id AND s.kind = 'SUBMIT'
				GROUP BY s.problem_id
			) best
		) sc ON TRUE
		` + whereClause + `
		ORDER BY COALESCE(sc.score, 0) DESC, u.username ASC
		LIMIT $` + fmt.Sprintf("%d", len(args)+1) + ` OFFSET $` + fmt.Sprintf("%d", len(args)+2) + `
	`
	args = append(args, perPage, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []ContestantResult
	for rows.Next() {
		var cr ContestantResult
		if err := rows.Scan(
			&cr.UserID, &cr.Username, &cr.FullName,
			&cr.Phase, &cr.CurrentIndex, &cr.AutoSubmitted, &cr.StartedAt, &cr.CompletedAt,
			&cr.Score, &cr.Solved,
		); err != nil {
			return nil, 0, err
		}
		results = append(results, cr)
	}

	return results, total, nil
}
