package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/algobucks/platform/internal/model"
)

// ContestRepository handles contest data access.
type ContestRepository struct {
	pool *pgxpool.Pool
}

// NewContestRepository creates a new ContestRepository.
func NewContestRepository(pool *pgxpool.Pool) *ContestRepository {
	return &ContestRepository{pool: pool}
}

const contestColumns = `id, slug, title, description, rules, prize_details,
	 start_time, end_time, duration_minutes, entry_fee, status, created_by,
	 (SELECT COUNT(*) FROM contest_problems cp WHERE cp.contest_id = contests.id),
	 created_at, updated_at`

func scanContest(row pgx.Row) (*model.Contest, error) {
	c := &model.Contest{}
	err := row.Scan(&c.ID, &c.Slug, &c.Title, &c.Description, &c.Rules, &c.PrizeDetails,
		&c.StartTime, &c.EndTime, &c.DurationMinutes, &c.EntryFee, &c.Status, &c.CreatedBy,
		&c.ProblemCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetByID retrieves a contest by its UUID.
func (r *ContestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Contest, error) {
	return scanContest(r.pool.QueryRow(ctx,
		`SELECT `+contestColumns+` FROM contests WHERE id = $1`, id))
}

// GetBySlug retrieves a contest by its URL slug.
func (r *ContestRepository) GetBySlug(ctx context.Context, slug string) (*model.Contest, error) {
	return scanContest(r.pool.QueryRow(ctx,
		`SELECT `+contestColumns+` FROM contests WHERE slug = $1`, slug))
}

// ListPaginated retrieves contests with an optional status filter.
// Pass an empty status to list all contests (admin view).
func (r *ContestRepository) ListPaginated(ctx context.Context, status model.ContestStatus, limit, offset int) ([]model.Contest, int, error) {
	baseQuery := ` FROM contests`
	var args []any
	if status != "" {
		args = append(args, status)
		baseQuery += fmt.Sprintf(` WHERE status = $%d`, len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + contestColumns + baseQuery +
		fmt.Sprintf(` ORDER BY start_time DESC NULLS LAST, created_at DESC LIMIT $%d OFFSET $%d`,
			len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var contests []model.Contest
	for rows.Next() {
		c, err := scanContest(rows)
		if err != nil {
			return nil, 0, err
		}
		contests = append(contests, *c)
	}
	return contests, total, rows.Err()
}

// ListPublished returns all contests with PUBLISHED status.
// Used for cache prewarming on application startup.
func (r *ContestRepository) ListPublished(ctx context.Context) ([]model.Contest, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+contestColumns+` FROM contests WHERE status = $1
		 ORDER BY created_at DESC`, model.ContestStatusPublished)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contests []model.Contest
	for rows.Next() {
		c, err := scanContest(rows)
		if err != nil {
			return nil, err
		}
		contests = append(contests, *c)
	}
	return contests, rows.Err()
}

// Create inserts a new contest in DRAFT status.
func (r *ContestRepository) Create(ctx context.Context, c *model.Contest) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO contests (slug, title, description, rules, prize_details,
		                       start_time, end_time, duration_minutes, entry_fee, status, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at, updated_at`,
		c.Slug, c.Title, c.Description, c.Rules, c.PrizeDetails,
		c.StartTime, c.EndTime, c.DurationMinutes, c.EntryFee, c.Status, c.CreatedBy,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// Update rewrites a contest's mutable fields.
func (r *ContestRepository) Update(ctx context.Context, c *model.Contest) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE contests
		 SET title = $1, description = $2, rules = $3, prize_details = $4,
		     start_time = $5, end_time = $6, duration_minutes = $7, entry_fee = $8,
		     updated_at = NOW()
		 WHERE id = $9`,
		c.Title, c.Description, c.Rules, c.PrizeDetails,
		c.StartTime, c.EndTime, c.DurationMinutes, c.EntryFee, c.ID)
	return err
}

// UpdateStatus updates a contest's status.
func (r *ContestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ContestStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE contests SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id)
	return err
}

// AttachProblem links a problem into a contest's ordered set.
func (r *ContestRepository) AttachProblem(ctx context.Context, contestID, problemID uuid.UUID, orderNum, points int) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO contest_problems (contest_id, problem_id, order_num, points)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (contest_id, problem_id) DO UPDATE
		 SET order_num = EXCLUDED.order_num, points = EXCLUDED.points`,
		contestID, problemID, orderNum, points)
	return err
}

// DetachProblem removes a problem from a contest.
func (r *ContestRepository) DetachProblem(ctx context.Context, contestID, problemID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM contest_problems WHERE contest_id = $1 AND problem_id = $2`,
		contestID, problemID)
	return err
}

// ReorderProblems rewrites order_num for the given IDs in slice order.
// IDs not attached to the contest are ignored. Single UNNEST update, no
// per-row round trips.
func (r *ContestRepository) ReorderProblems(ctx context.Context, contestID uuid.UUID, problemIDs []uuid.UUID) error {
	orders := make([]int, len(problemIDs))
	for i := range problemIDs {
		orders[i] = i
	}

	query := `
		UPDATE contest_problems AS cp
		SET order_num = t.order_num
		FROM (
			SELECT u.problem_id, u.order_num
			FROM UNNEST($2::uuid[], $3::int[]) AS u (problem_id, order_num)
		) AS t
		WHERE cp.contest_id = $1
		  AND cp.problem_id = t.problem_id
	`

	_, err := r.pool.Exec(ctx, query, contestID, problemIDs, orders)
	return err
}

// ListProblems returns a contest's full problem set in display order.
func (r *ContestRepository) ListProblems(ctx context.Context, contestID uuid.UUID) ([]model.ProblemForContestant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.slug, p.title, p.statement, p.difficulty,
		        p.time_limit_ms, p.memory_limit_kb, p.starter_code, p.sample_tests,
		        cp.order_num, cp.points
		 FROM contest_problems cp
		 JOIN problems p ON cp.problem_id = p.id
		 WHERE cp.contest_id = $1
		 ORDER BY cp.order_num ASC`, contestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var problems []model.ProblemForContestant
	for rows.Next() {
		var p model.ProblemForContestant
		if err := rows.Scan(&p.ID, &p.Slug, &p.Title, &p.Statement, &p.Difficulty,
			&p.TimeLimitMS, &p.MemoryLimitKB, &p.StarterCode, &p.SampleTests,
			&p.OrderNum, &p.Points); err != nil {
			return nil, err
		}
		problems = append(problems, p)
	}
	return problems, rows.Err()
}

// ListProblemIDs returns just the problem IDs of a contest in display
// order, for responses that carry references instead of full objects.
func (r *ContestRepository) ListProblemIDs(ctx context.Context, contestID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT problem_id FROM contest_problems WHERE contest_id = $1 ORDER BY order_num ASC`,
		contestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetProblemPoints returns the points value of one contest problem.
func (r *ContestRepository) GetProblemPoints(ctx context.Context, contestID, problemID uuid.UUID) (int, error) {
	var points int
	err := r.pool.QueryRow(ctx,
		`SELECT points FROM contest_problems WHERE contest_id = $1 AND problem_id = $2`,
		contestID, problemID,
	).Scan(&points)
	return points, err
}
