package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/algobucks/platform/internal/model"
)

// ProblemRepository handles problem data access.
type ProblemRepository struct {
	pool *pgxpool.Pool
}

// NewProblemRepository creates a new ProblemRepository.
func NewProblemRepository(pool *pgxpool.Pool) *ProblemRepository {
	return &ProblemRepository{pool: pool}
}

// GetByID retrieves a problem by its UUID.
func (r *ProblemRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Problem, error) {
	p := &model.Problem{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, slug, title, statement, difficulty, time_limit_ms, memory_limit_kb,
		        starter_code, sample_tests, created_at, updated_at
		 FROM problems WHERE id = $1`, id,
	).Scan(&p.ID, &p.Slug, &p.Title, &p.Statement, &p.Difficulty, &p.TimeLimitMS,
		&p.MemoryLimitKB, &p.StarterCode, &p.SampleTests, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetBySlug retrieves a problem by its URL slug.
func (r *ProblemRepository) GetBySlug(ctx context.Context, slug string) (*model.Problem, error) {
	p := &model.Problem{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, slug, title, statement, difficulty, time_limit_ms, memory_limit_kb,
		        starter_code, sample_tests, created_at, updated_at
		 FROM problems WHERE slug = $1`, slug,
	).Scan(&p.ID, &p.Slug, &p.Title, &p.Statement, &p.Difficulty, &p.TimeLimitMS,
		&p.MemoryLimitKB, &p.StarterCode, &p.SampleTests, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListPaginated retrieves problems with an optional difficulty filter.
func (r *ProblemRepository) ListPaginated(ctx context.Context, difficulty model.Difficulty, limit, offset int) ([]model.Problem, int, error) {
	baseQuery := ` FROM problems`
	var args []any
	if difficulty != "" {
		args = append(args, difficulty)
		baseQuery += fmt.Sprintf(` WHERE difficulty = $%d`, len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, slug, title, statement, difficulty, time_limit_ms, memory_limit_kb,
	                 starter_code, sample_tests, created_at, updated_at` +
		baseQuery +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var problems []model.Problem
	for rows.Next() {
		var p model.Problem
		if err := rows.Scan(&p.ID, &p.Slug, &p.Title, &p.Statement, &p.Difficulty, &p.TimeLimitMS,
			&p.MemoryLimitKB, &p.StarterCode, &p.SampleTests, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		problems = append(problems, p)
	}
	return problems, total, rows.Err()
}

// Create inserts a new problem.
func (r *ProblemRepository) Create(ctx context.Context, p *model.Problem) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO problems (slug, title, statement, difficulty, time_limit_ms,
		                       memory_limit_kb, starter_code, sample_tests)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		p.Slug, p.Title, p.Statement, p.Difficulty, p.TimeLimitMS,
		p.MemoryLimitKB, p.StarterCode, p.SampleTests,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// Update rewrites a problem's mutable fields.
func (r *ProblemRepository) Update(ctx context.Context, p *model.Problem) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE problems
		 SET title = $1, statement = $2, difficulty = $3, time_limit_ms = $4,
		     memory_limit_kb = $5, starter_code = $6, sample_tests = $7, updated_at = NOW()
		 WHERE id = $8`,
		p.Title, p.Statement, p.Difficulty, p.TimeLimitMS,
		p.MemoryLimitKB, p.StarterCode, p.SampleTests, p.ID)
	return err
}

// Delete removes a problem. Fails if the problem is attached to any
// contest (the FK cascades only from the contest side).
func (r *ProblemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	var attached bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM contest_problems WHERE problem_id = $1)`, id,
	).Scan(&attached); err != nil {
		return err
	}
	if attached {
		return fmt.Errorf("problem %s is attached to a contest", id)
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM problems WHERE id = $1`, id)
	return err
}
