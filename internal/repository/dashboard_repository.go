package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/algobucks/platform/internal/model"
)

// DashboardRepository handles admin dashboard data access.
type DashboardRepository struct {
	pool *pgxpool.Pool
}

// NewDashboardRepository creates a new DashboardRepository.
func NewDashboardRepository(pool *pgxpool.Pool) *DashboardRepository {
	return &DashboardRepository{pool: pool}
}

// GetSummaryCounts retrieves the high-level metrics for the dashboard.
func (r *DashboardRepository) GetSummaryCounts(ctx context.Context) (totalUsers, totalContests, totalProblems, totalSubmissions int, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM contests),
			(SELECT COUNT(*) FROM problems),
			(SELECT COUNT(*) FROM submissions WHERE kind = 'SUBMIT')`,
	).Scan(&totalUsers, &totalContests, &totalProblems, &totalSubmissions)
	return
}

// GetContestStatusCounts retrieves the distribution of contests by status.
func (r *DashboardRepository) GetContestStatusCounts(ctx context.Context) (map[model.ContestStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM contests GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.ContestStatus]int)
	for rows.Next() {
		var status model.ContestStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// DashboardUpcomingContest represents minimal data for upcoming contests.
type DashboardUpcomingContest struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	StartTime   *time.Time `json:"start_time"`
	Duration    int        `json:"duration_minutes"`
	Registrants int        `json:"registrants"`
}

// GetUpcomingContests retrieves the next N scheduled contests that are PUBLISHED.
func (r *DashboardRepository) GetUpcomingContests(ctx context.Context, limit int) ([]DashboardUpcomingContest, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.title, c.start_time, c.duration_minutes,
		        (SELECT COUNT(*) FROM contest_registrations cr WHERE cr.contest_id = c.id)
		 FROM contests c
		 WHERE c.status = $1 AND c.start_time > NOW()
		 ORDER BY c.start_time ASC LIMIT $2`,
		model.ContestStatusPublished, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contests []DashboardUpcomingContest
	for rows.Next() {
		var c DashboardUpcomingContest
		if err := rows.Scan(&c.ID, &c.Title, &c.StartTime, &c.Duration, &c.Registrants); err != nil {
			return nil, err
		}
		contests = append(contests, c)
	}
	if contests == nil {
		contests = []DashboardUpcomingContest{}
	}
	return contests, rows.Err()
}

// DashboardRecentContest represents minimal data for finished contests,
// averaging contestant results.
type DashboardRecentContest struct {
	ID               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	EndDateTime      *time.Time `json:"end_date_time"`
	ParticipantCount int        `json:"participant_count"`
	AverageScore     *float64   `json:"average_score"`
	AverageRating    *float64   `json:"average_rating"`
}

// GetRecentContestResults retrieves the last N archived contests with
// participation and feedback stats.
func (r *DashboardRepository) GetRecentContestResults(ctx context.Context, limit int) ([]DashboardRecentContest, error) {
	query := `
		SELECT
			c.id,
			c.title,
			COALESCE(c.end_time, c.updated_at) as end_time,
			COUNT(DISTINCT cs.id) as participant_count,
			AVG(sub.score) as average_score,
			(SELECT AVG(rating) FROM contest_feedback cf WHERE cf.contest_id = c.id) as average_rating
		FROM contests c
		LEFT JOIN contest_sessions cs ON c.id = cs.contest_id
		LEFT JOIN submissions sub ON c.id = sub.contest_id AND sub.kind = 'SUBMIT'
		WHERE c.status = $1
		GROUP BY c.id, c.title, end_time
		ORDER BY end_time DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, model.ContestStatusArchived, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []DashboardRecentContest
	for rows.Next() {
		var rc DashboardRecentContest
		if err := rows.Scan(&rc.ID, &rc.Title, &rc.EndDateTime, &rc.ParticipantCount,
			&rc.AverageScore, &rc.AverageRating); err != nil {
			return nil, err
		}
		results = append(results, rc)
	}
	if results == nil {
		results = []DashboardRecentContest{}
	}
	return results, rows.Err()
}
