package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// ActivityEntry is a single row from the contest activity feed.
type ActivityEntry struct {
	ID         int64           `json:"id"`
	UserID     int             `json:"user_id"`
	Kind       string          `json:"kind"`
	Detail     json.RawMessage `json:"detail"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// MonitorRepository provides data access for the live contest
// monitoring feature. It combines PostgreSQL (session state) and Redis
// (cached standings).
type MonitorRepository struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
}

// NewMonitorRepository creates a new MonitorRepository.
func NewMonitorRepository(pool *pgxpool.Pool, rdb *redis.Client) *MonitorRepository {
	return &MonitorRepository{pool: pool, rdb: rdb}
}

// GetActiveUserIDs returns all user IDs still inside the problems panel
// for the given contest.
func (r *MonitorRepository) GetActiveUserIDs(ctx context.Context, contestID uuid.UUID) ([]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id FROM contest_sessions WHERE contest_id = $1 AND completed_at IS NULL`,
		contestID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetSubmissionCounts returns the number of recorded submissions per
// contestant for the given contest.
func (r *MonitorRepository) GetSubmissionCounts(ctx context.Context, contestID uuid.UUID) (map[int]int64, error) {
	result := make(map[int]int64)

	rows, err := r.pool.Query(ctx,
		`SELECT user_id, COUNT(*)
		 FROM submissions
		 WHERE contest_id = $1 AND kind = 'SUBMIT'
		 GROUP BY user_id`,
		contestID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var uid int
		var count int64
		if err := rows.Scan(&uid, &count); err != nil {
			return nil, err
		}
		result[uid] = count
	}

	return result, rows.Err()
}

// GetAcceptedCounts returns the number of solved problems per
// contestant for the given contest.
func (r *MonitorRepository) GetAcceptedCounts(ctx context.Context, contestID uuid.UUID) (map[int]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, COUNT(DISTINCT problem_id)
		 FROM submissions
		 WHERE contest_id = $1 AND kind = 'SUBMIT' AND verdict = 'ACCEPTED'
		 GROUP BY user_id`,
		contestID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int64)
	for rows.Next() {
		var uid int
		var count int64
		if err := rows.Scan(&uid, &count); err != nil {
			return nil, err
		}
		counts[uid] = count
	}

	return counts, rows.Err()
}

// GetRecentActivity returns the newest activity feed rows for a contest,
// newest first.
func (r *MonitorRepository) GetRecentActivity(ctx context.Context, contestID uuid.UUID, limit int) ([]ActivityEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, kind, detail, recorded_at
		 FROM contest_activity
		 WHERE contest_id = $1
		 ORDER BY recorded_at DESC, id DESC
		 LIMIT $2`,
		contestID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ActivityEntry
	for rows.Next() {
		var e ActivityEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Kind, &e.Detail, &e.RecordedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetUserNames returns id → username for the given user IDs.
func (r *MonitorRepository) GetUserNames(ctx context.Context, ids []int) (map[int]string, error) {
	if len(ids) == 0 {
		return map[int]string{}, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, username FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make(map[int]string)
	for rows.Next() {
		var id int
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}
