package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/algobucks/platform/internal/config"
	"github.com/algobucks/platform/internal/judge"
	"github.com/algobucks/platform/internal/model"
)

// AutoSubmitWorker consumes the auto-submit queue. Every payload upserts
// the contestant's draft snapshot; payloads arriving after the session
// deadline additionally judge the draft as a final scored submission.
type AutoSubmitWorker struct {
	pool  *pgxpool.Pool
	rdb   *redis.Client
	judge *judge.Client
	log   zerolog.Logger
}

// NewAutoSubmitWorker creates a new AutoSubmitWorker.
func NewAutoSubmitWorker(pool *pgxpool.Pool, rdb *redis.Client, judgeClient *judge.Client, log zerolog.Logger) *AutoSubmitWorker {
	return &AutoSubmitWorker{
		pool:  pool,
		rdb:   rdb,
		judge: judgeClient,
		log:   log.With().Str("component", "autosubmit_worker").Logger(),
	}
}

type autoSubmitPayload struct {
	ContestID string `json:"contest_id"`
	UserID    int    `json:"user_id"`
	ProblemID string `json:"problem_id"`
	Language  string `json:"language"`
	UserCode  string `json:"user_code"`
	At        int64  `json:"at"`
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *AutoSubmitWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *AutoSubmitWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.AutoSubmitQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			if err.Error() != "redis: nil" {
				w.log.Error().Err(err).Msg("BLPop error")
			}
		}
		return
	}

	if len(result) < 2 {
		return
	}

	var payload autoSubmitPayload
	if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return
	}

	if err := w.process(ctx, &payload); err != nil {
		w.log.Error().Err(err).
			Int("user_id", payload.UserID).
			Str("contest_id", payload.ContestID).
			Msg("Process error, retrying in 5s")
		// Push back to queue for retry.
		w.rdb.RPush(ctx, config.WorkerKey.AutoSubmitQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *AutoSubmitWorker) process(ctx context.Context, p *autoSubmitPayload) error {
	contestID, err := uuid.Parse(p.ContestID)
	if err != nil {
		w.log.Error().Str("contest_id", p.ContestID).Msg("Bad contest ID in payload, dropping")
		return nil
	}
	problemID, err := uuid.Parse(p.ProblemID)
	if err != nil {
		w.log.Error().Str("problem_id", p.ProblemID).Msg("Bad problem ID in payload, dropping")
		return nil
	}

	// UPSERT the draft — creates or updates without locking.
	_, err = w.pool.Exec(ctx,
		`INSERT INTO draft_snapshots (contest_id, user_id, problem_id, language, code)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (contest_id, user_id, problem_id, language) DO UPDATE
		 SET code = EXCLUDED.code, saved_at = NOW()`,
		contestID, p.UserID, problemID, p.Language, p.UserCode,
	)
	if err != nil {
		return err
	}

	ended, err := w.sessionEnded(ctx, contestID, p.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// No session (or no contest) — the draft is saved, nothing to submit.
			return nil
		}
		return err
	}
	if !ended {
		return nil
	}

	return w.finalSubmit(ctx, contestID, problemID, p)
}

// sessionEnded reports whether the contestant's clock has run out and the
// session still needs a final submission.
func (w *AutoSubmitWorker) sessionEnded(ctx context.Context, contestID uuid.UUID, userID int) (bool, error) {
	var (
		endTime         *time.Time
		durationMinutes int
		startedAt       time.Time
		completedAt     *time.Time
		autoSubmitted   bool
	)
	err := w.pool.QueryRow(ctx,
		`SELECT c.end_time, c.duration_minutes, s.started_at, s.completed_at, s.auto_submitted
		 FROM contest_sessions s
		 JOIN contests c ON c.id = s.contest_id
		 WHERE s.contest_id = $1 AND s.user_id = $2`,
		contestID, userID,
	).Scan(&endTime, &durationMinutes, &startedAt, &completedAt, &autoSubmitted)
	if err != nil {
		return false, err
	}

	if completedAt != nil || autoSubmitted {
		return false, nil
	}

	var deadline time.Time
	switch {
	case endTime != nil:
		deadline = *endTime
	case durationMinutes > 0:
		start := startedAt
		startKey := config.CacheKey.ContestTimerStartKey(contestID.String(), userID)
		if ms, err := w.rdb.Get(ctx, startKey).Int64(); err == nil {
			start = time.UnixMilli(ms)
		}
		deadline = start.Add(time.Duration(durationMinutes) * time.Minute)
	default:
		return false, nil
	}

	return time.Now().After(deadline), nil
}

// finalSubmit judges the draft, records a scored submission and closes
// the session.
func (w *AutoSubmitWorker) finalSubmit(ctx context.Context, contestID, problemID uuid.UUID, p *autoSubmitPayload) error {
	res, err := w.judge.Evaluate(ctx, &judge.EvaluateRequest{
		ProblemID: problemID,
		Language:  p.Language,
		Code:      p.UserCode,
		Mode:      judge.ModeFull,
	})
	if err != nil {
		if errors.Is(err, judge.ErrUnavailable) {
			return err // transient, requeue
		}
		w.log.Warn().Err(err).
			Str("contest_id", contestID.String()).
			Int("user_id", p.UserID).
			Msg("Judge rejected auto-submit, recording JUDGE_ERROR")
		res = &judge.EvaluateResponse{Verdict: model.VerdictJudgeError}
	}

	score := 0
	if res.Verdict == model.VerdictAccepted {
		if err := w.pool.QueryRow(ctx,
			`SELECT points FROM contest_problems WHERE contest_id = $1 AND problem_id = $2`,
			contestID, problemID,
		).Scan(&score); err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
	}

	var submissionID uuid.UUID
	err = w.pool.QueryRow(ctx,
		`INSERT INTO submissions (contest_id, problem_id, user_id, language, code,
		                          kind, verdict, passed, total, runtime_ms, score)
		 VALUES ($1, $2, $3, $4, $5, 'SUBMIT', $6, $7, $8, $9, $10)
		 RETURNING id`,
		contestID, problemID, p.UserID, p.Language, p.UserCode,
		res.Verdict, res.Passed, res.Total, res.RuntimeMS, score,
	).Scan(&submissionID)
	if err != nil {
		return err
	}

	_, err = w.pool.Exec(ctx,
		`UPDATE contest_sessions
		 SET auto_submitted = TRUE, completed_at = NOW(), phase = 'completed'
		 WHERE contest_id = $1 AND user_id = $2 AND completed_at IS NULL`,
		contestID, p.UserID,
	)
	if err != nil {
		return err
	}

	// Session is closed; the live draft buffer has served its purpose.
	w.rdb.Del(ctx, config.CacheKey.UserDraftsKey(contestID.String(), p.UserID))

	if score > 0 {
		scorePayload, _ := json.Marshal(map[string]interface{}{
			"contest_id": contestID.String(),
			"user_id":    p.UserID,
			"problem_id": problemID.String(),
			"score":      score,
			"at":         p.At,
		})
		w.rdb.RPush(ctx, config.WorkerKey.PersistScoresQueue, scorePayload)
	}

	activity, _ := json.Marshal(map[string]interface{}{
		"contest_id": contestID.String(),
		"user_id":    p.UserID,
		"kind":       "auto_submitted",
		"detail":     map[string]interface{}{"verdict": res.Verdict},
		"at":         time.Now().UnixMilli(),
	})
	w.rdb.RPush(ctx, config.WorkerKey.ActivityQueue, activity)
	w.rdb.Publish(ctx, config.CacheKey.ContestMonitorChannel(contestID.String()), activity)

	w.log.Info().
		Str("contest_id", contestID.String()).
		Int("user_id", p.UserID).
		Str("submission_id", submissionID.String()).
		Str("verdict", string(res.Verdict)).
		Msg("Auto-submitted expired session")
	return nil
}

// drain processes all remaining items in the queue before shutdown.
func (w *AutoSubmitWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.AutoSubmitQueue).Result()
		if err != nil {
			break
		}

		var payload autoSubmitPayload
		if err := json.Unmarshal([]byte(result), &payload); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.process(ctx, &payload); err != nil {
			w.log.Error().Err(err).Msg("Drain process error")
			w.rdb.RPush(ctx, config.WorkerKey.AutoSubmitQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
