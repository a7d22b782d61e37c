package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/algobucks/platform/internal/config"
	"github.com/algobucks/platform/internal/service"
	ws "github.com/algobucks/platform/internal/websocket"
)

const (
	ScoreBatchSize    = 50
	ScoreBatchTimeout = 2 * time.Second
	ScorePollTimeout  = 1 * time.Second
)

// ScoringWorker consumes accepted-score payloads and keeps the cached
// standings fresh. Submission rows are already durable before anything
// reaches this queue; the worker only rebuilds caches and notifies.
type ScoringWorker struct {
	rdb          *redis.Client
	leaderboards *service.LeaderboardService
	log          zerolog.Logger
}

func NewScoringWorker(rdb *redis.Client, leaderboards *service.LeaderboardService, log zerolog.Logger) *ScoringWorker {
	return &ScoringWorker{
		rdb:          rdb,
		leaderboards: leaderboards,
		log:          log.With().Str("component", "scoring_worker").Logger(),
	}
}

type scorePayload struct {
	ContestID string `json:"contest_id"`
	UserID    int    `json:"user_id"`
	ProblemID string `json:"problem_id"`
	Score     int    `json:"score"`
	At        int64  `json:"at"`
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *ScoringWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ScoringWorker started")

	batch := make([]*scorePayload, 0, ScoreBatchSize)
	lastFlush := time.Now()

	for {
		// Should flush?
		if len(batch) > 0 &&
			(len(batch) >= ScoreBatchSize || time.Since(lastFlush) >= ScoreBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, ScorePollTimeout, config.WorkerKey.PersistScoresQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var p scorePayload
			if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &p)
		}
	}
}

// ----------------------------------------------------------------
// Batch flush: one rebuild per affected contest
// ----------------------------------------------------------------

func (w *ScoringWorker) flushSafe(ctx context.Context, batch []*scorePayload) {
	if len(batch) == 0 {
		return
	}

	// Dedupe: a burst of accepts in one contest costs one rebuild.
	affected := make(map[string][]*scorePayload)
	for _, p := range batch {
		affected[p.ContestID] = append(affected[p.ContestID], p)
	}

	for contestIDStr, payloads := range affected {
		contestID, err := uuid.Parse(contestIDStr)
		if err != nil {
			w.log.Error().Str("contest_id", contestIDStr).Msg("Bad contest ID in batch, dropping")
			continue
		}

		if err := w.refreshContest(ctx, contestID); err != nil {
			w.log.Warn().Err(err).Str("contest_id", contestIDStr).Msg("Standings refresh failed — requeueing")
			for _, p := range payloads {
				raw, _ := json.Marshal(p)
				w.rdb.RPush(ctx, config.WorkerKey.PersistScoresQueue, raw)
			}
		}
	}
}

// refreshContest rebuilds the cached standings and pushes the update to
// connected contestants.
func (w *ScoringWorker) refreshContest(ctx context.Context, contestID uuid.UUID) error {
	lb, err := w.leaderboards.Rebuild(ctx, contestID)
	if err != nil {
		return err
	}

	event, err := json.Marshal(ws.EventPayload{
		Event: ws.EventLeaderboardUpdated,
		Data:  lb,
	})
	if err != nil {
		return err
	}

	channel := config.CacheKey.ContestEventsChannel(contestID.String())
	if err := w.rdb.Publish(ctx, channel, event).Err(); err != nil {
		// Cache is fresh; subscribers just miss one push.
		w.log.Warn().Err(err).Str("contest_id", contestID.String()).Msg("Event publish failed")
	}

	w.log.Debug().
		Str("contest_id", contestID.String()).
		Int("entries", len(lb.Entries)).
		Msg("Standings refreshed")
	return nil
}
