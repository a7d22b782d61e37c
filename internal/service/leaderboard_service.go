package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/algobucks/platform/internal/config"
	"github.com/algobucks/platform/internal/model"
	"github.com/algobucks/platform/internal/repository"
)

// leaderboardTTL bounds staleness between rebuilds. Standings reads are
// the hottest query during a contest, so they never hit PostgreSQL more
// than once per TTL per contest.
const leaderboardTTL = 10 * time.Second

// LeaderboardService computes and caches contest standings.
type LeaderboardService struct {
	submissionRepo *repository.SubmissionRepository
	contestRepo    *repository.ContestRepository
	rdb            *redis.Client
	log            zerolog.Logger
}

// NewLeaderboardService creates a new LeaderboardService.
func NewLeaderboardService(
	submissionRepo *repository.SubmissionRepository,
	contestRepo *repository.ContestRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *LeaderboardService {
	return &LeaderboardService{
		submissionRepo: submissionRepo,
		contestRepo:    contestRepo,
		rdb:            rdb,
		log:            log.With().Str("component", "leaderboard_service").Logger(),
	}
}

// Get returns current standings, serving from the Redis cache when fresh
// and rebuilding from PostgreSQL otherwise.
func (s *LeaderboardService) Get(ctx context.Context, contestID uuid.UUID) (*model.Leaderboard, error) {
	key := config.CacheKey.ContestLeaderboardKey(contestID.String())
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var lb model.Leaderboard
		if err := json.Unmarshal(data, &lb); err == nil {
			return &lb, nil
		}
		// Corrupt cache entry: fall through to rebuild.
	} else if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get leaderboard cache: %w", err)
	}

	return s.Rebuild(ctx, contestID)
}

// Rebuild recomputes standings from submissions and refreshes the cache.
func (s *LeaderboardService) Rebuild(ctx context.Context, contestID uuid.UUID) (*model.Leaderboard, error) {
	contest, err := s.contestRepo.GetByID(ctx, contestID)
	if err != nil {
		return nil, err
	}

	rows, err := s.submissionRepo.BestPerProblem(ctx, contestID)
	if err != nil {
		return nil, fmt.Errorf("aggregate standings: %w", err)
	}

	var baseMS int64
	if contest.StartTime != nil {
		baseMS = contest.StartTime.UnixMilli()
	}

	lb := &model.Leaderboard{
		ContestID: contestID,
		Entries:   RankStandings(rows, baseMS),
		UpdatedAt: time.Now(),
	}

	payload, err := json.Marshal(lb)
	if err != nil {
		return nil, fmt.Errorf("marshal leaderboard: %w", err)
	}
	key := config.CacheKey.ContestLeaderboardKey(contestID.String())
	if err := s.rdb.Set(ctx, key, payload, leaderboardTTL).Err(); err != nil {
		s.log.Warn().Err(err).Str("contest_id", contestID.String()).Msg("Failed to cache leaderboard")
	}

	return lb, nil
}

// Invalidate drops the cached standings so the next read rebuilds.
func (s *LeaderboardService) Invalidate(ctx context.Context, contestID uuid.UUID) error {
	return s.rdb.Del(ctx, config.CacheKey.ContestLeaderboardKey(contestID.String())).Err()
}

// RankStandings folds per-problem bests into ordered standings. Ordering
// is total score desc, problems solved desc, penalty asc, then username
// for determinism. Contestants tied on all three share a rank. Penalty is
// the summed first-accept time of solved problems, measured from baseMS.
func RankStandings(rows []repository.ProblemStanding, baseMS int64) []model.LeaderboardEntry {
	type acc struct {
		username string
		solved   int
		score    int
		penalty  int64
	}
	byUser := make(map[int]*acc)
	order := make([]int, 0)

	for _, row := range rows {
		a, ok := byUser[row.UserID]
		if !ok {
			a = &acc{username: row.Username}
			byUser[row.UserID] = a
			order = append(order, row.UserID)
		}
		a.score += row.BestScore
		if row.FirstSolved != nil {
			a.solved++
			a.penalty += *row.FirstSolved - baseMS
		}
	}

	entries := make([]model.LeaderboardEntry, 0, len(order))
	for _, userID := range order {
		a := byUser[userID]
		entries = append(entries, model.LeaderboardEntry{
			UserID:    userID,
			Username:  a.username,
			Solved:    a.solved,
			Score:     a.score,
			PenaltyMS: a.penalty,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if entries[i].Solved != entries[j].Solved {
			return entries[i].Solved > entries[j].Solved
		}
		if entries[i].PenaltyMS != entries[j].PenaltyMS {
			return entries[i].PenaltyMS < entries[j].PenaltyMS
		}
		return entries[i].Username < entries[j].Username
	})

	for i := range entries {
		if i > 0 && sameStanding(entries[i], entries[i-1]) {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}

	return entries
}

func sameStanding(a, b model.LeaderboardEntry) bool {
	return a.Score == b.Score && a.Solved == b.Solved && a.PenaltyMS == b.PenaltyMS
}
