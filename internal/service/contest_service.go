package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/algobucks/platform/internal/config"
	"github.com/algobucks/platform/internal/model"
	"github.com/algobucks/platform/internal/repository"
	"github.com/algobucks/platform/internal/response"
)

// Domain Errors
var (
	ErrNoProblems          = errors.New("contest has no problems, cannot publish")
	ErrContestNotDraft     = errors.New("contest status is not DRAFT")
	ErrContestNotPublished = errors.New("contest status is not PUBLISHED")
	ErrInvalidTiming       = errors.New("contest needs a start/end window or a duration")
)

// ContestService handles contest business logic and Redis caching.
type ContestService struct {
	contestRepo *repository.ContestRepository
	problemRepo *repository.ProblemRepository
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewContestService creates a new ContestService.
func NewContestService(
	contestRepo *repository.ContestRepository,
	problemRepo *repository.ProblemRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *ContestService {
	return &ContestService{
		contestRepo: contestRepo,
		problemRepo: problemRepo,
		rdb:         rdb,
		log:         log.With().Str("component", "contest_service").Logger(),
	}
}

// GetByID retrieves a contest by its UUID.
func (s *ContestService) GetByID(ctx context.Context, id uuid.UUID) (*model.Contest, error) {
	return s.contestRepo.GetByID(ctx, id)
}

// GetBySlug retrieves a contest by its slug.
func (s *ContestService) GetBySlug(ctx context.Context, slug string) (*model.Contest, error) {
	return s.contestRepo.GetBySlug(ctx, slug)
}

// List retrieves contests with pagination, optionally filtered by status.
func (s *ContestService) List(ctx context.Context, status model.ContestStatus, page, perPage int) ([]model.Contest, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	limit := perPage
	offset := (page - 1) * perPage

	contests, total, err := s.contestRepo.ListPaginated(ctx, status, limit, offset)
	if err != nil {
		return nil, nil, err
	}

	if contests == nil {
		contests = []model.Contest{}
	}

	pagination := response.NewPagination(page, perPage, total)

	return contests, pagination, nil
}

// Create inserts a new contest as DRAFT.
func (s *ContestService) Create(ctx context.Context, contest *model.Contest) error {
	contest.Status = model.ContestStatusDraft
	return s.contestRepo.Create(ctx, contest)
}

// Update modifies an existing draft contest.
func (s *ContestService) Update(ctx context.Context, contest *model.Contest) error {
	existing, err := s.contestRepo.GetByID(ctx, contest.ID)
	if err != nil {
		return err
	}
	if existing.Status != model.ContestStatusDraft {
		return ErrContestNotDraft
	}
	return s.contestRepo.Update(ctx, contest)
}

// Publish changes contest status to PUBLISHED and caches the payload in
// Redis. This is the critical path that populates the "Fast Lane".
func (s *ContestService) Publish(ctx context.Context, contestID uuid.UUID) error {
	contest, err := s.contestRepo.GetByID(ctx, contestID)
	if err != nil {
		return fmt.Errorf("get contest: %w", err)
	}

	if contest.Status != model.ContestStatusDraft {
		return fmt.Errorf("contest status is %s, expected DRAFT", contest.Status)
	}
	if !timingValid(contest) {
		return ErrInvalidTiming
	}

	// Prewarm cache for this contest.
	if err := s.WarmContestCache(ctx, contest); err != nil {
		return err
	}

	// Update status in PostgreSQL.
	if err := s.contestRepo.UpdateStatus(ctx, contestID, model.ContestStatusPublished); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	s.log.Info().Str("contest_id", contestID.String()).Msg("Contest published")
	return nil
}

// Archive retires a published contest and drops its cached payload.
func (s *ContestService) Archive(ctx context.Context, contestID uuid.UUID) error {
	contest, err := s.contestRepo.GetByID(ctx, contestID)
	if err != nil {
		return fmt.Errorf("get contest: %w", err)
	}
	if contest.Status != model.ContestStatusPublished {
		return ErrContestNotPublished
	}

	if err := s.contestRepo.UpdateStatus(ctx, contestID, model.ContestStatusArchived); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, config.CacheKey.ContestPayloadKey(contestID.String()))
	pipe.Del(ctx, config.CacheKey.ContestDurationKey(contestID.String()))
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Str("contest_id", contestID.String()).Msg("Failed to drop contest cache")
	}

	s.log.Info().Str("contest_id", contestID.String()).Msg("Contest archived")
	return nil
}

// RefreshCache re-caches the payload for a published contest.
// Called when the problem set is edited after publish.
func (s *ContestService) RefreshCache(ctx context.Context, contestID uuid.UUID) error {
	contest, err := s.contestRepo.GetByID(ctx, contestID)
	if err != nil {
		return fmt.Errorf("get contest: %w", err)
	}
	if contest.Status != model.ContestStatusPublished {
		return ErrContestNotPublished
	}

	if err := s.WarmContestCache(ctx, contest); err != nil {
		return err
	}

	s.log.Info().Str("contest_id", contestID.String()).Msg("Cache refreshed")
	return nil
}

// WarmContestCache loads a contest's problem payload from PostgreSQL into
// Redis. This is the core cache-warming logic used by Publish, RefreshCache,
// and PrewarmAllCaches.
func (s *ContestService) WarmContestCache(ctx context.Context, contest *model.Contest) error {
	problems, err := s.contestRepo.ListProblems(ctx, contest.ID)
	if err != nil {
		return fmt.Errorf("list problems: %w", err)
	}
	if len(problems) == 0 {
		return ErrNoProblems
	}

	payload := model.ContestPayload{
		ContestID:       contest.ID,
		Title:           contest.Title,
		StartTime:       contest.StartTime,
		EndTime:         contest.EndTime,
		DurationMinutes: contest.DurationMinutes,
		Problems:        problems,
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	// Cache payload and duration atomically via pipeline. The duration key
	// is what the session layer reads on every state request.
	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.ContestPayloadKey(contest.ID.String()), payloadJSON, 0)
	pipe.Set(ctx, config.CacheKey.ContestDurationKey(contest.ID.String()), contest.DurationMinutes*60, 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}

	s.log.Debug().
		Str("contest_id", contest.ID.String()).
		Int("problems", len(problems)).
		Msg("Cache warmed")
	return nil
}

// PrewarmAllCaches loads all published contests into Redis on application
// startup. This prevents any lazy-loading race conditions under thundering
// herd traffic when a contest window opens.
func (s *ContestService) PrewarmAllCaches(ctx context.Context) error {
	contests, err := s.contestRepo.ListPublished(ctx)
	if err != nil {
		return fmt.Errorf("list published contests: %w", err)
	}

	if len(contests) == 0 {
		s.log.Info().Msg("No published contests to prewarm")
		return nil
	}

	s.log.Info().Int("count", len(contests)).Msg("Prewarming published contests...")

	warmed := 0
	for i := range contests {
		if err := s.WarmContestCache(ctx, &contests[i]); err != nil {
			s.log.Warn().
				Err(err).
				Str("contest_id", contests[i].ID.String()).
				Msg("Failed to warm contest, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(contests)).
		Msg("Prewarming complete")
	return nil
}

// GetContestPayload retrieves the cached contestant payload from Redis,
// falling back to PostgreSQL with a cache self-heal on miss.
func (s *ContestService) GetContestPayload(ctx context.Context, contestID uuid.UUID) (*model.ContestPayload, error) {
	key := config.CacheKey.ContestPayloadKey(contestID.String())
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var payload model.ContestPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
		return &payload, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get payload: %w", err)
	}

	// Cache miss: rebuild from PostgreSQL and re-warm.
	contest, err := s.contestRepo.GetByID(ctx, contestID)
	if err != nil {
		return nil, err
	}
	if contest.Status != model.ContestStatusPublished {
		return nil, errors.New("contest not published or payload not cached")
	}
	if err := s.WarmContestCache(ctx, contest); err != nil {
		return nil, err
	}

	problems, err := s.contestRepo.ListProblems(ctx, contestID)
	if err != nil {
		return nil, err
	}
	return &model.ContestPayload{
		ContestID:       contest.ID,
		Title:           contest.Title,
		StartTime:       contest.StartTime,
		EndTime:         contest.EndTime,
		DurationMinutes: contest.DurationMinutes,
		Problems:        problems,
	}, nil
}

// ListProblems returns a contest's ordered problem set.
func (s *ContestService) ListProblems(ctx context.Context, contestID uuid.UUID) ([]model.ProblemForContestant, error) {
	return s.contestRepo.ListProblems(ctx, contestID)
}

// ListProblemRefs returns just the problem IDs in display order, for
// responses that carry references instead of full objects.
func (s *ContestService) ListProblemRefs(ctx context.Context, contestID uuid.UUID) ([]uuid.UUID, error) {
	return s.contestRepo.ListProblemIDs(ctx, contestID)
}

// AttachProblem links a problem into a draft contest's ordered set.
func (s *ContestService) AttachProblem(ctx context.Context, contestID uuid.UUID, req *model.AttachProblemRequest) error {
	contest, err := s.contestRepo.GetByID(ctx, contestID)
	if err != nil {
		return err
	}
	if contest.Status != model.ContestStatusDraft {
		return ErrContestNotDraft
	}
	if _, err := s.problemRepo.GetByID(ctx, req.ProblemID); err != nil {
		return fmt.Errorf("get problem: %w", err)
	}
	return s.contestRepo.AttachProblem(ctx, contestID, req.ProblemID, req.OrderNum, req.Points)
}

// DetachProblem removes a problem from a draft contest.
func (s *ContestService) DetachProblem(ctx context.Context, contestID, problemID uuid.UUID) error {
	contest, err := s.contestRepo.GetByID(ctx, contestID)
	if err != nil {
		return err
	}
	if contest.Status != model.ContestStatusDraft {
		return ErrContestNotDraft
	}
	return s.contestRepo.DetachProblem(ctx, contestID, problemID)
}

// ReorderProblems rewrites the order of a draft contest's problem set.
func (s *ContestService) ReorderProblems(ctx context.Context, contestID uuid.UUID, problemIDs []uuid.UUID) error {
	contest, err := s.contestRepo.GetByID(ctx, contestID)
	if err != nil {
		return err
	}
	if contest.Status != model.ContestStatusDraft {
		return ErrContestNotDraft
	}
	return s.contestRepo.ReorderProblems(ctx, contestID, problemIDs)
}

// timingValid reports whether a contest carries a usable timing mode:
// a full start/end window, or a per-contestant duration.
func timingValid(c *model.Contest) bool {
	if c.StartTime != nil && c.EndTime != nil {
		return c.EndTime.After(*c.StartTime)
	}
	return c.DurationMinutes > 0
}
