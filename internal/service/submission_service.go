package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/algobucks/platform/internal/config"
	"github.com/algobucks/platform/internal/judge"
	"github.com/algobucks/platform/internal/model"
	"github.com/algobucks/platform/internal/repository"
	"github.com/algobucks/platform/internal/response"
)

// EvaluationResult is what a contestant gets back from run, dry-run,
// and submit. SubmissionID is nil for plain runs, which are never recorded.
type EvaluationResult struct {
	SubmissionID *uuid.UUID    `json:"submission_id,omitempty"`
	Verdict      model.Verdict `json:"verdict"`
	Passed       int           `json:"passed"`
	Total        int           `json:"total"`
	RuntimeMS    int           `json:"runtime_ms"`
	Output       string        `json:"output,omitempty"`
	Diagnostics  string        `json:"diagnostics,omitempty"`
	Score        int           `json:"score"`
}

// SubmissionService evaluates contestant code through the judge and
// records the outcomes that drive standings.
type SubmissionService struct {
	submissionRepo *repository.SubmissionRepository
	sessionRepo    *repository.ContestSessionRepository
	contestRepo    *repository.ContestRepository
	judge          *judge.Client
	rdb            *redis.Client
	log            zerolog.Logger
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(
	submissionRepo *repository.SubmissionRepository,
	sessionRepo *repository.ContestSessionRepository,
	contestRepo *repository.ContestRepository,
	judgeClient *judge.Client,
	rdb *redis.Client,
	log zerolog.Logger,
) *SubmissionService {
	return &SubmissionService{
		submissionRepo: submissionRepo,
		sessionRepo:    sessionRepo,
		contestRepo:    contestRepo,
		judge:          judgeClient,
		rdb:            rdb,
		log:            log.With().Str("component", "submission_service").Logger(),
	}
}

// Run evaluates code against the sample tests only. Nothing is recorded.
func (s *SubmissionService) Run(ctx context.Context, userID int, req *model.RunCodeRequest) (*EvaluationResult, error) {
	res, err := s.judge.Evaluate(ctx, &judge.EvaluateRequest{
		ProblemID: req.ProblemID,
		Language:  req.Language,
		Code:      req.Code,
		Mode:      judge.ModeSample,
	})
	if err != nil {
		return nil, err
	}

	return &EvaluationResult{
		Verdict:     res.Verdict,
		Passed:      res.Passed,
		Total:       res.Total,
		RuntimeMS:   res.RuntimeMS,
		Output:      res.Output,
		Diagnostics: res.Diagnostics,
	}, nil
}

// DryRun evaluates code against the full hidden sweep and records the
// attempt, but never scores it. Contestants use this to gauge a solution
// without burning a scored submission.
func (s *SubmissionService) DryRun(ctx context.Context, userID int, req *model.RunCodeRequest) (*EvaluationResult, error) {
	res, err := s.judge.Evaluate(ctx, &judge.EvaluateRequest{
		ProblemID: req.ProblemID,
		Language:  req.Language,
		Code:      req.Code,
		Mode:      judge.ModeFull,
	})
	if err != nil {
		return nil, err
	}

	sub := &model.Submission{
		ProblemID: req.ProblemID,
		UserID:    userID,
		Language:  req.Language,
		Code:      req.Code,
		Kind:      model.KindDryRun,
		Verdict:   res.Verdict,
		Passed:    res.Passed,
		Total:     res.Total,
		RuntimeMS: res.RuntimeMS,
	}
	if err := s.submissionRepo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("record dry run: %w", err)
	}

	return &EvaluationResult{
		SubmissionID: &sub.ID,
		Verdict:      res.Verdict,
		Passed:       res.Passed,
		Total:        res.Total,
		RuntimeMS:    res.RuntimeMS,
		Output:       res.Output,
		Diagnostics:  res.Diagnostics,
	}, nil
}

// Submit evaluates code against the full sweep inside a live contest
// session and records a scored submission. On ACCEPTED the score payload
// is queued for the standings worker; the submission row itself is
// already durable by then, so a queue failure only delays the leaderboard.
func (s *SubmissionService) Submit(ctx context.Context, contestID uuid.UUID, userID int, req *model.SubmitCodeRequest) (*EvaluationResult, error) {
	session, err := s.sessionRepo.GetByContestAndUser(ctx, contestID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.New("no active contest session")
		}
		return nil, err
	}
	if session.CompletedAt != nil {
		return nil, errors.New("contest session is already completed")
	}

	contest, err := s.contestRepo.GetByID(ctx, contestID)
	if err != nil {
		return nil, err
	}
	deadline, err := s.sessionDeadline(ctx, contest, session)
	if err != nil {
		return nil, err
	}
	if time.Now().After(deadline) {
		return nil, errors.New("contest has ended")
	}

	points, err := s.contestRepo.GetProblemPoints(ctx, contestID, req.ProblemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.New("problem is not part of this contest")
		}
		return nil, err
	}

	res, err := s.judge.Evaluate(ctx, &judge.EvaluateRequest{
		ProblemID: req.ProblemID,
		Language:  req.Language,
		Code:      req.Code,
		Mode:      judge.ModeFull,
	})
	if err != nil {
		return nil, err
	}

	score := 0
	if res.Verdict == model.VerdictAccepted {
		score = points
	}

	sub := &model.Submission{
		ContestID: &contestID,
		ProblemID: req.ProblemID,
		UserID:    userID,
		Language:  req.Language,
		Code:      req.Code,
		Kind:      model.KindSubmit,
		Verdict:   res.Verdict,
		Passed:    res.Passed,
		Total:     res.Total,
		RuntimeMS: res.RuntimeMS,
		Score:     score,
	}
	if err := s.submissionRepo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("record submission: %w", err)
	}

	if res.Verdict == model.VerdictAccepted {
		payload, _ := json.Marshal(map[string]interface{}{
			"contest_id": contestID.String(),
			"user_id":    userID,
			"problem_id": req.ProblemID.String(),
			"score":      score,
			"at":         sub.SubmittedAt.UnixMilli(),
		})
		if err := s.rdb.RPush(ctx, config.WorkerKey.PersistScoresQueue, payload).Err(); err != nil {
			s.log.Warn().Err(err).
				Str("contest_id", contestID.String()).
				Int("user_id", userID).
				Msg("Failed to enqueue score, leaderboard will lag until next rebuild")
		}
	}

	activity, _ := json.Marshal(map[string]interface{}{
		"contest_id": contestID.String(),
		"user_id":    userID,
		"kind":       "submitted",
		"detail": map[string]interface{}{
			"problem_id": req.ProblemID.String(),
			"verdict":    res.Verdict,
		},
		"at": sub.SubmittedAt.UnixMilli(),
	})
	_ = s.rdb.RPush(ctx, config.WorkerKey.ActivityQueue, activity).Err()
	_ = s.rdb.Publish(ctx, config.CacheKey.ContestMonitorChannel(contestID.String()), activity).Err()

	s.log.Info().
		Str("contest_id", contestID.String()).
		Int("user_id", userID).
		Str("problem_id", req.ProblemID.String()).
		Str("verdict", string(res.Verdict)).
		Int("score", score).
		Msg("Submission recorded")

	return &EvaluationResult{
		SubmissionID: &sub.ID,
		Verdict:      res.Verdict,
		Passed:       res.Passed,
		Total:        res.Total,
		RuntimeMS:    res.RuntimeMS,
		Output:       res.Output,
		Diagnostics:  res.Diagnostics,
		Score:        score,
	}, nil
}

// History retrieves a contestant's own submissions within a contest.
func (s *SubmissionService) History(ctx context.Context, contestID uuid.UUID, userID int, problemID *uuid.UUID, page, perPage int) ([]model.Submission, *response.Pagination, error) {
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

	subs, total, err := s.submissionRepo.ListByContestUser(ctx, contestID, userID, problemID, limit, offset)
	if err != nil {
		return nil, nil, err
	}
	if subs == nil {
		subs = []model.Submission{}
	}

	return subs, response.NewPagination(page, perPage, total), nil
}

// sessionDeadline computes when a session runs out. Window contests share
// one end time; duration contests count from the Redis anchor, falling back
// to the session row when the anchor is gone.
func (s *SubmissionService) sessionDeadline(ctx context.Context, contest *model.Contest, session *model.ContestSession) (time.Time, error) {
	if contest.EndTime != nil {
		return *contest.EndTime, nil
	}
	if contest.DurationMinutes <= 0 {
		return time.Time{}, errors.New("contest has no timing configuration")
	}

	start := session.StartedAt
	startKey := config.CacheKey.ContestTimerStartKey(contest.ID.String(), session.UserID)
	if ms, err := s.rdb.Get(ctx, startKey).Int64(); err == nil {
		start = time.UnixMilli(ms)
	}

	return start.Add(time.Duration(contest.DurationMinutes) * time.Minute), nil
}
