package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/algobucks/platform/internal/config"
	"github.com/algobucks/platform/internal/model"
	"github.com/algobucks/platform/internal/repository"
)

// ContestSessionService handles contest session business logic: joining,
// timer anchoring, phase advancement and per-contestant state recovery.
type ContestSessionService struct {
	sessionRepo  *repository.ContestSessionRepository
	contestRepo  *repository.ContestRepository
	regRepo      *repository.RegistrationRepository
	feedbackRepo *repository.FeedbackRepository
	userRepo     *repository.UserRepository
	rdb          *redis.Client
}

// NewContestSessionService creates a new ContestSessionService.
func NewContestSessionService(
	sessionRepo *repository.ContestSessionRepository,
	contestRepo *repository.ContestRepository,
	regRepo *repository.RegistrationRepository,
	feedbackRepo *repository.FeedbackRepository,
	userRepo *repository.UserRepository,
	rdb *redis.Client,
) *ContestSessionService {
	return &ContestSessionService{
		sessionRepo:  sessionRepo,
		contestRepo:  contestRepo,
		regRepo:      regRepo,
		feedbackRepo: feedbackRepo,
		userRepo:     userRepo,
		rdb:          rdb,
	}
}

// recordActivity enqueues an activity event for the background worker.
// Best effort: the contestant path never fails because the feed is down.
func (s *ContestSessionService) recordActivity(ctx context.Context, contestID uuid.UUID, userID int, kind string, detail map[string]any) {
	payload := map[string]any{
		"contest_id": contestID.String(),
		"user_id":    userID,
		"kind":       kind,
		"at":         time.Now().UnixMilli(),
	}
	if detail != nil {
		payload["detail"] = detail
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_ = s.rdb.RPush(ctx, config.WorkerKey.ActivityQueue, data).Err()
	// Same frame feeds the admin monitor SSE live.
	_ = s.rdb.Publish(ctx, config.CacheKey.ContestMonitorChannel(contestID.String()), data).Err()
}

// LobbyStatus represents the concrete state of a contest in the lobby.
type LobbyStatus string

const (
	LobbyStatusUpcoming   LobbyStatus = "UPCOMING"
	LobbyStatusOpen       LobbyStatus = "OPEN"
	LobbyStatusInProgress LobbyStatus = "IN_PROGRESS"
	LobbyStatusCompleted  LobbyStatus = "COMPLETED"
	LobbyStatusEnded      LobbyStatus = "ENDED"
)

// LobbyContest represents a contest as displayed in the contestant lobby.
type LobbyContest struct {
	model.Contest
	LobbyStatus LobbyStatus         `json:"lobby_status"`
	Registered  bool                `json:"registered"`
	Phase       *model.ContestPhase `json:"phase,omitempty"`
}

// GetLobby returns published contests with the contestant's own
// registration and session state overlaid.
func (s *ContestSessionService) GetLobby(ctx context.Context, userID int) ([]LobbyContest, error) {
	contests, err := s.contestRepo.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("list published contests: %w", err)
	}

	sessions, err := s.sessionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	sessionMap := make(map[uuid.UUID]*model.ContestSession, len(sessions))
	for i := range sessions {
		sessionMap[sessions[i].ContestID] = &sessions[i]
	}

	regs, err := s.regRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	regSet := make(map[uuid.UUID]bool, len(regs))
	for _, reg := range regs {
		regSet[reg.ContestID] = true
	}

	var lobby []LobbyContest
	now := time.Now()

	for i := range contests {
		c := contests[i]
		entry := LobbyContest{Contest: c, Registered: regSet[c.ID]}

		if sess, ok := sessionMap[c.ID]; ok {
			entry.Phase = &sess.Phase
			if sess.Phase == model.PhaseCompleted {
				entry.LobbyStatus = LobbyStatusCompleted
			} else {
				entry.LobbyStatus = LobbyStatusInProgress
			}
		} else {
			switch {
			case c.StartTime != nil && c.StartTime.After(now):
				entry.LobbyStatus = LobbyStatusUpcoming
			case c.EndTime != nil && c.EndTime.Before(now):
				entry.LobbyStatus = LobbyStatusEnded
			default:
				entry.LobbyStatus = LobbyStatusOpen
			}
		}

		lobby = append(lobby, entry)
	}

	return lobby, nil
}

// Register enters a contestant into a contest, debiting the entry fee.
// Registering twice is a no-op and never double-charges.
func (s *ContestSessionService) Register(ctx context.Context, contestID uuid.UUID, userID int) error {
	contest, err := s.contestRepo.GetByID(ctx, contestID)
	if err != nil {
		return fmt.Errorf("get contest: %w", err)
	}
	if contest.Status != model.ContestStatusPublished {
		return errors.New("contest is not published")
	}
	if contest.EndTime != nil && contest.EndTime.Before(time.Now()) {
		return errors.New("contest has ended")
	}

	already, err := s.regRepo.IsRegistered(ctx, contestID, userID)
	if err != nil {
		return fmt.Errorf("check registration: %w", err)
	}
	if already {
		return nil
	}

	if contest.EntryFee > 0 {
		if err := s.userRepo.AdjustCodecoins(ctx, userID, -contest.EntryFee); err != nil {
			if errors.Is(err, repository.ErrInsufficientCodecoins) {
				return errors.New("insufficient codecoins")
			}
			return fmt.Errorf("debit entry fee: %w", err)
		}
	}

	inserted, err := s.regRepo.Register(ctx, contestID, userID)
	if err != nil {
		// Refund on a failed insert so the fee is never lost.
		if contest.EntryFee > 0 {
			_ = s.userRepo.AdjustCodecoins(ctx, userID, contest.EntryFee)
		}
		return fmt.Errorf("register: %w", err)
	}
	if !inserted && contest.EntryFee > 0 {
		// Concurrent duplicate registration; give the fee back.
		_ = s.userRepo.AdjustCodecoins(ctx, userID, contest.EntryFee)
	}
	if inserted {
		s.recordActivity(ctx, contestID, userID, "registered", nil)
	}
	return nil
}

// Unregister withdraws a contestant before the contest starts,
// refunding the entry fee.
func (s *ContestSessionService) Unregister(ctx context.Context, contestID uuid.UUID, userID int) error {
	contest, err := s.contestRepo.GetByID(ctx, contestID)
	if err != nil {
		return fmt.Errorf("get contest: %w", err)
	}
	if contest.StartTime != nil && contest.StartTime.Before(time.Now()) {
		return errors.New("contest already started")
	}

	removed, err := s.regRepo.Unregister(ctx, contestID, userID)
	if err != nil {
		return fmt.Errorf("unregister: %w", err)
	}
	if removed && contest.EntryFee > 0 {
		if err := s.userRepo.AdjustCodecoins(ctx, userID, contest.EntryFee); err != nil {
			return fmt.Errorf("refund entry fee: %w", err)
		}
	}
	return nil
}

// Join creates a session for a registered contestant and anchors the
// per-user timer. Joining is idempotent: a refresh or second device
// reuses the original session and anchor, so elapsed time never resets.
func (s *ContestSessionService) Join(ctx context.Context, contestID uuid.UUID, userID int) (*model.ContestSession, error) {
	contest, err := s.contestRepo.GetByID(ctx, contestID)
	if err != nil {
		return nil, fmt.Errorf("get contest: %w", err)
	}

	if contest.Status != model.ContestStatusPublished {
		return nil, errors.New("contest is not available for joining")
	}
	now := time.Now()
	if contest.StartTime != nil && contest.StartTime.After(now) {
		return nil, errors.New("contest has not started")
	}
	if contest.EndTime != nil && contest.EndTime.Before(now) {
		return nil, errors.New("contest has ended")
	}

	registered, err := s.regRepo.IsRegistered(ctx, contestID, userID)
	if err != nil {
		return nil, fmt.Errorf("check registration: %w", err)
	}
	if !registered {
		return nil, errors.New("not registered for this contest")
	}

	// Check if the contestant already has a session.
	existing, err := s.sessionRepo.GetByContestAndUser(ctx, contestID, userID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check existing session: %w", err)
	}

	startKey := config.CacheKey.ContestTimerStartKey(contestID.String(), userID)

	// IDEMPOTENCY: if they already joined, re-seed the Redis anchor from
	// the database row. Handles joins from a second device or a refresh.
	if existing != nil {
		_ = s.rdb.SetNX(ctx, startKey, existing.StartedAt.UnixMilli(), 0)
		return existing, nil
	}

	session := &model.ContestSession{
		ContestID: contestID,
		UserID:    userID,
		StartedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Concurrent join detected
			existing, fetchErr := s.sessionRepo.GetByContestAndUser(ctx, contestID, userID)
			if fetchErr != nil {
				return nil, fmt.Errorf("concurrent join detected, but fetch failed: %w", fetchErr)
			}
			_ = s.rdb.SetNX(ctx, startKey, existing.StartedAt.UnixMilli(), 0)
			return existing, nil
		}
		return nil, fmt.Errorf("create session: %w", err)
	}

	// NX keeps the first anchor authoritative even under racing joins.
	_ = s.rdb.SetNX(ctx, startKey, session.StartedAt.UnixMilli(), 0)

	s.recordActivity(ctx, contestID, userID, "joined", nil)

	return session, nil
}

// VerifyActiveSession checks that a contestant has an open session for
// the given contest. Returns an error if none exists or it is completed.
func (s *ContestSessionService) VerifyActiveSession(ctx context.Context, contestID uuid.UUID, userID int) error {
	sess, err := s.sessionRepo.GetByContestAndUser(ctx, contestID, userID)
	if err != nil {
		return fmt.Errorf("no active session: %w", err)
	}
	if sess.Phase == model.PhaseCompleted {
		return errors.New("contest session is already completed")
	}
	return nil
}

// GetState rebuilds everything a client needs to resume a contest:
// session row, timer anchor, duration and remaining seconds.
func (s *ContestSessionService) GetState(ctx context.Context, contestID uuid.UUID, userID int) (*model.SessionState, error) {
	sess, err := s.sessionRepo.GetByContestAndUser(ctx, contestID, userID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	contest, err := s.contestRepo.GetByID(ctx, contestID)
	if err != nil {
		return nil, fmt.Errorf("get contest: %w", err)
	}

	// Timer anchor, Redis first with a PostgreSQL failover.
	var startMS int64
	startKey := config.CacheKey.ContestTimerStartKey(contestID.String(), userID)

	val, err := s.rdb.Get(ctx, startKey).Result()
	if err == redis.Nil {
		// Cache miss (evicted or legacy session). The database row is
		// the source of truth; self-heal Redis for the next request.
		startMS = sess.StartedAt.UnixMilli()
		_ = s.rdb.SetNX(ctx, startKey, startMS, 0)
	} else if err != nil {
		return nil, fmt.Errorf("redis error getting start time: %w", err)
	} else {
		startMS, err = strconv.ParseInt(val, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid start time format in cache: %w", err)
		}
	}

	durationSec, err := s.resolveDuration(ctx, contest)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var endTime time.Time
	if contest.StartTime != nil && contest.EndTime != nil {
		// Window mode: everyone shares the contest end.
		endTime = *contest.EndTime
	} else {
		// Duration mode: each contestant's clock runs from their anchor.
		endTime = time.UnixMilli(startMS).Add(time.Duration(durationSec) * time.Second)
	}

	remaining := endTime.Sub(now)
	if remaining < 0 {
		remaining = 0
	}

	return &model.SessionState{
		Session:          *sess,
		ServerTimeMS:     now.UnixMilli(),
		TimerStartMS:     startMS,
		DurationSeconds:  durationSec,
		RemainingSeconds: int(remaining.Seconds()),
	}, nil
}

// resolveDuration returns the contest length in seconds, reading the
// Redis cache first and falling back to the contest row.
func (s *ContestSessionService) resolveDuration(ctx context.Context, contest *model.Contest) (int, error) {
	durationKey := config.CacheKey.ContestDurationKey(contest.ID.String())
	if val, err := s.rdb.Get(ctx, durationKey).Result(); err == nil {
		if sec, convErr := strconv.Atoi(val); convErr == nil {
			return sec, nil
		}
	}

	var sec int
	switch {
	case contest.DurationMinutes > 0:
		sec = contest.DurationMinutes * 60
	case contest.StartTime != nil && contest.EndTime != nil:
		sec = int(contest.EndTime.Sub(*contest.StartTime).Seconds())
	default:
		return 0, errors.New("contest has no timing configuration")
	}

	_ = s.rdb.Set(ctx, durationKey, sec, 0)
	return sec, nil
}

// AdvancePhase moves a session forward through the panel order, or
// moves the problem cursor within the problems panel. Backward
// transitions are rejected.
func (s *ContestSessionService) AdvancePhase(ctx context.Context, contestID uuid.UUID, userID int, phase model.ContestPhase, currentIndex int) (*model.ContestSession, error) {
	sess, err := s.sessionRepo.GetByContestAndUser(ctx, contestID, userID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if sess.Phase == model.PhaseCompleted {
		return nil, errors.New("contest session is already completed")
	}

	// Clamp the cursor into the problem set.
	problems, err := s.contestRepo.ListProblems(ctx, contestID)
	if err != nil {
		return nil, fmt.Errorf("list problems: %w", err)
	}
	maxIndex := len(problems) - 1
	if maxIndex < 0 {
		maxIndex = 0
	}
	if currentIndex > maxIndex {
		currentIndex = maxIndex
	}
	if currentIndex < 0 {
		currentIndex = 0
	}

	switch {
	case phase == sess.Phase:
		// Cursor move within the same panel; only meaningful for problems.
		if phase != model.PhaseProblems {
			return sess, nil
		}
		if currentIndex < sess.CurrentIndex {
			return nil, errors.New("invalid phase transition")
		}
	case sess.Phase.ValidTransition(phase):
		// Forward move.
	default:
		return nil, errors.New("invalid phase transition")
	}

	if phase == model.PhaseCompleted {
		if err := s.sessionRepo.Complete(ctx, contestID, userID); err != nil {
			return nil, fmt.Errorf("complete session: %w", err)
		}
		s.recordActivity(ctx, contestID, userID, "completed", nil)
	} else {
		if err := s.sessionRepo.UpdatePhase(ctx, contestID, userID, phase, currentIndex); err != nil {
			return nil, fmt.Errorf("update phase: %w", err)
		}
	}

	return s.sessionRepo.GetByContestAndUser(ctx, contestID, userID)
}

// SubmitFeedback records the post-contest rating and closes the session.
func (s *ContestSessionService) SubmitFeedback(ctx context.Context, contestID uuid.UUID, userID int, rating int, comments string) error {
	sess, err := s.sessionRepo.GetByContestAndUser(ctx, contestID, userID)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	if sess.Phase != model.PhaseFeedback && sess.Phase != model.PhaseProblems {
		return errors.New("invalid phase transition")
	}

	fb := &model.ContestFeedback{
		ContestID: contestID,
		UserID:    userID,
		Rating:    rating,
		Comments:  comments,
	}
	if err := s.feedbackRepo.Upsert(ctx, fb); err != nil {
		return fmt.Errorf("save feedback: %w", err)
	}

	if err := s.sessionRepo.Complete(ctx, contestID, userID); err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	s.recordActivity(ctx, contestID, userID, "completed", map[string]any{"rating": rating})
	return nil
}

// GetResults retrieves paginated contestant results for a contest.
func (s *ContestSessionService) GetResults(ctx context.Context, contestID uuid.UUID, page, perPage int, phase *model.ContestPhase) ([]repository.ContestantResult, int64, error) {
	return s.sessionRepo.ListByContest(ctx, contestID, page, perPage, phase)
}
