package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/algobucks/platform/internal/config"
	"github.com/algobucks/platform/internal/model"
	"github.com/algobucks/platform/internal/repository"
)

// ClarificationService handles contestant questions and admin answers.
// Answers and broadcasts fan out to connected contestants through the
// contest events channel.
type ClarificationService struct {
	clarificationRepo *repository.ClarificationRepository
	sessionRepo       *repository.ContestSessionRepository
	rdb               *redis.Client
	log               zerolog.Logger
}

// NewClarificationService creates a new ClarificationService.
func NewClarificationService(
	clarificationRepo *repository.ClarificationRepository,
	sessionRepo *repository.ContestSessionRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *ClarificationService {
	return &ClarificationService{
		clarificationRepo: clarificationRepo,
		sessionRepo:       sessionRepo,
		rdb:               rdb,
		log:               log.With().Str("component", "clarification_service").Logger(),
	}
}

// Ask records a contestant question. The contestant must hold a live
// session in the contest.
func (s *ClarificationService) Ask(ctx context.Context, contestID uuid.UUID, userID int, question string) (*model.Clarification, error) {
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

	cl := &model.Clarification{
		ContestID: contestID,
		UserID:    &userID,
		Question:  question,
	}
	if err := s.clarificationRepo.Create(ctx, cl); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("contest_id", contestID.String()).
		Int("user_id", userID).
		Str("clarification_id", cl.ID.String()).
		Msg("Clarification asked")
	return cl, nil
}

// Answer records an admin answer and notifies contestants.
func (s *ClarificationService) Answer(ctx context.Context, clarificationID uuid.UUID, adminID int, answer string) (*model.Clarification, error) {
	if err := s.clarificationRepo.Answer(ctx, clarificationID, adminID, answer); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.New("clarification not found")
		}
		return nil, err
	}

	cl, err := s.clarificationRepo.GetByID(ctx, clarificationID)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, cl.ContestID, "clarification_answered", cl)
	return cl, nil
}

// Broadcast posts an admin announcement visible to every contestant.
func (s *ClarificationService) Broadcast(ctx context.Context, contestID uuid.UUID, adminID int, question, answer string) (*model.Clarification, error) {
	cl := &model.Clarification{
		ContestID:  contestID,
		Question:   question,
		Answer:     &answer,
		AnsweredBy: &adminID,
	}
	if err := s.clarificationRepo.Create(ctx, cl); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, contestID, "clarification_answered", cl)
	s.log.Info().
		Str("contest_id", contestID.String()).
		Int("admin_id", adminID).
		Msg("Broadcast posted")
	return cl, nil
}

// ListForUser returns a contestant's own questions plus broadcasts.
func (s *ClarificationService) ListForUser(ctx context.Context, contestID uuid.UUID, userID int) ([]model.Clarification, error) {
	cls, err := s.clarificationRepo.ListForUser(ctx, contestID, userID)
	if err != nil {
		return nil, err
	}
	if cls == nil {
		cls = []model.Clarification{}
	}
	return cls, nil
}

// ListByContest returns everything asked in a contest, unanswered first.
func (s *ClarificationService) ListByContest(ctx context.Context, contestID uuid.UUID) ([]model.Clarification, error) {
	cls, err := s.clarificationRepo.ListByContest(ctx, contestID)
	if err != nil {
		return nil, err
	}
	if cls == nil {
		cls = []model.Clarification{}
	}
	return cls, nil
}

// publishEvent pushes a typed event onto the contest's Redis channel.
// Delivery is best effort; a missed event only delays the next poll.
func (s *ClarificationService) publishEvent(ctx context.Context, contestID uuid.UUID, event string, data interface{}) {
	payload, err := json.Marshal(map[string]interface{}{
		"event": event,
		"data":  data,
	})
	if err != nil {
		return
	}
	channel := config.CacheKey.ContestEventsChannel(contestID.String())
	if err := s.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		s.log.Warn().Err(err).Str("contest_id", contestID.String()).Msg("Failed to publish contest event")
	}
}
