package apiclient

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/algobucks/platform/internal/model"
)

// ContestsService covers the contestant-facing contest endpoints.
type ContestsService struct {
	client *Client
}

// ContestDetail pairs a contest with its problem listing as returned
// by GET /contests/:id. Entries are bare IDs unless the populate flag
// was sent and the contest window has opened.
type ContestDetail struct {
	Contest  model.Contest `json:"contest"`
	Problems []ProblemRef  `json:"problems"`
}

// Get fetches a published contest by ID or slug with problem IDs only.
func (s *ContestsService) Get(ctx context.Context, idOrSlug string) (*ContestDetail, error) {
	var out ContestDetail
	if err := s.client.do(ctx, http.MethodGet, "/api/v1/contests/"+idOrSlug, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetWithProblems fetches a contest with the problem set embedded as
// full objects. The set is empty before the contest starts.
func (s *ContestsService) GetWithProblems(ctx context.Context, idOrSlug string) (*ContestDetail, error) {
	var out ContestDetail
	if err := s.client.do(ctx, http.MethodGet, "/api/v1/contests/"+idOrSlug+"?populate=problems", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Problems fetches the full problem set. The server rejects this with
// CONTEST_NOT_STARTED before the window opens.
func (s *ContestsService) Problems(ctx context.Context, contestID uuid.UUID) ([]model.ProblemForContestant, error) {
	var out struct {
		Problems []model.ProblemForContestant `json:"problems"`
	}
	if err := s.client.do(ctx, http.MethodGet, "/api/v1/contests/"+contestID.String()+"/problems", nil, &out); err != nil {
		return nil, err
	}
	return out.Problems, nil
}

// Join creates or resumes the contestant's session and returns the
// full session state, including server time and timing fields.
func (s *ContestsService) Join(ctx context.Context, contestID uuid.UUID) (*model.SessionState, error) {
	var out model.SessionState
	if err := s.client.do(ctx, http.MethodPost, "/api/v1/contests/"+contestID.String()+"/join", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Session fetches the current session state. This is the re-mount path:
// phase, cursor and remaining time all come from here.
func (s *ContestsService) Session(ctx context.Context, contestID uuid.UUID) (*model.SessionState, error) {
	var out model.SessionState
	if err := s.client.do(ctx, http.MethodGet, "/api/v1/contests/"+contestID.String()+"/session", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdvancePhase moves the session forward through the panel order or
// bumps the problem cursor. Backward moves are rejected server-side.
func (s *ContestsService) AdvancePhase(ctx context.Context, contestID uuid.UUID, phase model.ContestPhase, currentIndex int) (*model.ContestSession, error) {
	body := model.AdvancePhaseRequest{Phase: string(phase), CurrentIndex: currentIndex}
	var out struct {
		Session model.ContestSession `json:"session"`
	}
	if err := s.client.do(ctx, http.MethodPatch, "/api/v1/contests/"+contestID.String()+"/session", body, &out); err != nil {
		return nil, err
	}
	return &out.Session, nil
}

// Feedback files the post-contest rating and completes the session.
func (s *ContestsService) Feedback(ctx context.Context, contestID uuid.UUID, rating int, comments string) error {
	body := model.SubmitFeedbackRequest{Rating: rating, Comments: comments}
	return s.client.do(ctx, http.MethodPost, "/api/v1/contests/"+contestID.String()+"/feedback", body, nil)
}

// Leaderboard fetches the live standings.
func (s *ContestsService) Leaderboard(ctx context.Context, contestID uuid.UUID) (*model.Leaderboard, error) {
	var out struct {
		Leaderboard model.Leaderboard `json:"leaderboard"`
	}
	if err := s.client.do(ctx, http.MethodGet, "/api/v1/contests/"+contestID.String()+"/leaderboard", nil, &out); err != nil {
		return nil, err
	}
	return &out.Leaderboard, nil
}

// Results fetches final standings once the contest has closed, or
// earlier for contestants whose own session is completed.
func (s *ContestsService) Results(ctx context.Context, contestID uuid.UUID) (*model.Leaderboard, error) {
	var out struct {
		Leaderboard model.Leaderboard `json:"leaderboard"`
	}
	if err := s.client.do(ctx, http.MethodGet, "/api/v1/contests/"+contestID.String()+"/results", nil, &out); err != nil {
		return nil, err
	}
	return &out.Leaderboard, nil
}

// Clarifications lists broadcasts plus the contestant's own questions.
func (s *ContestsService) Clarifications(ctx context.Context, contestID uuid.UUID) ([]model.Clarification, error) {
	var out struct {
		Clarifications []model.Clarification `json:"clarifications"`
	}
	if err := s.client.do(ctx, http.MethodGet, "/api/v1/contests/"+contestID.String()+"/clarifications", nil, &out); err != nil {
		return nil, err
	}
	return out.Clarifications, nil
}

// SubmitClarification asks the contest staff a question.
func (s *ContestsService) SubmitClarification(ctx context.Context, contestID uuid.UUID, question string) (*model.Clarification, error) {
	body := model.CreateClarificationRequest{Question: question}
	var out struct {
		Clarification model.Clarification `json:"clarification"`
	}
	if err := s.client.do(ctx, http.MethodPost, "/api/v1/contests/"+contestID.String()+"/clarifications", body, &out); err != nil {
		return nil, err
	}
	return &out.Clarification, nil
}
