package model

import (
	"time"

	"github.com/google/uuid"
)

// ContestPhase enumerates the panels a contestant moves through. The
// values are wire-level strings shared with clients and persisted in
// the sessions table, so they stay lowercase.
type ContestPhase string

const (
	PhaseGuidelines ContestPhase = "guidelines"
	PhaseProblems   ContestPhase = "problems"
	PhaseFeedback   ContestPhase = "feedback"
	PhaseCompleted  ContestPhase = "completed"
)

// Valid reports whether p is one of the known panel phases.
func (p ContestPhase) Valid() bool {
	switch p {
	case PhaseGuidelines, PhaseProblems, PhaseFeedback, PhaseCompleted:
		return true
	}
	return false
}

// ValidTransition reports whether moving from p to next follows the
// forward-only panel order.
func (p ContestPhase) ValidTransition(next ContestPhase) bool {
	order := map[ContestPhase]int{
		PhaseGuidelines: 0,
		PhaseProblems:   1,
		PhaseFeedback:   2,
		PhaseCompleted:  3,
	}
	from, ok1 := order[p]
	to, ok2 := order[next]
	return ok1 && ok2 && to == from+1
}

// ContestSession represents one contestant's attempt at a contest.
type ContestSession struct {
	ID            uuid.UUID    `json:"id"`
	ContestID     uuid.UUID    `json:"contest_id"`
	UserID        int          `json:"user_id"`
	StartedAt     time.Time    `json:"started_at"`
	CompletedAt   *time.Time   `json:"completed_at,omitempty"`
	Phase         ContestPhase `json:"phase"`
	CurrentIndex  int          `json:"current_index"`
	AutoSubmitted bool         `json:"auto_submitted"`
}

// AdvancePhaseRequest moves a session forward through the panel order.
type AdvancePhaseRequest struct {
	Phase        string `json:"phase" binding:"required,oneof=guidelines problems feedback completed"`
	CurrentIndex int    `json:"current_index" binding:"min=0"`
}

// SubmitFeedbackRequest is the payload for the post-contest feedback form.
type SubmitFeedbackRequest struct {
	Rating   int    `json:"rating" binding:"required,min=1,max=5"`
	Comments string `json:"comments" binding:"omitempty,max=2000"`
}

// ContestFeedback stores one contestant's rating of a contest.
type ContestFeedback struct {
	ContestID   uuid.UUID `json:"contest_id"`
	UserID      int       `json:"user_id"`
	Rating      int       `json:"rating"`
	Comments    string    `json:"comments"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// SessionState is the payload returned to a contestant resuming a
// contest: everything the client needs to rebuild its timer and panel.
type SessionState struct {
	Session          ContestSession `json:"session"`
	ServerTimeMS     int64          `json:"server_time_ms"`
	TimerStartMS     int64          `json:"timer_start_ms"`
	DurationSeconds  int            `json:"duration_seconds"`
	RemainingSeconds int            `json:"remaining_seconds"`
}
