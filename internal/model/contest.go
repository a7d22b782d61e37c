package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ContestStatus enumerates the possible states of a contest.
type ContestStatus string

const (
	ContestStatusDraft     ContestStatus = "DRAFT"
	ContestStatusPublished ContestStatus = "PUBLISHED"
	ContestStatusArchived  ContestStatus = "ARCHIVED"
)

// Contest represents a contest entity. Timing is either an explicit
// start/end window, a per-contestant duration, or absent entirely; the
// session layer decides which mode applies.
type Contest struct {
	ID              uuid.UUID     `json:"id"`
	Slug            string        `json:"slug"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	Rules           string        `json:"rules"`
	PrizeDetails    string        `json:"prize_details"`
	StartTime       *time.Time    `json:"start_time,omitempty"`
	EndTime         *time.Time    `json:"end_time,omitempty"`
	DurationMinutes int           `json:"duration_minutes"`
	EntryFee        int64         `json:"entry_fee"`
	Status          ContestStatus `json:"status"`
	CreatedBy       int           `json:"created_by"`
	ProblemCount    int           `json:"problem_count"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// CreateContestRequest is the payload for creating a new contest.
type CreateContestRequest struct {
	Slug            string     `json:"slug" binding:"required,slug,min=3,max=100"`
	Title           string     `json:"title" binding:"required,min=3,max=255"`
	Description     string     `json:"description" binding:"omitempty,max=10000"`
	Rules           string     `json:"rules" binding:"omitempty,max=10000"`
	PrizeDetails    string     `json:"prize_details" binding:"omitempty,max=5000"`
	StartTime       *time.Time `json:"start_time" binding:"omitempty"`
	EndTime         *time.Time `json:"end_time" binding:"omitempty,gtfield=StartTime"`
	DurationMinutes int        `json:"duration_minutes" binding:"omitempty,min=1,max=1440"`
	EntryFee        int64      `json:"entry_fee" binding:"min=0"`
}

// UpdateContestRequest is the payload for updating an existing contest.
type UpdateContestRequest struct {
	Title           string     `json:"title" binding:"omitempty,min=3,max=255"`
	Description     string     `json:"description" binding:"omitempty,max=10000"`
	Rules           string     `json:"rules" binding:"omitempty,max=10000"`
	PrizeDetails    string     `json:"prize_details" binding:"omitempty,max=5000"`
	StartTime       *time.Time `json:"start_time" binding:"omitempty"`
	EndTime         *time.Time `json:"end_time" binding:"omitempty,gtfield=StartTime"`
	DurationMinutes *int       `json:"duration_minutes" binding:"omitempty,min=1,max=1440"`
	EntryFee        *int64     `json:"entry_fee" binding:"omitempty,min=0"`
}

// AttachProblemRequest links a problem into a contest's ordered set.
type AttachProblemRequest struct {
	ProblemID uuid.UUID `json:"problem_id" binding:"required"`
	OrderNum  int       `json:"order_num" binding:"min=0"`
	Points    int       `json:"points" binding:"required,min=1,max=1000"`
}

// ReorderProblemsRequest replaces the order of a contest's problem set.
type ReorderProblemsRequest struct {
	ProblemIDs []uuid.UUID `json:"problem_ids" binding:"required,min=1"`
}

// ContestRegistration records a contestant's entry into a contest.
type ContestRegistration struct {
	ContestID    uuid.UUID `json:"contest_id"`
	UserID       int       `json:"user_id"`
	RegisteredAt time.Time `json:"registered_at"`
}

// ContestPayload is the Redis-cached problem set sent to contestants.
// Hidden test data never appears here; it lives with the judge.
type ContestPayload struct {
	ContestID       uuid.UUID              `json:"contest_id"`
	Title           string                 `json:"title"`
	StartTime       *time.Time             `json:"start_time,omitempty"`
	EndTime         *time.Time             `json:"end_time,omitempty"`
	DurationMinutes int                    `json:"duration_minutes"`
	Problems        []ProblemForContestant `json:"problems"`
}

// ProblemForContestant is a problem as exposed inside a contest payload.
type ProblemForContestant struct {
	ID            uuid.UUID       `json:"id"`
	Slug          string          `json:"slug"`
	Title         string          `json:"title"`
	Statement     string          `json:"statement"`
	Difficulty    Difficulty      `json:"difficulty"`
	TimeLimitMS   int             `json:"time_limit_ms"`
	MemoryLimitKB int             `json:"memory_limit_kb"`
	StarterCode   json.RawMessage `json:"starter_code"`
	SampleTests   json.RawMessage `json:"sample_tests"`
	OrderNum      int             `json:"order_num"`
	Points        int             `json:"points"`
}
