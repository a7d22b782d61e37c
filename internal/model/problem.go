package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Difficulty grades a problem.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// Problem represents a single algorithmic problem. StarterCode maps a
// language name to its editor template; SampleTests holds the public
// input/expected pairs shown to contestants. Hidden tests are owned by
// the external judge.
type Problem struct {
	ID            uuid.UUID       `json:"id"`
	Slug          string          `json:"slug"`
	Title         string          `json:"title"`
	Statement     string          `json:"statement"`
	Difficulty    Difficulty      `json:"difficulty"`
	TimeLimitMS   int             `json:"time_limit_ms"`
	MemoryLimitKB int             `json:"memory_limit_kb"`
	StarterCode   json.RawMessage `json:"starter_code"`
	SampleTests   json.RawMessage `json:"sample_tests"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CreateProblemRequest is the payload for creating a new problem.
type CreateProblemRequest struct {
	Slug          string          `json:"slug" binding:"required,slug,min=3,max=100"`
	Title         string          `json:"title" binding:"required,min=3,max=255"`
	Statement     string          `json:"statement" binding:"required,min=10"`
	Difficulty    string          `json:"difficulty" binding:"required,oneof=EASY MEDIUM HARD"`
	TimeLimitMS   int             `json:"time_limit_ms" binding:"required,min=100,max=30000"`
	MemoryLimitKB int             `json:"memory_limit_kb" binding:"required,min=1024,max=1048576"`
	StarterCode   json.RawMessage `json:"starter_code" binding:"required"`
	SampleTests   json.RawMessage `json:"sample_tests" binding:"required"`
}

// UpdateProblemRequest is the payload for updating an existing problem.
type UpdateProblemRequest struct {
	Title         string          `json:"title" binding:"omitempty,min=3,max=255"`
	Statement     string          `json:"statement" binding:"omitempty,min=10"`
	Difficulty    string          `json:"difficulty" binding:"omitempty,oneof=EASY MEDIUM HARD"`
	TimeLimitMS   *int            `json:"time_limit_ms" binding:"omitempty,min=100,max=30000"`
	MemoryLimitKB *int            `json:"memory_limit_kb" binding:"omitempty,min=1024,max=1048576"`
	StarterCode   json.RawMessage `json:"starter_code" binding:"omitempty"`
	SampleTests   json.RawMessage `json:"sample_tests" binding:"omitempty"`
}
