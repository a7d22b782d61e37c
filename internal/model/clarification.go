package model

import (
	"time"

	"github.com/google/uuid"
)

// Clarification is a contestant question and its admin answer. A nil
// UserID marks an admin broadcast visible to every contestant.
type Clarification struct {
	ID         uuid.UUID  `json:"id"`
	ContestID  uuid.UUID  `json:"contest_id"`
	UserID     *int       `json:"user_id,omitempty"`
	Question   string     `json:"question"`
	Answer     *string    `json:"answer,omitempty"`
	AnsweredBy *int       `json:"answered_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	AnsweredAt *time.Time `json:"answered_at,omitempty"`
}

// CreateClarificationRequest is the payload for asking a question.
type CreateClarificationRequest struct {
	Question string `json:"question" binding:"required,min=5,max=1000"`
}

// AnswerClarificationRequest is the admin payload for answering one.
type AnswerClarificationRequest struct {
	Answer string `json:"answer" binding:"required,min=1,max=2000"`
}

// BroadcastClarificationRequest posts an announcement to all contestants.
type BroadcastClarificationRequest struct {
	Question string `json:"question" binding:"required,min=1,max=255"`
	Answer   string `json:"answer" binding:"required,min=1,max=2000"`
}
