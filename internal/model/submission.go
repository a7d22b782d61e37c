package model

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionKind distinguishes how a piece of code was evaluated.
// Only SUBMIT rows ever affect standings.
type SubmissionKind string

const (
	KindRun    SubmissionKind = "RUN"
	KindDryRun SubmissionKind = "DRY_RUN"
	KindSubmit SubmissionKind = "SUBMIT"
)

// Verdict enumerates judge outcomes.
type Verdict string

const (
	VerdictPending      Verdict = "PENDING"
	VerdictAccepted     Verdict = "ACCEPTED"
	VerdictWrongAnswer  Verdict = "WRONG_ANSWER"
	VerdictTimeLimit    Verdict = "TIME_LIMIT"
	VerdictMemoryLimit  Verdict = "MEMORY_LIMIT"
	VerdictRuntimeError Verdict = "RUNTIME_ERROR"
	VerdictCompileError Verdict = "COMPILE_ERROR"
	VerdictJudgeError   Verdict = "JUDGE_ERROR"
)

// Submission represents one evaluated piece of contestant code.
type Submission struct {
	ID          uuid.UUID      `json:"id"`
	ContestID   *uuid.UUID     `json:"contest_id,omitempty"`
	ProblemID   uuid.UUID      `json:"problem_id"`
	UserID      int            `json:"user_id"`
	Language    string         `json:"language"`
	Code        string         `json:"code"`
	Kind        SubmissionKind `json:"kind"`
	Verdict     Verdict        `json:"verdict"`
	Passed      int            `json:"passed"`
	Total       int            `json:"total"`
	RuntimeMS   int            `json:"runtime_ms"`
	Score       int            `json:"score"`
	SubmittedAt time.Time      `json:"submitted_at"`
}

// RunCodeRequest is the payload for the run and dry-run endpoints.
type RunCodeRequest struct {
	ProblemID uuid.UUID `json:"problem_id" binding:"required"`
	Language  string    `json:"language" binding:"required,oneof=javascript python java cpp"`
	Code      string    `json:"code" binding:"required,max=65536"`
}

// SubmitCodeRequest is the payload for a scored contest submission.
type SubmitCodeRequest struct {
	ProblemID uuid.UUID `json:"problem_id" binding:"required"`
	Language  string    `json:"language" binding:"required,oneof=javascript python java cpp"`
	Code      string    `json:"code" binding:"required,max=65536"`
}

// AutoSubmitRequest is the beacon payload fired when a contestant's
// client goes away mid-contest. Beacons cannot set headers, so the
// session token rides in the body.
type AutoSubmitRequest struct {
	Token     string    `json:"token" binding:"required"`
	ProblemID uuid.UUID `json:"problem_id" binding:"required"`
	Language  string    `json:"language" binding:"required,oneof=javascript python java cpp"`
	UserCode  string    `json:"user_code" binding:"required,max=65536"`
	At        int64     `json:"at" binding:"required"`
}

// DraftSnapshot is the server-side copy of a contestant's latest code,
// fed by the auto-submit queue as a safety net.
type DraftSnapshot struct {
	ContestID uuid.UUID `json:"contest_id"`
	UserID    int       `json:"user_id"`
	ProblemID uuid.UUID `json:"problem_id"`
	Language  string    `json:"language"`
	Code      string    `json:"code"`
	SavedAt   time.Time `json:"saved_at"`
}
