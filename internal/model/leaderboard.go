package model

import (
	"time"

	"github.com/google/uuid"
)

// LeaderboardEntry is one ranked row of contest standings.
type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	UserID    int    `json:"user_id"`
	Username  string `json:"username"`
	Solved    int    `json:"solved"`
	Score     int    `json:"score"`
	PenaltyMS int64  `json:"penalty_ms"`
}

// Leaderboard is the full standings snapshot for a contest.
type Leaderboard struct {
	ContestID uuid.UUID          `json:"contest_id"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updated_at"`
}
