package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key for a user's login session
func (r *CacheKeyStruct) UserSessionKey(userID int) string {
	return fmt.Sprintf("login:%d", userID)
}

// ContestTimerStartKey returns the cache key for a user's contest timer anchor
func (r *CacheKeyStruct) ContestTimerStartKey(contestID string, userID int) string {
	return fmt.Sprintf("user:%d:contest:%s:timer_start", userID, contestID)
}

// ContestPayloadKey returns the cache key for a contest's problem payload
func (r *CacheKeyStruct) ContestPayloadKey(contestID string) string {
	return fmt.Sprintf("contest:%s:payload", contestID)
}

// ContestDurationKey returns the cache key for a contest's duration
func (r *CacheKeyStruct) ContestDurationKey(contestID string) string {
	return fmt.Sprintf("contest:%s:duration", contestID)
}

// ContestLeaderboardKey returns the cache key for a contest's standings
func (r *CacheKeyStruct) ContestLeaderboardKey(contestID string) string {
	return fmt.Sprintf("contest:%s:leaderboard", contestID)
}

// UserActiveContestKey returns the cache key for a user's currently active contest
func (r *CacheKeyStruct) UserActiveContestKey(userID int) string {
	return fmt.Sprintf("user:%d:active_contest", userID)
}

// UserDraftsKey returns the cache key for a user's live code drafts in a contest
func (r *CacheKeyStruct) UserDraftsKey(contestID string, userID int) string {
	return fmt.Sprintf("user:%d:contest:%s:drafts", userID, contestID)
}

// ContestEventsChannel returns the Redis PubSub channel for contest live events
func (r *CacheKeyStruct) ContestEventsChannel(contestID string) string {
	return fmt.Sprintf("contest:%s:events", contestID)
}

// ContestMonitorChannel returns the Redis PubSub channel name for a contest monitor
func (r *CacheKeyStruct) ContestMonitorChannel(contestID string) string {
	return fmt.Sprintf("contest:%s:monitor", contestID)
}

var CacheKey = NewCacheKeyStruct()
