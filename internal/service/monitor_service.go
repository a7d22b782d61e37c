package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/algobucks/platform/internal/repository"
)

// MonitorService orchestrates live contest monitoring business logic.
type MonitorService struct {
	monitorRepo *repository.MonitorRepository
}

// NewMonitorService creates a new MonitorService.
func NewMonitorService(monitorRepo *repository.MonitorRepository) *MonitorService {
	return &MonitorService{monitorRepo: monitorRepo}
}

// ContestProgressSnapshot holds submission and accept counts for every
// contestant still in the contest, plus the recent activity feed.
type ContestProgressSnapshot struct {
	SubmissionCounts map[int]int64              // user_id → scored submissions
	AcceptedCounts   map[int]int64              // user_id → distinct problems accepted
	TotalAccepted    int64                      // total accepts in the contest
	RecentActivity   []repository.ActivityEntry // newest first
}

// GetContestProgress returns submission counts, accept counts and the
// activity feed. It fires three independent data fetches in parallel to
// minimize latency.
func (s *MonitorService) GetContestProgress(ctx context.Context, contestID uuid.UUID) (*ContestProgressSnapshot, error) {
	snapshot := &ContestProgressSnapshot{
		SubmissionCounts: make(map[int]int64),
		AcceptedCounts:   make(map[int]int64),
	}

	var (
		submissionCounts map[int]int64
		acceptedCounts   map[int]int64
		activity         []repository.ActivityEntry
		submissionErr    error
		acceptedErr      error
		activityErr      error
		wg               sync.WaitGroup
	)

	// 1. Fetch scored submission counts from the submissions table
	wg.Add(1)
	go func() {
		defer wg.Done()
		submissionCounts, submissionErr = s.monitorRepo.GetSubmissionCounts(ctx, contestID)
	}()

	// 2. Fetch accepted-problem counts (single DB query, runs concurrently)
	wg.Add(1)
	go func() {
		defer wg.Done()
		acceptedCounts, acceptedErr = s.monitorRepo.GetAcceptedCounts(ctx, contestID)
	}()

	// 3. Fetch the recent activity feed
	wg.Add(1)
	go func() {
		defer wg.Done()
		activity, activityErr = s.monitorRepo.GetRecentActivity(ctx, contestID, 20)
	}()

	wg.Wait()

	// Submission counts are critical; the rest is best-effort
	if submissionErr != nil {
		return nil, submissionErr
	}

	if submissionCounts != nil {
		snapshot.SubmissionCounts = submissionCounts
	}

	if acceptedErr == nil && acceptedCounts != nil {
		snapshot.AcceptedCounts = acceptedCounts
		for _, count := range acceptedCounts {
			snapshot.TotalAccepted += count
		}
	}

	if activityErr == nil {
		snapshot.RecentActivity = activity
	}

	return snapshot, nil
}
