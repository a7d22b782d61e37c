package service

import (
	"context"

	"github.com/algobucks/platform/internal/model"
	"github.com/algobucks/platform/internal/repository"
)

// DashboardData consolidates all metrics for the admin dashboard.
type DashboardData struct {
	TotalUsers          int                                    `json:"total_users"`
	TotalContests       int                                    `json:"total_contests"`
	TotalProblems       int                                    `json:"total_problems"`
	TotalSubmissions    int                                    `json:"total_submissions"`
	ContestStatusCounts map[model.ContestStatus]int            `json:"contest_status_counts"`
	UpcomingContests    []repository.DashboardUpcomingContest  `json:"upcoming_contests"`
	RecentContests      []repository.DashboardRecentContest    `json:"recent_contests"`
}

// DashboardService handles admin dashboard business logic.
type DashboardService struct {
	repo *repository.DashboardRepository
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(repo *repository.DashboardRepository) *DashboardService {
	return &DashboardService{repo: repo}
}

// GetDashboardData orchestrates fetching all dashboard metrics.
func (s *DashboardService) GetDashboardData(ctx context.Context) (*DashboardData, error) {
	users, contests, problems, submissions, err := s.repo.GetSummaryCounts(ctx)
	if err != nil {
		return nil, err
	}

	statusCounts, err := s.repo.GetContestStatusCounts(ctx)
	if err != nil {
		return nil, err
	}

	upcoming, err := s.repo.GetUpcomingContests(ctx, 5)
	if err != nil {
		return nil, err
	}

	recent, err := s.repo.GetRecentContestResults(ctx, 5)
	if err != nil {
		return nil, err
	}

	data := &DashboardData{
		TotalUsers:          users,
		TotalContests:       contests,
		TotalProblems:       problems,
		TotalSubmissions:    submissions,
		ContestStatusCounts: statusCounts,
		UpcomingContests:    upcoming,
		RecentContests:      recent,
	}

	return data, nil
}
