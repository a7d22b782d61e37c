package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/algobucks/platform/internal/model"
	"github.com/algobucks/platform/internal/repository"
	"github.com/algobucks/platform/internal/response"
)

// ProblemService handles problem catalog business logic.
type ProblemService struct {
	problemRepo *repository.ProblemRepository
}

// NewProblemService creates a new ProblemService.
func NewProblemService(problemRepo *repository.ProblemRepository) *ProblemService {
	return &ProblemService{problemRepo: problemRepo}
}

// List retrieves problems with pagination, optionally filtered by difficulty.
func (s *ProblemService) List(ctx context.Context, difficulty model.Difficulty, page, perPage int) ([]model.Problem, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	limit := perPage
	offset := (page - 1) * perPage

	problems, total, err := s.problemRepo.ListPaginated(ctx, difficulty, limit, offset)
	if err != nil {
		return nil, nil, err
	}

	if problems == nil {
		problems = []model.Problem{}
	}

	pagination := response.NewPagination(page, perPage, total)

	return problems, pagination, nil
}

// GetByID retrieves a problem by its UUID.
func (s *ProblemService) GetByID(ctx context.Context, id uuid.UUID) (*model.Problem, error) {
	return s.problemRepo.GetByID(ctx, id)
}

// GetBySlug retrieves a problem by its slug.
func (s *ProblemService) GetBySlug(ctx context.Context, slug string) (*model.Problem, error) {
	return s.problemRepo.GetBySlug(ctx, slug)
}

// Create inserts a new problem.
func (s *ProblemService) Create(ctx context.Context, problem *model.Problem) error {
	return s.problemRepo.Create(ctx, problem)
}

// Update modifies an existing problem.
func (s *ProblemService) Update(ctx context.Context, problem *model.Problem) error {
	return s.problemRepo.Update(ctx, problem)
}

// Delete removes a problem. Fails while the problem is attached to any contest.
func (s *ProblemService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.problemRepo.Delete(ctx, id)
}
