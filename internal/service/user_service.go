package service

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/algobucks/platform/internal/model"
	"github.com/algobucks/platform/internal/repository"
	"github.com/algobucks/platform/internal/response"
)

// UserService handles contestant account business logic.
type UserService struct {
	userRepo *repository.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// GetByEmail retrieves a user by their email address.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.userRepo.GetByEmail(ctx, email)
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int) (*model.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// ListUsers retrieves all users with pagination and optional search.
func (s *UserService) ListUsers(ctx context.Context, search string, page, perPage int) ([]model.User, *response.Pagination, error) {
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

	users, total, err := s.userRepo.ListPaginated(ctx, search, limit, offset)
	if err != nil {
		return nil, nil, err
	}

	if users == nil {
		users = []model.User{}
	}

	pagination := response.NewPagination(page, perPage, total)

	return users, pagination, nil
}

// Create inserts a new user with a hashed password.
func (s *UserService) Create(ctx context.Context, user *model.User) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(user.PasswordHash), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hashed)
	return s.userRepo.Create(ctx, user)
}

// Update modifies a user's details. Updates password if provided.
func (s *UserService) Update(ctx context.Context, user *model.User, updatePassword bool) error {
	// 1. Update basic info
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	// 2. Update password if requested
	if updatePassword && user.PasswordHash != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(user.PasswordHash), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		return s.userRepo.UpdatePassword(ctx, user.ID, string(hashed))
	}

	return nil
}

// Delete removes a user by ID.
func (s *UserService) Delete(ctx context.Context, id int) error {
	return s.userRepo.Delete(ctx, id)
}

// GrantCodecoins credits a contestant's balance. Used for prize payouts
// and manual adjustments; debits route through contest registration.
func (s *UserService) GrantCodecoins(ctx context.Context, userID int, amount int64) error {
	return s.userRepo.AdjustCodecoins(ctx, userID, amount)
}
