package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/algobucks/platform/internal/model"
	"github.com/algobucks/platform/internal/repository"
	"github.com/algobucks/platform/internal/response"
	"github.com/algobucks/platform/internal/service"
	"github.com/algobucks/platform/internal/validator"
)

// UserManagementHandler handles admin-facing contestant management
// (CRUD, session reset, codecoin grants).
type UserManagementHandler struct {
	userService *service.UserService
	authService *service.AuthService
}

// NewUserManagementHandler creates a new UserManagementHandler.
func NewUserManagementHandler(
	userService *service.UserService,
	authService *service.AuthService,
) *UserManagementHandler {
	return &UserManagementHandler{
		userService: userService,
		authService: authService,
	}
}

// ListUsers godoc
// GET /api/v1/admin/users
// Lists contestants with pagination, optionally filtered by a search term
// matched against email, username, and full name.
func (h *UserManagementHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))
	search := c.Query("search")

	users, pagination, err := h.userService.ListUsers(c.Request.Context(), search, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"users": users}, pagination)
}

// ResetUserSession godoc
// POST /api/v1/admin/users/:id/reset-session
// Clears a contestant's active Redis session, allowing them to log in on a new device.
func (h *UserManagementHandler) ResetUserSession(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.authService.ResetUserSession(c.Request.Context(), userID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "user session reset successfully"})
}

// CreateUser godoc
// POST /api/v1/admin/users
// Creates a new contestant account.
func (h *UserManagementHandler) CreateUser(c *gin.Context) {
	var req model.CreateUserRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user := &model.User{
		Email:        req.Email,
		Username:     req.Username,
		FullName:     req.FullName,
		PasswordHash: req.Password,
		Codecoins:    req.Codecoins,
	}

	// Service will hash the password.
	if err := h.userService.Create(c.Request.Context(), user); err != nil {
		if strings.Contains(err.Error(), "duplicate") {
			response.Fail(c, http.StatusConflict, response.ErrConflict)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"user": user})
}

// UpdateUser godoc
// PUT /api/v1/admin/users/:id
// Updates a contestant's details, and optionally their password.
func (h *UserManagementHandler) UpdateUser(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateUserRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user := &model.User{
		ID:           id,
		Email:        req.Email,
		Username:     req.Username,
		FullName:     req.FullName,
		PasswordHash: req.Password,
	}

	updatePassword := req.Password != ""

	if err := h.userService.Update(c.Request.Context(), user, updatePassword); err != nil {
		if strings.Contains(err.Error(), "duplicate") {
			response.Fail(c, http.StatusConflict, response.ErrConflict)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	// Fetch updated
	updatedUser, _ := h.userService.GetByID(c.Request.Context(), id)

	response.Success(c, http.StatusOK, gin.H{"user": updatedUser})
}

// DeleteUser godoc
// DELETE /api/v1/admin/users/:id
// Deletes a contestant by ID.
func (h *UserManagementHandler) DeleteUser(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.userService.Delete(c.Request.Context(), id); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "user deleted successfully"})
}

// GrantCodecoins godoc
// POST /api/v1/admin/users/:id/codecoins
// Adjusts a contestant's codecoin balance. Negative amounts debit.
func (h *UserManagementHandler) GrantCodecoins(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.GrantCodecoinsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.userService.GrantCodecoins(c.Request.Context(), id, req.Amount); err != nil {
		switch {
		case errors.Is(err, repository.ErrInsufficientCodecoins):
			response.Fail(c, http.StatusBadRequest, response.ErrInsufficientCoins)
		case errors.Is(err, pgx.ErrNoRows):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	user, _ := h.userService.GetByID(c.Request.Context(), id)

	response.Success(c, http.StatusOK, gin.H{"user": user})
}
