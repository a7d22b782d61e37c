package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/algobucks/platform/internal/middleware"
	"github.com/algobucks/platform/internal/response"
	"github.com/algobucks/platform/internal/service"
)

// AdminUserHandler manages the admin accounts themselves.
type AdminUserHandler struct {
	service *service.AdminUserService
}

func NewAdminUserHandler(service *service.AdminUserService) *AdminUserHandler {
	return &AdminUserHandler{service: service}
}

// ListAdmins godoc
// GET /api/v1/admin/admins
func (h *AdminUserHandler) ListAdmins(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	admins, total, err := h.service.ListAdmins(c.Request.Context(), page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, admins, response.NewPagination(page, perPage, total))
}

// CreateAdminRequest payload
type CreateAdminRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required,min=3"`
	Password string `json:"password" binding:"required,min=6"`
}

// CreateAdmin handles creating a new admin.
func (h *AdminUserHandler) CreateAdmin(c *gin.Context) {
	var req CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	admin, err := h.service.CreateAdmin(c.Request.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		if err.Error() == "email already registered" {
			response.Fail(c, http.StatusConflict, response.ErrConflict)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, admin)
}

// UpdateAdminRequest payload
type UpdateAdminRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required,min=3"`
	Password string `json:"password"` // Optional: only update if provided
}

// UpdateAdmin handles updating an existing admin.
func (h *AdminUserHandler) UpdateAdmin(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req UpdateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	admin, err := h.service.UpdateAdmin(c.Request.Context(), id, req.Email, req.Name, req.Password)
	if err != nil {
		if err.Error() == "admin not found" {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		if err.Error() == "email already registered" {
			response.Fail(c, http.StatusConflict, response.ErrConflict)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, admin)
}

// DeleteAdmin handles deleting an admin.
func (h *AdminUserHandler) DeleteAdmin(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	// Prevent self-deletion
	claims := middleware.GetClaims(c)
	if claims != nil && claims.UserID == id {
		response.Fail(c, http.StatusConflict, response.ErrActionForbidden)
		return
	}

	err = h.service.DeleteAdmin(c.Request.Context(), id)
	if err != nil {
		if err.Error() == "admin not found" {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		// PGX error message for FK violation
		if strings.Contains(err.Error(), "violates foreign key constraint") {
			response.Fail(c, http.StatusConflict, response.ErrConflict)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Admin deleted successfully"})
}
