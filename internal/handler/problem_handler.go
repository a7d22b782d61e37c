package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/algobucks/platform/internal/model"
	"github.com/algobucks/platform/internal/response"
	"github.com/algobucks/platform/internal/service"
	"github.com/algobucks/platform/internal/validator"
)

// ProblemHandler handles the problem catalog. Listing and single reads
// are public; mutations are admin-only.
type ProblemHandler struct {
	problemService *service.ProblemService
}

// NewProblemHandler creates a new ProblemHandler.
func NewProblemHandler(problemService *service.ProblemService) *ProblemHandler {
	return &ProblemHandler{problemService: problemService}
}

// ListProblems godoc
// GET /api/v1/problems
// Lists problems with pagination, optionally filtered by difficulty.
func (h *ProblemHandler) ListProblems(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))
	difficulty := model.Difficulty(strings.ToUpper(c.Query("difficulty")))

	switch difficulty {
	case "", model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard:
	default:
		response.Fail(c, http.StatusBadRequest, response.ErrValidation)
		return
	}

	problems, pagination, err := h.problemService.List(c.Request.Context(), difficulty, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"problems": problems}, pagination)
}

// GetProblem godoc
// GET /api/v1/problems/:problem_id
// Returns a single problem by UUID or slug.
func (h *ProblemHandler) GetProblem(c *gin.Context) {
	param := c.Param("problem_id")

	var problem *model.Problem
	var err error
	if id, parseErr := uuid.Parse(param); parseErr == nil {
		problem, err = h.problemService.GetByID(c.Request.Context(), id)
	} else {
		problem, err = h.problemService.GetBySlug(c.Request.Context(), param)
	}
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"problem": problem})
}

// CreateProblem godoc
// POST /api/v1/admin/problems
// Creates a new problem.
func (h *ProblemHandler) CreateProblem(c *gin.Context) {
	var req model.CreateProblemRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	problem := &model.Problem{
		Slug:          req.Slug,
		Title:         req.Title,
		Statement:     req.Statement,
		Difficulty:    model.Difficulty(req.Difficulty),
		TimeLimitMS:   req.TimeLimitMS,
		MemoryLimitKB: req.MemoryLimitKB,
		StarterCode:   req.StarterCode,
		SampleTests:   req.SampleTests,
	}

	if err := h.problemService.Create(c.Request.Context(), problem); err != nil {
		if strings.Contains(err.Error(), "duplicate") {
			response.Fail(c, http.StatusConflict, response.ErrConflict)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"problem": problem})
}

// UpdateProblem godoc
// PUT /api/v1/admin/problems/:problem_id
// Partially updates a problem. Omitted fields keep their value.
func (h *ProblemHandler) UpdateProblem(c *gin.Context) {
	problemID, err := uuid.Parse(c.Param("problem_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateProblemRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	problem, err := h.problemService.GetByID(c.Request.Context(), problemID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	if req.Title != "" {
		problem.Title = req.Title
	}
	if req.Statement != "" {
		problem.Statement = req.Statement
	}
	if req.Difficulty != "" {
		problem.Difficulty = model.Difficulty(req.Difficulty)
	}
	if req.TimeLimitMS != nil {
		problem.TimeLimitMS = *req.TimeLimitMS
	}
	if req.MemoryLimitKB != nil {
		problem.MemoryLimitKB = *req.MemoryLimitKB
	}
	if len(req.StarterCode) > 0 {
		problem.StarterCode = req.StarterCode
	}
	if len(req.SampleTests) > 0 {
		problem.SampleTests = req.SampleTests
	}

	if err := h.problemService.Update(c.Request.Context(), problem); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"problem": problem})
}

// DeleteProblem godoc
// DELETE /api/v1/admin/problems/:problem_id
// Removes a problem. Refused while any contest still references it.
func (h *ProblemHandler) DeleteProblem(c *gin.Context) {
	problemID, err := uuid.Parse(c.Param("problem_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.problemService.Delete(c.Request.Context(), problemID); err != nil {
		if strings.Contains(err.Error(), "attached to a contest") {
			response.Fail(c, http.StatusConflict, response.ErrConflict)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "problem deleted"})
}
