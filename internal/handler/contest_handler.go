package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/algobucks/platform/internal/middleware"
	"github.com/algobucks/platform/internal/model"
	"github.com/algobucks/platform/internal/response"
	"github.com/algobucks/platform/internal/service"
	"github.com/algobucks/platform/internal/validator"
)

// ContestHandler handles contest management endpoints.
type ContestHandler struct {
	contestService *service.ContestService
	sessionService *service.ContestSessionService
}

// NewContestHandler creates a new ContestHandler.
func NewContestHandler(contestService *service.ContestService, sessionService *service.ContestSessionService) *ContestHandler {
	return &ContestHandler{
		contestService: contestService,
		sessionService: sessionService,
	}
}

// ListContests godoc
// GET /api/v1/admin/contests
// Lists contests with pagination, optionally filtered by status.
func (h *ContestHandler) ListContests(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))
	status := model.ContestStatus(c.Query("status"))

	contests, pagination, err := h.contestService.List(c.Request.Context(), status, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"contests": contests}, pagination)
}

// CreateContest godoc
// POST /api/v1/admin/contests
// Creates a new draft contest.
func (h *ContestHandler) CreateContest(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateContestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	contest := &model.Contest{
		Slug:         req.Slug,
		Title:        req.Title,
		Description:  req.Description,
		Rules:        req.Rules,
		PrizeDetails: req.PrizeDetails,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		EntryFee:     req.EntryFee,
		CreatedBy:    claims.UserID,
	}
	if req.DurationMinutes > 0 {
		contest.DurationMinutes = req.DurationMinutes
	}

	if err := h.contestService.Create(c.Request.Context(), contest); err != nil {
		if strings.Contains(err.Error(), "duplicate") {
			response.Fail(c, http.StatusConflict, response.ErrConflict)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"contest": contest})
}

// GetContest godoc
// GET /api/v1/admin/contests/:contest_id
// Returns a single contest with its problem set.
func (h *ContestHandler) GetContest(c *gin.Context) {
	contestID, err := uuid.Parse(c.Param("contest_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	contest, err := h.contestService.GetByID(c.Request.Context(), contestID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	problems, err := h.contestService.ListProblems(c.Request.Context(), contestID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"contest":  contest,
		"problems": problems,
	})
}

// UpdateContest godoc
// PUT /api/v1/admin/contests/:contest_id
// Updates a draft contest. Published contests are immutable.
func (h *ContestHandler) UpdateContest(c *gin.Context) {
	contestID, err := uuid.Parse(c.Param("contest_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateContestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	contest, err := h.contestService.GetByID(c.Request.Context(), contestID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	// Merge partial fields onto the stored row.
	if req.Title != "" {
		contest.Title = req.Title
	}
	if req.Description != "" {
		contest.Description = req.Description
	}
	if req.Rules != "" {
		contest.Rules = req.Rules
	}
	if req.PrizeDetails != "" {
		contest.PrizeDetails = req.PrizeDetails
	}
	if req.StartTime != nil {
		contest.StartTime = req.StartTime
	}
	if req.EndTime != nil {
		contest.EndTime = req.EndTime
	}
	if req.DurationMinutes != nil {
		contest.DurationMinutes = *req.DurationMinutes
	}
	if req.EntryFee != nil {
		contest.EntryFee = *req.EntryFee
	}

	if err := h.contestService.Update(c.Request.Context(), contest); err != nil {
		if errors.Is(err, service.ErrContestNotDraft) {
			response.Fail(c, http.StatusBadRequest, response.ErrContestNotDraft)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"contest": contest})
}

// PublishContest godoc
// POST /api/v1/admin/contests/:contest_id/publish
// Publishes a contest: validates timing, caches payload to Redis, changes status.
func (h *ContestHandler) PublishContest(c *gin.Context) {
	contestID, err := uuid.Parse(c.Param("contest_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.contestService.Publish(c.Request.Context(), contestID); err != nil {
		switch {
		case errors.Is(err, service.ErrNoProblems):
			response.Fail(c, http.StatusBadRequest, response.ErrNoProblems)
		case errors.Is(err, service.ErrInvalidTiming):
			response.Fail(c, http.StatusBadRequest, response.ErrValidation)
		case strings.Contains(err.Error(), "expected DRAFT"):
			response.Fail(c, http.StatusBadRequest, response.ErrContestNotDraft)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "contest published successfully"})
}

// ArchiveContest godoc
// POST /api/v1/admin/contests/:contest_id/archive
// Retires a published contest and drops its cached payload.
func (h *ContestHandler) ArchiveContest(c *gin.Context) {
	contestID, err := uuid.Parse(c.Param("contest_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.contestService.Archive(c.Request.Context(), contestID); err != nil {
		if errors.Is(err, service.ErrContestNotPublished) {
			response.Fail(c, http.StatusBadRequest, response.ErrContestNotPublished)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "contest archived successfully"})
}

// RefreshContestCache godoc
// POST /api/v1/admin/contests/:contest_id/refresh-cache
// Re-caches the contest payload to Redis after problem set changes.
func (h *ContestHandler) RefreshContestCache(c *gin.Context) {
	contestID, err := uuid.Parse(c.Param("contest_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.contestService.RefreshCache(c.Request.Context(), contestID); err != nil {
		switch {
		case errors.Is(err, service.ErrContestNotPublished):
			response.Fail(c, http.StatusBadRequest, response.ErrContestNotPublished)
		case errors.Is(err, service.ErrNoProblems):
			response.Fail(c, http.StatusBadRequest, response.ErrNoProblems)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "contest cache refreshed successfully"})
}

// AttachProblem godoc
// POST /api/v1/admin/contests/:contest_id/problems
// Links a problem into a draft contest's ordered set.
func (h *ContestHandler) AttachProblem(c *gin.Context) {
	contestID, err := uuid.Parse(c.Param("contest_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.AttachProblemRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.contestService.AttachProblem(c.Request.Context(), contestID, &req); err != nil {
		switch {
		case errors.Is(err, service.ErrContestNotDraft):
			response.Fail(c, http.StatusBadRequest, response.ErrContestNotDraft)
		case strings.Contains(err.Error(), "get problem"):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"message": "problem attached"})
}

// DetachProblem godoc
// DELETE /api/v1/admin/contests/:contest_id/problems/:problem_id
// Removes a problem from a draft contest.
func (h *ContestHandler) DetachProblem(c *gin.Context) {
	contestID, err := uuid.Parse(c.Param("contest_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	problemID, err := uuid.Parse(c.Param("problem_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.contestService.DetachProblem(c.Request.Context(), contestID, problemID); err != nil {
		if errors.Is(err, service.ErrContestNotDraft) {
			response.Fail(c, http.StatusBadRequest, response.ErrContestNotDraft)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "problem detached"})
}

// ReorderProblems godoc
// PUT /api/v1/admin/contests/:contest_id/problems/order
// Replaces the display order of a draft contest's problem set.
func (h *ContestHandler) ReorderProblems(c *gin.Context) {
	contestID, err := uuid.Parse(c.Param("contest_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.ReorderProblemsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.contestService.ReorderProblems(c.Request.Context(), contestID, req.ProblemIDs); err != nil {
		if errors.Is(err, service.ErrContestNotDraft) {
			response.Fail(c, http.StatusBadRequest, response.ErrContestNotDraft)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "problem order updated"})
}

// GetContestResults godoc
// GET /api/v1/admin/contests/:contest_id/results
// Returns paginated contestant results, optionally filtered by phase.
func (h *ContestHandler) GetContestResults(c *gin.Context) {
	contestID, err := uuid.Parse(c.Param("contest_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	var phase *model.ContestPhase
	if phaseStr := c.Query("phase"); phaseStr != "" {
		p := model.ContestPhase(phaseStr)
		if !p.Valid() {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
			return
		}
		phase = &p
	}

	results, total, err := h.sessionService.GetResults(c.Request.Context(), contestID, page, perPage, phase)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	pagination := response.NewPagination(page, perPage, int(total))

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": results}, pagination)
}
