package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/algobucks/platform/internal/config"
	"github.com/algobucks/platform/internal/judge"
	"github.com/algobucks/platform/internal/middleware"
	"github.com/algobucks/platform/internal/model"
	"github.com/algobucks/platform/internal/response"
	"github.com/algobucks/platform/internal/service"
	"github.com/algobucks/platform/internal/validator"
)

// SubmissionHandler handles code evaluation endpoints: run, dry-run,
// scored submit, history, and the auto-submit beacon.
type SubmissionHandler struct {
	submissionService *service.SubmissionService
	authService       *service.AuthService
	rdb               *redis.Client
	log               zerolog.Logger
}

// NewSubmissionHandler creates a new SubmissionHandler.
func NewSubmissionHandler(
	submissionService *service.SubmissionService,
	authService *service.AuthService,
	rdb *redis.Client,
	log zerolog.Logger,
) *SubmissionHandler {
	return &SubmissionHandler{
		submissionService: submissionService,
		authService:       authService,
		rdb:               rdb,
		log:               log.With().Str("component", "submission_handler").Logger(),
	}
}

// RunCode godoc
// POST /api/v1/submissions/run
// Evaluates code against the sample tests. Nothing is recorded.
func (h *SubmissionHandler) RunCode(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.RunCodeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.submissionService.Run(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		if errors.Is(err, judge.ErrUnavailable) {
			response.Fail(c, http.StatusServiceUnavailable, response.ErrJudgeUnavailable)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// DryRunCode godoc
// POST /api/v1/submissions/dry-run
// Evaluates code against the full hidden sweep; recorded but unscored.
func (h *SubmissionHandler) DryRunCode(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.RunCodeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.submissionService.DryRun(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		if errors.Is(err, judge.ErrUnavailable) {
			response.Fail(c, http.StatusServiceUnavailable, response.ErrJudgeUnavailable)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// SubmitCode godoc
// POST /api/v1/contests/:contest_id/submissions
// Records a scored submission inside a live contest session.
func (h *SubmissionHandler) SubmitCode(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	contestID, err := uuid.Parse(c.Param("contest_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SubmitCodeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.submissionService.Submit(c.Request.Context(), contestID, claims.UserID, &req)
	if err != nil {
		if errors.Is(err, judge.ErrUnavailable) {
			response.Fail(c, http.StatusServiceUnavailable, response.ErrJudgeUnavailable)
			return
		}
		errMsg := err.Error()
		switch {
		case strings.Contains(errMsg, "no active contest session"):
			response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		case strings.Contains(errMsg, "already completed"):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPhase)
		case strings.Contains(errMsg, "has ended"):
			response.Fail(c, http.StatusBadRequest, response.ErrContestEnded)
		case strings.Contains(errMsg, "not part of this contest"):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// GetHistory godoc
// GET /api/v1/contests/:contest_id/submissions?problem=…
// Lists the contestant's own submissions within a contest.
func (h *SubmissionHandler) GetHistory(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	contestID, err := uuid.Parse(c.Param("contest_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	var problemID *uuid.UUID
	if pidStr := c.Query("problem"); pidStr != "" {
		pid, err := uuid.Parse(pidStr)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		problemID = &pid
	}

	subs, pagination, err := h.submissionService.History(c.Request.Context(), contestID, claims.UserID, problemID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"submissions": subs}, pagination)
}

// AutoSubmitBeacon godoc
// POST /api/v1/contests/:contest_id/autosubmit
// Accepts a fire-and-forget beacon carrying the contestant's final code
// and enqueues it for the auto-submit worker. Beacons cannot set
// headers, so the session token rides in the body. Always fast: the
// worker decides later whether the session actually ended.
func (h *SubmissionHandler) AutoSubmitBeacon(c *gin.Context) {
	contestID, err := uuid.Parse(c.Param("contest_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.AutoSubmitRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims, err := h.authService.ValidateToken(req.Token)
	if err != nil || claims.TokenType != service.TokenTypeUser {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
		return
	}
	if err := h.authService.ValidateUserSession(c.Request.Context(), claims.UserID, claims.ID); err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
		return
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"contest_id": contestID.String(),
		"user_id":    claims.UserID,
		"problem_id": req.ProblemID.String(),
		"language":   req.Language,
		"user_code":  req.UserCode,
		"at":         req.At,
	})
	if err := h.rdb.RPush(c.Request.Context(), config.WorkerKey.AutoSubmitQueue, payload).Err(); err != nil {
		h.log.Error().Err(err).
			Str("contest_id", contestID.String()).
			Int("user_id", claims.UserID).
			Msg("Failed to enqueue auto-submit beacon")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"message": "queued"})
}
