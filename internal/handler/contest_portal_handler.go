package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/algobucks/platform/internal/middleware"
	"github.com/algobucks/platform/internal/model"
	"github.com/algobucks/platform/internal/response"
	"github.com/algobucks/platform/internal/service"
	"github.com/algobucks/platform/internal/validator"
)

// ContestPortalHandler handles contestant-facing endpoints (lobby,
// registration, contest taking, leaderboard, clarifications).
type ContestPortalHandler struct {
	sessionService       *service.ContestSessionService
	contestService       *service.ContestService
	leaderboardService   *service.LeaderboardService
	clarificationService *service.ClarificationService
}

// NewContestPortalHandler creates a new ContestPortalHandler.
func NewContestPortalHandler(
	sessionService *service.ContestSessionService,
	contestService *service.ContestService,
	leaderboardService *service.LeaderboardService,
	clarificationService *service.ClarificationService,
) *ContestPortalHandler {
	return &ContestPortalHandler{
		sessionService:       sessionService,
		contestService:       contestService,
		leaderboardService:   leaderboardService,
		clarificationService: clarificationService,
	}
}

// contestStarted reports whether the contest window has opened. Contests
// without an explicit start are open immediately.
func contestStarted(contest *model.Contest, now time.Time) bool {
	return contest.StartTime == nil || !contest.StartTime.After(now)
}

// ListContests godoc
// GET /api/v1/contests
// Lists published contests with pagination. No auth required.
func (h *ContestPortalHandler) ListContests(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	contests, pagination, err := h.contestService.List(c.Request.Context(), model.ContestStatusPublished, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"contests": contests}, pagination)
}

// GetContest godoc
// GET /api/v1/contests/:contest_id
// Returns a published contest by ID or slug. With ?populate=problems the
// problem set is embedded as full objects (empty before the contest
// starts); otherwise the response carries problem ID references only.
func (h *ContestPortalHandler) GetContest(c *gin.Context) {
	idOrSlug := c.Param("contest_id")

	var contest *model.Contest
	var err error
	if id, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		contest, err = h.contestService.GetByID(c.Request.Context(), id)
	} else {
		contest, err = h.contestService.GetBySlug(c.Request.Context(), idOrSlug)
	}
	if err != nil || contest.Status != model.ContestStatusPublished {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	if c.Query("populate") == "problems" {
		problems := []model.ProblemForContestant{}
		if contestStarted(contest, time.Now()) {
			if payload, payloadErr := h.contestService.GetContestPayload(c.Request.Context(), contest.ID); payloadErr == nil {
				problems = payload.Problems
			}
		}
		response.Success(c, http.StatusOK, gin.H{
			"contest":  contest,
			"problems": problems,
		})
		return
	}

	refs, err := h.contestService.ListProblemRefs(c.Request.Context(), contest.ID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if refs == nil {
		refs = []uuid.UUID{}
	}

	response.Success(c, http.StatusOK, gin.H{
		"contest":  contest,
		"problems": refs,
	})
}

// GetContestProblems godoc
// GET /api/v1/contests/:contest_id/problems
// Returns the full problem set from the Redis payload cache. Rejected
// with CONTEST_NOT_STARTED before the window opens.
func (h *ContestPortalHandler) GetContestProblems(c *gin.Context) {
	contestID, err := uuid.Parse(c.Param("contest_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	contest, err := h.contestService.GetByID(c.Request.Context(), contestID)
	if err != nil || contest.Status != model.ContestStatusPublished {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	if !contestStarted(contest, time.Now()) {
		response.Fail(c, http.StatusForbidden, response.ErrContestNotStarted)
		return
	}

	payload, err := h.contestService.GetContestPayload(c.Request.Context(), contestID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrContestNotPublished)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"problems": payload.Problems})
}

// GetLeaderboard godoc
// GET /api/v1/contests/:contest_id/leaderboard
// Returns current standings from the Redis cache (SQL fallback).
func (h *ContestPortalHandler) GetLeaderboard(c *gin.Context) {
	contestID, err := uuid.Parse(c.Param("contest_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	lb, err := h.leaderboardService.Get(c.Request.Context(), contestID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"leaderboard": lb})
}

// GetLobby godoc
// GET /api/v1/lobby
// Returns published contests with the contestant's registration and
// session state overlaid.
func (h *ContestPortalHandler) GetLobby(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	lobby, err := h.sessionService.GetLobby(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if lobby == nil {
		lobby = []service.LobbyContest{}
	}

	response.Success(c, http.StatusOK, gin.H{"contests": lobby})
}

// RegisterForContest godoc
// POST /api/v1/contests/:contest_id/register
// Registers the contestant, debiting the entry fee. Idempotent.
func (h *ContestPortalHandler) RegisterForContest(c *gin.Context) {
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

	if err := h.sessionService.Register(c.Request.Context(), contestID, claims.UserID); err != nil {
		errMsg := err.Error()
		switch {
		case strings.Contains(errMsg, "not published"):
			response.Fail(c, http.StatusBadRequest, response.ErrContestNotPublished)
		case strings.Contains(errMsg, "has ended"):
			response.Fail(c, http.StatusBadRequest, response.ErrContestEnded)
		case strings.Contains(errMsg, "insufficient codecoins"):
			response.Fail(c, http.StatusBadRequest, response.ErrInsufficientCoins)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "registered"})
}

// UnregisterFromContest godoc
// DELETE /api/v1/contests/:contest_id/register
// Withdraws before the contest starts, refunding the entry fee.
func (h *ContestPortalHandler) UnregisterFromContest(c *gin.Context) {
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

	if err := h.sessionService.Unregister(c.Request.Context(), contestID, claims.UserID); err != nil {
		if strings.Contains(err.Error(), "already started") {
			response.Fail(c, http.StatusBadRequest, response.ErrActionForbidden)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "unregistered"})
}

// JoinContest godoc
// POST /api/v1/contests/:contest_id/join
// Creates a session (idempotent), anchors the timer, and returns the
// full session state including server time and timing fields.
func (h *ContestPortalHandler) JoinContest(c *gin.Context) {
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

	_, err = h.sessionService.Join(c.Request.Context(), contestID, claims.UserID)
	if err != nil {
		errMsg := err.Error()
		switch {
		case strings.Contains(errMsg, "not available for joining"):
			response.Fail(c, http.StatusBadRequest, response.ErrContestNotAvailable)
		case strings.Contains(errMsg, "has not started"):
			response.Fail(c, http.StatusForbidden, response.ErrContestNotStarted)
		case strings.Contains(errMsg, "has ended"):
			response.Fail(c, http.StatusBadRequest, response.ErrContestEnded)
		case strings.Contains(errMsg, "not registered"):
			response.Fail(c, http.StatusForbidden, response.ErrNotRegistered)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	state, err := h.sessionService.GetState(c.Request.Context(), contestID, claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// GetSessionState godoc
// GET /api/v1/contests/:contest_id/session
// Returns phase, cursor and remaining time for the contestant's session.
// This endpoint covers the page reload / TUI re-mount path.
func (h *ContestPortalHandler) GetSessionState(c *gin.Context) {
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

	state, err := h.sessionService.GetState(c.Request.Context(), contestID, claims.UserID)
	if err != nil {
		if strings.Contains(err.Error(), "get session") {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// AdvancePhase godoc
// PATCH /api/v1/contests/:contest_id/session
// Moves the session forward through the panel order, or advances the
// problem cursor. Backward transitions are rejected.
func (h *ContestPortalHandler) AdvancePhase(c *gin.Context) {
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

	var req model.AdvancePhaseRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.sessionService.AdvancePhase(
		c.Request.Context(), contestID, claims.UserID,
		model.ContestPhase(req.Phase), req.CurrentIndex,
	)
	if err != nil {
		errMsg := err.Error()
		switch {
		case strings.Contains(errMsg, "invalid phase transition"),
			strings.Contains(errMsg, "already completed"):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPhase)
		case strings.Contains(errMsg, "get session"):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// SubmitFeedback godoc
// POST /api/v1/contests/:contest_id/feedback
// Records the post-contest rating and closes the session.
func (h *ContestPortalHandler) SubmitFeedback(c *gin.Context) {
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

	var req model.SubmitFeedbackRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.sessionService.SubmitFeedback(c.Request.Context(), contestID, claims.UserID, req.Rating, req.Comments); err != nil {
		errMsg := err.Error()
		switch {
		case strings.Contains(errMsg, "invalid phase transition"):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPhase)
		case strings.Contains(errMsg, "get session"):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "feedback submitted"})
}

// GetResults godoc
// GET /api/v1/contests/:contest_id/results
// Returns final standings. Available once the contest window has closed,
// or to contestants whose own session is completed.
func (h *ContestPortalHandler) GetResults(c *gin.Context) {
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

	contest, err := h.contestService.GetByID(c.Request.Context(), contestID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	ended := contest.EndTime != nil && contest.EndTime.Before(time.Now())
	if !ended {
		// Duration-mode contests have no shared end; a contestant sees
		// results once their own session is completed.
		verifyErr := h.sessionService.VerifyActiveSession(c.Request.Context(), contestID, claims.UserID)
		if verifyErr == nil || !strings.Contains(verifyErr.Error(), "already completed") {
			response.Fail(c, http.StatusForbidden, response.ErrActionForbidden)
			return
		}
	}

	lb, err := h.leaderboardService.Get(c.Request.Context(), contestID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"leaderboard": lb})
}

// CreateClarification godoc
// POST /api/v1/contests/:contest_id/clarifications
// Asks a question; requires a live session for the contest.
func (h *ContestPortalHandler) CreateClarification(c *gin.Context) {
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

	var req model.CreateClarificationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	clarification, err := h.clarificationService.Ask(c.Request.Context(), contestID, claims.UserID, req.Question)
	if err != nil {
		errMsg := err.Error()
		switch {
		case strings.Contains(errMsg, "no active contest session"),
			strings.Contains(errMsg, "already completed"):
			response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"clarification": clarification})
}

// ListClarifications godoc
// GET /api/v1/contests/:contest_id/clarifications
// Returns the contestant's own questions plus broadcasts, newest first.
func (h *ContestPortalHandler) ListClarifications(c *gin.Context) {
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

	clarifications, err := h.clarificationService.ListForUser(c.Request.Context(), contestID, claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"clarifications": clarifications})
}
