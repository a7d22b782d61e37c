package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/algobucks/platform/internal/middleware"
	"github.com/algobucks/platform/internal/model"
	"github.com/algobucks/platform/internal/response"
	"github.com/algobucks/platform/internal/service"
	"github.com/algobucks/platform/internal/validator"
)

// ClarificationHandler handles the admin side of clarifications:
// answering contestant questions and posting broadcasts. The contestant
// side lives on ContestPortalHandler.
type ClarificationHandler struct {
	clarificationService *service.ClarificationService
}

// NewClarificationHandler creates a new ClarificationHandler.
func NewClarificationHandler(clarificationService *service.ClarificationService) *ClarificationHandler {
	return &ClarificationHandler{clarificationService: clarificationService}
}

// ListClarifications godoc
// GET /api/v1/admin/contests/:contest_id/clarifications
// Lists every clarification in a contest, unanswered first.
func (h *ClarificationHandler) ListClarifications(c *gin.Context) {
	contestID, err := uuid.Parse(c.Param("contest_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	clarifications, err := h.clarificationService.ListByContest(c.Request.Context(), contestID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"clarifications": clarifications})
}

// AnswerClarification godoc
// POST /api/v1/admin/clarifications/:clarification_id/answer
// Answers a contestant question and notifies connected contestants.
func (h *ClarificationHandler) AnswerClarification(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	clarificationID, err := uuid.Parse(c.Param("clarification_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.AnswerClarificationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	clarification, err := h.clarificationService.Answer(c.Request.Context(), clarificationID, claims.UserID, req.Answer)
	if err != nil {
		if strings.Contains(err.Error(), "clarification not found") {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"clarification": clarification})
}

// BroadcastClarification godoc
// POST /api/v1/admin/contests/:contest_id/clarifications/broadcast
// Posts an announcement visible to every contestant in the contest.
func (h *ClarificationHandler) BroadcastClarification(c *gin.Context) {
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

	var req model.BroadcastClarificationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	clarification, err := h.clarificationService.Broadcast(c.Request.Context(), contestID, claims.UserID, req.Question, req.Answer)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"clarification": clarification})
}
