package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/algobucks/platform/internal/config"
	"github.com/algobucks/platform/internal/middleware"
	"github.com/algobucks/platform/internal/model"
	"github.com/algobucks/platform/internal/response"
	"github.com/algobucks/platform/internal/service"
)

const (
	refreshInterval   = 15 * time.Second
	keepAliveInterval = 30 * time.Second
	refreshTimeout    = 5 * time.Second // prevent slow queries from blocking the SSE loop
)

type MonitorHandler struct {
	rdb            *redis.Client
	contestService *service.ContestService
	sessionService *service.ContestSessionService
	monitorService *service.MonitorService
	log            zerolog.Logger
}

func NewMonitorHandler(
	rdb *redis.Client,
	contestService *service.ContestService,
	sessionService *service.ContestSessionService,
	monitorService *service.MonitorService,
	log zerolog.Logger,
) *MonitorHandler {
	return &MonitorHandler{
		rdb:            rdb,
		contestService: contestService,
		sessionService: sessionService,
		monitorService: monitorService,
		log:            log.With().Str("component", "monitor_handler").Logger(),
	}
}

// MonitorContestSSE godoc
// GET /api/v1/admin/contests/:contest_id/monitor
func (h *MonitorHandler) MonitorContestSSE(c *gin.Context) {
	// 1. Auth check
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

	reqCtx := c.Request.Context()

	// 2. SSE headers
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")

	// 3. Build & send initial snapshot
	h.sendInitialSnapshot(c, reqCtx, contestID, contest)

	// 4. Subscribe to Redis Pub/Sub
	channelName := config.CacheKey.ContestMonitorChannel(contestID.String())
	pubsub := h.rdb.Subscribe(reqCtx, channelName)
	defer pubsub.Close()

	ch := pubsub.Channel()

	keepAliveTicker := time.NewTicker(keepAliveInterval)
	defer keepAliveTicker.Stop()

	refreshTicker := time.NewTicker(refreshInterval)
	defer refreshTicker.Stop()

	// Track whether any contestant has joined so we can skip empty refreshes
	hasContestants := false

	h.log.Info().
		Str("contest_id", contestID.String()).
		Str("request_id", response.GetRequestID(c)).
		Msg("Admin attached to live monitor SSE")

	// Pre-allocate a reusable ping payload (never changes)
	pingPayload, _ := json.Marshal(map[string]string{"type": "ping"})

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().
				Str("contest_id", contestID.String()).
				Str("request_id", response.GetRequestID(c)).
				Msg("Admin disconnected from live monitor SSE")
			return

		case msg := <-ch:
			// Forward raw JSON directly, no deserialization needed
			c.Writer.Write([]byte("data: "))
			c.Writer.Write([]byte(msg.Payload))
			c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()

			// A join/submit event proves someone is in the contest
			hasContestants = true

		case <-refreshTicker.C:
			if !hasContestants {
				continue // no point querying if nobody has joined
			}
			h.sendRefresh(c, reqCtx, contestID)

		case <-keepAliveTicker.C:
			c.Writer.Write([]byte("data: "))
			c.Writer.Write(pingPayload)
			c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		}
	}
}

// sendInitialSnapshot gathers data and writes the first SSE event.
func (h *MonitorHandler) sendInitialSnapshot(
	c *gin.Context,
	ctx context.Context,
	contestID uuid.UUID,
	contest *model.Contest,
) {
	results, _, _ := h.sessionService.GetResults(ctx, contestID, 1, 1000, nil)

	totalJoined := len(results)
	totalInProgress := 0
	totalCompleted := 0

	contestantsSnapshot := make([]map[string]interface{}, 0, len(results))
	for _, res := range results {
		if res.Phase == model.PhaseCompleted {
			totalCompleted++
		} else {
			totalInProgress++
		}

		contestantsSnapshot = append(contestantsSnapshot, map[string]interface{}{
			"user_id":          res.UserID,
			"username":         res.Username,
			"full_name":        res.FullName,
			"phase":            res.Phase,
			"current_index":    res.CurrentIndex,
			"auto_submitted":   res.AutoSubmitted,
			"started_at":       res.StartedAt,
			"score":            res.Score,
			"solved":           res.Solved,
			"submission_count": int64(0),
			"total_problems":   contest.ProblemCount,
		})
	}

	// Fetch counts with a timeout so a slow query doesn't block the connection
	var totalAccepted int64
	var recentActivity []map[string]interface{}
	fetchCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	if progress, err := h.monitorService.GetContestProgress(fetchCtx, contestID); err == nil {
		totalAccepted = progress.TotalAccepted
		for i, s := range contestantsSnapshot {
			uid, ok := s["user_id"].(int)
			if !ok {
				continue
			}
			if count, found := progress.SubmissionCounts[uid]; found {
				contestantsSnapshot[i]["submission_count"] = count
			}
		}
		recentActivity = make([]map[string]interface{}, 0, len(progress.RecentActivity))
		for _, a := range progress.RecentActivity {
			recentActivity = append(recentActivity, map[string]interface{}{
				"user_id":     a.UserID,
				"kind":        a.Kind,
				"detail":      a.Detail,
				"recorded_at": a.RecordedAt,
			})
		}
	}

	c.SSEvent("message", map[string]interface{}{
		"type": "snapshot",
		"data": map[string]interface{}{
			"contest": map[string]interface{}{
				"id":             contestID.String(),
				"title":          contest.Title,
				"duration":       contest.DurationMinutes,
				"total_problems": contest.ProblemCount,
			},
			"stats": map[string]interface{}{
				"total_joined":      totalJoined,
				"total_in_progress": totalInProgress,
				"total_completed":   totalCompleted,
				"total_accepted":    totalAccepted,
			},
			"contestants": contestantsSnapshot,
			"activity":    recentActivity,
		},
	})
	c.Writer.Flush()
}

// sendRefresh polls DB+Redis for current progress and sends a compact refresh event.
func (h *MonitorHandler) sendRefresh(c *gin.Context, parentCtx context.Context, contestID uuid.UUID) {
	// Scoped timeout prevents a slow query from stalling the SSE loop
	ctx, cancel := context.WithTimeout(parentCtx, refreshTimeout)
	defer cancel()

	progress, err := h.monitorService.GetContestProgress(ctx, contestID)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to fetch contest progress for refresh")
		return
	}

	// Single-pass merge: iterate submission counts, decorate with accepts
	progressData := make([]map[string]interface{}, 0, len(progress.SubmissionCounts)+len(progress.AcceptedCounts))

	for uid, submitted := range progress.SubmissionCounts {
		progressData = append(progressData, map[string]interface{}{
			"user_id":          uid,
			"submission_count": submitted,
			"accepted_count":   progress.AcceptedCounts[uid], // 0 if missing
		})
		delete(progress.AcceptedCounts, uid) // mark as handled
	}

	// Remaining accept-only contestants (counts arrived out of sync)
	for uid, accepted := range progress.AcceptedCounts {
		progressData = append(progressData, map[string]interface{}{
			"user_id":          uid,
			"submission_count": int64(0),
			"accepted_count":   accepted,
		})
	}

	c.SSEvent("message", map[string]interface{}{
		"type":           "refresh",
		"total_accepted": progress.TotalAccepted,
		"contestants":    progressData,
	})
	c.Writer.Flush()
}
