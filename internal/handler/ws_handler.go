package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/algobucks/platform/internal/config"
	"github.com/algobucks/platform/internal/middleware"
	"github.com/algobucks/platform/internal/service"
	ws "github.com/algobucks/platform/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams live contest events and accepts draft saves.
type WSHandler struct {
	rdb            *redis.Client
	sessionService *service.ContestSessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, sessionService *service.ContestSessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:            rdb,
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// ContestStream godoc
// WS /ws/contests/:id
// Upgrades to WebSocket: pushes contest events (standings, clarifications,
// contest end) and accepts periodic draft saves.
func (h *WSHandler) ContestStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	contestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contest ID"})
		return
	}

	rawConn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.Wrap(rawConn)
	defer conn.Close()

	userID := claims.UserID

	// SECURITY: Validate the contestant has an active session before streaming.
	if err := h.sessionService.VerifyActiveSession(c.Request.Context(), contestID, userID); err != nil {
		conn.WriteError("no active session for this contest")
		return
	}
	draftsKey := config.CacheKey.UserDraftsKey(contestID.String(), userID)

	wsLog := h.log.With().
		Int("user_id", userID).
		Str("contest_id", contestID.String()).
		Logger()

	wsLog.Info().Msg("Contestant connected")

	// Forward contest events from Redis Pub/Sub until the read loop exits.
	streamCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.forwardEvents(streamCtx, conn, wsLog, contestID)

	for {
		// Use helper to read message with deadline handling.
		var msg ws.RequestPayload
		err := conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		switch msg.Action {
		case ws.ActionDraftSave:
			h.handleDraftSave(conn, draftsKey, userID, contestID, &msg)
		case ws.ActionPing:
			conn.WriteTyped(ws.EventPayload{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			conn.WriteError("unknown action: " + string(msg.Action))
		}
	}
}

// forwardEvents pumps the contest's pub/sub channel into the socket.
// Payloads are already wire-shaped {event, data} JSON.
func (h *WSHandler) forwardEvents(ctx context.Context, conn *ws.Conn, wsLog zerolog.Logger, contestID uuid.UUID) {
	pubsub := h.rdb.Subscribe(ctx, config.CacheKey.ContestEventsChannel(contestID.String()))
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteRaw([]byte(msg.Payload)); err != nil {
				wsLog.Debug().Err(err).Msg("Event forward failed, dropping subscriber")
				return
			}
		}
	}
}

// handleDraftSave mirrors the draft into Redis and queues it for the
// auto-submit worker, which persists it as a snapshot.
func (h *WSHandler) handleDraftSave(conn *ws.Conn, draftsKey string, userID int, contestID uuid.UUID, msg *ws.RequestPayload) {
	ctx := context.Background()

	if msg.ProblemID == "" || msg.Language == "" || msg.Code == "" {
		conn.WriteError("problem_id, language and code are required")
		return
	}

	// SECURITY: Validate problem_id is a well-formed UUID to prevent Redis key injection.
	if _, err := uuid.Parse(msg.ProblemID); err != nil {
		conn.WriteError("invalid problem_id format")
		return
	}

	field := msg.ProblemID + "::" + msg.Language
	if err := h.rdb.HSet(ctx, draftsKey, field, msg.Code).Err(); err != nil {
		h.log.Error().Err(err).Int("user_id", userID).Msg("Draft save Redis error")
		conn.WriteError("save failed")
		return
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"contest_id": contestID.String(),
		"user_id":    userID,
		"problem_id": msg.ProblemID,
		"language":   msg.Language,
		"user_code":  msg.Code,
		"at":         time.Now().UnixMilli(),
	})
	h.rdb.RPush(ctx, config.WorkerKey.AutoSubmitQueue, payload)

	conn.WriteJSON(ws.EventSuccess, map[string]string{"status": "saved"})
}
