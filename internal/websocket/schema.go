package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionDraftSave Action = "draft_save"
	ActionPing      Action = "ping"
)

// RequestPayload carries every client action; unused fields stay empty.
type RequestPayload struct {
	Action    Action `json:"action"`
	ProblemID string `json:"problem_id,omitempty"`
	Language  string `json:"language,omitempty"`
	Code      string `json:"code,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError                 Event = "error"
	EventSuccess               Event = "success"
	EventPong                  Event = "pong"
	EventLeaderboardUpdated    Event = "leaderboard_updated"
	EventClarificationAnswered Event = "clarification_answered"
	EventContestEnded          Event = "contest_ended"
)

// EventPayload is the envelope for every server-pushed event.
type EventPayload struct {
	Event Event       `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}
