package session

import (
	"github.com/algobucks/platform/internal/apiclient"
	"github.com/algobucks/platform/internal/model"
)

// EventType tags controller notifications consumed by the UI loop.
type EventType string

const (
	EventPhaseChanged          EventType = "phase_changed"
	EventTick                  EventType = "tick"
	EventContestEnded          EventType = "contest_ended"
	EventLeaderboardUpdated    EventType = "leaderboard_updated"
	EventClarificationsUpdated EventType = "clarifications_updated"
	EventVerdictReceived       EventType = "verdict_received"
)

// Event is one controller notification. Only the fields relevant to
// its type are set.
type Event struct {
	Type       EventType
	Phase      model.ContestPhase
	TimeLeft   int
	Verdict    model.Verdict
	Evaluation *apiclient.Evaluation
}

// Events is the controller's notification stream. It closes on
// Shutdown.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// emit delivers ev without ever blocking the controller. A UI that
// falls behind loses intermediate ticks, never correctness. The mutex
// orders emits against the channel close in Shutdown.
func (c *Controller) emit(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.events <- ev:
	default:
	}
}
