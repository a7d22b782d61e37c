package session

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/algobucks/platform/internal/apiclient"
	"github.com/algobucks/platform/internal/model"
)

// AnchorKey is the anchor-store key holding a contest's first-entry
// timestamp in epoch milliseconds.
func AnchorKey(contestID uuid.UUID) string {
	return "contestTimerStartedAt::" + contestID.String()
}

// nowLocked is the synced clock: local time shifted by the server
// offset. Everything in the controller reads time through it.
func (c *Controller) nowLocked() int64 {
	return c.clock.Now().UnixMilli() + c.offsetMS
}

// resolveTimingLocked pins the countdown window. An explicit window
// wins; duration contests anchor at first entry, and the anchor is
// reused on every re-mount so a refresh can never extend the clock;
// contests with no timing at all get a synthetic 30-minute window,
// anchored the same way.
func (c *Controller) resolveTimingLocked(state *model.SessionState) {
	if c.timing.Mode == apiclient.TimingWindow {
		c.startMS = c.timing.StartMs
		c.endMS = c.timing.EndMs
		return
	}

	durationMS := int64(c.timing.DurationSec) * 1000
	if c.timing.Mode == apiclient.TimingFallback {
		durationMS = fallbackWindow.Milliseconds()
	}

	anchor := c.anchorLocked(state)
	c.startMS = anchor
	c.endMS = anchor + durationMS
}

// anchorLocked returns the first-entry timestamp. The server's record
// wins and is mirrored locally; otherwise the local record wins;
// otherwise now becomes the anchor and is persisted write-once.
func (c *Controller) anchorLocked(state *model.SessionState) int64 {
	key := AnchorKey(c.contest.ID)

	if state != nil && state.TimerStartMS > 0 {
		if err := c.anchors.Force(key, strconv.FormatInt(state.TimerStartMS, 10)); err != nil {
			c.log.Warn().Err(err).Msg("Persisting server timer anchor failed")
		}
		return state.TimerStartMS
	}

	if raw, ok := c.anchors.Get(key); ok {
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil && ms > 0 {
			return ms
		}
	}

	anchor := c.nowLocked()
	if err := c.anchors.Set(key, strconv.FormatInt(anchor, 10)); err != nil {
		c.log.Warn().Err(err).Msg("Persisting timer anchor failed")
	}
	return anchor
}

// latchEndedLocked flips the ended flag once now passes the deadline
// plus grace, and reports whether this call flipped it. The flag never
// clears, even if a later re-sync moves now backwards. Before the
// window is pinned (endMS zero) nothing latches.
func (c *Controller) latchEndedLocked(now int64) bool {
	if c.endMS == 0 {
		return false
	}
	if !c.ended && now >= c.endMS+graceMS {
		c.ended = true
		return true
	}
	return false
}

// timeLeftLocked is the display value in whole seconds, rounded up.
// Inside the grace window it stays at 1; only the ended flag takes it
// to 0.
func (c *Controller) timeLeftLocked(now int64) int {
	if c.ended || c.endMS == 0 {
		return 0
	}
	left := c.endMS - now
	if left <= 0 {
		return 1
	}
	return int((left + 999) / 1000)
}

// TimeLeft returns the seconds remaining on the contest clock. While
// the contest is running it never reports below 1; 0 means ended.
func (c *Controller) TimeLeft() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.nowLocked()
	c.latchEndedLocked(now)
	return c.timeLeftLocked(now)
}

// Ended reports whether the contest clock has run out. Monotonic: once
// true it stays true. The phase does not change on expiry; the flag
// only gates scored submissions.
func (c *Controller) Ended() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latchEndedLocked(c.nowLocked())
	return c.ended
}

func (c *Controller) tickLoop(ctx context.Context) {
	defer c.wg.Done()
	t := c.clock.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.Chan():
			c.onTick()
		}
	}
}

// onTick advances the latch and pushes a tick to the UI. The ended
// announcement fires exactly once even when an accessor latched the
// flag first.
func (c *Controller) onTick() {
	c.mu.Lock()
	now := c.nowLocked()
	c.latchEndedLocked(now)
	left := c.timeLeftLocked(now)
	announce := c.ended && !c.endedTold
	if announce {
		c.endedTold = true
	}
	c.mu.Unlock()

	c.emit(Event{Type: EventTick, TimeLeft: left})
	if announce {
		c.log.Info().Msg("Contest clock ran out")
		c.emit(Event{Type: EventContestEnded})
	}
}
