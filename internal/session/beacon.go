package session

import (
	"context"

	"github.com/algobucks/platform/internal/model"
)

// fireBeacon hands the current buffer to the server's auto-submit
// queue on the way out, the navigator.sendBeacon analog. It only fires
// mid-contest for a problem that was never submitted. Errors are
// dropped; the process is already exiting and there is no one left to
// show them to.
func (c *Controller) fireBeacon() {
	c.mu.Lock()
	if c.phase != model.PhaseProblems || c.contest == nil {
		c.mu.Unlock()
		return
	}
	p := c.currentProblemLocked()
	if p == nil || c.submitted[p.ID] {
		c.mu.Unlock()
		return
	}
	contestID := c.contest.ID
	problemID := p.ID
	language := c.language
	code := c.codeLocked(problemID, language)
	at := c.nowLocked()
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), beaconTimeout)
	defer cancel()
	if err := c.api.Submissions.AutoSubmit(ctx, contestID, problemID, language, code, at); err != nil {
		c.log.Debug().Err(err).Msg("Auto-submit beacon failed")
	}
}
