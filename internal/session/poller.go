package session

import (
	"context"
	"sync"
)

// The live feed poller keeps standings and clarifications warm while
// the contestant sits in the problems panel.

func (c *Controller) startPoller() {
	c.mu.Lock()
	if c.pollCancel != nil {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.pollCancel = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go c.pollLoop(ctx)
}

func (c *Controller) stopPoller() {
	c.mu.Lock()
	cancel := c.pollCancel
	c.pollCancel = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (c *Controller) pollLoop(ctx context.Context) {
	defer c.wg.Done()
	c.pollOnce(ctx)
	t := c.clock.NewTicker(c.pollEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.Chan():
			c.pollOnce(ctx)
		}
	}
}

// pollOnce fetches standings and clarifications concurrently. One side
// failing never blocks the other; on failure the stale value stays in
// place and the failure is only logged.
func (c *Controller) pollOnce(ctx context.Context) {
	c.mu.Lock()
	if c.contest == nil {
		c.mu.Unlock()
		return
	}
	contestID := c.contest.ID
	c.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		lb, err := c.api.Contests.Leaderboard(ctx, contestID)
		if err != nil {
			c.log.Debug().Err(err).Msg("Leaderboard poll failed")
			return
		}
		c.mu.Lock()
		c.leaderboard = lb
		c.mu.Unlock()
		c.emit(Event{Type: EventLeaderboardUpdated})
	}()

	go func() {
		defer wg.Done()
		cls, err := c.api.Contests.Clarifications(ctx, contestID)
		if err != nil {
			c.log.Debug().Err(err).Msg("Clarifications poll failed")
			return
		}
		c.mu.Lock()
		c.clarifications = cls
		c.mu.Unlock()
		c.emit(Event{Type: EventClarificationsUpdated})
	}()

	wg.Wait()
}
