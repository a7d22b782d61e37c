// Package session drives one contestant's run through a contest from
// the client side: panel phases, the countdown, code buffers, judge
// calls and the live feed. It is the counterpart of the server-side
// contest session and is safe for concurrent use by a UI loop and the
// controller's own background goroutines.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/algobucks/platform/internal/apiclient"
	"github.com/algobucks/platform/internal/model"
	"github.com/algobucks/platform/internal/session/anchorstore"
)

const (
	graceMS          = 1500
	fallbackWindow   = 30 * time.Minute
	defaultPollEvery = 15 * time.Second
	defaultLanguage  = "javascript"
	eventBuffer      = 64
	beaconTimeout    = 2 * time.Second
)

var (
	// ErrBusy means another evaluation is already in flight.
	ErrBusy = errors.New("another evaluation is in flight")
	// ErrContestOver rejects scored submissions once the clock ran out.
	ErrContestOver = errors.New("contest has ended")
	// ErrWrongPhase rejects an operation outside its panel.
	ErrWrongPhase = errors.New("not available in this phase")
	// ErrNoProblems means the contest has no problem under the cursor.
	ErrNoProblems = errors.New("no problem selected")
)

// Clock is the subset of clockwork the controller needs. Production
// code passes clockwork.NewRealClock(); tests a fake.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) clockwork.Ticker
}

// Config wires a controller. API and Anchors are required.
type Config struct {
	API       *apiclient.Client
	Anchors   *anchorstore.Store
	Clock     Clock // nil means clockwork.NewRealClock()
	Log       zerolog.Logger
	Language  string        // initial editor language, default javascript
	PollEvery time.Duration // live feed cadence, default 15s
}

// Controller is the client-side contest session.
type Controller struct {
	api       *apiclient.Client
	anchors   *anchorstore.Store
	clock     Clock
	log       zerolog.Logger
	pollEvery time.Duration

	mu           sync.Mutex
	contest      *model.Contest
	problems     []model.ProblemForContestant
	timing       apiclient.Timing
	offsetMS     int64
	startMS      int64
	endMS        int64
	phase        model.ContestPhase
	currentIndex int
	ended        bool
	endedTold    bool
	language     string
	codes        map[codeKey]string
	submitted    map[uuid.UUID]bool
	lastEval     *apiclient.Evaluation

	running    bool
	runningAll bool
	submitting bool

	leaderboard    *model.Leaderboard
	clarifications []model.Clarification

	events     chan Event
	pollCancel context.CancelFunc
	loopCancel context.CancelFunc
	stopped    bool
	closed     bool
	wg         sync.WaitGroup
}

// New creates a controller. Call Start before anything else.
func New(cfg Config) (*Controller, error) {
	if cfg.API == nil {
		return nil, errors.New("session: API client is required")
	}
	if cfg.Anchors == nil {
		return nil, errors.New("session: anchor store is required")
	}

	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	language := cfg.Language
	if language == "" {
		language = defaultLanguage
	}
	pollEvery := cfg.PollEvery
	if pollEvery <= 0 {
		pollEvery = defaultPollEvery
	}

	return &Controller{
		api:       cfg.API,
		anchors:   cfg.Anchors,
		clock:     clock,
		log:       cfg.Log.With().Str("component", "session_controller").Logger(),
		pollEvery: pollEvery,
		language:  language,
		phase:     model.PhaseGuidelines,
		codes:     make(map[codeKey]string),
		submitted: make(map[uuid.UUID]bool),
		events:    make(chan Event, eventBuffer),
	}, nil
}

// Start syncs the clock, loads the contest and its problem set, joins
// or resumes the server session, pins the countdown window and begins
// ticking. contest accepts an ID or a slug.
func (c *Controller) Start(ctx context.Context, contest string) error {
	offset := int64(0)
	serverMS, err := c.api.Time.Now(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("Clock sync failed, staying on local time")
	} else {
		offset = serverMS - c.clock.Now().UnixMilli()
	}

	cont, problems, err := c.api.ProblemSet(ctx, contest)
	if err != nil {
		return fmt.Errorf("load contest: %w", err)
	}

	state, err := c.api.Contests.Join(ctx, cont.ID)
	if err != nil {
		return fmt.Errorf("join contest: %w", err)
	}

	c.mu.Lock()
	c.offsetMS = offset
	c.contest = cont
	c.problems = problems
	c.timing = apiclient.NormalizeTiming(cont)
	c.phase = state.Session.Phase
	c.currentIndex = state.Session.CurrentIndex
	c.resolveTimingLocked(state)
	phase := c.phase
	c.mu.Unlock()

	c.log.Info().
		Str("contest_id", cont.ID.String()).
		Str("phase", string(phase)).
		Int("problems", len(problems)).
		Int64("offset_ms", offset).
		Msg("Session started")

	loopCtx, cancel := context.WithCancel(context.Background())
	c.loopCancel = cancel
	c.wg.Add(1)
	go c.tickLoop(loopCtx)

	if phase == model.PhaseProblems {
		c.startPoller()
	}
	c.emit(Event{Type: EventPhaseChanged, Phase: phase})
	return nil
}

// Shutdown stops the controller. Mid-contest it first fires the
// auto-submit beacon, bounded by the beacon's own short deadline, then
// waits for background goroutines and closes the event channel. The
// controller must not be used afterwards.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	c.mu.Unlock()

	c.fireBeacon()
	c.stopPoller()

	c.mu.Lock()
	cancel := c.loopCancel
	c.loopCancel = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	c.wg.Wait()

	c.mu.Lock()
	c.closed = true
	close(c.events)
	c.mu.Unlock()
}

// ────────────────────────────────────────────────────────────────────────────
// Phase transitions
// ────────────────────────────────────────────────────────────────────────────

// Begin moves guidelines→problems and starts the live feed.
func (c *Controller) Begin(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != model.PhaseGuidelines {
		c.mu.Unlock()
		return ErrWrongPhase
	}
	contestID := c.contest.ID
	c.mu.Unlock()

	sess, err := c.api.Contests.AdvancePhase(ctx, contestID, model.PhaseProblems, 0)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.phase = sess.Phase
	c.currentIndex = sess.CurrentIndex
	c.mu.Unlock()

	c.startPoller()
	c.emit(Event{Type: EventPhaseChanged, Phase: sess.Phase})
	return nil
}

// Advance moves the cursor to the next problem, or into the feedback
// panel after the last one. The server rejects backward moves, so the
// cursor only ever walks forward.
func (c *Controller) Advance(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != model.PhaseProblems {
		c.mu.Unlock()
		return ErrWrongPhase
	}
	contestID := c.contest.ID
	next := c.currentIndex + 1
	last := next >= len(c.problems)
	c.mu.Unlock()

	var sess *model.ContestSession
	var err error
	if last {
		sess, err = c.api.Contests.AdvancePhase(ctx, contestID, model.PhaseFeedback, next-1)
	} else {
		sess, err = c.api.Contests.AdvancePhase(ctx, contestID, model.PhaseProblems, next)
	}
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.phase = sess.Phase
	c.currentIndex = sess.CurrentIndex
	phase := c.phase
	c.mu.Unlock()

	if phase != model.PhaseProblems {
		c.stopPoller()
		c.emit(Event{Type: EventPhaseChanged, Phase: phase})
	}
	return nil
}

// SubmitCurrent marks the problem under the cursor as submitted and
// advances past it.
func (c *Controller) SubmitCurrent(ctx context.Context) error {
	c.mu.Lock()
	if c.phase == model.PhaseProblems {
		if p := c.currentProblemLocked(); p != nil {
			c.submitted[p.ID] = true
		}
	}
	c.mu.Unlock()
	return c.Advance(ctx)
}

// SubmitFeedback files the post-contest rating and completes the
// session.
func (c *Controller) SubmitFeedback(ctx context.Context, rating int, comments string) error {
	c.mu.Lock()
	if c.phase != model.PhaseFeedback {
		c.mu.Unlock()
		return ErrWrongPhase
	}
	contestID := c.contest.ID
	c.mu.Unlock()

	if err := c.api.Contests.Feedback(ctx, contestID, rating, comments); err != nil {
		return err
	}

	c.mu.Lock()
	c.phase = model.PhaseCompleted
	c.mu.Unlock()
	c.emit(Event{Type: EventPhaseChanged, Phase: model.PhaseCompleted})
	return nil
}

// AskClarification sends a question to the contest staff. The answer
// arrives through the live feed.
func (c *Controller) AskClarification(ctx context.Context, question string) error {
	c.mu.Lock()
	contestID := c.contest.ID
	c.mu.Unlock()
	_, err := c.api.Contests.SubmitClarification(ctx, contestID, question)
	return err
}

// Results fetches final standings for the loaded contest. Available
// once the window closed or the contestant's own session completed.
func (c *Controller) Results(ctx context.Context) (*model.Leaderboard, error) {
	c.mu.Lock()
	contestID := c.contest.ID
	c.mu.Unlock()
	return c.api.Contests.Results(ctx, contestID)
}

// ────────────────────────────────────────────────────────────────────────────
// State accessors
// ────────────────────────────────────────────────────────────────────────────

// Contest returns the loaded contest.
func (c *Controller) Contest() *model.Contest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.contest
}

// Phase returns the current panel phase.
func (c *Controller) Phase() model.ContestPhase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Problems returns the resolved problem set in contest order.
func (c *Controller) Problems() []model.ProblemForContestant {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.problems
}

// CurrentIndex returns the problem cursor.
func (c *Controller) CurrentIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentIndex
}

// CurrentProblem returns a copy of the problem under the cursor, or
// nil when the set is empty.
func (c *Controller) CurrentProblem() *model.ProblemForContestant {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.currentProblemLocked()
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

// Leaderboard returns the last standings the poller fetched.
func (c *Controller) Leaderboard() *model.Leaderboard {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.leaderboard
}

// Clarifications returns the last clarification list the poller
// fetched.
func (c *Controller) Clarifications() []model.Clarification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clarifications
}

// LastEvaluation returns the most recent judge outcome, if any.
func (c *Controller) LastEvaluation() *apiclient.Evaluation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastEval
}

func (c *Controller) currentProblemLocked() *model.ProblemForContestant {
	if c.currentIndex < 0 || c.currentIndex >= len(c.problems) {
		return nil
	}
	return &c.problems[c.currentIndex]
}
