package session_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/algobucks/platform/internal/apiclient"
	"github.com/algobucks/platform/internal/model"
	"github.com/algobucks/platform/internal/session"
	"github.com/algobucks/platform/internal/session/anchorstore"
)

const (
	jsStarter = "function solve(input) {\n}\n"
	pyStarter = "def solve(input):\n    pass\n"
)

// contestStub is a scripted AlgoBucks API for one contest. Handlers
// mirror the server's envelope and route shapes; state mutations follow
// what the real server would do so the controller sees a coherent
// session across calls.
type contestStub struct {
	t *testing.T

	mu             sync.Mutex
	contest        model.Contest
	problems       []model.ProblemForContestant
	state          model.SessionState
	leaderboard    model.Leaderboard
	clarifications []model.Clarification
	counts         map[string]int
	submits        []model.SubmitCodeRequest
	beacons        []model.AutoSubmitRequest

	timeFail        bool
	leaderboardFail bool

	// evalStarted gets a token when a judge handler is entered;
	// evalHold, when set, blocks the handler until closed.
	evalStarted chan struct{}
	evalHold    chan struct{}

	now func() time.Time
	srv *httptest.Server
}

func newContestStub(t *testing.T, now func() time.Time) *contestStub {
	t.Helper()

	starter, err := json.Marshal(map[string]string{"javascript": jsStarter, "python": pyStarter})
	require.NoError(t, err)

	contestID := uuid.New()
	s := &contestStub{
		t: t,
		contest: model.Contest{
			ID:              contestID,
			Slug:            "weekly-sprint-1",
			Title:           "Weekly Sprint #1",
			DurationMinutes: 10,
			Status:          model.ContestStatusPublished,
		},
		problems: []model.ProblemForContestant{
			{ID: uuid.New(), Slug: "two-sum", Title: "Two Sum", StarterCode: starter, OrderNum: 0, Points: 100},
			{ID: uuid.New(), Slug: "balanced-brackets", Title: "Balanced Brackets", StarterCode: starter, OrderNum: 1, Points: 150},
		},
		state: model.SessionState{
			Session: model.ContestSession{
				ID:        uuid.New(),
				ContestID: contestID,
				UserID:    7,
				Phase:     model.PhaseProblems,
			},
			DurationSeconds: 600,
		},
		leaderboard: model.Leaderboard{
			ContestID: contestID,
			Entries:   []model.LeaderboardEntry{{Rank: 1, UserID: 9, Username: "rival", Solved: 1, Score: 100}},
			UpdatedAt: now(),
		},
		clarifications: []model.Clarification{
			{ID: uuid.New(), ContestID: contestID, Question: "Are inputs always sorted?"},
		},
		counts: make(map[string]int),
		now:    now,
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	v1 := r.Group("/api/v1")

	v1.GET("/time", func(c *gin.Context) {
		s.hit("time")
		s.mu.Lock()
		fail := s.timeFail
		s.mu.Unlock()
		if fail {
			s.fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "clock is down")
			return
		}
		s.ok(c, gin.H{"server_time_ms": s.now().UnixMilli()})
	})

	v1.GET("/contests/:contest_id", func(c *gin.Context) {
		s.hit("contest")
		s.mu.Lock()
		defer s.mu.Unlock()
		s.ok(c, gin.H{"contest": s.contest, "problems": s.problems})
	})

	v1.POST("/contests/:contest_id/join", func(c *gin.Context) {
		s.hit("join")
		s.mu.Lock()
		st := s.state
		st.ServerTimeMS = s.now().UnixMilli()
		s.mu.Unlock()
		s.ok(c, st)
	})

	v1.PATCH("/contests/:contest_id/session", func(c *gin.Context) {
		s.hit("advance")
		var req model.AdvancePhaseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			s.fail(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		s.mu.Lock()
		s.state.Session.Phase = model.ContestPhase(req.Phase)
		s.state.Session.CurrentIndex = req.CurrentIndex
		sess := s.state.Session
		s.mu.Unlock()
		s.ok(c, gin.H{"session": sess})
	})

	v1.POST("/contests/:contest_id/feedback", func(c *gin.Context) {
		s.hit("feedback")
		var req model.SubmitFeedbackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			s.fail(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		s.mu.Lock()
		s.state.Session.Phase = model.PhaseCompleted
		s.mu.Unlock()
		s.ok(c, gin.H{"message": "Feedback recorded"})
	})

	v1.GET("/contests/:contest_id/leaderboard", func(c *gin.Context) {
		s.hit("leaderboard")
		s.mu.Lock()
		fail, lb := s.leaderboardFail, s.leaderboard
		s.mu.Unlock()
		if fail {
			s.fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "standings are down")
			return
		}
		s.ok(c, gin.H{"leaderboard": lb})
	})

	v1.GET("/contests/:contest_id/results", func(c *gin.Context) {
		s.hit("results")
		s.mu.Lock()
		lb := s.leaderboard
		s.mu.Unlock()
		s.ok(c, gin.H{"leaderboard": lb})
	})

	v1.GET("/contests/:contest_id/clarifications", func(c *gin.Context) {
		s.hit("clarifications")
		s.mu.Lock()
		cls := append([]model.Clarification(nil), s.clarifications...)
		s.mu.Unlock()
		s.ok(c, gin.H{"clarifications": cls})
	})

	v1.POST("/contests/:contest_id/clarifications", func(c *gin.Context) {
		s.hit("ask")
		var req model.CreateClarificationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			s.fail(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		s.mu.Lock()
		cl := model.Clarification{ID: uuid.New(), ContestID: s.contest.ID, Question: req.Question}
		s.clarifications = append(s.clarifications, cl)
		s.mu.Unlock()
		c.JSON(http.StatusCreated, gin.H{"data": gin.H{"clarification": cl}, "metadata": gin.H{"request_id": "test"}})
	})

	v1.POST("/submissions/run", func(c *gin.Context) {
		s.hit("run")
		s.evalGate()
		s.ok(c, s.verdict(nil))
	})

	v1.POST("/submissions/dry-run", func(c *gin.Context) {
		s.hit("dry-run")
		s.evalGate()
		s.ok(c, s.verdict(nil))
	})

	v1.POST("/contests/:contest_id/submissions", func(c *gin.Context) {
		s.hit("submit")
		var req model.SubmitCodeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			s.fail(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		s.mu.Lock()
		s.submits = append(s.submits, req)
		s.mu.Unlock()
		s.evalGate()
		id := uuid.New()
		s.ok(c, s.verdict(&id))
	})

	v1.POST("/contests/:contest_id/autosubmit", func(c *gin.Context) {
		s.hit("beacon")
		var req model.AutoSubmitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			s.fail(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		s.mu.Lock()
		s.beacons = append(s.beacons, req)
		s.mu.Unlock()
		id := uuid.New()
		s.ok(c, s.verdict(&id))
	})

	s.srv = httptest.NewServer(r)
	t.Cleanup(s.srv.Close)
	return s
}

func (s *contestStub) ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"data": data, "metadata": gin.H{"request_id": "test"}})
}

func (s *contestStub) fail(c *gin.Context, status int, code, msg string) {
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": msg}, "metadata": gin.H{"request_id": "test"}})
}

func (s *contestStub) hit(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[name]++
}

func (s *contestStub) count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[name]
}

func (s *contestStub) evalGate() {
	s.mu.Lock()
	started, hold := s.evalStarted, s.evalHold
	s.mu.Unlock()
	if started != nil {
		started <- struct{}{}
	}
	if hold != nil {
		<-hold
	}
}

func (s *contestStub) verdict(submissionID *uuid.UUID) apiclient.Evaluation {
	return apiclient.Evaluation{
		SubmissionID: submissionID,
		Verdict:      model.VerdictAccepted,
		Passed:       2,
		Total:        2,
		RuntimeMS:    12,
		Score:        100,
	}
}

func newController(t *testing.T, stub *contestStub, cfg session.Config) *session.Controller {
	t.Helper()
	cfg.API = apiclient.New(apiclient.Config{BaseURL: stub.srv.URL, Token: "test-token"})
	if cfg.Anchors == nil {
		cfg.Anchors = anchorstore.Open(filepath.Join(t.TempDir(), "anchors.json"))
	}
	cfg.Log = zerolog.Nop()
	ctrl, err := session.New(cfg)
	require.NoError(t, err)
	return ctrl
}

func startController(t *testing.T, ctrl *session.Controller, stub *contestStub) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, ctrl.Start(ctx, stub.contest.ID.String()))
	t.Cleanup(ctrl.Shutdown)
}

var fakeStart = time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

// ────────────────────────────────────────────────────────────────────────────
// Countdown
// ────────────────────────────────────────────────────────────────────────────

func TestTimeLeftIsMonotonic(t *testing.T) {
	fc := clockwork.NewFakeClockAt(fakeStart)
	stub := newContestStub(t, fc.Now)
	stub.state.TimerStartMS = fakeStart.UnixMilli()

	ctrl := newController(t, stub, session.Config{Clock: fc})
	startController(t, ctrl, stub)

	require.Equal(t, 600, ctrl.TimeLeft())
	require.False(t, ctrl.Ended())

	steps := []struct {
		advance time.Duration
		want    int
	}{
		{time.Second, 599},
		{29 * time.Second, 570},
		{9 * time.Minute, 30},
		{29 * time.Second, 1},  // 599s in, inside the final second
		{time.Second, 1},       // deadline hit, grace holds the display at 1
		{time.Second, 1},       // one second over, still inside the grace window
		{time.Second, 0},       // past the grace window
	}
	prev := 600
	for _, step := range steps {
		fc.Advance(step.advance)
		got := ctrl.TimeLeft()
		assert.LessOrEqual(t, got, prev, "countdown must never rewind")
		assert.Equal(t, step.want, got)
		prev = got
	}
	assert.True(t, ctrl.Ended())
}

func TestSubmitRejectedOnceClockRunsOut(t *testing.T) {
	fc := clockwork.NewFakeClockAt(fakeStart)
	stub := newContestStub(t, fc.Now)
	stub.state.TimerStartMS = fakeStart.UnixMilli()

	ctrl := newController(t, stub, session.Config{Clock: fc})
	startController(t, ctrl, stub)

	fc.Advance(602 * time.Second)
	require.True(t, ctrl.Ended())

	_, err := ctrl.Submit(context.Background())
	require.ErrorIs(t, err, session.ErrContestOver)
	assert.Zero(t, stub.count("submit"), "nothing must reach the judge")

	// Unscored runs stay available for poking at output after the end.
	_, err = ctrl.Run(context.Background())
	require.NoError(t, err)
}

func TestCountdownSurvivesRestart(t *testing.T) {
	fc := clockwork.NewFakeClockAt(fakeStart)
	stub := newContestStub(t, fc.Now) // TimerStartMS stays 0: the server has no anchor
	anchors := filepath.Join(t.TempDir(), "anchors.json")

	first := newController(t, stub, session.Config{Clock: fc, Anchors: anchorstore.Open(anchors)})
	startController(t, first, stub)
	require.Equal(t, 600, first.TimeLeft())

	raw, ok := anchorstore.Open(anchors).Get(session.AnchorKey(stub.contest.ID))
	require.True(t, ok, "first entry must persist the anchor")
	assert.Equal(t, strconv.FormatInt(fakeStart.UnixMilli(), 10), raw)

	first.Shutdown()
	fc.Advance(4 * time.Minute)

	second := newController(t, stub, session.Config{Clock: fc, Anchors: anchorstore.Open(anchors)})
	startController(t, second, stub)

	assert.Equal(t, 360, second.TimeLeft(), "re-entry must resume the clock, not restart it")
}

func TestServerAnchorOverridesLocal(t *testing.T) {
	fc := clockwork.NewFakeClockAt(fakeStart)
	stub := newContestStub(t, fc.Now)
	// Server recorded first entry two minutes ago; a stale local anchor
	// claims the contest just started.
	stub.state.TimerStartMS = fakeStart.Add(-2 * time.Minute).UnixMilli()
	anchors := filepath.Join(t.TempDir(), "anchors.json")
	store := anchorstore.Open(anchors)
	require.NoError(t, store.Set(session.AnchorKey(stub.contest.ID), strconv.FormatInt(fakeStart.UnixMilli(), 10)))

	ctrl := newController(t, stub, session.Config{Clock: fc, Anchors: store})
	startController(t, ctrl, stub)

	assert.Equal(t, 480, ctrl.TimeLeft(), "the server's record wins")

	raw, ok := store.Get(session.AnchorKey(stub.contest.ID))
	require.True(t, ok)
	assert.Equal(t, strconv.FormatInt(stub.state.TimerStartMS, 10), raw, "local anchor realigned to the server's")
}

func TestExplicitWindowIgnoresAnchors(t *testing.T) {
	fc := clockwork.NewFakeClockAt(fakeStart)
	stub := newContestStub(t, fc.Now)
	start := fakeStart.Add(-5 * time.Minute)
	end := fakeStart.Add(15 * time.Minute)
	stub.contest.StartTime = &start
	stub.contest.EndTime = &end
	anchors := filepath.Join(t.TempDir(), "anchors.json")

	ctrl := newController(t, stub, session.Config{Clock: fc, Anchors: anchorstore.Open(anchors)})
	startController(t, ctrl, stub)

	assert.Equal(t, 15*60, ctrl.TimeLeft())
	_, ok := anchorstore.Open(anchors).Get(session.AnchorKey(stub.contest.ID))
	assert.False(t, ok, "window contests have no anchor to persist")
}

func TestClockSyncFailureFallsBackToLocalTime(t *testing.T) {
	fc := clockwork.NewFakeClockAt(fakeStart)
	stub := newContestStub(t, fc.Now)
	stub.timeFail = true
	stub.state.TimerStartMS = fakeStart.UnixMilli()

	ctrl := newController(t, stub, session.Config{Clock: fc})
	startController(t, ctrl, stub)

	assert.Equal(t, 600, ctrl.TimeLeft())
}

func TestSkewedServerClockShiftsCountdown(t *testing.T) {
	fc := clockwork.NewFakeClockAt(fakeStart)
	// The server runs 90 seconds ahead of the local clock and anchored
	// the contest at its own now.
	serverNow := func() time.Time { return fc.Now().Add(90 * time.Second) }
	stub := newContestStub(t, serverNow)
	stub.state.TimerStartMS = serverNow().UnixMilli()

	ctrl := newController(t, stub, session.Config{Clock: fc})
	startController(t, ctrl, stub)

	assert.Equal(t, 600, ctrl.TimeLeft(), "offset must absorb the skew")

	fc.Advance(300 * time.Second)
	assert.Equal(t, 300, ctrl.TimeLeft())
}

func TestEndAnnouncedExactlyOnce(t *testing.T) {
	fc := clockwork.NewFakeClockAt(fakeStart)
	stub := newContestStub(t, fc.Now)
	stub.state.TimerStartMS = fakeStart.UnixMilli()

	ctrl := newController(t, stub, session.Config{Clock: fc})
	startController(t, ctrl, stub)

	// Both background tickers (countdown and live feed) must be armed
	// before time moves, or the jump outruns them.
	fc.BlockUntil(2)
	fc.Advance(602 * time.Second)

	deadline := time.After(3 * time.Second)
	for ended := false; !ended; {
		select {
		case ev, ok := <-ctrl.Events():
			require.True(t, ok, "event stream closed before the end announcement")
			if ev.Type == session.EventContestEnded {
				ended = true
			}
		case <-deadline:
			t.Fatal("no end announcement within 3s")
		}
	}

	// More ticks after the announcement must not repeat it.
	fc.Advance(5 * time.Second)
	time.Sleep(50 * time.Millisecond)
	for {
		select {
		case ev, ok := <-ctrl.Events():
			if !ok {
				return
			}
			assert.NotEqual(t, session.EventContestEnded, ev.Type, "end announced twice")
		default:
			return
		}
	}
}

// ────────────────────────────────────────────────────────────────────────────
// Judge dispatch
// ────────────────────────────────────────────────────────────────────────────

func TestEvaluationsAreExclusive(t *testing.T) {
	stub := newContestStub(t, time.Now)
	stub.state.TimerStartMS = time.Now().UnixMilli()
	stub.evalStarted = make(chan struct{}, 1)
	stub.evalHold = make(chan struct{})

	ctrl := newController(t, stub, session.Config{})
	startController(t, ctrl, stub)

	errCh := make(chan error, 1)
	go func() {
		_, err := ctrl.Run(context.Background())
		errCh <- err
	}()
	<-stub.evalStarted // the run is now parked inside the judge

	assert.True(t, ctrl.Busy())
	_, err := ctrl.DryRun(context.Background())
	require.ErrorIs(t, err, session.ErrBusy)
	_, err = ctrl.Submit(context.Background())
	require.ErrorIs(t, err, session.ErrBusy)

	close(stub.evalHold)
	require.NoError(t, <-errCh)
	assert.False(t, ctrl.Busy())

	require.NotNil(t, ctrl.LastEvaluation())
	assert.Equal(t, model.VerdictAccepted, ctrl.LastEvaluation().Verdict)

	// The lock releases with the evaluation.
	_, err = ctrl.DryRun(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stub.count("run"))
	assert.Equal(t, 1, stub.count("dry-run"))
	assert.Zero(t, stub.count("submit"))
}

func TestSubmitAdvancesCursor(t *testing.T) {
	stub := newContestStub(t, time.Now)
	stub.state.TimerStartMS = time.Now().UnixMilli()

	ctrl := newController(t, stub, session.Config{})
	startController(t, ctrl, stub)

	eval, err := ctrl.Submit(context.Background())
	require.NoError(t, err)
	require.NotNil(t, eval.SubmissionID)

	assert.Equal(t, model.PhaseProblems, ctrl.Phase())
	assert.Equal(t, 1, ctrl.CurrentIndex())
	assert.Equal(t, "Balanced Brackets", ctrl.CurrentProblem().Title)

	stub.mu.Lock()
	defer stub.mu.Unlock()
	require.Len(t, stub.submits, 1)
	assert.Equal(t, stub.problems[0].ID, stub.submits[0].ProblemID)
	assert.Equal(t, "javascript", stub.submits[0].Language)
}

func TestSubmitOnLastProblemEntersFeedback(t *testing.T) {
	stub := newContestStub(t, time.Now)
	stub.state.TimerStartMS = time.Now().UnixMilli()
	stub.state.Session.CurrentIndex = 1

	ctrl := newController(t, stub, session.Config{})
	startController(t, ctrl, stub)
	require.Equal(t, 1, ctrl.CurrentIndex())

	_, err := ctrl.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, model.PhaseFeedback, ctrl.Phase())

	stub.mu.Lock()
	defer stub.mu.Unlock()
	require.Len(t, stub.submits, 1)
	assert.Equal(t, stub.problems[1].ID, stub.submits[0].ProblemID)
}

func TestRunRequiresAProblemsPhase(t *testing.T) {
	stub := newContestStub(t, time.Now)
	stub.state.Session.Phase = model.PhaseGuidelines

	ctrl := newController(t, stub, session.Config{})
	startController(t, ctrl, stub)

	_, err := ctrl.Run(context.Background())
	require.ErrorIs(t, err, session.ErrWrongPhase)
}

// ────────────────────────────────────────────────────────────────────────────
// Code buffers
// ────────────────────────────────────────────────────────────────────────────

func TestResetCodeRestoresStarter(t *testing.T) {
	stub := newContestStub(t, time.Now)
	stub.state.TimerStartMS = time.Now().UnixMilli()

	ctrl := newController(t, stub, session.Config{})
	startController(t, ctrl, stub)

	require.Equal(t, jsStarter, ctrl.Code())

	ctrl.SetCode("function solve(input) { return 42 }")
	require.Equal(t, "function solve(input) { return 42 }", ctrl.Code())

	assert.Equal(t, jsStarter, ctrl.ResetCode())
	assert.Equal(t, jsStarter, ctrl.Code())
	assert.Equal(t, jsStarter, ctrl.ResetCode(), "a second reset changes nothing")
	assert.Equal(t, jsStarter, ctrl.Code())
}

func TestCodeBuffersSurviveLanguageSwitch(t *testing.T) {
	stub := newContestStub(t, time.Now)
	stub.state.TimerStartMS = time.Now().UnixMilli()

	ctrl := newController(t, stub, session.Config{})
	startController(t, ctrl, stub)

	ctrl.SetCode("// my js attempt")

	ctrl.SetLanguage("python")
	require.Equal(t, pyStarter, ctrl.Code(), "fresh language starts from its starter")
	ctrl.SetCode("# my py attempt")

	ctrl.SetLanguage("javascript")
	assert.Equal(t, "// my js attempt", ctrl.Code())

	ctrl.SetLanguage("python")
	assert.Equal(t, "# my py attempt", ctrl.Code())
}

// ────────────────────────────────────────────────────────────────────────────
// Phases and the live feed
// ────────────────────────────────────────────────────────────────────────────

func TestBeginStartsLiveFeed(t *testing.T) {
	stub := newContestStub(t, time.Now)
	stub.state.Session.Phase = model.PhaseGuidelines

	ctrl := newController(t, stub, session.Config{PollEvery: 25 * time.Millisecond})
	startController(t, ctrl, stub)

	require.Equal(t, model.PhaseGuidelines, ctrl.Phase())
	assert.Zero(t, stub.count("leaderboard"), "no polling before the problems panel")

	require.NoError(t, ctrl.Begin(context.Background()))
	require.Equal(t, model.PhaseProblems, ctrl.Phase())

	require.Eventually(t, func() bool {
		return ctrl.Leaderboard() != nil && len(ctrl.Clarifications()) > 0
	}, 3*time.Second, 10*time.Millisecond, "live feed never arrived")

	assert.Equal(t, "rival", ctrl.Leaderboard().Entries[0].Username)
}

func TestLiveFeedKeepsStaleValuesOnFailure(t *testing.T) {
	stub := newContestStub(t, time.Now)
	stub.state.TimerStartMS = time.Now().UnixMilli()

	ctrl := newController(t, stub, session.Config{PollEvery: 25 * time.Millisecond})
	startController(t, ctrl, stub)

	require.Eventually(t, func() bool {
		return ctrl.Leaderboard() != nil
	}, 3*time.Second, 10*time.Millisecond, "first standings never arrived")

	stub.mu.Lock()
	stub.leaderboardFail = true
	stub.clarifications = append(stub.clarifications, model.Clarification{
		ID: uuid.New(), ContestID: stub.contest.ID, Question: "Is the grid 0-indexed?",
	})
	stub.mu.Unlock()

	// Clarifications keep flowing, proving polls continue past the
	// leaderboard failure, and the stale standings stay readable.
	require.Eventually(t, func() bool {
		return len(ctrl.Clarifications()) == 2
	}, 3*time.Second, 10*time.Millisecond, "clarification poll stopped with the leaderboard")
	assert.NotNil(t, ctrl.Leaderboard())
	assert.Equal(t, "rival", ctrl.Leaderboard().Entries[0].Username)
}

func TestAskClarificationShowsUpInFeed(t *testing.T) {
	stub := newContestStub(t, time.Now)
	stub.state.TimerStartMS = time.Now().UnixMilli()

	ctrl := newController(t, stub, session.Config{PollEvery: 25 * time.Millisecond})
	startController(t, ctrl, stub)

	require.NoError(t, ctrl.AskClarification(context.Background(), "Is rotation clockwise?"))
	require.Equal(t, 1, stub.count("ask"))

	require.Eventually(t, func() bool {
		for _, cl := range ctrl.Clarifications() {
			if cl.Question == "Is rotation clockwise?" {
				return true
			}
		}
		return false
	}, 3*time.Second, 10*time.Millisecond, "asked question never came back")
}

func TestFeedbackCompletesSession(t *testing.T) {
	stub := newContestStub(t, time.Now)
	stub.state.Session.Phase = model.PhaseFeedback
	stub.state.Session.CurrentIndex = 1

	ctrl := newController(t, stub, session.Config{})
	startController(t, ctrl, stub)

	require.NoError(t, ctrl.SubmitFeedback(context.Background(), 4, "good problems, shaky judge"))
	assert.Equal(t, model.PhaseCompleted, ctrl.Phase())
	assert.Equal(t, 1, stub.count("feedback"))

	lb, err := ctrl.Results(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rival", lb.Entries[0].Username)
}

func TestFeedbackRejectedOutsideItsPhase(t *testing.T) {
	stub := newContestStub(t, time.Now)
	stub.state.TimerStartMS = time.Now().UnixMilli()

	ctrl := newController(t, stub, session.Config{})
	startController(t, ctrl, stub)

	err := ctrl.SubmitFeedback(context.Background(), 5, "")
	require.ErrorIs(t, err, session.ErrWrongPhase)
	assert.Zero(t, stub.count("feedback"))
}

// ────────────────────────────────────────────────────────────────────────────
// Auto-submit beacon
// ────────────────────────────────────────────────────────────────────────────

func TestBeaconFiresOnShutdown(t *testing.T) {
	stub := newContestStub(t, time.Now)
	stub.state.TimerStartMS = time.Now().UnixMilli()

	ctrl := newController(t, stub, session.Config{})
	startController(t, ctrl, stub)

	ctrl.SetCode("function solve(input) { return 'draft v2' }")
	ctrl.Shutdown()

	stub.mu.Lock()
	defer stub.mu.Unlock()
	require.Len(t, stub.beacons, 1)
	b := stub.beacons[0]
	assert.Equal(t, "test-token", b.Token, "the beacon authenticates through its body")
	assert.Equal(t, stub.problems[0].ID, b.ProblemID)
	assert.Equal(t, "javascript", b.Language)
	assert.Equal(t, "function solve(input) { return 'draft v2' }", b.UserCode)
	assert.Positive(t, b.At)
}

func TestBeaconSkippedOutsideProblems(t *testing.T) {
	stub := newContestStub(t, time.Now)
	stub.state.Session.Phase = model.PhaseGuidelines

	ctrl := newController(t, stub, session.Config{})
	startController(t, ctrl, stub)
	ctrl.Shutdown()

	assert.Zero(t, stub.count("beacon"))
}

func TestBeaconSkippedAfterFinalSubmit(t *testing.T) {
	stub := newContestStub(t, time.Now)
	stub.state.TimerStartMS = time.Now().UnixMilli()
	stub.state.Session.CurrentIndex = 1

	ctrl := newController(t, stub, session.Config{})
	startController(t, ctrl, stub)

	_, err := ctrl.Submit(context.Background())
	require.NoError(t, err)
	require.Equal(t, model.PhaseFeedback, ctrl.Phase())

	ctrl.Shutdown()
	assert.Zero(t, stub.count("beacon"), "a submitted contest has nothing left to save")
}

func TestShutdownClosesEventStream(t *testing.T) {
	stub := newContestStub(t, time.Now)
	stub.state.TimerStartMS = time.Now().UnixMilli()

	ctrl := newController(t, stub, session.Config{})
	startController(t, ctrl, stub)

	ctrl.Shutdown()
	ctrl.Shutdown() // second call is a no-op

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-ctrl.Events():
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("event stream never closed")
		}
	}
}
