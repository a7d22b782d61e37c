package session

import (
	"context"

	"github.com/google/uuid"

	"github.com/algobucks/platform/internal/apiclient"
	"github.com/algobucks/platform/internal/model"
)

// Run, dry-run and submit share one advisory lock: the three busy
// flags are mutually exclusive, and a second operation of any kind
// refuses with ErrBusy instead of queueing.

type evalOp int

const (
	opRun evalOp = iota
	opRunAll
	opSubmit
)

func (c *Controller) beginEval(op evalOp) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running || c.runningAll || c.submitting {
		return ErrBusy
	}
	switch op {
	case opRun:
		c.running = true
	case opRunAll:
		c.runningAll = true
	case opSubmit:
		c.submitting = true
	}
	return nil
}

func (c *Controller) endEval(op evalOp) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch op {
	case opRun:
		c.running = false
	case opRunAll:
		c.runningAll = false
	case opSubmit:
		c.submitting = false
	}
}

// Busy reports whether any evaluation is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running || c.runningAll || c.submitting
}

// Run evaluates the current buffer against the sample tests.
func (c *Controller) Run(ctx context.Context) (*apiclient.Evaluation, error) {
	if err := c.beginEval(opRun); err != nil {
		return nil, err
	}
	defer c.endEval(opRun)

	problemID, language, code, err := c.evalInput()
	if err != nil {
		return nil, err
	}
	eval, err := c.api.Submissions.Run(ctx, problemID, language, code)
	if err != nil {
		return nil, err
	}
	c.recordEval(eval)
	return eval, nil
}

// DryRun evaluates the current buffer against the full hidden test set
// without scoring.
func (c *Controller) DryRun(ctx context.Context) (*apiclient.Evaluation, error) {
	if err := c.beginEval(opRunAll); err != nil {
		return nil, err
	}
	defer c.endEval(opRunAll)

	problemID, language, code, err := c.evalInput()
	if err != nil {
		return nil, err
	}
	eval, err := c.api.Submissions.DryRun(ctx, problemID, language, code)
	if err != nil {
		return nil, err
	}
	c.recordEval(eval)
	return eval, nil
}

// Submit files a scored submission for the current problem and, on
// success, marks it done and advances the cursor. Refused once the
// contest clock ran out; the server-side auto-submit owns anything
// after that.
func (c *Controller) Submit(ctx context.Context) (*apiclient.Evaluation, error) {
	if c.Ended() {
		return nil, ErrContestOver
	}
	if err := c.beginEval(opSubmit); err != nil {
		return nil, err
	}
	defer c.endEval(opSubmit)

	problemID, language, code, err := c.evalInput()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	contestID := c.contest.ID
	c.mu.Unlock()

	eval, err := c.api.Submissions.Submit(ctx, contestID, problemID, language, code)
	if err != nil {
		return nil, err
	}

	c.recordEval(eval)
	if err := c.SubmitCurrent(ctx); err != nil {
		return eval, err
	}
	return eval, nil
}

// evalInput snapshots what the judge needs. The code comes from the
// buffer cache, so whatever the editor last wrote is what runs.
func (c *Controller) evalInput() (uuid.UUID, string, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != model.PhaseProblems {
		return uuid.Nil, "", "", ErrWrongPhase
	}
	p := c.currentProblemLocked()
	if p == nil {
		return uuid.Nil, "", "", ErrNoProblems
	}
	return p.ID, c.language, c.codeLocked(p.ID, c.language), nil
}

func (c *Controller) recordEval(eval *apiclient.Evaluation) {
	c.mu.Lock()
	c.lastEval = eval
	c.mu.Unlock()
	c.emit(Event{Type: EventVerdictReceived, Verdict: eval.Verdict, Evaluation: eval})
}
