package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/algobucks/platform/internal/model"
)

func TestContestPhaseValid(t *testing.T) {
	for _, p := range []model.ContestPhase{
		model.PhaseGuidelines, model.PhaseProblems, model.PhaseFeedback, model.PhaseCompleted,
	} {
		assert.True(t, p.Valid(), "phase %q should be valid", p)
	}

	assert.False(t, model.ContestPhase("").Valid())
	assert.False(t, model.ContestPhase("GUIDELINES").Valid(), "phases are lowercase on the wire")
	assert.False(t, model.ContestPhase("review").Valid())
}

func TestContestPhaseTransitionsAreForwardOnly(t *testing.T) {
	allowed := []struct{ from, to model.ContestPhase }{
		{model.PhaseGuidelines, model.PhaseProblems},
		{model.PhaseProblems, model.PhaseFeedback},
		{model.PhaseFeedback, model.PhaseCompleted},
	}
	for _, tr := range allowed {
		assert.True(t, tr.from.ValidTransition(tr.to), "%s -> %s should be allowed", tr.from, tr.to)
	}

	denied := []struct{ from, to model.ContestPhase }{
		{model.PhaseProblems, model.PhaseGuidelines},
		{model.PhaseFeedback, model.PhaseProblems},
		{model.PhaseCompleted, model.PhaseFeedback},
		{model.PhaseGuidelines, model.PhaseFeedback},
		{model.PhaseGuidelines, model.PhaseCompleted},
		{model.PhaseProblems, model.PhaseCompleted},
		{model.PhaseProblems, model.PhaseProblems},
		{model.PhaseCompleted, model.PhaseCompleted},
		{model.ContestPhase("review"), model.PhaseProblems},
		{model.PhaseProblems, model.ContestPhase("review")},
	}
	for _, tr := range denied {
		assert.False(t, tr.from.ValidTransition(tr.to), "%s -> %s should be rejected", tr.from, tr.to)
	}
}
