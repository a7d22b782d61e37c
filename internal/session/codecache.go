package session

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/algobucks/platform/internal/model"
)

// Code buffers are keyed by problem and language so switching between
// problems or languages round-trips losslessly.

type codeKey struct {
	problemID uuid.UUID
	language  string
}

// codeLocked returns the cached buffer, seeding it from the problem's
// starter template on first sight.
func (c *Controller) codeLocked(problemID uuid.UUID, language string) string {
	key := codeKey{problemID, language}
	if code, ok := c.codes[key]; ok {
		return code
	}
	code := starterFor(c.problemByIDLocked(problemID), language)
	c.codes[key] = code
	return code
}

// Code returns the buffer for the current problem and language.
func (c *Controller) Code() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.currentProblemLocked()
	if p == nil {
		return ""
	}
	return c.codeLocked(p.ID, c.language)
}

// SetCode overwrites the buffer for the current problem and language.
func (c *Controller) SetCode(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.currentProblemLocked()
	if p == nil {
		return
	}
	c.codes[codeKey{p.ID, c.language}] = code
}

// ResetCode restores the current buffer to the starter template and
// returns it. Idempotent: resetting twice leaves the same buffer as
// resetting once.
func (c *Controller) ResetCode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.currentProblemLocked()
	if p == nil {
		return ""
	}
	code := starterFor(p, c.language)
	c.codes[codeKey{p.ID, c.language}] = code
	return code
}

// Language returns the active editor language.
func (c *Controller) Language() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.language
}

// SetLanguage switches the editor language. The new buffer seeds from
// its own starter template on first use.
func (c *Controller) SetLanguage(language string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.language = language
}

func (c *Controller) problemByIDLocked(id uuid.UUID) *model.ProblemForContestant {
	for i := range c.problems {
		if c.problems[i].ID == id {
			return &c.problems[i]
		}
	}
	return nil
}

// starterFor digs the per-language template out of the problem's
// starter code map. Unknown languages get an empty buffer.
func starterFor(p *model.ProblemForContestant, language string) string {
	if p == nil || len(p.StarterCode) == 0 {
		return ""
	}
	var templates map[string]string
	if err := json.Unmarshal(p.StarterCode, &templates); err != nil {
		return ""
	}
	return templates[language]
}
