package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/algobucks/platform/internal/model"
)

// ────────────────────────────────────────────────────────────────────────────
// Problem listing normalization
// ────────────────────────────────────────────────────────────────────────────

// ProblemRef is one entry of a contest problem listing: either a bare
// problem ID or a populated problem object. Entries decode
// independently, so mixed listings are handled.
type ProblemRef struct {
	ID      uuid.UUID
	Problem *model.ProblemForContestant
}

// Populated reports whether the entry carries the full problem object.
func (r ProblemRef) Populated() bool {
	return r.Problem != nil
}

func (r *ProblemRef) UnmarshalJSON(data []byte) error {
	var id uuid.UUID
	if err := json.Unmarshal(data, &id); err == nil {
		r.ID = id
		r.Problem = nil
		return nil
	}

	var p model.ProblemForContestant
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("problem ref is neither an ID nor an object: %w", err)
	}
	r.ID = p.ID
	r.Problem = &p
	return nil
}

// NormalizeProblems resolves a problem listing into full objects,
// element-wise: populated entries pass through untouched, bare IDs are
// fetched, each distinct ID once. Output order follows the input.
// Bare refs carry no contest scoring metadata, so their points stay
// zero and their order number is the listing position.
func (c *Client) NormalizeProblems(ctx context.Context, refs []ProblemRef) ([]model.ProblemForContestant, error) {
	fetched := make(map[uuid.UUID]*model.Problem)
	out := make([]model.ProblemForContestant, 0, len(refs))

	for i, ref := range refs {
		if ref.Populated() {
			out = append(out, *ref.Problem)
			continue
		}

		p, ok := fetched[ref.ID]
		if !ok {
			full, err := c.Problems.Get(ctx, ref.ID.String())
			if err != nil {
				return nil, fmt.Errorf("resolve problem %s: %w", ref.ID, err)
			}
			fetched[ref.ID] = full
			p = full
		}

		out = append(out, model.ProblemForContestant{
			ID:            p.ID,
			Slug:          p.Slug,
			Title:         p.Title,
			Statement:     p.Statement,
			Difficulty:    p.Difficulty,
			TimeLimitMS:   p.TimeLimitMS,
			MemoryLimitKB: p.MemoryLimitKB,
			StarterCode:   p.StarterCode,
			SampleTests:   p.SampleTests,
			OrderNum:      i,
		})
	}
	return out, nil
}

// ProblemSet fetches a contest and resolves its full problem set. The
// chain is one-shot: the populated contest fetch first, then the
// dedicated problem-set endpoint when the first came back empty and
// the window has opened. A CONTEST_NOT_STARTED rejection means the set
// is legitimately hidden and yields an empty set, not an error.
func (c *Client) ProblemSet(ctx context.Context, idOrSlug string) (*model.Contest, []model.ProblemForContestant, error) {
	detail, err := c.Contests.GetWithProblems(ctx, idOrSlug)
	if err != nil {
		return nil, nil, err
	}

	problems, err := c.NormalizeProblems(ctx, detail.Problems)
	if err != nil {
		return nil, nil, err
	}
	if len(problems) > 0 {
		return &detail.Contest, problems, nil
	}

	if detail.Contest.StartTime != nil && detail.Contest.StartTime.After(time.Now()) {
		return &detail.Contest, problems, nil
	}

	full, err := c.Contests.Problems(ctx, detail.Contest.ID)
	if err != nil {
		// Local and server clocks can disagree about "started".
		if HasCode(err, CodeContestNotStarted) {
			return &detail.Contest, []model.ProblemForContestant{}, nil
		}
		return nil, nil, err
	}
	return &detail.Contest, full, nil
}

// ────────────────────────────────────────────────────────────────────────────
// Timing normalization
// ────────────────────────────────────────────────────────────────────────────

// TimingMode says which schedule style a contest carries.
type TimingMode string

const (
	// TimingWindow is an explicit start/end wall-clock window.
	TimingWindow TimingMode = "window"
	// TimingDuration is a per-contestant clock anchored at first entry.
	TimingDuration TimingMode = "duration"
	// TimingFallback means the contest carries no usable timing at all;
	// callers synthesize a default window.
	TimingFallback TimingMode = "fallback"
)

// Timing is the normalized contest schedule. In duration and fallback
// modes StartMs and EndMs stay zero until the caller anchors them.
type Timing struct {
	StartMs     int64
	EndMs       int64
	DurationSec int
	Mode        TimingMode
}

// NormalizeTiming flattens a contest's optional timing fields into one
// struct so nothing downstream re-derives the mode. A window whose end
// does not come after its start is treated as absent.
func NormalizeTiming(contest *model.Contest) Timing {
	switch {
	case contest.StartTime != nil && contest.EndTime != nil && contest.EndTime.After(*contest.StartTime):
		return Timing{
			StartMs:     contest.StartTime.UnixMilli(),
			EndMs:       contest.EndTime.UnixMilli(),
			DurationSec: int(contest.EndTime.Sub(*contest.StartTime) / time.Second),
			Mode:        TimingWindow,
		}
	case contest.DurationMinutes > 0:
		return Timing{
			DurationSec: contest.DurationMinutes * 60,
			Mode:        TimingDuration,
		}
	default:
		return Timing{Mode: TimingFallback}
	}
}
