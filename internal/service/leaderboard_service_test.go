package service_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/algobucks/platform/internal/repository"
	"github.com/algobucks/platform/internal/service"
)

func solvedAt(ms int64) *int64 {
	return &ms
}

func TestRankStandingsOrdersByScoreSolvedPenalty(t *testing.T) {
	pA, pB := uuid.New(), uuid.New()
	base := int64(1_000_000)

	rows := []repository.ProblemStanding{
		// ada: both solved, 300 points, penalty 10min + 20min
		{UserID: 1, Username: "ada", ProblemID: pA, BestScore: 100, FirstSolved: solvedAt(base + 10*60_000)},
		{UserID: 1, Username: "ada", ProblemID: pB, BestScore: 200, FirstSolved: solvedAt(base + 20*60_000)},
		// bob: both solved, 300 points, but slower on B
		{UserID: 2, Username: "bob", ProblemID: pA, BestScore: 100, FirstSolved: solvedAt(base + 10*60_000)},
		{UserID: 2, Username: "bob", ProblemID: pB, BestScore: 200, FirstSolved: solvedAt(base + 45*60_000)},
		// cam: one solved plus partial credit on the other
		{UserID: 3, Username: "cam", ProblemID: pA, BestScore: 100, FirstSolved: solvedAt(base + 5*60_000)},
		{UserID: 3, Username: "cam", ProblemID: pB, BestScore: 40},
		// dee: nothing solved, a little partial credit
		{UserID: 4, Username: "dee", ProblemID: pA, BestScore: 15},
	}

	entries := service.RankStandings(rows, base)
	require.Len(t, entries, 4)

	assert.Equal(t, []string{"ada", "bob", "cam", "dee"},
		[]string{entries[0].Username, entries[1].Username, entries[2].Username, entries[3].Username})
	assert.Equal(t, []int{1, 2, 3, 4},
		[]int{entries[0].Rank, entries[1].Rank, entries[2].Rank, entries[3].Rank})

	assert.Equal(t, 300, entries[0].Score)
	assert.Equal(t, 2, entries[0].Solved)
	assert.Equal(t, int64(30*60_000), entries[0].PenaltyMS)

	assert.Equal(t, 140, entries[2].Score)
	assert.Equal(t, 1, entries[2].Solved, "partial credit does not count as solved")
	assert.Equal(t, int64(5*60_000), entries[2].PenaltyMS)

	assert.Equal(t, 15, entries[3].Score)
	assert.Zero(t, entries[3].Solved)
	assert.Zero(t, entries[3].PenaltyMS, "unsolved problems add no penalty")
}

func TestRankStandingsSharesRankOnFullTie(t *testing.T) {
	p := uuid.New()
	base := int64(0)

	rows := []repository.ProblemStanding{
		{UserID: 1, Username: "zoe", ProblemID: p, BestScore: 100, FirstSolved: solvedAt(600_000)},
		{UserID: 2, Username: "amy", ProblemID: p, BestScore: 100, FirstSolved: solvedAt(600_000)},
		{UserID: 3, Username: "ben", ProblemID: p, BestScore: 50},
	}

	entries := service.RankStandings(rows, base)
	require.Len(t, entries, 3)

	// Tied contestants share a rank; username only breaks display order.
	assert.Equal(t, "amy", entries[0].Username)
	assert.Equal(t, "zoe", entries[1].Username)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 1, entries[1].Rank)

	assert.Equal(t, "ben", entries[2].Username)
	assert.Equal(t, 3, entries[2].Rank, "a shared rank still consumes positions")
}

func TestRankStandingsEmpty(t *testing.T) {
	entries := service.RankStandings(nil, 0)
	assert.Empty(t, entries)
}
