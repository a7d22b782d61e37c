package apiclient_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/algobucks/platform/internal/apiclient"
	"github.com/algobucks/platform/internal/model"
)

func TestProblemRefDecodesBareID(t *testing.T) {
	id := uuid.New()
	var ref apiclient.ProblemRef
	require.NoError(t, json.Unmarshal([]byte(fmt.Sprintf("%q", id)), &ref))

	assert.Equal(t, id, ref.ID)
	assert.False(t, ref.Populated())
}

func TestProblemRefDecodesFullObject(t *testing.T) {
	id := uuid.New()
	raw := fmt.Sprintf(`{"id":%q,"slug":"two-sum","title":"Two Sum","order_num":3,"points":150}`, id)

	var ref apiclient.ProblemRef
	require.NoError(t, json.Unmarshal([]byte(raw), &ref))

	require.True(t, ref.Populated())
	assert.Equal(t, id, ref.ID)
	assert.Equal(t, "Two Sum", ref.Problem.Title)
	assert.Equal(t, 3, ref.Problem.OrderNum)
	assert.Equal(t, 150, ref.Problem.Points)
}

func TestProblemRefRejectsGarbage(t *testing.T) {
	var ref apiclient.ProblemRef
	assert.Error(t, json.Unmarshal([]byte(`42`), &ref))
	assert.Error(t, json.Unmarshal([]byte(`"not-a-uuid"`), &ref))
}

func TestNormalizeProblemsKeepsOrderAndDedupesFetches(t *testing.T) {
	idA, idB, idC := uuid.New(), uuid.New(), uuid.New()
	hits := newCounter()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/problems/"+idB.String(), func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		hits.hit("fetch-b")
		writeData(w, http.StatusOK, map[string]any{"problem": model.Problem{
			ID:    idB,
			Slug:  "balanced-brackets",
			Title: "Balanced Brackets",
		}})
	})
	client := newClient(t, httptest.NewServer(mux))

	refs := []apiclient.ProblemRef{
		{ID: idA, Problem: &model.ProblemForContestant{ID: idA, Title: "Two Sum", OrderNum: 0, Points: 100}},
		{ID: idB},
		{ID: idC, Problem: &model.ProblemForContestant{ID: idC, Title: "Max Subarray", OrderNum: 2, Points: 200}},
		{ID: idB},
	}
	problems, err := client.NormalizeProblems(context.Background(), refs)
	require.NoError(t, err)

	require.Len(t, problems, 4, "one output element per input ref")
	assert.Equal(t, []string{"Two Sum", "Balanced Brackets", "Max Subarray", "Balanced Brackets"},
		[]string{problems[0].Title, problems[1].Title, problems[2].Title, problems[3].Title})
	assert.Equal(t, 1, hits.get("fetch-b"), "duplicate refs share a single fetch")

	// Bare refs take their listing position and carry no contest points.
	assert.Equal(t, 1, problems[1].OrderNum)
	assert.Equal(t, 3, problems[3].OrderNum)
	assert.Zero(t, problems[1].Points)

	// Populated refs pass through untouched.
	assert.Equal(t, 100, problems[0].Points)
	assert.Equal(t, 2, problems[2].OrderNum)
}

func TestNormalizeProblemsSurfacesFetchFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusNotFound, "PROBLEM_NOT_FOUND", "no such problem")
	})
	client := newClient(t, httptest.NewServer(mux))

	_, err := client.NormalizeProblems(context.Background(), []apiclient.ProblemRef{{ID: uuid.New()}})
	require.Error(t, err)
	assert.True(t, apiclient.HasCode(err, "PROBLEM_NOT_FOUND"))
}

func TestNormalizeTimingPrefersExplicitWindow(t *testing.T) {
	start := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	contest := &model.Contest{StartTime: &start, EndTime: &end, DurationMinutes: 45}

	timing := apiclient.NormalizeTiming(contest)

	assert.Equal(t, apiclient.TimingWindow, timing.Mode)
	assert.Equal(t, start.UnixMilli(), timing.StartMs)
	assert.Equal(t, end.UnixMilli(), timing.EndMs)
	assert.Equal(t, 7200, timing.DurationSec, "window length wins over the duration field")
}

func TestNormalizeTimingUsesDuration(t *testing.T) {
	contest := &model.Contest{DurationMinutes: 90}

	timing := apiclient.NormalizeTiming(contest)

	assert.Equal(t, apiclient.TimingDuration, timing.Mode)
	assert.Equal(t, 90*60, timing.DurationSec)
	assert.Zero(t, timing.StartMs)
	assert.Zero(t, timing.EndMs)
}

func TestNormalizeTimingFallsBackOnNoSchedule(t *testing.T) {
	timing := apiclient.NormalizeTiming(&model.Contest{})
	assert.Equal(t, apiclient.TimingFallback, timing.Mode)
}

func TestNormalizeTimingIgnoresInvertedWindow(t *testing.T) {
	start := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)

	timing := apiclient.NormalizeTiming(&model.Contest{StartTime: &start, EndTime: &end, DurationMinutes: 30})
	assert.Equal(t, apiclient.TimingDuration, timing.Mode, "an inverted window is no window at all")

	timing = apiclient.NormalizeTiming(&model.Contest{StartTime: &start, EndTime: &end})
	assert.Equal(t, apiclient.TimingFallback, timing.Mode)
}
