package apiclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/algobucks/platform/internal/apiclient"
	"github.com/algobucks/platform/internal/model"
)

// counter tracks how many times each stub route was hit.
type counter struct {
	mu     sync.Mutex
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) hit(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[name]++
}

func (c *counter) get(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[name]
}

func (c *counter) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.counts {
		n += v
	}
	return n
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data":     data,
		"metadata": map[string]string{"request_id": "test", "timestamp": time.Now().Format(time.RFC3339)},
	})
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data":     nil,
		"error":    map[string]string{"code": code, "message": message},
		"metadata": map[string]string{"request_id": "test"},
	})
}

func newClient(t *testing.T, srv *httptest.Server) *apiclient.Client {
	t.Helper()
	t.Cleanup(srv.Close)
	return apiclient.New(apiclient.Config{BaseURL: srv.URL, Token: "test-token"})
}

func TestClientSendsAuthHeaders(t *testing.T) {
	var gotAuth, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAgent = r.Header.Get("User-Agent")
		writeData(w, http.StatusOK, map[string]int64{"server_time_ms": 1234})
	}))
	client := newClient(t, srv)

	ms, err := client.Time.Now(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1234), ms)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "algobucks-cli/1.0", gotAgent)
}

func TestClientDecodesEnvelopeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusForbidden, "CONTEST_NOT_STARTED", "Contest has not started yet")
	}))
	client := newClient(t, srv)

	_, err := client.Time.Now(context.Background())
	require.Error(t, err)

	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, apiclient.CodeContestNotStarted, apiErr.Code)
	assert.Equal(t, "Contest has not started yet", apiErr.Message)

	assert.True(t, apiclient.HasCode(err, apiclient.CodeContestNotStarted))
	assert.False(t, apiclient.HasCode(err, apiclient.CodeContestEnded))
}

func TestClientHandlesNonEnvelopeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream fell over"))
	}))
	client := newClient(t, srv)

	_, err := client.Time.Now(context.Background())
	require.Error(t, err)

	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Empty(t, apiErr.Code)
}

func contestFixture(id uuid.UUID) model.Contest {
	return model.Contest{
		ID:              id,
		Slug:            "weekly-sprint-1",
		Title:           "Weekly Sprint #1",
		DurationMinutes: 90,
		Status:          model.ContestStatusPublished,
	}
}

func problemFixture(id uuid.UUID, title string, order int) model.ProblemForContestant {
	return model.ProblemForContestant{
		ID:       id,
		Slug:     title,
		Title:    title,
		OrderNum: order,
		Points:   100,
	}
}

// problemSetServer stubs the two endpoints the fallback chain touches.
func problemSetServer(hits *counter, contest model.Contest, populated, full []model.ProblemForContestant, problemsStatus int, problemsCode string) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/contests/"+contest.ID.String(), func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		hits.hit("contest")
		writeData(w, http.StatusOK, map[string]any{"contest": contest, "problems": populated})
	})
	mux.HandleFunc("/api/v1/contests/"+contest.ID.String()+"/problems", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		hits.hit("problems")
		if problemsStatus != http.StatusOK {
			writeAPIError(w, problemsStatus, problemsCode, "nope")
			return
		}
		writeData(w, http.StatusOK, map[string]any{"problems": full})
	})
	return httptest.NewServer(mux)
}

func TestProblemSetUsesPopulatedPayload(t *testing.T) {
	contestID := uuid.New()
	contest := contestFixture(contestID)
	populated := []model.ProblemForContestant{
		problemFixture(uuid.New(), "two-sum", 0),
		problemFixture(uuid.New(), "balanced-brackets", 1),
	}
	hits := newCounter()
	client := newClient(t, problemSetServer(hits, contest, populated, nil, http.StatusOK, ""))

	got, problems, err := client.ProblemSet(context.Background(), contestID.String())
	require.NoError(t, err)

	assert.Equal(t, contestID, got.ID)
	require.Len(t, problems, 2)
	assert.Equal(t, "two-sum", problems[0].Title)
	assert.Equal(t, "balanced-brackets", problems[1].Title)
	assert.Equal(t, 1, hits.total(), "populated payload should need a single fetch")
}

func TestProblemSetFallsBackToProblemsEndpoint(t *testing.T) {
	contestID := uuid.New()
	contest := contestFixture(contestID)
	full := []model.ProblemForContestant{problemFixture(uuid.New(), "two-sum", 0)}
	hits := newCounter()
	client := newClient(t, problemSetServer(hits, contest, nil, full, http.StatusOK, ""))

	_, problems, err := client.ProblemSet(context.Background(), contestID.String())
	require.NoError(t, err)

	require.Len(t, problems, 1)
	assert.Equal(t, 1, hits.get("contest"))
	assert.Equal(t, 1, hits.get("problems"))
	assert.LessOrEqual(t, hits.total(), 2, "fallback chain is one-shot")
}

func TestProblemSetSwallowsNotStartedRejection(t *testing.T) {
	contestID := uuid.New()
	contest := contestFixture(contestID)
	hits := newCounter()
	client := newClient(t, problemSetServer(hits, contest, nil, nil, http.StatusForbidden, "CONTEST_NOT_STARTED"))

	got, problems, err := client.ProblemSet(context.Background(), contestID.String())
	require.NoError(t, err, "pre-start rejection is not an error")

	assert.Equal(t, contestID, got.ID)
	assert.Empty(t, problems)
	assert.LessOrEqual(t, hits.total(), 2)
}

func TestProblemSetSkipsSecondFetchBeforeStart(t *testing.T) {
	contestID := uuid.New()
	contest := contestFixture(contestID)
	start := time.Now().Add(2 * time.Hour)
	contest.StartTime = &start
	hits := newCounter()
	client := newClient(t, problemSetServer(hits, contest, nil, nil, http.StatusOK, ""))

	_, problems, err := client.ProblemSet(context.Background(), contestID.String())
	require.NoError(t, err)

	assert.Empty(t, problems)
	assert.Equal(t, 0, hits.get("problems"), "no point asking for problems before the window opens")
	assert.Equal(t, 1, hits.total())
}

func TestProblemSetSurfacesOtherErrors(t *testing.T) {
	contestID := uuid.New()
	contest := contestFixture(contestID)
	hits := newCounter()
	client := newClient(t, problemSetServer(hits, contest, nil, nil, http.StatusInternalServerError, "INTERNAL_ERROR"))

	_, _, err := client.ProblemSet(context.Background(), contestID.String())
	require.Error(t, err)
	assert.False(t, apiclient.HasCode(err, apiclient.CodeContestNotStarted))
}
