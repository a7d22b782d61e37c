package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/algobucks/platform/internal/model"
)

// ErrUnavailable wraps transport failures and judge 5xx responses so
// callers can answer with a retryable error code.
var ErrUnavailable = errors.New("judge unavailable")

// Mode selects which test set the judge runs.
type Mode string

const (
	// ModeSample runs only the public sample tests.
	ModeSample Mode = "sample"
	// ModeFull runs the complete hidden sweep.
	ModeFull Mode = "full"
)

// EvaluateRequest is the payload posted to the judge.
type EvaluateRequest struct {
	ProblemID uuid.UUID `json:"problem_id"`
	Language  string    `json:"language"`
	Code      string    `json:"code"`
	Mode      Mode      `json:"mode"`
}

// EvaluateResponse is the judge's verdict for one evaluation.
type EvaluateResponse struct {
	Verdict     model.Verdict `json:"verdict"`
	Passed      int           `json:"passed"`
	Total       int           `json:"total"`
	RuntimeMS   int           `json:"runtime_ms"`
	Output      string        `json:"output,omitempty"`
	Diagnostics string        `json:"diagnostics,omitempty"`
}

// Client talks to the external judging service over HTTP. The judge
// owns hidden test data and sandboxed execution; this platform only
// ever sees verdicts.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	log     zerolog.Logger
}

// New creates a judge client. timeout bounds each evaluation call.
func New(baseURL, token string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "judge_client").Logger(),
	}
}

// Evaluate runs code against a problem's test set and returns the verdict.
func (c *Client) Evaluate(ctx context.Context, req *EvaluateRequest) (*EvaluateResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal evaluate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/evaluate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create evaluate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.log.Error().Err(err).Str("problem_id", req.ProblemID.String()).Msg("Judge request failed")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		raw, _ := io.ReadAll(resp.Body)
		c.log.Error().Int("status", resp.StatusCode).Bytes("body", raw).Msg("Judge returned server error")
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("judge returned status %d: %s", resp.StatusCode, string(raw))
	}

	var result EvaluateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode judge response: %w", err)
	}

	c.log.Debug().
		Str("problem_id", req.ProblemID.String()).
		Str("mode", string(req.Mode)).
		Str("verdict", string(result.Verdict)).
		Dur("elapsed", time.Since(start)).
		Msg("Evaluation completed")

	return &result, nil
}

// Health pings the judge. Used at startup to log connectivity.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}
