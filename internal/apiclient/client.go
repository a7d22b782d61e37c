// Package apiclient is the Go SDK for the AlgoBucks platform API. It
// speaks the standard response envelope, carries the contestant's
// bearer token, and normalizes contest payloads at the edge so callers
// never deal with half-populated problem listings or per-contest
// timing quirks.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "algobucks-cli/1.0"
)

// Error codes the client branches on. The full set lives in the
// server's response package; only codes with client-side behavior are
// mirrored here.
const (
	CodeContestNotStarted = "CONTEST_NOT_STARTED"
	CodeContestEnded      = "CONTEST_ENDED"
	CodeEvaluationBusy    = "EVALUATION_BUSY"
)

// Config carries everything the client needs. No environment lookups
// happen here; the caller resolves its own configuration.
type Config struct {
	BaseURL   string
	Token     string
	Timeout   time.Duration
	UserAgent string
}

// Client is the platform API client. Endpoint groups hang off it the
// way the routes group on the server.
type Client struct {
	baseURL   string
	token     string
	userAgent string
	http      *http.Client

	Contests    *ContestsService
	Problems    *ProblemsService
	Submissions *SubmissionsService
	Time        *TimeService
}

// New creates a client. BaseURL is the server root without the /api/v1
// prefix, e.g. http://localhost:8080.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		token:     cfg.Token,
		userAgent: userAgent,
		http:      &http.Client{Timeout: timeout},
	}
	c.Contests = &ContestsService{client: c}
	c.Problems = &ProblemsService{client: c}
	c.Submissions = &SubmissionsService{client: c}
	c.Time = &TimeService{client: c}
	return c
}

// APIError is a platform rejection decoded from the response envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api: %s (%s, status %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("api: status %d", e.Status)
}

// HasCode reports whether err is an APIError carrying the given code.
func HasCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// envelope mirrors the server's response wrapper.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *wireError      `json:"error,omitempty"`
}

type wireError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// do runs one JSON round trip. body is marshaled when non-nil; the
// envelope's data field is unmarshaled into out when non-nil. Any
// error the server reports comes back as *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// Proxies and load balancers answer with whatever they like.
		if resp.StatusCode >= 400 {
			return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("decode response: %w", err)
	}

	if env.Error != nil {
		return &APIError{
			Status:  resp.StatusCode,
			Code:    env.Error.Code,
			Message: env.Error.Message,
			Fields:  env.Error.Fields,
		}
	}
	if resp.StatusCode >= 400 {
		return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return nil
}
