package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/algobucks/platform/internal/model"
)

// SubmissionsService covers code evaluation and submission history.
type SubmissionsService struct {
	client *Client
}

// Evaluation is the judge outcome returned by the run, dry-run and
// submit endpoints.
type Evaluation struct {
	SubmissionID *uuid.UUID    `json:"submission_id,omitempty"`
	Verdict      model.Verdict `json:"verdict"`
	Passed       int           `json:"passed"`
	Total        int           `json:"total"`
	RuntimeMS    int           `json:"runtime_ms"`
	Output       string        `json:"output,omitempty"`
	Diagnostics  string        `json:"diagnostics,omitempty"`
	Score        int           `json:"score"`
}

// Run evaluates code against the problem's sample tests. Output is
// included; nothing is scored or recorded against standings.
func (s *SubmissionsService) Run(ctx context.Context, problemID uuid.UUID, language, code string) (*Evaluation, error) {
	body := model.RunCodeRequest{ProblemID: problemID, Language: language, Code: code}
	var out Evaluation
	if err := s.client.do(ctx, http.MethodPost, "/api/v1/submissions/run", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DryRun evaluates code against the full hidden test set without
// affecting standings.
func (s *SubmissionsService) DryRun(ctx context.Context, problemID uuid.UUID, language, code string) (*Evaluation, error) {
	body := model.RunCodeRequest{ProblemID: problemID, Language: language, Code: code}
	var out Evaluation
	if err := s.client.do(ctx, http.MethodPost, "/api/v1/submissions/dry-run", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Submit files a scored contest submission.
func (s *SubmissionsService) Submit(ctx context.Context, contestID, problemID uuid.UUID, language, code string) (*Evaluation, error) {
	body := model.SubmitCodeRequest{ProblemID: problemID, Language: language, Code: code}
	var out Evaluation
	if err := s.client.do(ctx, http.MethodPost, "/api/v1/contests/"+contestID.String()+"/submissions", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// History lists the contestant's scored submissions for a contest,
// optionally narrowed to one problem.
func (s *SubmissionsService) History(ctx context.Context, contestID uuid.UUID, problemID *uuid.UUID, page, perPage int) ([]model.Submission, error) {
	q := url.Values{}
	if problemID != nil {
		q.Set("problem_id", problemID.String())
	}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		q.Set("per_page", strconv.Itoa(perPage))
	}
	path := "/api/v1/contests/" + contestID.String() + "/submissions"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out struct {
		Submissions []model.Submission `json:"submissions"`
	}
	if err := s.client.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Submissions, nil
}

// AutoSubmit posts the parting-shot beacon. The endpoint takes no
// Authorization header, mirroring navigator.sendBeacon, so the token
// rides in the body and the server validates it there.
func (s *SubmissionsService) AutoSubmit(ctx context.Context, contestID, problemID uuid.UUID, language, code string, at int64) error {
	body := model.AutoSubmitRequest{
		Token:     s.client.token,
		ProblemID: problemID,
		Language:  language,
		UserCode:  code,
		At:        at,
	}
	return s.client.do(ctx, http.MethodPost, "/api/v1/contests/"+contestID.String()+"/autosubmit", body, nil)
}
