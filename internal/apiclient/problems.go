package apiclient

import (
	"context"
	"net/http"

	"github.com/algobucks/platform/internal/model"
)

// ProblemsService covers the public problem catalog.
type ProblemsService struct {
	client *Client
}

// Get fetches one problem by ID or slug.
func (s *ProblemsService) Get(ctx context.Context, idOrSlug string) (*model.Problem, error) {
	var out struct {
		Problem model.Problem `json:"problem"`
	}
	if err := s.client.do(ctx, http.MethodGet, "/api/v1/problems/"+idOrSlug, nil, &out); err != nil {
		return nil, err
	}
	return &out.Problem, nil
}
