package apiclient

import (
	"context"
	"net/http"
)

// TimeService exposes the server clock.
type TimeService struct {
	client *Client
}

// Now returns the server clock in epoch milliseconds. Callers subtract
// their own local clock to get an offset; on error they stay at offset
// zero and run on local time.
func (s *TimeService) Now(ctx context.Context) (int64, error) {
	var out struct {
		ServerTimeMS int64 `json:"server_time_ms"`
	}
	if err := s.client.do(ctx, http.MethodGet, "/api/v1/time", nil, &out); err != nil {
		return 0, err
	}
	return out.ServerTimeMS, nil
}
