package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"TickPull/internal/domain/models"
	"TickPull/pkg/httpx"
)

// ErrNoData marks an hour the provider legitimately has nothing for
// (weekends, pre-listing). Terminal: never retried, never an error to report.
var ErrNoData = errors.New("feed: no data for hour")

// StatusError is an unexpected HTTP status; the orchestrator treats it as
// retryable.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// Client fetches hourly tick files from the datafeed.
type Client struct {
	baseURL string
	http    *httpx.Client
}

// NewClient creates a datafeed client.
func NewClient(baseURL string, hc *httpx.Client) *Client {
	return &Client{baseURL: baseURL, http: hc}
}

// Fetch retrieves the compressed payload for one ref. Returns ErrNoData for
// 404 or an empty 200 body, *StatusError for any other non-200 status.
func (c *Client) Fetch(ctx context.Context, ref models.HourRef) ([]byte, error) {
	status, body, err := c.http.Get(ctx, URL(c.baseURL, ref), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ref.Key(), err)
	}

	switch {
	case status == http.StatusNotFound:
		return nil, ErrNoData
	case status == http.StatusOK && len(body) == 0:
		return nil, ErrNoData
	case status == http.StatusOK:
		return body, nil
	default:
		return nil, &StatusError{Code: status}
	}
}
