// Package httpclient provides the transports callers inject into the OSV client.
package httpclient

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// RLHTTPClient is a rate limited HTTP client.
type RLHTTPClient struct {
	Client      *http.Client
	Ratelimiter *rate.Limiter
}

// Do waits for the rate limiter, then sends the request. Waiting respects the
// request's context.
func (c *RLHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if err := c.Ratelimiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return c.Client.Do(req)
}

// New returns a client with the given timeout (0 means none) that sends at
// most rps requests per second. rps <= 0 disables limiting.
func New(timeout time.Duration, rps float64) *RLHTTPClient {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &RLHTTPClient{
		Client:      &http.Client{Timeout: timeout},
		Ratelimiter: rate.NewLimiter(limit, 1),
	}
}
