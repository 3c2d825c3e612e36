// Package osv is a client for the OSV vulnerability database API.
package osv

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/osv-scanner/pkg/models"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.osv.dev"

	queryPath      = "/v1/query"
	queryBatchPath = "/v1/querybatch"
	vulnsPath      = "/v1/vulns"

	// MaxBatchSize is the largest number of queries OSV accepts in one querybatch call.
	MaxBatchSize = 1000
)

// ErrRequestFailed is returned for every transport, status or decode failure.
var ErrRequestFailed = errors.New("osv request failed")

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the OSV API. It holds no mutable state and is safe for
// concurrent use. It never retries; callers own retry and timeout policy.
type Client struct {
	httpClient Doer
	baseURL    string
	logger     *zap.Logger
}

type Option func(*Client)

// WithHTTPClient sets the transport used for every request.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) {
		c.httpClient = d
	}
}

// WithBaseURL points the client at another OSV deployment.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		baseURL:    DefaultBaseURL,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// QueryBatch sends all queries in one querybatch call and pairs each query's
// package with the result at the same position. If OSV returns a different
// number of results than queries were sent, the pairs that could be formed
// are returned together with ErrResultCountMismatch.
func (c *Client) QueryBatch(ctx context.Context, req QueryBatchRequest) (CollatedQueryBatchResponse, error) {
	if len(req.Queries) == 0 {
		return CollatedQueryBatchResponse{Results: []CollatedResult{}}, nil
	}

	var resp QueryBatchResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+queryBatchPath, req, &resp); err != nil {
		return CollatedQueryBatchResponse{}, fmt.Errorf("osv batch query: %w", err)
	}

	c.logger.Debug("osv batch query",
		zap.Int("queries", len(req.Queries)),
		zap.Int("results", len(resp.Results)))

	return Collate(req.Queries, resp.Results)
}

// Query returns the full records of every vulnerability affecting a single package.
func (c *Client) Query(ctx context.Context, q Query) ([]models.Vulnerability, error) {
	var resp queryResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+queryPath, q, &resp); err != nil {
		return nil, fmt.Errorf("osv query %s: %w", q.Package, err)
	}
	return resp.Vulns, nil
}

// GetVulnerability fetches one full vulnerability record. The id is appended
// to the request path as is, so it must already be path safe.
func (c *Client) GetVulnerability(ctx context.Context, id string) (models.Vulnerability, error) {
	var vuln models.Vulnerability
	if err := c.do(ctx, http.MethodGet, c.baseURL+vulnsPath+"/"+id, nil, &vuln); err != nil {
		return models.Vulnerability{}, fmt.Errorf("osv get vulnerability %s: %w", id, err)
	}
	return vuln, nil
}

func (c *Client) do(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: marshal request: %v", ErrRequestFailed, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: %s %s returned %d: %s", ErrRequestFailed, method, url, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrRequestFailed, err)
	}
	return nil
}
