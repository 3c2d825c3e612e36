// Package collector turns lists of package URLs into the purl -> vulnerability
// ID mapping consumed downstream.
package collector

import (
	"context"
	"fmt"

	"github.com/google/osv-scanner/pkg/models"
	"github.com/osv-purl-collector/pkg/osv"
	"github.com/osv-purl-collector/pkg/purl"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Querier is the part of the OSV API the collector needs. *osv.Client satisfies it.
type Querier interface {
	QueryBatch(ctx context.Context, req osv.QueryBatchRequest) (osv.CollatedQueryBatchResponse, error)
	GetVulnerability(ctx context.Context, id string) (models.Vulnerability, error)
}

type Collector struct {
	querier     Querier
	batchSize   int
	concurrency int
	logger      *zap.Logger
}

type Option func(*Collector)

// WithBatchSize caps the number of queries per querybatch call. Values outside
// 1..osv.MaxBatchSize are ignored.
func WithBatchSize(n int) Option {
	return func(c *Collector) {
		if n > 0 && n <= osv.MaxBatchSize {
			c.batchSize = n
		}
	}
}

// WithConcurrency caps the number of querybatch calls in flight.
func WithConcurrency(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Collector) {
		c.logger = logger
	}
}

func New(querier Querier, opts ...Option) *Collector {
	c := &Collector{
		querier:     querier,
		batchSize:   osv.MaxBatchSize,
		concurrency: 1,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect looks up every purl and returns the ones with known vulnerabilities.
// Purls that do not parse are logged and skipped. Any failed batch fails the
// whole call.
func (c *Collector) Collect(ctx context.Context, purls []string) (CollectPackagesResponse, error) {
	valid := c.normalize(purls)
	chunks := lo.Chunk(valid, c.batchSize)

	c.logger.Info("collecting vulnerabilities",
		zap.Int("purls", len(valid)),
		zap.Int("batches", len(chunks)))

	results := make([]osv.CollatedQueryBatchResponse, len(chunks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			resp, err := c.querier.QueryBatch(ctx, osv.NewPurlBatch(chunk))
			if err != nil {
				return fmt.Errorf("query batch %d of %d: %w", i+1, len(chunks), err)
			}
			results[i] = resp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return CollectPackagesResponse{}, err
	}

	var merged osv.CollatedQueryBatchResponse
	for _, r := range results {
		merged.Append(r)
	}

	out := FromCollated(merged)
	c.logger.Info("collected vulnerabilities",
		zap.Int("vulnerable_purls", len(out.Purls)))
	return out, nil
}

// Vulnerability fetches the full record for one vulnerability ID.
func (c *Collector) Vulnerability(ctx context.Context, id string) (models.Vulnerability, error) {
	return c.querier.GetVulnerability(ctx, id)
}

// normalize drops unparsable and repeated purls. Valid purls are kept exactly
// as given: they are both the OSV query and the key in the response.
func (c *Collector) normalize(purls []string) []string {
	valid := make([]string, 0, len(purls))
	for _, p := range purls {
		if err := purl.Validate(p); err != nil {
			c.logger.Warn("skipping invalid purl", zap.String("purl", p), zap.Error(err))
			continue
		}
		valid = append(valid, p)
	}
	return lo.Uniq(valid)
}
