package collector

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/osv-scanner/pkg/models"
	"github.com/osv-purl-collector/pkg/osv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQuerier struct {
	mu      sync.Mutex
	batches [][]string
	vulns   map[string][]string
	err     error
}

func (f *fakeQuerier) QueryBatch(_ context.Context, req osv.QueryBatchRequest) (osv.CollatedQueryBatchResponse, error) {
	if f.err != nil {
		return osv.CollatedQueryBatchResponse{}, f.err
	}

	var batch []string
	results := make([]osv.BatchResult, 0, len(req.Queries))
	for _, q := range req.Queries {
		p, _ := q.Package.Purl()
		batch = append(batch, p)

		var r osv.BatchResult
		for _, id := range f.vulns[p] {
			r.Vulns = append(r.Vulns, osv.BatchVulnerability{ID: id})
		}
		results = append(results, r)
	}

	f.mu.Lock()
	f.batches = append(f.batches, batch)
	f.mu.Unlock()

	return osv.Collate(req.Queries, results)
}

func (f *fakeQuerier) GetVulnerability(_ context.Context, id string) (models.Vulnerability, error) {
	return models.Vulnerability{ID: id}, nil
}

func TestCollector_Collect(t *testing.T) {
	q := &fakeQuerier{vulns: map[string][]string{
		"pkg:npm/lodash@4.17.20":               {"GHSA-35jh-r3h4-6jhm", "GHSA-p6mc-m468-83gw"},
		"pkg:pypi/Django@1.11.1?extension=whl": {"PYSEC-2017-9"},
		"pkg:golang/golang.org/x/net@v0.1.0":   nil,
	}}

	c := New(q)
	got, err := c.Collect(context.Background(), []string{
		"pkg:npm/lodash@4.17.20",
		"pkg:pypi/Django@1.11.1?extension=whl",
		"pkg:golang/golang.org/x/net@v0.1.0",
	})
	require.NoError(t, err)

	assert.Equal(t, map[string][]string{
		"pkg:npm/lodash@4.17.20":               {"GHSA-35jh-r3h4-6jhm", "GHSA-p6mc-m468-83gw"},
		"pkg:pypi/Django@1.11.1?extension=whl": {"PYSEC-2017-9"},
	}, got.Purls)
	require.Len(t, q.batches, 1)
}

func TestCollector_Collect_KeepsPurlAsGiven(t *testing.T) {
	const toml = "pkg:golang/github.com/BurntSushi/toml@v0.3.0"
	q := &fakeQuerier{vulns: map[string][]string{toml: {"GO-2022-0001"}}}

	got, err := New(q).Collect(context.Background(), []string{toml})
	require.NoError(t, err)

	require.Len(t, q.batches, 1)
	assert.Equal(t, []string{toml}, q.batches[0])
	assert.Equal(t, map[string][]string{toml: {"GO-2022-0001"}}, got.Purls)
}

func TestCollector_Collect_SkipsInvalidAndDuplicates(t *testing.T) {
	q := &fakeQuerier{vulns: map[string][]string{
		"pkg:npm/lodash@4.17.20": {"GHSA-35jh-r3h4-6jhm"},
	}}

	got, err := New(q).Collect(context.Background(), []string{
		"not-a-purl",
		"pkg:npm/lodash@4.17.20",
		"pkg:npm/lodash@4.17.20",
	})
	require.NoError(t, err)

	assert.Equal(t, map[string][]string{"pkg:npm/lodash@4.17.20": {"GHSA-35jh-r3h4-6jhm"}}, got.Purls)
	require.Len(t, q.batches, 1)
	assert.Equal(t, []string{"pkg:npm/lodash@4.17.20"}, q.batches[0])
}

func TestCollector_Collect_Chunks(t *testing.T) {
	q := &fakeQuerier{vulns: map[string][]string{
		"pkg:npm/e@1": {"E"},
		"pkg:npm/a@1": {"A"},
	}}

	c := New(q, WithBatchSize(2), WithConcurrency(3))
	got, err := c.Collect(context.Background(), []string{
		"pkg:npm/a@1", "pkg:npm/b@1", "pkg:npm/c@1", "pkg:npm/d@1", "pkg:npm/e@1",
	})
	require.NoError(t, err)

	assert.Len(t, q.batches, 3)
	for _, b := range q.batches {
		assert.LessOrEqual(t, len(b), 2)
	}
	assert.Equal(t, map[string][]string{
		"pkg:npm/a@1": {"A"},
		"pkg:npm/e@1": {"E"},
	}, got.Purls)
}

func TestCollector_Collect_Empty(t *testing.T) {
	q := &fakeQuerier{}

	got, err := New(q).Collect(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got.Purls)
	assert.Empty(t, q.batches)
}

func TestCollector_Collect_Error(t *testing.T) {
	q := &fakeQuerier{err: osv.ErrRequestFailed}

	_, err := New(q).Collect(context.Background(), []string{"pkg:npm/a@1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, osv.ErrRequestFailed))
}

func TestCollector_Vulnerability(t *testing.T) {
	v, err := New(&fakeQuerier{}).Vulnerability(context.Background(), "GHSA-7rjr-3q55-vv33")
	require.NoError(t, err)
	assert.Equal(t, "GHSA-7rjr-3q55-vv33", v.ID)
}

func TestWithBatchSize_IgnoresOutOfRange(t *testing.T) {
	assert.Equal(t, osv.MaxBatchSize, New(nil, WithBatchSize(0)).batchSize)
	assert.Equal(t, osv.MaxBatchSize, New(nil, WithBatchSize(osv.MaxBatchSize+1)).batchSize)
	assert.Equal(t, 10, New(nil, WithBatchSize(10)).batchSize)
}
