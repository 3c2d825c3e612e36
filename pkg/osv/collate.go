package osv

import (
	"errors"
	"fmt"
)

// ErrResultCountMismatch means OSV answered a batch with a different number of
// results than queries, so positional pairing cannot be trusted past the
// shorter of the two.
var ErrResultCountMismatch = errors.New("osv result count does not match query count")

// Collate pairs queries[i].Package with results[i].Vulns. The output has
// min(len(queries), len(results)) entries; when the lengths differ it is
// returned along with ErrResultCountMismatch.
func Collate(queries []Query, results []BatchResult) (CollatedQueryBatchResponse, error) {
	n := min(len(queries), len(results))

	collated := make([]CollatedResult, n)
	for i := 0; i < n; i++ {
		collated[i] = CollatedResult{
			Package: queries[i].Package,
			Vulns:   results[i].Vulns,
		}
	}

	resp := CollatedQueryBatchResponse{Results: collated}
	if len(queries) != len(results) {
		return resp, fmt.Errorf("%w: %d queries, %d results", ErrResultCountMismatch, len(queries), len(results))
	}
	return resp, nil
}

// Append adds other's results after r's, preserving order.
func (r *CollatedQueryBatchResponse) Append(other CollatedQueryBatchResponse) {
	r.Results = append(r.Results, other.Results...)
}
