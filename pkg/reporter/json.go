package reporter

import (
	"encoding/json"
	"io"

	"github.com/osv-purl-collector/pkg/collector"
)

type JSONReporter struct{}

// Report writes the collector response as is, so downstream consumers can
// decode it straight back into a collector.CollectPackagesResponse.
func (r *JSONReporter) Report(w io.Writer, resp collector.CollectPackagesResponse) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
