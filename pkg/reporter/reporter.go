package reporter

import (
	"io"

	"github.com/osv-purl-collector/pkg/collector"
)

type Reporter interface {
	Report(w io.Writer, resp collector.CollectPackagesResponse) error
}

func New(format string) Reporter {
	switch format {
	case "json":
		return &JSONReporter{}
	case "sarif":
		return &SARIFReporter{}
	default:
		return &TableReporter{}
	}
}
