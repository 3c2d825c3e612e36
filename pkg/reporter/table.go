package reporter

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/osv-purl-collector/pkg/collector"
)

type TableReporter struct{}

func (r *TableReporter) Report(w io.Writer, resp collector.CollectPackagesResponse) error {
	if len(resp.Purls) == 0 {
		_, err := fmt.Fprintln(w, "No known vulnerabilities found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PACKAGE\tCOUNT\tVULNERABILITIES")
	fmt.Fprintln(tw, "-------\t-----\t---------------")

	for _, purl := range resp.SortedPurls() {
		ids := resp.Purls[purl]
		fmt.Fprintf(tw, "%s\t%d\t%s\n", purl, len(ids), strings.Join(ids, ", "))
	}
	return tw.Flush()
}
