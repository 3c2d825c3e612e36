package reporter

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/osv-purl-collector/pkg/collector"
)

const toolName = "osv-collector"

type SARIFReporter struct{}

func (r *SARIFReporter) Report(w io.Writer, resp collector.CollectPackagesResponse) error {
	sarif := map[string]interface{}{
		"$schema": "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		"version": "2.1.0",
		"runs": []map[string]interface{}{
			{
				"tool": map[string]interface{}{
					"driver": map[string]interface{}{
						"name":           toolName,
						"informationUri": "https://osv.dev",
						"rules":          buildRules(resp),
					},
				},
				"results": buildResults(resp),
			},
		},
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sarif)
}

func buildRules(resp collector.CollectPackagesResponse) []map[string]interface{} {
	rules := []map[string]interface{}{}
	for _, id := range resp.VulnerabilityIDs() {
		rules = append(rules, map[string]interface{}{
			"id":               id,
			"shortDescription": map[string]string{"text": id},
			"helpUri":          "https://osv.dev/vulnerability/" + id,
		})
	}
	return rules
}

func buildResults(resp collector.CollectPackagesResponse) []map[string]interface{} {
	results := []map[string]interface{}{}
	for _, purl := range resp.SortedPurls() {
		for _, id := range resp.Purls[purl] {
			results = append(results, map[string]interface{}{
				"ruleId":  id,
				"level":   "warning",
				"message": map[string]string{"text": fmt.Sprintf("%s is affected by %s", purl, id)},
			})
		}
	}
	return results
}
