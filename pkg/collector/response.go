package collector

import (
	"slices"

	"github.com/osv-purl-collector/pkg/osv"
	"github.com/samber/lo"
)

// CollectPackagesResponse maps a package URL to the IDs of the vulnerabilities
// known to affect it. Only packages with at least one vulnerability appear.
type CollectPackagesResponse struct {
	Purls map[string][]string `json:"purls"`
}

// FromCollated reduces a collated OSV batch response to purl -> vulnerability
// IDs. Packages not identified by purl and packages without vulnerabilities
// are dropped. If a purl appears more than once its IDs are merged in order of
// appearance without repeating an ID.
func FromCollated(resp osv.CollatedQueryBatchResponse) CollectPackagesResponse {
	purls := make(map[string][]string)

	for _, r := range resp.Results {
		purl, ok := r.Package.Purl()
		if !ok || len(r.Vulns) == 0 {
			continue
		}

		ids := lo.Map(r.Vulns, func(v osv.BatchVulnerability, _ int) string {
			return v.ID
		})

		existing, seen := purls[purl]
		if !seen {
			purls[purl] = ids
			continue
		}
		for _, id := range ids {
			if !slices.Contains(existing, id) {
				existing = append(existing, id)
			}
		}
		purls[purl] = existing
	}

	return CollectPackagesResponse{Purls: purls}
}

// VulnerabilityIDs returns every distinct vulnerability ID in r, sorted.
func (r CollectPackagesResponse) VulnerabilityIDs() []string {
	ids := lo.Uniq(lo.Flatten(lo.Values(r.Purls)))
	slices.Sort(ids)
	return ids
}

// SortedPurls returns the keys of r in lexical order.
func (r CollectPackagesResponse) SortedPurls() []string {
	keys := lo.Keys(r.Purls)
	slices.Sort(keys)
	return keys
}
