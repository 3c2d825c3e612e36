package osv

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/osv-scanner/pkg/models"
)

type packageKind int

const (
	kindUnknown packageKind = iota
	kindPurl
	kindEcosystem
)

// Package identifies a package in an OSV query. It is either a package URL or
// an ecosystem/name pair; exactly one form is encoded on the wire.
type Package struct {
	kind      packageKind
	purl      string
	ecosystem string
	name      string
}

// PurlPackage returns a Package identified by a package URL.
func PurlPackage(purl string) Package {
	return Package{kind: kindPurl, purl: purl}
}

// EcosystemPackage returns a Package identified by an OSV ecosystem and name.
func EcosystemPackage(ecosystem, name string) Package {
	return Package{kind: kindEcosystem, ecosystem: ecosystem, name: name}
}

// Purl returns the package URL and true when p is the package URL form.
func (p Package) Purl() (string, bool) {
	if p.kind != kindPurl {
		return "", false
	}
	return p.purl, true
}

// Ecosystem returns the ecosystem and name and true when p is the ecosystem form.
func (p Package) Ecosystem() (ecosystem, name string, ok bool) {
	if p.kind != kindEcosystem {
		return "", "", false
	}
	return p.ecosystem, p.name, true
}

func (p Package) String() string {
	switch p.kind {
	case kindPurl:
		return p.purl
	case kindEcosystem:
		return p.ecosystem + ":" + p.name
	default:
		return "<unknown package>"
	}
}

var errEmptyPackage = errors.New("package has neither purl nor ecosystem/name")

type wirePackage struct {
	Purl      string `json:"purl,omitempty"`
	Ecosystem string `json:"ecosystem,omitempty"`
	Name      string `json:"name,omitempty"`
}

func (p Package) MarshalJSON() ([]byte, error) {
	// Only encode what UnmarshalJSON accepts back.
	switch {
	case p.kind == kindPurl && p.purl != "":
		return json.Marshal(wirePackage{Purl: p.purl})
	case p.kind == kindEcosystem && p.name != "":
		return json.Marshal(wirePackage{Ecosystem: p.ecosystem, Name: p.name})
	default:
		return nil, errEmptyPackage
	}
}

func (p *Package) UnmarshalJSON(data []byte) error {
	var w wirePackage
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch {
	case w.Purl != "":
		*p = PurlPackage(w.Purl)
	case w.Name != "":
		*p = EcosystemPackage(w.Ecosystem, w.Name)
	default:
		return errEmptyPackage
	}
	return nil
}

// Query asks OSV about one package. Version and Commit narrow the match and
// are omitted when empty.
type Query struct {
	Package Package `json:"package"`
	Version string  `json:"version,omitempty"`
	Commit  string  `json:"commit,omitempty"`
}

// QueryBatchRequest is the body of a querybatch call. Results come back in
// the same order as Queries and carry no other correlation key.
type QueryBatchRequest struct {
	Queries []Query `json:"queries"`
}

// NewPurlBatch builds a batch with one purl query per input, in input order.
func NewPurlBatch(purls []string) QueryBatchRequest {
	queries := make([]Query, 0, len(purls))
	for _, p := range purls {
		queries = append(queries, Query{Package: PurlPackage(p)})
	}
	return QueryBatchRequest{Queries: queries}
}

// BatchVulnerability is the minimal vulnerability record returned by querybatch.
type BatchVulnerability struct {
	ID       string    `json:"id"`
	Modified time.Time `json:"modified"`
}

// BatchResult holds the matches for one query. A nil Vulns means OSV
// returned nothing for the slot, which is equivalent to an empty list.
type BatchResult struct {
	Vulns []BatchVulnerability `json:"vulns"`
}

// QueryBatchResponse is the raw querybatch response body.
type QueryBatchResponse struct {
	Results []BatchResult `json:"results"`
}

// CollatedResult pairs a queried package with the vulnerabilities OSV
// returned for it.
type CollatedResult struct {
	Package Package              `json:"package"`
	Vulns   []BatchVulnerability `json:"vulns"`
}

// CollatedQueryBatchResponse is a querybatch response re-associated with the
// packages that were asked about, in query order.
type CollatedQueryBatchResponse struct {
	Results []CollatedResult `json:"results"`
}

type queryResponse struct {
	Vulns []models.Vulnerability `json:"vulns"`
}
