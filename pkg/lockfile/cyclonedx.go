package lockfile

import (
	"fmt"
	"os"

	cyclonedx "github.com/CycloneDX/cyclonedx-go"
)

// CycloneDXParser reads component purls from a CycloneDX JSON SBOM.
type CycloneDXParser struct{}

func (p *CycloneDXParser) Ecosystem() string { return "" }

func (p *CycloneDXParser) Parse(path string) ([]Dependency, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var bom cyclonedx.BOM
	if err := cyclonedx.NewBOMDecoder(f, cyclonedx.BOMFileFormatJSON).Decode(&bom); err != nil {
		return nil, err
	}
	if bom.BOMFormat != cyclonedx.BOMFormat {
		return nil, fmt.Errorf("not a CycloneDX SBOM (bomFormat %q)", bom.BOMFormat)
	}

	seen := make(map[string]bool)
	var deps []Dependency
	var walk func(*[]cyclonedx.Component)
	walk = func(components *[]cyclonedx.Component) {
		if components == nil {
			return
		}
		for _, c := range *components {
			if c.PackageURL != "" && !seen[c.PackageURL] {
				seen[c.PackageURL] = true
				deps = append(deps, Dependency{
					Name:    c.Name,
					Version: c.Version,
					Purl:    c.PackageURL,
				})
			}
			walk(c.Components)
		}
	}
	walk(bom.Components)

	return deps, nil
}
