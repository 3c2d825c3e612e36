package lockfile

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/osv-purl-collector/pkg/purl"
)

type Dependency struct {
	Name      string
	Version   string
	Ecosystem string
	Purl      string
}

// PackageURL returns d.Purl when the source already carried one, otherwise a
// purl derived from ecosystem, name and version.
func (d Dependency) PackageURL() (string, error) {
	if d.Purl != "" {
		return d.Purl, nil
	}
	return purl.FromEcosystem(d.Ecosystem, d.Name, d.Version)
}

type Parser interface {
	Parse(path string) ([]Dependency, error)
	Ecosystem() string
}

func NewParser(path string) (Parser, error) {
	base := filepath.Base(path)
	switch {
	case base == "package-lock.json":
		return &NPMParser{}, nil
	case base == "requirements.txt":
		return &PyPIParser{}, nil
	case base == "go.sum":
		return &GoModParser{}, nil
	case base == "bom.json", base == "sbom.json", strings.HasSuffix(base, ".cdx.json"):
		return &CycloneDXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported lockfile: %s", base)
	}
}

// Purls parses every path and returns the package URLs of all dependencies
// in file order. Dependencies whose purl cannot be derived are reported
// through skip and left out.
func Purls(paths []string, skip func(Dependency, error)) ([]string, error) {
	var purls []string
	for _, path := range paths {
		parser, err := NewParser(path)
		if err != nil {
			return nil, err
		}
		deps, err := parser.Parse(path)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		for _, d := range deps {
			p, err := d.PackageURL()
			if err != nil {
				if skip != nil {
					skip(d, err)
				}
				continue
			}
			purls = append(purls, p)
		}
	}
	return purls, nil
}

// Detect returns the supported lockfiles present in dir.
func Detect(dir string) []string {
	candidates := []string{
		"package-lock.json",
		"requirements.txt",
		"go.sum",
		"bom.json",
		"sbom.json",
	}
	var found []string
	for _, c := range candidates {
		path := filepath.Join(dir, c)
		if fileExists(path) {
			found = append(found, path)
		}
	}
	return found
}
