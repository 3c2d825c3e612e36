package lockfile

import (
	"encoding/json"
	"os"
	"strings"
)

type NPMParser struct{}

func (p *NPMParser) Ecosystem() string { return "npm" }

func (p *NPMParser) Parse(path string) ([]Dependency, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var lockfile struct {
		Packages map[string]struct {
			Version string `json:"version"`
			Link    bool   `json:"link"`
		} `json:"packages"`
		Dependencies map[string]struct {
			Version string `json:"version"`
		} `json:"dependencies"`
	}
	if err := json.Unmarshal(data, &lockfile); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var deps []Dependency
	add := func(name, version string) {
		if name == "" || version == "" || seen[name+"@"+version] {
			return
		}
		seen[name+"@"+version] = true
		deps = append(deps, Dependency{
			Name:      name,
			Version:   version,
			Ecosystem: "npm",
		})
	}

	// lockfileVersion 2 and 3
	for key, pkg := range lockfile.Packages {
		if key == "" || pkg.Link {
			continue
		}
		add(npmPackageName(key), pkg.Version)
	}

	// lockfileVersion 1
	for name, dep := range lockfile.Dependencies {
		add(name, dep.Version)
	}

	sortDependencies(deps)
	return deps, nil
}

// npmPackageName strips the node_modules path from a packages key, e.g.
// "node_modules/a/node_modules/@scope/pkg" -> "@scope/pkg".
func npmPackageName(key string) string {
	const prefix = "node_modules/"
	if i := strings.LastIndex(key, prefix); i >= 0 {
		return key[i+len(prefix):]
	}
	return key
}
