package lockfile

import (
	"bufio"
	"os"
	"sort"
	"strings"
)

type GoModParser struct{}

func (p *GoModParser) Ecosystem() string { return "Go" }

func (p *GoModParser) Parse(path string) ([]Dependency, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	seen := make(map[string]bool)
	var deps []Dependency

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}

		mod := fields[0]
		// "module v1.2.3 h1:..." and "module v1.2.3/go.mod h1:..." name the same version
		ver := strings.TrimSuffix(fields[1], "/go.mod")

		key := mod + "@" + ver
		if seen[key] {
			continue
		}
		seen[key] = true

		deps = append(deps, Dependency{
			Name:      mod,
			Version:   ver,
			Ecosystem: "Go",
		})
	}
	return deps, scanner.Err()
}

func sortDependencies(deps []Dependency) {
	sort.Slice(deps, func(i, j int) bool {
		if deps[i].Name != deps[j].Name {
			return deps[i].Name < deps[j].Name
		}
		return deps[i].Version < deps[j].Version
	})
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
