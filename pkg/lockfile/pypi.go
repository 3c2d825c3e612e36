package lockfile

import (
	"bufio"
	"os"
	"strings"
)

type PyPIParser struct{}

func (p *PyPIParser) Ecosystem() string { return "PyPI" }

func (p *PyPIParser) Parse(path string) ([]Dependency, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var deps []Dependency
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}

		name, version := parseRequirement(line)
		if name == "" {
			continue
		}
		deps = append(deps, Dependency{
			Name:      name,
			Version:   version,
			Ecosystem: "PyPI",
		})
	}
	return deps, scanner.Err()
}

// parseRequirement returns the package name and, for exact pins only, the
// version. A range like ">=1.0" says nothing about the installed version.
func parseRequirement(line string) (name, version string) {
	if idx := strings.Index(line, ";"); idx >= 0 {
		line = line[:idx]
	}
	if idx := strings.Index(line, " #"); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)

	for _, op := range []string{"===", "==", ">=", "<=", "~=", "!=", ">", "<"} {
		idx := strings.Index(line, op)
		if idx < 0 {
			continue
		}
		name = stripExtras(strings.TrimSpace(line[:idx]))
		if op == "==" || op == "===" {
			version = strings.TrimSpace(line[idx+len(op):])
			if commaIdx := strings.Index(version, ","); commaIdx >= 0 {
				version = version[:commaIdx]
			}
		}
		return name, version
	}

	return stripExtras(line), ""
}

// stripExtras drops "[security]" from "requests[security]".
func stripExtras(name string) string {
	if idx := strings.Index(name, "["); idx >= 0 {
		return strings.TrimSpace(name[:idx])
	}
	return name
}
