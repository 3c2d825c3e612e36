// Package purl validates and builds package URLs.
package purl

import (
	"fmt"
	"strings"

	"github.com/package-url/packageurl-go"
)

// Validate reports whether s parses as a package URL. The string itself is
// what OSV is queried with, so it is never rewritten.
func Validate(s string) error {
	if _, err := packageurl.FromString(s); err != nil {
		return fmt.Errorf("parse purl %q: %w", s, err)
	}
	return nil
}

var ecosystemTypes = map[string]string{
	"npm":       packageurl.TypeNPM,
	"PyPI":      packageurl.TypePyPi,
	"Maven":     packageurl.TypeMaven,
	"Go":        packageurl.TypeGolang,
	"NuGet":     packageurl.TypeNuget,
	"RubyGems":  packageurl.TypeGem,
	"crates.io": packageurl.TypeCargo,
	"Packagist": packageurl.TypeComposer,
	"Pub":       "pub",
	"CocoaPods": packageurl.TypeCocoapods,
	"Hex":       packageurl.TypeHex,
	"Alpine":    "apk",
	"Debian":    packageurl.TypeDebian,
	"Ubuntu":    packageurl.TypeDebian,
}

// EcosystemToType maps an OSV ecosystem name to its purl type. It returns ""
// for ecosystems without one.
func EcosystemToType(ecosystem string) string {
	return ecosystemTypes[ecosystem]
}

// FromEcosystem builds a purl for a package named the way its ecosystem names
// it. Scoped npm packages, Go module paths and Maven group:artifact names are
// split into namespace and name.
func FromEcosystem(ecosystem, name, version string) (string, error) {
	typ := EcosystemToType(ecosystem)
	if typ == "" {
		return "", fmt.Errorf("no purl type for ecosystem %q", ecosystem)
	}
	if name == "" {
		return "", fmt.Errorf("empty %s package name", ecosystem)
	}

	var namespace string
	switch typ {
	case packageurl.TypeMaven:
		if i := strings.Index(name, ":"); i >= 0 {
			namespace, name = name[:i], name[i+1:]
		}
	case packageurl.TypePyPi:
		name = strings.ToLower(strings.ReplaceAll(name, "_", "-"))
	default:
		if i := strings.LastIndex(name, "/"); i >= 0 {
			namespace, name = name[:i], name[i+1:]
		}
	}

	p := packageurl.NewPackageURL(typ, namespace, name, version, nil, "")
	return p.ToString(), nil
}
