package lockfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNPMParser(t *testing.T) {
	path := writeFile(t, t.TempDir(), "package-lock.json", `{
		"lockfileVersion": 3,
		"packages": {
			"": {"name": "app", "version": "1.0.0"},
			"node_modules/lodash": {"version": "4.17.20"},
			"node_modules/express/node_modules/debug": {"version": "2.6.9"},
			"node_modules/local": {"link": true},
			"node_modules/lodash-dup": {"version": ""}
		},
		"dependencies": {
			"lodash": {"version": "4.17.20"},
			"minimist": {"version": "1.2.5"}
		}
	}`)

	deps, err := (&NPMParser{}).Parse(path)
	require.NoError(t, err)

	assert.Equal(t, []Dependency{
		{Name: "debug", Version: "2.6.9", Ecosystem: "npm"},
		{Name: "lodash", Version: "4.17.20", Ecosystem: "npm"},
		{Name: "minimist", Version: "1.2.5", Ecosystem: "npm"},
	}, deps)
}

func TestPyPIParser(t *testing.T) {
	path := writeFile(t, t.TempDir(), "requirements.txt", `
# comment
-r other.txt
Django==1.11.1
requests[security]==2.19.0 ; python_version >= "3.6"
jinja2>=2.4
flask
`)

	deps, err := (&PyPIParser{}).Parse(path)
	require.NoError(t, err)

	assert.Equal(t, []Dependency{
		{Name: "Django", Version: "1.11.1", Ecosystem: "PyPI"},
		{Name: "requests", Version: "2.19.0", Ecosystem: "PyPI"},
		{Name: "jinja2", Version: "", Ecosystem: "PyPI"},
		{Name: "flask", Version: "", Ecosystem: "PyPI"},
	}, deps)
}

func TestGoModParser(t *testing.T) {
	path := writeFile(t, t.TempDir(), "go.sum", `github.com/gin-gonic/gin v1.9.0 h1:abc=
github.com/gin-gonic/gin v1.9.0/go.mod h1:def=
golang.org/x/net v0.1.0/go.mod h1:ghi=
`)

	deps, err := (&GoModParser{}).Parse(path)
	require.NoError(t, err)

	assert.Equal(t, []Dependency{
		{Name: "github.com/gin-gonic/gin", Version: "v1.9.0", Ecosystem: "Go"},
		{Name: "golang.org/x/net", Version: "v0.1.0", Ecosystem: "Go"},
	}, deps)
}

func TestCycloneDXParser(t *testing.T) {
	path := writeFile(t, t.TempDir(), "app.cdx.json", `{
		"bomFormat": "CycloneDX",
		"specVersion": "1.5",
		"components": [
			{"name": "lodash", "version": "4.17.20", "purl": "pkg:npm/lodash@4.17.20"},
			{"name": "nopurl", "version": "1"},
			{"name": "parent", "version": "1", "purl": "pkg:maven/org.example/parent@1",
			 "components": [{"name": "child", "version": "2", "purl": "pkg:maven/org.example/child@2"}]},
			{"name": "lodash", "version": "4.17.20", "purl": "pkg:npm/lodash@4.17.20"}
		]
	}`)

	deps, err := (&CycloneDXParser{}).Parse(path)
	require.NoError(t, err)

	assert.Equal(t, []Dependency{
		{Name: "lodash", Version: "4.17.20", Purl: "pkg:npm/lodash@4.17.20"},
		{Name: "parent", Version: "1", Purl: "pkg:maven/org.example/parent@1"},
		{Name: "child", Version: "2", Purl: "pkg:maven/org.example/child@2"},
	}, deps)
}

func TestCycloneDXParser_NoComponents(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bom.json", `{"bomFormat": "CycloneDX", "specVersion": "1.4"}`)

	deps, err := (&CycloneDXParser{}).Parse(path)
	require.NoError(t, err)
	assert.Empty(t, deps)
}

func TestCycloneDXParser_NotCycloneDX(t *testing.T) {
	path := writeFile(t, t.TempDir(), "sbom.json", `{"spdxVersion": "SPDX-2.3"}`)

	_, err := (&CycloneDXParser{}).Parse(path)
	assert.Error(t, err)
}

func TestNewParser(t *testing.T) {
	tests := []struct {
		path    string
		want    Parser
		wantErr bool
	}{
		{path: "a/package-lock.json", want: &NPMParser{}},
		{path: "requirements.txt", want: &PyPIParser{}},
		{path: "go.sum", want: &GoModParser{}},
		{path: "out/app.cdx.json", want: &CycloneDXParser{}},
		{path: "bom.json", want: &CycloneDXParser{}},
		{path: "Cargo.lock", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := NewParser(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, got)
		})
	}
}

func TestPurls(t *testing.T) {
	dir := t.TempDir()
	gosum := writeFile(t, dir, "go.sum", "golang.org/x/net v0.1.0 h1:x=\n")
	reqs := writeFile(t, dir, "requirements.txt", "Django==1.11.1\n")

	var skipped []Dependency
	purls, err := Purls([]string{gosum, reqs}, func(d Dependency, _ error) {
		skipped = append(skipped, d)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"pkg:golang/golang.org/x/net@v0.1.0",
		"pkg:pypi/django@1.11.1",
	}, purls)
	assert.Empty(t, skipped)
}

func TestPurls_Unsupported(t *testing.T) {
	_, err := Purls([]string{"Gemfile.lock"}, nil)
	assert.Error(t, err)
}

func TestDetect(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "go.sum", "")
	writeFile(t, dir, "bom.json", "{}")

	assert.Equal(t, []string{
		filepath.Join(dir, "go.sum"),
		filepath.Join(dir, "bom.json"),
	}, Detect(dir))
}

func TestDependency_PackageURL(t *testing.T) {
	p, err := Dependency{Purl: "pkg:npm/x@1"}.PackageURL()
	require.NoError(t, err)
	assert.Equal(t, "pkg:npm/x@1", p)

	p, err = Dependency{Name: "lodash", Version: "4.17.20", Ecosystem: "npm"}.PackageURL()
	require.NoError(t, err)
	assert.Equal(t, "pkg:npm/lodash@4.17.20", p)

	_, err = Dependency{Name: "x", Ecosystem: "Unknown"}.PackageURL()
	assert.Error(t, err)
}
