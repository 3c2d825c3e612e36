package issues

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

const StaleIssueComment = "Closing: OSV no longer reports this vulnerability for this package, or the package is no longer in the inventory."

var newIssueTmpl = template.Must(template.New("new_issue").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(`## Vulnerability {{ .VulnerabilityID }}

**Package:** ` + "`{{ .Purl }}`" + `
{{- with .Vulnerability }}
{{- if .Summary }}

### Summary

{{ .Summary }}
{{- end }}
{{- if .Aliases }}

**Aliases:** {{ join .Aliases ", " }}
{{- end }}
{{- end }}

| Detail | Value |
|--------|-------|
| OSV record | [{{ .VulnerabilityID }}](https://osv.dev/vulnerability/{{ .VulnerabilityID }}) |
| Package URL | ` + "`{{ .Purl }}`" + ` |

### Recommended Actions

1. **Upgrade** the package to a version outside the affected ranges listed in the OSV record.
2. **Assess** whether the vulnerable code path is reachable if no fixed version exists.

---

<sub>Opened by osv-collector</sub>
`))

func RenderNewIssueBody(f Finding) string {
	var buf bytes.Buffer
	if err := newIssueTmpl.Execute(&buf, f); err != nil {
		return fmt.Sprintf("Error rendering issue template: %v", err)
	}
	return buf.String()
}
