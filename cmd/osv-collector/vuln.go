package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newVulnCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "vuln <id>",
		Short:   "Print the full OSV record of a vulnerability",
		Example: "  osv-collector vuln GHSA-7rjr-3q55-vv33",
		Args:    cobra.ExactArgs(1),
		RunE:    runVuln,
	}
}

func runVuln(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.logger.Sync() //nolint:errcheck

	vuln, err := a.client.GetVulnerability(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(vuln)
}
