package main

import (
	"fmt"

	"github.com/osv-purl-collector/pkg/reporter"
	"github.com/spf13/cobra"
)

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query [purl...]",
		Short: "Report known vulnerabilities for package URLs",
		Long: `Looks up package URLs given as arguments and/or read from lockfiles and
CycloneDX SBOMs, and prints the vulnerable packages with their vulnerability IDs.`,
		RunE: runQuery,
	}

	cmd.Flags().StringSlice("lockfile", nil, "Path(s) to lockfile or CycloneDX SBOM (auto-detected if no purls are given)")
	cmd.Flags().StringP("output", "o", "table", "Output format: json | sarif | table")
	cmd.Flags().Bool("fail-on-vulns", false, "Exit non-zero when any vulnerability is found")
	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.logger.Sync() //nolint:errcheck

	purls, err := a.inputPurls(args)
	if err != nil {
		return err
	}

	resp, err := a.collect(cmd.Context(), purls)
	if err != nil {
		return fmt.Errorf("collect vulnerabilities: %w", err)
	}

	if err := reporter.New(a.cfg.Output).Report(cmd.OutOrStdout(), resp); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if fail, _ := cmd.Flags().GetBool("fail-on-vulns"); fail && len(resp.Purls) > 0 {
		return fmt.Errorf("%d vulnerable package(s) found", len(resp.Purls))
	}
	return nil
}
