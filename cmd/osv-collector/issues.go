package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/go-github/v60/github"
	"github.com/osv-purl-collector/pkg/issues"
	"github.com/spf13/cobra"
)

func newIssuesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issues [purl...]",
		Short: "Track vulnerable packages as GitHub issues",
		Long: `Collects vulnerabilities like "query", then opens one GitHub issue per
package and vulnerability that is not tracked yet and closes issues whose
vulnerability is no longer reported.`,
		RunE: runIssues,
	}

	cmd.Flags().StringSlice("lockfile", nil, "Path(s) to lockfile or CycloneDX SBOM")
	cmd.Flags().String("repo", os.Getenv("GITHUB_REPOSITORY"), "GitHub repo (owner/repo) to manage issues in")
	cmd.Flags().String("github-token", os.Getenv("GITHUB_TOKEN"), "GitHub token for API access")
	cmd.Flags().Bool("dry-run", false, "Log intended issue changes without applying them")
	cmd.Flags().StringSlice("issue-labels", nil, "Additional labels to add to created issues")
	return cmd
}

func runIssues(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.logger.Sync() //nolint:errcheck

	if a.cfg.Repo == "" {
		return errors.New("--repo is required")
	}
	if a.cfg.Token == "" && !a.cfg.DryRun {
		return errors.New("--github-token is required unless --dry-run is set")
	}
	owner, repo, err := issues.ParseRepo(a.cfg.Repo)
	if err != nil {
		return err
	}

	purls, err := a.inputPurls(args)
	if err != nil {
		return err
	}

	resp, err := a.collect(cmd.Context(), purls)
	if err != nil {
		return fmt.Errorf("collect vulnerabilities: %w", err)
	}

	gh := github.NewClient(nil)
	if a.cfg.Token != "" {
		gh = gh.WithAuthToken(a.cfg.Token)
	}

	r := issues.NewReconciler(gh, owner, repo,
		issues.WithLabels(a.cfg.Issues.Labels),
		issues.WithAssignees(a.cfg.Issues.Assignees),
		issues.WithLookup(a.collector.Vulnerability),
		issues.WithDryRun(a.cfg.DryRun),
		issues.WithLogger(a.logger))

	if err := r.Reconcile(cmd.Context(), resp); err != nil {
		return fmt.Errorf("reconcile issues: %w", err)
	}
	return nil
}
