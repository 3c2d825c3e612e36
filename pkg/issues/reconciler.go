package issues

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/go-github/v60/github"
	"github.com/google/osv-scanner/pkg/models"
	"github.com/osv-purl-collector/pkg/collector"
	"go.uber.org/zap"
)

const (
	LabelTracked = "osv-vuln"
	keyPrefix    = "osv:"
	maxLabelLen  = 50
)

// Finding is one vulnerability affecting one package.
type Finding struct {
	Purl            string
	VulnerabilityID string
	Vulnerability   *models.Vulnerability
}

// LookupFunc fetches the full record of a vulnerability for issue bodies.
type LookupFunc func(ctx context.Context, id string) (models.Vulnerability, error)

type Reconciler struct {
	client    *github.Client
	owner     string
	repo      string
	labels    []string
	assignees []string
	lookup    LookupFunc
	dryRun    bool
	logger    *zap.Logger
}

type Option func(*Reconciler)

// WithLabels adds labels to every created issue besides the tracking labels.
func WithLabels(labels []string) Option {
	return func(r *Reconciler) { r.labels = labels }
}

func WithAssignees(assignees []string) Option {
	return func(r *Reconciler) { r.assignees = assignees }
}

// WithLookup enriches new issues with the vulnerability's summary and aliases.
func WithLookup(fn LookupFunc) Option {
	return func(r *Reconciler) { r.lookup = fn }
}

// WithDryRun logs intended changes without writing to GitHub.
func WithDryRun(dryRun bool) Option {
	return func(r *Reconciler) { r.dryRun = dryRun }
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Reconciler) { r.logger = logger }
}

func NewReconciler(client *github.Client, owner, repo string, opts ...Option) *Reconciler {
	r := &Reconciler{
		client: client,
		owner:  owner,
		repo:   repo,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Findings flattens a collector response into one finding per purl and
// vulnerability ID, ordered by purl.
func Findings(resp collector.CollectPackagesResponse) []Finding {
	var findings []Finding
	for _, purl := range resp.SortedPurls() {
		for _, id := range resp.Purls[purl] {
			findings = append(findings, Finding{Purl: purl, VulnerabilityID: id})
		}
	}
	return findings
}

// Reconcile opens an issue for every finding that is not tracked yet and
// closes tracked issues whose finding has disappeared.
func (r *Reconciler) Reconcile(ctx context.Context, resp collector.CollectPackagesResponse) error {
	existing, err := r.listTrackedIssues(ctx)
	if err != nil {
		return fmt.Errorf("list tracked issues: %w", err)
	}

	findingKeys := make(map[string]bool)

	for _, f := range Findings(resp) {
		key := issueKey(f.VulnerabilityID, f.Purl)
		findingKeys[key] = true

		if _, ok := existing[key]; ok {
			continue
		}
		if err := r.createIssue(ctx, f); err != nil {
			return fmt.Errorf("create issue for %s: %w", key, err)
		}
	}

	for key, issue := range existing {
		if findingKeys[key] {
			continue
		}
		if err := r.closeStaleIssue(ctx, issue); err != nil {
			return fmt.Errorf("close stale issue %d: %w", issue.GetNumber(), err)
		}
	}

	return nil
}

func (r *Reconciler) listTrackedIssues(ctx context.Context) (map[string]*github.Issue, error) {
	issues := make(map[string]*github.Issue)
	opts := &github.IssueListByRepoOptions{
		Labels:      []string{LabelTracked},
		State:       "open",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		page, resp, err := r.client.Issues.ListByRepo(ctx, r.owner, r.repo, opts)
		if err != nil {
			return nil, err
		}
		for _, issue := range page {
			if key := extractIssueKey(issue); key != "" {
				issues[key] = issue
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return issues, nil
}

func (r *Reconciler) createIssue(ctx context.Context, f Finding) error {
	if r.lookup != nil && f.Vulnerability == nil {
		v, err := r.lookup(ctx, f.VulnerabilityID)
		if err != nil {
			r.logger.Warn("vulnerability lookup failed, opening issue without details",
				zap.String("id", f.VulnerabilityID), zap.Error(err))
		} else {
			f.Vulnerability = &v
		}
	}

	key := issueKey(f.VulnerabilityID, f.Purl)
	title := fmt.Sprintf("[OSV] %s in %s", f.VulnerabilityID, f.Purl)
	body := RenderNewIssueBody(f)
	labels := append([]string{LabelTracked, key}, r.labels...)

	if r.dryRun {
		r.logger.Info("would create issue", zap.String("title", title), zap.Strings("labels", labels))
		return nil
	}

	req := &github.IssueRequest{
		Title:  &title,
		Body:   &body,
		Labels: &labels,
	}
	if len(r.assignees) > 0 {
		req.Assignees = &r.assignees
	}

	issue, _, err := r.client.Issues.Create(ctx, r.owner, r.repo, req)
	if err != nil {
		return err
	}
	r.logger.Info("created issue", zap.Int("number", issue.GetNumber()), zap.String("title", title))
	return nil
}

func (r *Reconciler) closeStaleIssue(ctx context.Context, issue *github.Issue) error {
	if r.dryRun {
		r.logger.Info("would close issue", zap.Int("number", issue.GetNumber()))
		return nil
	}

	comment := StaleIssueComment
	_, _, err := r.client.Issues.CreateComment(ctx, r.owner, r.repo, issue.GetNumber(), &github.IssueComment{
		Body: &comment,
	})
	if err != nil {
		return err
	}

	closed := "closed"
	_, _, err = r.client.Issues.Edit(ctx, r.owner, r.repo, issue.GetNumber(), &github.IssueRequest{
		State: &closed,
	})
	if err != nil {
		return err
	}
	r.logger.Info("closed issue", zap.Int("number", issue.GetNumber()))
	return nil
}

// issueKey is the label that ties an issue to a finding. GitHub caps label
// names at 50 characters, so long IDs are cut and the digest covers both the
// full ID and the purl.
func issueKey(vulnID, purl string) string {
	sum := sha256.Sum256([]byte(vulnID + "\x00" + purl))
	digest := hex.EncodeToString(sum[:4])

	maxID := maxLabelLen - len(keyPrefix) - len(":") - len(digest)
	if len(vulnID) > maxID {
		vulnID = vulnID[:maxID]
	}
	return keyPrefix + vulnID + ":" + digest
}

func extractIssueKey(issue *github.Issue) string {
	for _, label := range issue.Labels {
		name := label.GetName()
		if strings.HasPrefix(name, keyPrefix) && strings.Count(name, ":") >= 2 {
			return name
		}
	}
	return ""
}

// ParseRepo splits "owner/repo" or a GitHub URL into owner and repo.
func ParseRepo(repoURL string) (owner, repo string, err error) {
	repoURL = strings.TrimPrefix(repoURL, "https://")
	repoURL = strings.TrimPrefix(repoURL, "http://")
	repoURL = strings.TrimPrefix(repoURL, "github.com/")
	repoURL = strings.TrimSuffix(repoURL, ".git")
	repoURL = strings.TrimSuffix(repoURL, "/")

	parts := strings.SplitN(repoURL, "/", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("cannot parse GitHub repo from %q", repoURL)
	}
	return parts[0], parts[1], nil
}
