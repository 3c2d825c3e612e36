package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/osv-purl-collector/pkg/collector"
	"github.com/osv-purl-collector/pkg/config"
	"github.com/osv-purl-collector/pkg/httpclient"
	"github.com/osv-purl-collector/pkg/lockfile"
	"github.com/osv-purl-collector/pkg/log"
	"github.com/osv-purl-collector/pkg/osv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(2)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "osv-collector",
		Short:   "Collect known vulnerabilities for package URLs from OSV",
		Long:    `Queries the OSV database for batches of package URLs and reports, for each vulnerable package, the IDs of the vulnerabilities affecting it.`,
		Version: fmt.Sprintf("%s (%s)", version, commit),
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", ".osv-collector.yml", "Path to config file")
	flags.String("api-url", osv.DefaultBaseURL, "OSV API base URL")
	flags.Duration("timeout", 30*time.Second, "HTTP timeout per OSV request")
	flags.Float64("rate-limit", 0, "Max OSV requests per second (0 = unlimited)")
	flags.Int("batch-size", osv.MaxBatchSize, "Max queries per querybatch call")
	flags.Int("concurrency", 4, "Max querybatch calls in flight")
	flags.Uint64("retries", 0, "Retries for failed collections")
	flags.String("log-level", "info", "Log level: debug | info | warn | error")

	rootCmd.AddCommand(
		newQueryCmd(),
		newVulnCmd(),
		newServeCmd(),
		newIssuesCmd(),
	)
	return rootCmd
}

type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	client    *osv.Client
	collector *collector.Collector
}

func setup(cmd *cobra.Command) (*app, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "warning: could not load config file: %v (using defaults)\n", err)
		}
		cfg = config.Default()
	}
	cfg = config.MergeFlags(cfg, cmd.Flags())

	logger, err := log.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	client := osv.NewClient(
		osv.WithBaseURL(cfg.APIURL),
		osv.WithHTTPClient(httpclient.New(cfg.Timeout, cfg.RateLimit)),
		osv.WithLogger(logger),
	)

	return &app{
		cfg:    cfg,
		logger: logger,
		client: client,
		collector: collector.New(client,
			collector.WithBatchSize(cfg.BatchSize),
			collector.WithConcurrency(cfg.Concurrency),
			collector.WithLogger(logger)),
	}, nil
}

// inputPurls gathers purls from args and lockfiles. With neither, lockfiles
// in the working directory are used.
func (a *app) inputPurls(args []string) ([]string, error) {
	lockfiles := a.cfg.Lockfiles
	if len(args) == 0 && len(lockfiles) == 0 {
		lockfiles = lockfile.Detect(".")
		if len(lockfiles) == 0 {
			return nil, errors.New("no purls given and no lockfiles found; pass purls or --lockfile")
		}
	}

	purls := append([]string{}, args...)
	fromFiles, err := lockfile.Purls(lockfiles, func(d lockfile.Dependency, err error) {
		a.logger.Warn("skipping dependency", zap.String("name", d.Name), zap.String("version", d.Version), zap.Error(err))
	})
	if err != nil {
		return nil, err
	}
	a.logger.Debug("loaded inventory", zap.Strings("lockfiles", lockfiles), zap.Int("purls", len(fromFiles)))
	return append(purls, fromFiles...), nil
}

// collect runs the collector, retrying failed OSV requests up to cfg.Retries
// times with exponential backoff.
func (a *app) collect(ctx context.Context, purls []string) (collector.CollectPackagesResponse, error) {
	if a.cfg.Retries == 0 {
		return a.collector.Collect(ctx, purls)
	}

	var resp collector.CollectPackagesResponse

	op := func() error {
		var err error
		resp, err = a.collector.Collect(ctx, purls)
		if err != nil && !errors.Is(err, osv.ErrRequestFailed) {
			return backoff.Permanent(err)
		}
		return err
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), a.cfg.Retries), ctx)
	err := backoff.RetryNotify(op, bo, func(err error, next time.Duration) {
		a.logger.Warn("collection failed, retrying", zap.Error(err), zap.Duration("backoff", next))
	})
	return resp, err
}
