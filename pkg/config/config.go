package config

import (
	"os"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

type Config struct {
	APIURL      string        `yaml:"api_url"`
	Timeout     time.Duration `yaml:"timeout"`
	RateLimit   float64       `yaml:"rate_limit"`
	BatchSize   int           `yaml:"batch_size"`
	Concurrency int           `yaml:"concurrency"`
	Retries     uint64        `yaml:"retries"`
	LogLevel    string        `yaml:"log_level"`
	Output      string        `yaml:"output"`
	Listen      string        `yaml:"listen"`
	Lockfiles   []string      `yaml:"lockfiles"`
	Issues      Issues        `yaml:"issues"`
	DryRun      bool          `yaml:"-"`
	Repo        string        `yaml:"-"`
	Token       string        `yaml:"-"`
}

type Issues struct {
	Labels    []string `yaml:"labels"`
	Assignees []string `yaml:"assignees"`
}

func Default() *Config {
	return &Config{
		APIURL:      "https://api.osv.dev",
		Timeout:     30 * time.Second,
		BatchSize:   1000,
		Concurrency: 4,
		LogLevel:    "info",
		Output:      "table",
		Listen:      ":3000",
		Issues: Issues{
			Labels: []string{"security"},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MergeFlags overrides cfg with every flag the user actually set. Flags that
// are not registered on the set are ignored.
func MergeFlags(cfg *Config, flags *pflag.FlagSet) *Config {
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}

	if v, err := flags.GetString("api-url"); err == nil && changed("api-url") {
		cfg.APIURL = v
	}
	if v, err := flags.GetDuration("timeout"); err == nil && changed("timeout") {
		cfg.Timeout = v
	}
	if v, err := flags.GetFloat64("rate-limit"); err == nil && changed("rate-limit") {
		cfg.RateLimit = v
	}
	if v, err := flags.GetInt("batch-size"); err == nil && changed("batch-size") {
		cfg.BatchSize = v
	}
	if v, err := flags.GetInt("concurrency"); err == nil && changed("concurrency") {
		cfg.Concurrency = v
	}
	if v, err := flags.GetUint64("retries"); err == nil && changed("retries") {
		cfg.Retries = v
	}
	if v, err := flags.GetString("log-level"); err == nil && changed("log-level") {
		cfg.LogLevel = v
	}
	if v, err := flags.GetString("output"); err == nil && changed("output") {
		cfg.Output = v
	}
	if v, err := flags.GetString("listen"); err == nil && changed("listen") {
		cfg.Listen = v
	}
	if v, err := flags.GetStringSlice("lockfile"); err == nil && len(v) > 0 {
		cfg.Lockfiles = v
	}
	if v, err := flags.GetBool("dry-run"); err == nil {
		cfg.DryRun = v
	}
	if v, err := flags.GetString("repo"); err == nil && v != "" {
		cfg.Repo = v
	}
	if v, err := flags.GetString("github-token"); err == nil && v != "" {
		cfg.Token = v
	}
	if v, err := flags.GetStringSlice("issue-labels"); err == nil && len(v) > 0 {
		cfg.Issues.Labels = append(cfg.Issues.Labels, v...)
	}
	return cfg
}
