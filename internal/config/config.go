// Package config provides configuration loading for the component directory
// toolchain.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the environment variable prefix for all settings.
const EnvPrefix = "COMPDIR"

// Defaults for the repository layout of a directory checkout.
const (
	DefaultListingsDir       = "components"
	DefaultCompiledPath      = "compiled/catalog.json"
	DefaultRankingConfigPath = "ranking.json"
	DefaultStatusPath        = "data/status.json"
	DefaultServerAddress     = ":8080"
	DefaultEnrichConcurrency = 4
	DefaultRefreshOlderThan  = 24 * time.Hour
)

// Config is the root configuration structure. All fields have working
// defaults; a config file only needs to override what differs.
type Config struct {
	// ListingsDir is the directory of per-component submission files.
	ListingsDir string `yaml:"listingsDir,omitempty"`

	// CompiledPath is where the compiled catalog artifact lives.
	CompiledPath string `yaml:"compiledPath,omitempty"`

	// RankingConfigPath points at the ranking weights file (JWCC JSON).
	RankingConfigPath string `yaml:"rankingConfigPath,omitempty"`

	// StatusPath is where pipeline run status is persisted.
	StatusPath string `yaml:"statusPath,omitempty"`

	Policy PolicyConfig `yaml:"policy,omitempty"`
	Enrich EnrichConfig `yaml:"enrich,omitempty"`
	Server ServerConfig `yaml:"server,omitempty"`
}

// PolicyConfig overrides the content policy constants.
type PolicyConfig struct {
	// MaxDocumentBytes caps the serialized size of one listing. Zero means
	// the built-in default; negative disables the check.
	MaxDocumentBytes int `yaml:"maxDocumentBytes,omitempty"`

	// DeniedImageHosts extends the built-in media.image host deny-list.
	DeniedImageHosts []string `yaml:"deniedImageHosts,omitempty"`
}

// EnrichConfig controls metric enrichment.
type EnrichConfig struct {
	// RefreshOlderThan is the staleness window: metrics fetched more
	// recently are not refetched.
	RefreshOlderThan time.Duration `yaml:"refreshOlderThan,omitempty"`

	// Concurrency bounds parallel enrichment fetches.
	Concurrency int `yaml:"concurrency,omitempty"`

	// GitHubAPIBase, PyPIAPIBase and PyPIStatsAPIBase override the upstream
	// API endpoints, mainly for tests.
	GitHubAPIBase    string `yaml:"githubApiBase,omitempty"`
	PyPIAPIBase      string `yaml:"pypiApiBase,omitempty"`
	PyPIStatsAPIBase string `yaml:"pypistatsApiBase,omitempty"`
}

// UnmarshalYAML decodes the refresh window from a duration string such as
// "6h" or "30m".
func (e *EnrichConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		RefreshOlderThan string `yaml:"refreshOlderThan"`
		Concurrency      int    `yaml:"concurrency"`
		GitHubAPIBase    string `yaml:"githubApiBase"`
		PyPIAPIBase      string `yaml:"pypiApiBase"`
		PyPIStatsAPIBase string `yaml:"pypistatsApiBase"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	if raw.RefreshOlderThan != "" {
		d, err := time.ParseDuration(raw.RefreshOlderThan)
		if err != nil {
			return fmt.Errorf("invalid enrich.refreshOlderThan %q: %w", raw.RefreshOlderThan, err)
		}
		e.RefreshOlderThan = d
	}
	e.Concurrency = raw.Concurrency
	e.GitHubAPIBase = raw.GitHubAPIBase
	e.PyPIAPIBase = raw.PyPIAPIBase
	e.PyPIStatsAPIBase = raw.PyPIStatsAPIBase
	return nil
}

// ServerConfig controls the catalog API server.
type ServerConfig struct {
	Address string `yaml:"address,omitempty"`
}

// Option defines the interface for configuration options.
type Option func(*loaderConfig) error

type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file.
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	return &Config{
		ListingsDir:       DefaultListingsDir,
		CompiledPath:      DefaultCompiledPath,
		RankingConfigPath: DefaultRankingConfigPath,
		StatusPath:        DefaultStatusPath,
		Enrich: EnrichConfig{
			RefreshOlderThan: DefaultRefreshOlderThan,
			Concurrency:      DefaultEnrichConcurrency,
		},
		Server: ServerConfig{
			Address: DefaultServerAddress,
		},
	}
}

// Load builds a Config from defaults plus an optional YAML file.
func Load(opts ...Option) (*Config, error) {
	loader := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loader); err != nil {
			return nil, err
		}
	}

	cfg := Default()
	if loader.path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(loader.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", loader.path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", loader.path, err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults fills fields the YAML file left empty.
func (c *Config) applyDefaults() {
	if c.ListingsDir == "" {
		c.ListingsDir = DefaultListingsDir
	}
	if c.CompiledPath == "" {
		c.CompiledPath = DefaultCompiledPath
	}
	if c.RankingConfigPath == "" {
		c.RankingConfigPath = DefaultRankingConfigPath
	}
	if c.StatusPath == "" {
		c.StatusPath = DefaultStatusPath
	}
	if c.Enrich.RefreshOlderThan == 0 {
		c.Enrich.RefreshOlderThan = DefaultRefreshOlderThan
	}
	if c.Enrich.Concurrency == 0 {
		c.Enrich.Concurrency = DefaultEnrichConcurrency
	}
	if c.Server.Address == "" {
		c.Server.Address = DefaultServerAddress
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Enrich.Concurrency < 1 {
		return fmt.Errorf("enrich.concurrency must be at least 1, got %d", c.Enrich.Concurrency)
	}
	if c.Enrich.RefreshOlderThan < 0 {
		return fmt.Errorf("enrich.refreshOlderThan cannot be negative")
	}
	return nil
}
