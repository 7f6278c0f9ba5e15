// Package config provides configuration management for notionex.
// It supports a project-local YAML file, environment variable overrides,
// and sensible defaults.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/matthewsinclair/arca-notionex/internal/logging"
	"github.com/matthewsinclair/arca-notionex/internal/sync"
	"github.com/matthewsinclair/arca-notionex/internal/validation"
)

// ConfigFileName is the name of the project-local config file.
const ConfigFileName = ".notionex.yaml"

// Config represents the complete notionex configuration.
type Config struct {
	// Remote configures the connection to the remote page store
	Remote RemoteConfig `yaml:"remote"`

	// Docs configures the local document tree
	Docs DocsConfig `yaml:"docs"`

	// Sync configures synchronization behavior
	Sync SyncConfig `yaml:"sync"`

	// Log configures logging output
	Log LogConfig `yaml:"log"`
}

// RemoteConfig holds the remote API connection settings.
type RemoteConfig struct {
	// Token is the API integration token. Usually supplied via
	// NOTIONEX_TOKEN rather than stored in the file.
	Token string `yaml:"token,omitempty"`
	// RootPageID is the remote page the document tree syncs under
	RootPageID string `yaml:"root_page_id"`
	// BaseURL overrides the API endpoint (testing only)
	BaseURL string `yaml:"base_url,omitempty"`
}

// DocsConfig holds the local document tree settings.
type DocsConfig struct {
	// Dir is the root of the document tree. Relative values in a config
	// file are resolved against the file's directory.
	Dir string `yaml:"dir"`
	// IndexFilename is the file name that marks a directory's index
	// document
	IndexFilename string `yaml:"index_filename"`
}

// SyncConfig holds synchronization settings.
type SyncConfig struct {
	// Strategy is the default conflict resolution strategy
	Strategy string `yaml:"strategy"`
	// ResolveLinks rewrites links between known documents to page
	// mentions
	ResolveLinks bool `yaml:"resolve_links"`
	// SkipChildLinks demotes links into a document's own subtree to
	// plain text
	SkipChildLinks bool `yaml:"skip_child_links"`
	// PreserveMetadata keeps underline and color annotations as inline
	// markers when pulling
	PreserveMetadata bool `yaml:"preserve_metadata"`
	// RateLimitMS is the minimum delay between remote calls in
	// milliseconds
	RateLimitMS int `yaml:"rate_limit_ms"`
	// Backup snapshots documents before a pull overwrites them
	Backup bool `yaml:"backup"`
	// ScanSecrets blocks a push when document bodies look like they
	// carry live credentials
	ScanSecrets bool `yaml:"scan_secrets"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level string `yaml:"level"`
	// Format is the log output format (text, json)
	Format string `yaml:"format"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Docs: DocsConfig{
			Dir:           ".",
			IndexFilename: "index.md",
		},
		Sync: SyncConfig{
			Strategy:     string(sync.DefaultStrategy),
			ResolveLinks: true,
			RateLimitMS:  350,
			Backup:       true,
			ScanSecrets:  true,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// FindConfig searches for a config file starting in the working
// directory and walking up toward the filesystem root. It returns the
// path of the first file found.
func FindConfig() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	return FindConfigFrom(dir)
}

// FindConfigFrom searches for a config file starting at dir and walking
// up toward the filesystem root.
func FindConfigFrom(dir string) (string, bool) {
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// Exists reports whether a config file is reachable from the working
// directory.
func Exists() bool {
	if path := os.Getenv("NOTIONEX_CONFIG"); path != "" {
		_, err := os.Stat(path)
		return err == nil
	}
	_, ok := FindConfig()
	return ok
}

// Load resolves and loads the configuration. Resolution order: the file
// named by NOTIONEX_CONFIG if set, otherwise the nearest config file
// found walking up from the working directory, otherwise built-in
// defaults. Environment overrides apply in every case.
func Load() (*Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		dir = "."
	}
	return LoadFrom(dir)
}

// LoadFrom loads the configuration as Load does, starting the config
// file search at dir instead of the working directory.
func LoadFrom(dir string) (*Config, error) {
	if path := os.Getenv("NOTIONEX_CONFIG"); path != "" {
		return LoadFromPath(path)
	}
	if path, ok := FindConfigFrom(dir); ok {
		return LoadFromPath(path)
	}
	cfg := Default()
	cfg.applyEnvironment()
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file, merged over
// defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	// #nosec G304 - path is provided by caller
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}

	// A relative docs dir means "relative to the config file", so a run
	// started in a subdirectory still finds the same tree.
	if !filepath.IsAbs(cfg.Docs.Dir) {
		cfg.Docs.Dir = filepath.Join(filepath.Dir(path), cfg.Docs.Dir)
	}

	cfg.applyEnvironment()
	return cfg, nil
}

// Save writes the configuration to the file Load would read: the path
// named by NOTIONEX_CONFIG, the nearest existing config file, or a new
// file in the working directory.
func (c *Config) Save() error {
	path := os.Getenv("NOTIONEX_CONFIG")
	if path == "" {
		if found, ok := FindConfig(); ok {
			path = found
		} else {
			path = ConfigFileName
		}
	}
	return c.SaveToPath(path)
}

// SaveToPath writes the configuration to a specific path.
func (c *Config) SaveToPath(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return err
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	// #nosec G306 - config file should be readable by user
	return os.WriteFile(path, data, 0o644)
}

// applyEnvironment applies environment variable overrides. Variables
// follow the pattern NOTIONEX_<KEY>; NOTION_TOKEN is honored as a
// fallback for NOTIONEX_TOKEN because official integrations export it.
func (c *Config) applyEnvironment() {
	if v := os.Getenv("NOTIONEX_TOKEN"); v != "" {
		c.Remote.Token = v
	} else if v := os.Getenv("NOTION_TOKEN"); v != "" {
		c.Remote.Token = v
	}
	if v := os.Getenv("NOTIONEX_ROOT_PAGE_ID"); v != "" {
		c.Remote.RootPageID = v
	}
	if v := os.Getenv("NOTIONEX_REMOTE_BASE_URL"); v != "" {
		c.Remote.BaseURL = v
	}
	if v := os.Getenv("NOTIONEX_DOCS_DIR"); v != "" {
		c.Docs.Dir = v
	}
	if v := os.Getenv("NOTIONEX_STRATEGY"); v != "" {
		c.Sync.Strategy = v
	}
	if v := os.Getenv("NOTIONEX_RESOLVE_LINKS"); v != "" {
		c.Sync.ResolveLinks = parseBool(v)
	}
	if v := os.Getenv("NOTIONEX_BACKUP"); v != "" {
		c.Sync.Backup = parseBool(v)
	}
	if v := os.Getenv("NOTIONEX_SCAN_SECRETS"); v != "" {
		c.Sync.ScanSecrets = parseBool(v)
	}
	if v := os.Getenv("NOTIONEX_RATE_LIMIT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			c.Sync.RateLimitMS = ms
		}
	}
	if v := os.Getenv("NOTIONEX_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// parseBool parses a boolean from common string representations.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// GetStrategy returns the configured conflict strategy, falling back to
// the default when the configured value is not recognized.
func (c *Config) GetStrategy() sync.Strategy {
	strategy := sync.Strategy(c.Sync.Strategy)
	if strategy.IsValid() {
		return strategy
	}
	return sync.DefaultStrategy
}

// RateLimit returns the minimum delay between remote calls.
func (c *Config) RateLimit() time.Duration {
	if c.Sync.RateLimitMS <= 0 {
		return 0
	}
	return time.Duration(c.Sync.RateLimitMS) * time.Millisecond
}

// LogLevel maps the configured level name to a slog level. Unknown
// names fall back to warn.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug":
		return logging.LevelDebug
	case "info":
		return logging.LevelInfo
	case "error":
		return logging.LevelError
	default:
		return logging.LevelWarn
	}
}

// Validate checks that the configuration is usable for remote
// operations.
func (c *Config) Validate() error {
	var errs validation.Errors

	if strings.TrimSpace(c.Remote.Token) == "" {
		errs = append(errs, &validation.Error{
			Field:   "remote.token",
			Message: "API token is required (set NOTIONEX_TOKEN or remote.token)",
		})
	}
	if strings.TrimSpace(c.Remote.RootPageID) == "" {
		errs = append(errs, &validation.Error{
			Field:   "remote.root_page_id",
			Message: "root page id is required (set NOTIONEX_ROOT_PAGE_ID or remote.root_page_id)",
		})
	}
	if !sync.Strategy(c.Sync.Strategy).IsValid() {
		errs = append(errs, &validation.Error{
			Field:   "sync.strategy",
			Message: fmt.Sprintf("unknown strategy %q (valid: %s)", c.Sync.Strategy, strategyNames()),
		})
	}
	if c.Sync.RateLimitMS < 0 {
		errs = append(errs, &validation.Error{
			Field:   "sync.rate_limit_ms",
			Message: "rate limit must not be negative",
		})
	}
	if strings.TrimSpace(c.Docs.IndexFilename) == "" || strings.ContainsAny(c.Docs.IndexFilename, `/\`) {
		errs = append(errs, &validation.Error{
			Field:   "docs.index_filename",
			Message: "index filename must be a bare file name",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func strategyNames() string {
	all := sync.AllStrategies()
	names := make([]string, 0, len(all))
	for _, s := range all {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}
