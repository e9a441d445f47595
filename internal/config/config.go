// Package config handles configuration loading and validation for threadview.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hay-kot/criterio"
	"gopkg.in/yaml.v3"
)

// Category is one selectable comment category.
type Category struct {
	Key   string `yaml:"key"`
	Label string `yaml:"label"`
}

// Site overrides settings for pages whose host/path matches Pattern.
type Site struct {
	// Pattern is a doublestar glob matched against "host/path" of the page URL.
	Pattern        string     `yaml:"pattern"`
	BaseURL        string     `yaml:"base_url"`
	WithCategories *bool      `yaml:"with_categories"`
	Categories     []Category `yaml:"categories"`
}

// Config holds the application configuration.
type Config struct {
	BaseURL            string        `yaml:"base_url"`
	CommentTTL         time.Duration `yaml:"comment_ttl"`
	WidgetTTL          time.Duration `yaml:"widget_ttl"`
	PageSize           int           `yaml:"page_size"`
	MaxConcurrentPages int           `yaml:"max_concurrent_pages"`
	PollInterval       time.Duration `yaml:"poll_interval"`
	DateFormat         string        `yaml:"date_format"`
	Theme              string        `yaml:"theme"`
	Categories         []Category    `yaml:"categories"`
	Sites              []Site        `yaml:"sites"`

	DataDir string `yaml:"-"` // set by caller, not from config file
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		CommentTTL:         2 * time.Minute,
		WidgetTTL:          24 * time.Hour,
		PageSize:           20,
		MaxConcurrentPages: 4,
		PollInterval:       30 * time.Second,
		DateFormat:         "02.01.2006 15:04",
		Theme:              "dark",
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.DataDir = dataDir
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := Default()
	if c.CommentTTL == 0 {
		c.CommentTTL = defaults.CommentTTL
	}
	if c.WidgetTTL == 0 {
		c.WidgetTTL = defaults.WidgetTTL
	}
	if c.PageSize == 0 {
		c.PageSize = defaults.PageSize
	}
	if c.MaxConcurrentPages == 0 {
		c.MaxConcurrentPages = defaults.MaxConcurrentPages
	}
	if c.PollInterval == 0 {
		c.PollInterval = defaults.PollInterval
	}
	if c.DateFormat == "" {
		c.DateFormat = defaults.DateFormat
	}
	if c.Theme == "" {
		c.Theme = defaults.Theme
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs criterio.FieldErrorsBuilder

	if c.DataDir == "" {
		errs = errs.Append("data_dir", fmt.Errorf("cannot be empty"))
	}
	if c.PageSize < 1 {
		errs = errs.Append("page_size", fmt.Errorf("must be at least 1"))
	}
	if c.MaxConcurrentPages < 1 {
		errs = errs.Append("max_concurrent_pages", fmt.Errorf("must be at least 1"))
	}
	if c.PollInterval < time.Second {
		errs = errs.Append("poll_interval", fmt.Errorf("must be at least 1s"))
	}

	for i, site := range c.Sites {
		field := fmt.Sprintf("sites[%d]", i)
		if site.Pattern == "" {
			errs = errs.Append(field+".pattern", fmt.Errorf("is required"))
		} else if !doublestar.ValidatePattern(site.Pattern) {
			errs = errs.Append(field+".pattern", fmt.Errorf("invalid glob %q", site.Pattern))
		}
		errs = appendCategoryErrors(errs, field+".categories", site.Categories)
	}
	errs = appendCategoryErrors(errs, "categories", c.Categories)

	return criterio.ValidateStruct(
		criterio.Run("base_url", c.BaseURL, validBaseURL),
		errs.ToError(),
	)
}

func appendCategoryErrors(errs criterio.FieldErrorsBuilder, field string, cats []Category) criterio.FieldErrorsBuilder {
	seen := make(map[string]bool, len(cats))
	for i, cat := range cats {
		if cat.Key == "" {
			errs = errs.Append(fmt.Sprintf("%s[%d].key", field, i), fmt.Errorf("is required"))
			continue
		}
		if seen[cat.Key] {
			errs = errs.Append(fmt.Sprintf("%s[%d].key", field, i), fmt.Errorf("duplicate key %q", cat.Key))
		}
		seen[cat.Key] = true
	}
	return errs
}

// validBaseURL accepts an empty value (derived from the page URL) or an absolute http(s) URL.
func validBaseURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}

// Resolved is the effective configuration for a single page.
type Resolved struct {
	BaseURL        string
	WithCategories *bool
	Categories     []Category
}

// ForPage resolves the settings that apply to pageURL. The first matching
// site wins; unset site fields fall back to the top-level values. When no
// base URL is configured, the page's scheme and host are used.
func (c *Config) ForPage(pageURL string) (Resolved, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return Resolved{}, fmt.Errorf("parse page url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return Resolved{}, fmt.Errorf("page url %q must be absolute", pageURL)
	}

	r := Resolved{BaseURL: c.BaseURL, Categories: c.Categories}

	target := u.Host + u.EscapedPath()
	for _, site := range c.Sites {
		ok, err := doublestar.Match(site.Pattern, target)
		if err != nil || !ok {
			continue
		}
		if site.BaseURL != "" {
			r.BaseURL = site.BaseURL
		}
		if site.WithCategories != nil {
			r.WithCategories = site.WithCategories
		}
		if len(site.Categories) > 0 {
			r.Categories = site.Categories
		}
		break
	}

	if r.BaseURL == "" {
		r.BaseURL = u.Scheme + "://" + u.Host
	}
	return r, nil
}

// DBPath returns the path to the SQLite cache database.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "cache.db")
}

// SessionPath returns the path to the persisted login session.
func (c *Config) SessionPath() string {
	return filepath.Join(c.DataDir, "session.json")
}

// LogPath returns the default log file path.
func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, "threadview.log")
}

// DefaultConfigPath returns <user config dir>/threadview/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(userConfigDir(), "threadview", "config.yaml")
}

// DefaultDataDir returns <user config dir>/threadview.
func DefaultDataDir() string {
	return filepath.Join(userConfigDir(), "threadview")
}

func userConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}
