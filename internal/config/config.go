// Package config loads and validates the harvester configuration.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultRequestTimeout is the default per-call HTTP timeout.
	DefaultRequestTimeout = 30 * time.Second
	// DefaultRetryDelay is the default fixed delay between retry attempts.
	DefaultRetryDelay = 5 * time.Second
	// DefaultMaxRetries is the default retry attempt budget for transient
	// network failures.
	DefaultMaxRetries = 3
)

// Config is the root configuration for the harvester.
type Config struct {
	Debug    bool           `yaml:"debug"` // controls log level and format
	Database DatabaseConfig `yaml:"database"`
	Crawl    CrawlConfig    `yaml:"crawl"`
	CMS      CMSConfig      `yaml:"cms"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// URL returns the postgres:// connection URL used by the migration runner.
func (d *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		url.QueryEscape(d.User), url.QueryEscape(d.Password),
		d.Host, d.Port, d.DBName, d.SSLMode)
}

// CrawlConfig holds crawl-pass settings.
type CrawlConfig struct {
	RequestTimeout time.Duration `yaml:"request_timeout"` // per outbound call, not per pass
	UserAgent      string        `yaml:"user_agent"`
	Sources        []string      `yaml:"sources"` // adapter names to run; empty means all registered
}

// CMSConfig holds Drupal connection and publish settings.
type CMSConfig struct {
	BaseURL        string        `yaml:"base_url"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	LoginPath      string        `yaml:"login_path"`
	NodePath       string        `yaml:"node_path"`
	VisitHome      bool          `yaml:"visit_home"` // GET the base URL before login
	MaxRetries     int           `yaml:"max_retries"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	PublishLimit   int           `yaml:"publish_limit"` // max records per kind per run; 0 means unlimited
}

// Validate checks that required fields are present.
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return errors.New("database.host is required")
	}
	if c.Database.DBName == "" {
		return errors.New("database.dbname is required")
	}
	if c.CMS.BaseURL == "" {
		return errors.New("cms.base_url is required")
	}
	if c.CMS.Username == "" || c.CMS.Password == "" {
		return errors.New("cms.username and cms.password are required")
	}
	if c.CMS.PublishLimit < 0 {
		return fmt.Errorf("cms.publish_limit must not be negative, got %d", c.CMS.PublishLimit)
	}
	return nil
}

// setDefaults sets default values for configuration fields.
func setDefaults(cfg *Config) {
	if cfg.Database.Port == "" {
		cfg.Database.Port = "5432"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Crawl.RequestTimeout == 0 {
		cfg.Crawl.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Crawl.UserAgent == "" {
		cfg.Crawl.UserAgent = "harvester/1.0"
	}
	if cfg.CMS.LoginPath == "" {
		cfg.CMS.LoginPath = "api/user/login"
	}
	if cfg.CMS.NodePath == "" {
		cfg.CMS.NodePath = "api/node"
	}
	if cfg.CMS.MaxRetries == 0 {
		cfg.CMS.MaxRetries = DefaultMaxRetries
	}
	if cfg.CMS.RetryDelay == 0 {
		cfg.CMS.RetryDelay = DefaultRetryDelay
	}
	if cfg.CMS.RequestTimeout == 0 {
		cfg.CMS.RequestTimeout = DefaultRequestTimeout
	}
}

// overrideWithEnvVars overrides configuration with environment variables.
// Secrets in particular are expected to arrive this way in deployment.
func overrideWithEnvVars(cfg *Config) {
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("DRUPAL_BASE"); v != "" {
		cfg.CMS.BaseURL = v
	}
	if v := os.Getenv("DRUPAL_USER"); v != "" {
		cfg.CMS.Username = v
	}
	if v := os.Getenv("DRUPAL_PASS"); v != "" {
		cfg.CMS.Password = v
	}
	if v := os.Getenv("DRUPAL_LOGIN_PATH"); v != "" {
		cfg.CMS.LoginPath = v
	}
	if v := os.Getenv("DRUPAL_NODE_PATH"); v != "" {
		cfg.CMS.NodePath = v
	}
	if v := os.Getenv("APP_DEBUG"); v != "" {
		cfg.Debug = parseBool(v)
	}
}

// Load reads, defaults, env-overrides and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	setDefaults(&cfg)
	overrideWithEnvVars(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// parseBool parses common boolean string representations.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes"
}
