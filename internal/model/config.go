package model

import (
	"time"

	"github.com/ppiankov/tenderwatch/internal/logger"
)

// Config holds the complete tenderwatch configuration.
// It is built once at startup and handed to every component.
type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http" yaml:"http"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
	Cache     CacheConfig     `mapstructure:"cache" yaml:"cache"`
	SMTP      SMTPConfig      `mapstructure:"smtp" yaml:"smtp"`
	Heartbeat HeartbeatConfig `mapstructure:"heartbeat" yaml:"heartbeat"`
	State     StateConfig     `mapstructure:"state" yaml:"state"`
	Keywords  KeywordsConfig  `mapstructure:"keywords" yaml:"keywords"`
	Sources   []SourceConfig  `mapstructure:"sources" yaml:"sources"`
	Log       logger.Config   `mapstructure:"log" yaml:"log"`
}

// HTTPConfig controls the page fetcher
type HTTPConfig struct {
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent      string        `mapstructure:"user_agent" yaml:"user_agent"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
	HTTPProxy      string        `mapstructure:"http_proxy" yaml:"http_proxy,omitempty"`
	HTTPSProxy     string        `mapstructure:"https_proxy" yaml:"https_proxy,omitempty"`
	RespectRobots  bool          `mapstructure:"respect_robots" yaml:"respect_robots"`
	RetryAttempts  int           `mapstructure:"retry_attempts" yaml:"retry_attempts"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay" yaml:"retry_base_delay"`
}

// RateLimitConfig paces requests per host
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `mapstructure:"burst" yaml:"burst"`
}

// CacheConfig controls the in-memory page cache
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	TTL     time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// SMTPConfig holds the outbound mail settings. User, Pass and To must all be set for mail to go out.
type SMTPConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
	User string `mapstructure:"user" yaml:"user"`
	Pass string `mapstructure:"pass" yaml:"pass"`
	To   string `mapstructure:"to" yaml:"to"`
}

// Configured reports whether all three credentials are present
func (c SMTPConfig) Configured() bool {
	return c.User != "" && c.Pass != "" && c.To != ""
}

// HeartbeatConfig controls the daily "still running" email
type HeartbeatConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	HourUTC int  `mapstructure:"hour_utc" yaml:"hour_utc"`
}

// StateConfig locates the seen-notice state file
type StateConfig struct {
	Path      string        `mapstructure:"path" yaml:"path"`
	Retention time.Duration `mapstructure:"retention" yaml:"retention"`
}

// KeywordsConfig locates the keyword list
type KeywordsConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// SourceConfig describes one tender listing page
type SourceConfig struct {
	Name     string `mapstructure:"name" yaml:"name"`
	URL      string `mapstructure:"url" yaml:"url"`
	Selector string `mapstructure:"selector" yaml:"selector"`
}

// DefaultRetention is how long a seen fingerprint is remembered
const DefaultRetention = 90 * 24 * time.Hour

// DefaultSources returns the built-in tender listing pages
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{
			Name:     "EthiopianTender.com",
			URL:      "https://www.ethiopiantender.com/",
			Selector: "a",
		},
		{
			Name:     "GlobalTenders (ET Software)",
			URL:      "https://www.globaltenders.com/ethiopia/et-software-tenders",
			Selector: "a",
		},
	}
}

// DefaultConfig returns the configuration used when nothing overrides it
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:        30 * time.Second,
			UserAgent:      "Mozilla/5.0 (TenderWatcher; +https://github.com/ppiankov/tenderwatch)",
			MaxBodyBytes:   5_000_000,
			RespectRobots:  false,
			RetryAttempts:  3,
			RetryBaseDelay: 3 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 1,
			Burst:             1,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     10 * time.Minute,
		},
		SMTP: SMTPConfig{
			Host: "smtp.mail.yahoo.com",
			Port: 587,
		},
		Heartbeat: HeartbeatConfig{
			Enabled: true,
			HourUTC: 6,
		},
		State: StateConfig{
			Path:      "state/seen.json",
			Retention: DefaultRetention,
		},
		Keywords: KeywordsConfig{
			Path: "config/keywords.txt",
		},
		Sources: DefaultSources(),
		Log: logger.Config{
			Level:  logger.DefaultLevel,
			Format: logger.DefaultFormat,
		},
	}
}

// Masked returns a copy safe to print: the SMTP secret is replaced
func (c Config) Masked() Config {
	if c.SMTP.Pass != "" {
		c.SMTP.Pass = "********"
	}
	c.Sources = append([]SourceConfig(nil), c.Sources...)
	return c
}
