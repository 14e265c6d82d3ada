package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/tenderwatch/internal/model"
	"github.com/spf13/viper"
)

const envPrefix = "TENDERWATCH"

// legacyEnv maps config keys to the bare environment names the watcher has always read
var legacyEnv = map[string]string{
	"smtp.to":            "ALERT_TO",
	"smtp.host":          "SMTP_HOST",
	"smtp.port":          "SMTP_PORT",
	"smtp.user":          "SMTP_USER",
	"smtp.pass":          "SMTP_PASS",
	"heartbeat.enabled":  "HEARTBEAT_ENABLE",
	"heartbeat.hour_utc": "HEARTBEAT_HOUR_UTC",
}

// loadConfig builds the effective configuration.
// Precedence: environment, then config file, then defaults. Flags are applied by the caller.
// It returns the config file used, or "" when none was found.
func loadConfig(path string) (*model.Config, string, error) {
	v := viper.New()
	setDefaults(v, model.DefaultConfig())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, name := range legacyEnv {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, name); err != nil {
			return nil, "", fmt.Errorf("bind env %s: %w", name, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".tenderwatch"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, "", fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &model.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, "", fmt.Errorf("decode config: %w", err)
	}
	if err := validateConfig(cfg); err != nil {
		return nil, "", err
	}

	return cfg, v.ConfigFileUsed(), nil
}

// setDefaults registers every key so environment overrides reach Unmarshal
func setDefaults(v *viper.Viper, cfg *model.Config) {
	v.SetDefault("http.timeout", cfg.HTTP.Timeout)
	v.SetDefault("http.user_agent", cfg.HTTP.UserAgent)
	v.SetDefault("http.max_body_bytes", cfg.HTTP.MaxBodyBytes)
	v.SetDefault("http.http_proxy", cfg.HTTP.HTTPProxy)
	v.SetDefault("http.https_proxy", cfg.HTTP.HTTPSProxy)
	v.SetDefault("http.respect_robots", cfg.HTTP.RespectRobots)
	v.SetDefault("http.retry_attempts", cfg.HTTP.RetryAttempts)
	v.SetDefault("http.retry_base_delay", cfg.HTTP.RetryBaseDelay)

	v.SetDefault("rate_limit.requests_per_second", cfg.RateLimit.RequestsPerSecond)
	v.SetDefault("rate_limit.burst", cfg.RateLimit.Burst)

	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.ttl", cfg.Cache.TTL)

	v.SetDefault("smtp.host", cfg.SMTP.Host)
	v.SetDefault("smtp.port", cfg.SMTP.Port)
	v.SetDefault("smtp.user", cfg.SMTP.User)
	v.SetDefault("smtp.pass", cfg.SMTP.Pass)
	v.SetDefault("smtp.to", cfg.SMTP.To)

	v.SetDefault("heartbeat.enabled", cfg.Heartbeat.Enabled)
	v.SetDefault("heartbeat.hour_utc", cfg.Heartbeat.HourUTC)

	v.SetDefault("state.path", cfg.State.Path)
	v.SetDefault("state.retention", cfg.State.Retention)

	v.SetDefault("keywords.path", cfg.Keywords.Path)

	sources := make([]map[string]any, 0, len(cfg.Sources))
	for _, s := range cfg.Sources {
		sources = append(sources, map[string]any{
			"name":     s.Name,
			"url":      s.URL,
			"selector": s.Selector,
		})
	}
	v.SetDefault("sources", sources)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
}

func validateConfig(cfg *model.Config) error {
	if cfg.Heartbeat.HourUTC < 0 || cfg.Heartbeat.HourUTC > 23 {
		return fmt.Errorf("heartbeat.hour_utc must be 0-23, got %d", cfg.Heartbeat.HourUTC)
	}
	if cfg.SMTP.Port <= 0 || cfg.SMTP.Port > 65535 {
		return fmt.Errorf("smtp.port out of range: %d", cfg.SMTP.Port)
	}
	if cfg.State.Path == "" {
		return fmt.Errorf("state.path must be set")
	}
	if len(cfg.Sources) == 0 {
		return fmt.Errorf("at least one source must be configured")
	}
	return nil
}
