package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. FILMPIRE_TMDB_API_KEY
const EnvPrefix = "FILMPIRE"

// Load loads the configuration from file and environment. Without an
// explicit path a missing file is fine as long as the environment
// supplies what validation needs.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath(".")
		if dir, err := defaultDir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath("/etc/filmpire/")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// defaultDir is the per-user config and state directory
func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".filmpire"), nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// viper only maps env vars for keys it knows about
	v.SetDefault("tmdb.api_key", "")
	v.SetDefault("tmdb.base_url", "https://api.themoviedb.org/3")
	v.SetDefault("tmdb.approval_url", "https://www.themoviedb.org/authenticate")
	v.SetDefault("tmdb.redirect_url", "")
	v.SetDefault("tmdb.timeout", 15*time.Second)
	v.SetDefault("tmdb.rate_limit", 4.0)
	v.SetDefault("tmdb.rate_burst", 40)

	v.SetDefault("cache.retain_unused", 64)

	sessionPath := "filmpire-session.db"
	if dir, err := defaultDir(); err == nil {
		sessionPath = filepath.Join(dir, "session.db")
	}
	v.SetDefault("session.path", sessionPath)

	v.SetDefault("filter.default_expression", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()))
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.TMDB.APIKey == "" || cfg.TMDB.APIKey == "your-api-key-here" {
		return fmt.Errorf("tmdb.api_key must be set to a valid API key")
	}

	for name, raw := range map[string]string{
		"tmdb.base_url":     cfg.TMDB.BaseURL,
		"tmdb.approval_url": cfg.TMDB.ApprovalURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL: %q", name, raw)
		}
	}

	if cfg.TMDB.Timeout <= 0 {
		return fmt.Errorf("tmdb.timeout must be positive")
	}
	if cfg.TMDB.RateLimit < 0 {
		return fmt.Errorf("tmdb.rate_limit cannot be negative")
	}
	if cfg.Cache.RetainUnused < 0 {
		return fmt.Errorf("cache.retain_unused cannot be negative")
	}
	if cfg.Session.Path == "" {
		return fmt.Errorf("session.path is required")
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}
