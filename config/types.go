package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	TMDB    TMDBConfig    `mapstructure:"tmdb"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Session SessionConfig `mapstructure:"session"`
	Filter  FilterConfig  `mapstructure:"filter"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// TMDBConfig holds TMDB API connection details
type TMDBConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	ApprovalURL string        `mapstructure:"approval_url"`
	RedirectURL string        `mapstructure:"redirect_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	// RateLimit is requests per second; 0 disables client-side limiting
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

// CacheConfig tunes the query cache
type CacheConfig struct {
	// RetainUnused is how many released entries are kept for reuse
	RetainUnused int `mapstructure:"retain_unused"`
}

// SessionConfig locates the persisted login state
type SessionConfig struct {
	Path string `mapstructure:"path"`
}

// FilterConfig contains the default expression and named presets
type FilterConfig struct {
	DefaultExpression string            `mapstructure:"default_expression"`
	Presets           map[string]string `mapstructure:"presets"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
