// Package config loads console settings from the environment (optionally seeded
// from a .env file).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every runtime setting of the console
type Config struct {
	Env                 string
	Port                string
	APIBaseURL          string
	APITimeout          time.Duration
	RedisURL            string
	DatabaseURL         string
	SessionTTL          time.Duration
	SummaryCacheTTL     time.Duration
	SearchDebounce      time.Duration
	DefaultPageSize     int
	LoginRateLimitRPS   float64
	LoginRateLimitBurst int
	StatusInterval      time.Duration
	AuditRetention      time.Duration
	AuditPruneSchedule  string
	LogLevel            string
}

// IsProduction reports whether cookies must be marked Secure
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("API_TIMEOUT", "15s")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("SUMMARY_CACHE_TTL", "30s")
	v.SetDefault("SEARCH_DEBOUNCE", "300ms")
	v.SetDefault("DEFAULT_PAGE_SIZE", 20)
	v.SetDefault("LOGIN_RATE_LIMIT_RPS", 5)
	v.SetDefault("LOGIN_RATE_LIMIT_BURST", 10)
	v.SetDefault("STATUS_INTERVAL", "15s")
	v.SetDefault("AUDIT_RETENTION", "2160h")
	v.SetDefault("AUDIT_PRUNE_SCHEDULE", "FREQ=DAILY;BYHOUR=3;BYMINUTE=0;BYSECOND=0")
	v.SetDefault("LOG_LEVEL", "info")
}

// Load reads envFile (a missing file is fine) and then the process environment
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance
func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	apiBase := v.GetString("API_BASE_URL")
	if apiBase == "" {
		apiBase = v.GetString("NEXT_PUBLIC_API_URL")
	}

	cfg := &Config{
		Env:                 v.GetString("ENV"),
		Port:                v.GetString("PORT"),
		APIBaseURL:          strings.TrimRight(apiBase, "/"),
		APITimeout:          v.GetDuration("API_TIMEOUT"),
		RedisURL:            v.GetString("REDIS_URL"),
		DatabaseURL:         v.GetString("DATABASE_URL"),
		SessionTTL:          v.GetDuration("SESSION_TTL"),
		SummaryCacheTTL:     v.GetDuration("SUMMARY_CACHE_TTL"),
		SearchDebounce:      v.GetDuration("SEARCH_DEBOUNCE"),
		DefaultPageSize:     v.GetInt("DEFAULT_PAGE_SIZE"),
		LoginRateLimitRPS:   v.GetFloat64("LOGIN_RATE_LIMIT_RPS"),
		LoginRateLimitBurst: v.GetInt("LOGIN_RATE_LIMIT_BURST"),
		StatusInterval:      v.GetDuration("STATUS_INTERVAL"),
		AuditRetention:      v.GetDuration("AUDIT_RETENTION"),
		AuditPruneSchedule:  v.GetString("AUDIT_PRUNE_SCHEDULE"),
		LogLevel:            strings.ToLower(v.GetString("LOG_LEVEL")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the console cannot run with
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return errors.New("API_BASE_URL (or NEXT_PUBLIC_API_URL) is required")
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("API_TIMEOUT must be positive, got %s", c.APITimeout)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.DefaultPageSize <= 0 {
		return fmt.Errorf("DEFAULT_PAGE_SIZE must be positive, got %d", c.DefaultPageSize)
	}
	if c.StatusInterval <= 0 {
		return fmt.Errorf("STATUS_INTERVAL must be positive, got %s", c.StatusInterval)
	}
	return nil
}
