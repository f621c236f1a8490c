package config

import (
	"log/slog"
	"strings"
	"time"
)

// Config aggregates every runtime setting of the gateway.
type Config struct {
	HTTP    HTTPConfig    `mapstructure:"http"`
	Log     LogConfig     `mapstructure:"log"`
	NetBox  NetBoxConfig  `mapstructure:"netbox"`
	Retry   RetryConfig   `mapstructure:"retry"`
	Breaker BreakerConfig `mapstructure:"breaker"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Jobs    JobsConfig    `mapstructure:"jobs"`
	Tenants []TenantMap   `mapstructure:"tenants"`
}

// HTTPConfig defines the HTTP listener.
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig defines logging behavior.
type LogConfig struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	AddSource bool   `mapstructure:"add_source"`
}

// SlogLevel maps the textual level onto slog's scale.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NetBoxConfig locates the downstream infrastructure API.
type NetBoxConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Token       string        `mapstructure:"token"`
	CallTimeout time.Duration `mapstructure:"call_timeout"`
}

// RetryConfig parameterizes the downstream retry policy.
type RetryConfig struct {
	MaxAttempts  int           `mapstructure:"max_attempts"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay"`
	Multiplier   float64       `mapstructure:"multiplier"`
	Jitter       bool          `mapstructure:"jitter"`
}

// BreakerConfig parameterizes the downstream circuit breaker.
type BreakerConfig struct {
	FailureThreshold int           `mapstructure:"failure_threshold"`
	SuccessThreshold int           `mapstructure:"success_threshold"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// CacheConfig parameterizes the downstream response cache.
type CacheConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	MaxEntries    int           `mapstructure:"max_entries"`
	SweepSchedule string        `mapstructure:"sweep_schedule"`
}

// MetricsConfig defines Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// JobsConfig toggles background jobs.
type JobsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// TenantMap binds an application tenant to its NetBox tenant id.
type TenantMap struct {
	ID       string `mapstructure:"id"`
	NetBoxID int    `mapstructure:"netbox_id"`
}
