// Package engineconfig loads and validates the process-wide tuning
// values for the batch engine, adapted from the wider client library's
// httpclient.ClientConfig / LoadConfigFromFile, but, unlike that
// package's TODO stubs, actually implemented.
package engineconfig

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultMaxConcurrency    = 50
	DefaultTimeoutMs         = 30_000
	DefaultMaxRetries        = 3
	DefaultBaseDelayMs       = 100
	DefaultMaxDelayMs        = 1_000
	DefaultMaxBodyBytes      = 10 * 1024 * 1024
	DefaultMaxRedirects      = 5
	DefaultUserAgent         = "batchhttp/1"
	DefaultLogLevel          = "info"
)

// RetryPolicy is the backoff schedule applied by the retry engine (C2).
type RetryPolicy struct {
	MaxAttempts int `yaml:"max_attempts"`
	BaseDelayMs int `yaml:"base_delay_ms"`
	MaxDelayMs  int `yaml:"max_delay_ms"`
}

// EngineConfig is the process-wide tuning for the dispatcher, facades,
// and retry engine.
type EngineConfig struct {
	MaxConcurrency   int           `yaml:"max_concurrency"`
	DefaultTimeoutMs int           `yaml:"default_timeout_ms"`
	DefaultMaxRetries int          `yaml:"default_max_retries"`
	BaseDelayMs      int           `yaml:"base_delay_ms"`
	MaxDelayMs       int           `yaml:"max_delay_ms"`
	MaxBodyBytes     int64         `yaml:"max_body_bytes"`
	FollowRedirects  bool          `yaml:"follow_redirects"`
	MaxRedirects     int           `yaml:"max_redirects"`
	UserAgent        string        `yaml:"user_agent"`
	LogLevel         string        `yaml:"log_level"`
}

// DefaultEngineConfig returns a fully populated, valid configuration:
// the programmatic equivalent of LoadEngineConfig against an empty file.
func DefaultEngineConfig() *EngineConfig {
	cfg := &EngineConfig{}
	ApplyDefaults(cfg)
	return cfg
}

// LoadEngineConfig reads a YAML configuration file, applies defaults to
// any zero-valued field, and validates the result.
func LoadEngineConfig(path string) (*EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load engine config: %w", err)
	}

	var cfg EngineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("load engine config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills in zero-valued fields with their defaults.
func ApplyDefaults(cfg *EngineConfig) {
	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = DefaultMaxConcurrency
	}
	if cfg.DefaultTimeoutMs == 0 {
		cfg.DefaultTimeoutMs = DefaultTimeoutMs
	}
	if cfg.DefaultMaxRetries == 0 {
		cfg.DefaultMaxRetries = DefaultMaxRetries
	}
	if cfg.BaseDelayMs == 0 {
		cfg.BaseDelayMs = DefaultBaseDelayMs
	}
	if cfg.MaxDelayMs == 0 {
		cfg.MaxDelayMs = DefaultMaxDelayMs
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.MaxRedirects == 0 {
		cfg.MaxRedirects = DefaultMaxRedirects
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
}

// Validate rejects configurations that would otherwise fail silently or
// dangerously at runtime (zero workers, negative durations, an inverted
// backoff range). This is the implemented analogue of validateClientConfig.
func Validate(cfg *EngineConfig) error {
	if cfg.MaxConcurrency < 1 {
		return errors.New("engineconfig: max_concurrency must be at least 1")
	}
	if cfg.DefaultTimeoutMs < 0 {
		return errors.New("engineconfig: default_timeout_ms cannot be negative")
	}
	if cfg.DefaultMaxRetries < 0 {
		return errors.New("engineconfig: default_max_retries cannot be negative")
	}
	if cfg.BaseDelayMs < 0 || cfg.MaxDelayMs < 0 {
		return errors.New("engineconfig: delay values cannot be negative")
	}
	if cfg.BaseDelayMs > cfg.MaxDelayMs {
		return errors.New("engineconfig: base_delay_ms cannot exceed max_delay_ms")
	}
	if cfg.MaxBodyBytes < 0 {
		return errors.New("engineconfig: max_body_bytes cannot be negative")
	}
	if cfg.FollowRedirects && cfg.MaxRedirects < 1 {
		return errors.New("engineconfig: max_redirects must be at least 1 when follow_redirects is enabled")
	}
	return nil
}

// Timeout returns the default per-request timeout as a time.Duration.
func (c *EngineConfig) Timeout() time.Duration {
	return time.Duration(c.DefaultTimeoutMs) * time.Millisecond
}

// DefaultRetryPolicy builds the RetryPolicy implied by this config's
// backoff fields, for requests that don't override max_retries.
func (c *EngineConfig) DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: c.DefaultMaxRetries + 1,
		BaseDelayMs: c.BaseDelayMs,
		MaxDelayMs:  c.MaxDelayMs,
	}
}
