/*
Copyright 2025 The Inkwell Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package config loads the orchestrator's YAML configuration. Values may
// reference environment variables with ${VAR}; durations are written as
// Go duration strings ("30s", "1m").
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration for YAML duration strings.
type Duration time.Duration

// UnmarshalYAML accepts "90s"-style strings and raw integer seconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var asSeconds int64
	if err := value.Decode(&asSeconds); err == nil {
		*d = Duration(time.Duration(asSeconds) * time.Second)
		return nil
	}
	var asString string
	if err := value.Decode(&asString); err == nil {
		parsed, err := time.ParseDuration(asString)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", asString, err)
		}
		*d = Duration(parsed)
		return nil
	}
	return fmt.Errorf("invalid duration value on line %d", value.Line)
}

// Std converts back to time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the root configuration document.
type Config struct {
	Logging   LoggingConfig            `yaml:"logging"`
	Server    ServerConfig             `yaml:"server"`
	Database  DatabaseConfig           `yaml:"database"`
	Cache     CacheConfig              `yaml:"cache"`
	Providers map[string]ProviderQuota `yaml:"providers"`
	Breaker   BreakerConfig            `yaml:"breaker"`
	Retry     RetryConfig              `yaml:"retry"`
	LLM       map[string]LLMConfig     `yaml:"llm"`
	Discovery DiscoveryConfig          `yaml:"discovery"`
	Fallbacks FallbacksConfig          `yaml:"fallbacks"`
}

// LoggingConfig controls logrus.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error fatal"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

// ServerConfig controls the ops/ingress HTTP listener.
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig controls the postgres pool. An empty DSN disables
// persistence.
type DatabaseConfig struct {
	DSN             string   `yaml:"dsn"`
	MaxOpenConns    int      `yaml:"max_open_conns"`
	MaxIdleConns    int      `yaml:"max_idle_conns"`
	ConnMaxLifetime Duration `yaml:"conn_max_lifetime"`
}

// CacheConfig controls the scholarly response cache.
type CacheConfig struct {
	Enabled    bool     `yaml:"enabled"`
	Addr       string   `yaml:"addr"`
	Password   string   `yaml:"password"`
	DB         int      `yaml:"db"`
	DefaultTTL Duration `yaml:"default_ttl"`
}

// ProviderQuota is one provider's request budget. Rate 0 keeps the
// documented default; rate -1 means unbounded.
type ProviderQuota struct {
	Rate  float64 `yaml:"rate"`
	Burst int     `yaml:"burst"`
}

// BreakerConfig tunes the circuit breakers.
type BreakerConfig struct {
	FailureThreshold int      `yaml:"failure_threshold" validate:"omitempty,gt=0"`
	CoolDown         Duration `yaml:"cool_down"`
	ProbeMax         int      `yaml:"probe_max" validate:"omitempty,gt=0"`
}

// RetryConfig tunes the retry policy, with optional per-provider
// overrides.
type RetryConfig struct {
	MaxAttempts           int                            `yaml:"max_attempts" validate:"omitempty,gt=0"`
	RateLimitMaxAttempts  int                            `yaml:"rate_limit_max_attempts" validate:"omitempty,gt=0"`
	InitialDelay          Duration                       `yaml:"initial_delay"`
	RateLimitInitialDelay Duration                       `yaml:"rate_limit_initial_delay"`
	MaxDelay              Duration                       `yaml:"max_delay"`
	BackoffMultiplier     float64                        `yaml:"backoff_multiplier" validate:"omitempty,gt=1"`
	Jitter                *bool                          `yaml:"jitter"`
	ProviderDownAfter     int                            `yaml:"provider_down_after" validate:"omitempty,gt=0"`
	Overrides             map[string]RetryOverrideConfig `yaml:"overrides"`
}

// RetryOverrideConfig overrides selected retry fields for one provider.
type RetryOverrideConfig struct {
	MaxAttempts          int      `yaml:"max_attempts"`
	RateLimitMaxAttempts int      `yaml:"rate_limit_max_attempts"`
	InitialDelay         Duration `yaml:"initial_delay"`
	MaxDelay             Duration `yaml:"max_delay"`
}

// LLMConfig is one AI provider client.
type LLMConfig struct {
	Provider    string   `yaml:"provider" validate:"required"`
	Endpoint    string   `yaml:"endpoint"`
	APIKey      string   `yaml:"api_key"`
	Model       string   `yaml:"model" validate:"required"`
	Timeout     Duration `yaml:"timeout"`
	MaxTokens   int      `yaml:"max_tokens"`
	Temperature float64  `yaml:"temperature"`
}

// DiscoveryConfig carries the default discovery tuning and the scholarly
// API settings.
type DiscoveryConfig struct {
	Preset            string   `yaml:"preset" validate:"omitempty,oneof=comprehensive fast citation"`
	CrossrefEndpoint  string   `yaml:"crossref_endpoint"`
	CrossrefMailto    string   `yaml:"crossref_mailto"`
	SemanticEndpoint  string   `yaml:"semantic_scholar_endpoint"`
	SemanticAPIKey    string   `yaml:"semantic_scholar_api_key"`
	MaxTotalPapers    int      `yaml:"max_total_papers"`
	MinRelevance      float64  `yaml:"min_relevance" validate:"gte=0,lte=1"`
	TimeoutSeconds    int      `yaml:"timeout_seconds"`
	ParallelExecution *bool    `yaml:"parallel_execution"`
	EnabledSources    []string `yaml:"enabled_sources"`
}

// FallbacksConfig enables local fallback agents per kind. The content
// summarizer fallback requires a configured ollama client; the other two
// are rule-based.
type FallbacksConfig struct {
	CitationFormatter bool `yaml:"citation_formatter"`
	QualityChecker    bool `yaml:"quality_checker"`
	ContentSummarizer bool `yaml:"content_summarizer"`
}

var validate = validator.New()

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Server:  ServerConfig{Addr: ":8085", ShutdownTimeout: Duration(15 * time.Second)},
		Breaker: BreakerConfig{
			FailureThreshold: 5,
			CoolDown:         Duration(time.Minute),
			ProbeMax:         3,
		},
		Retry: RetryConfig{
			MaxAttempts:           3,
			RateLimitMaxAttempts:  5,
			InitialDelay:          Duration(500 * time.Millisecond),
			RateLimitInitialDelay: Duration(2 * time.Second),
			MaxDelay:              Duration(30 * time.Second),
			BackoffMultiplier:     2.0,
			ProviderDownAfter:     3,
		},
		Fallbacks: FallbacksConfig{CitationFormatter: true, QualityChecker: true, ContentSummarizer: true},
	}
}

// Load reads, expands, parses, defaults, and validates a config file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	defaults := Default()
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaults.Logging.Format
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = defaults.Server.ShutdownTimeout
	}
	if c.Breaker.FailureThreshold <= 0 {
		c.Breaker.FailureThreshold = defaults.Breaker.FailureThreshold
	}
	if c.Breaker.CoolDown <= 0 {
		c.Breaker.CoolDown = defaults.Breaker.CoolDown
	}
	if c.Breaker.ProbeMax <= 0 {
		c.Breaker.ProbeMax = defaults.Breaker.ProbeMax
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = defaults.Retry.MaxAttempts
	}
	if c.Retry.RateLimitMaxAttempts <= 0 {
		c.Retry.RateLimitMaxAttempts = defaults.Retry.RateLimitMaxAttempts
	}
	if c.Retry.InitialDelay <= 0 {
		c.Retry.InitialDelay = defaults.Retry.InitialDelay
	}
	if c.Retry.RateLimitInitialDelay <= 0 {
		c.Retry.RateLimitInitialDelay = defaults.Retry.RateLimitInitialDelay
	}
	if c.Retry.MaxDelay <= 0 {
		c.Retry.MaxDelay = defaults.Retry.MaxDelay
	}
	if c.Retry.BackoffMultiplier <= 1 {
		c.Retry.BackoffMultiplier = defaults.Retry.BackoffMultiplier
	}
	if c.Retry.ProviderDownAfter <= 0 {
		c.Retry.ProviderDownAfter = defaults.Retry.ProviderDownAfter
	}
}

// JitterEnabled reports the effective jitter flag; absent means on.
func (r RetryConfig) JitterEnabled() bool {
	return r.Jitter == nil || *r.Jitter
}
