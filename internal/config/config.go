// Package config defines the top-level configuration for polyscout and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by POLYSCOUT_* environment
// variables.
type Config struct {
	Polymarket PolymarketConfig `toml:"polymarket"`
	Search     SearchConfig     `toml:"search"`
	Model      ModelConfig      `toml:"model"`
	Pipeline   PipelineConfig   `toml:"pipeline"`
	Suggest    SuggestConfig    `toml:"suggest"`
	Redis      RedisConfig      `toml:"redis"`
	S3         S3Config         `toml:"s3"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// PolymarketConfig holds Polymarket API endpoints and fetch limits.
type PolymarketConfig struct {
	GammaHost          string   `toml:"gamma_host"`
	ClobHost           string   `toml:"clob_host"`
	RequestTimeout     duration `toml:"request_timeout"`
	MaxEvents          int      `toml:"max_events"`
	MaxMarketsPerEvent int      `toml:"max_markets_per_event"`
	PriceConcurrency   int      `toml:"price_concurrency"`
}

// SearchConfig holds web-search provider credentials and limits.
type SearchConfig struct {
	ApiKey         string   `toml:"api_key"`
	BaseURL        string   `toml:"base_url"`
	MaxResults     int      `toml:"max_results"`
	RequestTimeout duration `toml:"request_timeout"`
}

// ModelConfig holds reasoning-model service credentials and call discipline.
type ModelConfig struct {
	ApiKey         string   `toml:"api_key"`
	Model          string   `toml:"model"`
	BaseURL        string   `toml:"base_url"`
	Temperature    float64  `toml:"temperature"`
	RequestTimeout duration `toml:"request_timeout"`
	// Concurrency is the hard cap on in-flight model calls. The model API is
	// the most rate-limited upstream dependency, so this is deliberately tiny.
	Concurrency int `toml:"concurrency"`
	// Retry schedule for transient model-call failures.
	MaxAttempts int      `toml:"max_attempts"`
	BaseDelay   duration `toml:"base_delay"`
	MaxDelay    duration `toml:"max_delay"`
}

// PipelineConfig holds run-driver parameters.
type PipelineConfig struct {
	ResultsDir      string   `toml:"results_dir"`
	ScanInterval    duration `toml:"scan_interval"`
	IncludeAnalyzed bool     `toml:"include_analyzed"`
}

// SuggestConfig holds suggestion filtering thresholds.
type SuggestConfig struct {
	MinConfidence int     `toml:"min_confidence"`
	MinEdge       float64 `toml:"min_edge"`
	MinVolume     float64 `toml:"min_volume"`
	// EdgeThreshold is the band around the market probability inside which
	// the recommendation is AVOID.
	EdgeThreshold  float64 `toml:"edge_threshold"`
	MaxSuggestions int     `toml:"max_suggestions"`
}

// RedisConfig holds the optional market-metadata cache connection.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds optional S3-compatible snapshot archival parameters.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
	Prefix         string `toml:"prefix"`
}

// NotifyConfig holds notification channel credentials. Channels with empty
// credentials are simply not wired; notifications are always best-effort.
type NotifyConfig struct {
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			GammaHost:          "https://gamma-api.polymarket.com",
			ClobHost:           "https://clob.polymarket.com",
			RequestTimeout:     duration{30 * time.Second},
			MaxEvents:          10,
			MaxMarketsPerEvent: 3,
			PriceConcurrency:   5,
		},
		Search: SearchConfig{
			BaseURL:        "https://api.tavily.com",
			MaxResults:     5,
			RequestTimeout: duration{30 * time.Second},
		},
		Model: ModelConfig{
			Model:          "glm-4.7",
			BaseURL:        "https://api.z.ai/api/coding/paas/v4",
			Temperature:    0.3,
			RequestTimeout: duration{60 * time.Second},
			Concurrency:    2,
			MaxAttempts:    5,
			BaseDelay:      duration{2 * time.Second},
			MaxDelay:       duration{60 * time.Second},
		},
		Pipeline: PipelineConfig{
			ResultsDir:      "results",
			ScanInterval:    duration{30 * time.Minute},
			IncludeAnalyzed: false,
		},
		Suggest: SuggestConfig{
			MinConfidence:  5,
			MinEdge:        0.10,
			MinVolume:      1000,
			EdgeThreshold:  0.10,
			MaxSuggestions: 10,
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "polyscout-results",
			UseSSL:         false,
			ForcePathStyle: true,
			Prefix:         "snapshots",
		},
		Notify: NotifyConfig{
			Events: []string{"suggestions", "error"},
		},
		Mode:     "run",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"run":   true,
	"watch": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found. Missing API keys are NOT
// validation errors: the affected component runs in degraded mode instead.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: run, watch)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Polymarket
	if c.Polymarket.GammaHost == "" {
		errs = append(errs, "polymarket: gamma_host must not be empty")
	}
	if c.Polymarket.ClobHost == "" {
		errs = append(errs, "polymarket: clob_host must not be empty")
	}
	if c.Polymarket.MaxEvents < 1 {
		errs = append(errs, "polymarket: max_events must be >= 1")
	}
	if c.Polymarket.MaxMarketsPerEvent < 1 {
		errs = append(errs, "polymarket: max_markets_per_event must be >= 1")
	}
	if c.Polymarket.PriceConcurrency < 1 {
		errs = append(errs, "polymarket: price_concurrency must be >= 1")
	}

	// Search
	if c.Search.MaxResults < 1 {
		errs = append(errs, "search: max_results must be >= 1")
	}

	// Model
	if c.Model.Concurrency < 1 {
		errs = append(errs, "model: concurrency must be >= 1")
	}
	if c.Model.MaxAttempts < 1 {
		errs = append(errs, "model: max_attempts must be >= 1")
	}
	if c.Model.BaseDelay.Duration <= 0 {
		errs = append(errs, "model: base_delay must be > 0")
	}
	if c.Model.MaxDelay.Duration < c.Model.BaseDelay.Duration {
		errs = append(errs, "model: max_delay must be >= base_delay")
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		errs = append(errs, fmt.Sprintf("model: temperature must be in [0,2], got %g", c.Model.Temperature))
	}

	// Pipeline
	if c.Pipeline.ResultsDir == "" {
		errs = append(errs, "pipeline: results_dir must not be empty")
	}
	if c.Mode == "watch" && c.Pipeline.ScanInterval.Duration <= 0 {
		errs = append(errs, "pipeline: scan_interval must be > 0 for watch mode")
	}

	// Suggest
	if c.Suggest.MinConfidence < 1 || c.Suggest.MinConfidence > 10 {
		errs = append(errs, fmt.Sprintf("suggest: min_confidence must be 1-10, got %d", c.Suggest.MinConfidence))
	}
	if c.Suggest.MinEdge < 0 || c.Suggest.MinEdge > 1 {
		errs = append(errs, fmt.Sprintf("suggest: min_edge must be in [0,1], got %g", c.Suggest.MinEdge))
	}
	if c.Suggest.MinVolume < 0 {
		errs = append(errs, "suggest: min_volume must be >= 0")
	}
	if c.Suggest.EdgeThreshold < 0 || c.Suggest.EdgeThreshold > 1 {
		errs = append(errs, fmt.Sprintf("suggest: edge_threshold must be in [0,1], got %g", c.Suggest.EdgeThreshold))
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
