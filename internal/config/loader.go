package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies POLYSCOUT_* environment variable overrides, and
// returns the final Config. A missing config file is not an error: defaults
// plus environment variables are enough to run. The returned Config has NOT
// been validated; the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known POLYSCOUT_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Polymarket ──
	setStr(&cfg.Polymarket.GammaHost, "POLYSCOUT_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.ClobHost, "POLYSCOUT_POLYMARKET_CLOB_HOST")
	setDuration(&cfg.Polymarket.RequestTimeout, "POLYSCOUT_POLYMARKET_REQUEST_TIMEOUT")
	setInt(&cfg.Polymarket.MaxEvents, "POLYSCOUT_POLYMARKET_MAX_EVENTS")
	setInt(&cfg.Polymarket.MaxMarketsPerEvent, "POLYSCOUT_POLYMARKET_MAX_MARKETS_PER_EVENT")
	setInt(&cfg.Polymarket.PriceConcurrency, "POLYSCOUT_POLYMARKET_PRICE_CONCURRENCY")

	// ── Search ──
	setStr(&cfg.Search.ApiKey, "POLYSCOUT_SEARCH_API_KEY")
	setStr(&cfg.Search.ApiKey, "TAVILY_API_KEY") // compatibility alias
	setStr(&cfg.Search.BaseURL, "POLYSCOUT_SEARCH_BASE_URL")
	setInt(&cfg.Search.MaxResults, "POLYSCOUT_SEARCH_MAX_RESULTS")
	setDuration(&cfg.Search.RequestTimeout, "POLYSCOUT_SEARCH_REQUEST_TIMEOUT")

	// ── Model ──
	setStr(&cfg.Model.ApiKey, "POLYSCOUT_MODEL_API_KEY")
	setStr(&cfg.Model.ApiKey, "ZAI_API_KEY") // compatibility alias
	setStr(&cfg.Model.Model, "POLYSCOUT_MODEL_NAME")
	setStr(&cfg.Model.BaseURL, "POLYSCOUT_MODEL_BASE_URL")
	setFloat64(&cfg.Model.Temperature, "POLYSCOUT_MODEL_TEMPERATURE")
	setDuration(&cfg.Model.RequestTimeout, "POLYSCOUT_MODEL_REQUEST_TIMEOUT")
	setInt(&cfg.Model.Concurrency, "POLYSCOUT_MODEL_CONCURRENCY")
	setInt(&cfg.Model.MaxAttempts, "POLYSCOUT_MODEL_MAX_ATTEMPTS")
	setDuration(&cfg.Model.BaseDelay, "POLYSCOUT_MODEL_BASE_DELAY")
	setDuration(&cfg.Model.MaxDelay, "POLYSCOUT_MODEL_MAX_DELAY")

	// ── Pipeline ──
	setStr(&cfg.Pipeline.ResultsDir, "POLYSCOUT_PIPELINE_RESULTS_DIR")
	setDuration(&cfg.Pipeline.ScanInterval, "POLYSCOUT_PIPELINE_SCAN_INTERVAL")
	setBool(&cfg.Pipeline.IncludeAnalyzed, "POLYSCOUT_PIPELINE_INCLUDE_ANALYZED")

	// ── Suggest ──
	setInt(&cfg.Suggest.MinConfidence, "POLYSCOUT_SUGGEST_MIN_CONFIDENCE")
	setFloat64(&cfg.Suggest.MinEdge, "POLYSCOUT_SUGGEST_MIN_EDGE")
	setFloat64(&cfg.Suggest.MinVolume, "POLYSCOUT_SUGGEST_MIN_VOLUME")
	setFloat64(&cfg.Suggest.EdgeThreshold, "POLYSCOUT_SUGGEST_EDGE_THRESHOLD")
	setInt(&cfg.Suggest.MaxSuggestions, "POLYSCOUT_SUGGEST_MAX_SUGGESTIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "POLYSCOUT_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "POLYSCOUT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "POLYSCOUT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "POLYSCOUT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "POLYSCOUT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "POLYSCOUT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "POLYSCOUT_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "POLYSCOUT_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "POLYSCOUT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "POLYSCOUT_S3_REGION")
	setStr(&cfg.S3.Bucket, "POLYSCOUT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "POLYSCOUT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "POLYSCOUT_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "POLYSCOUT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "POLYSCOUT_S3_FORCE_PATH_STYLE")
	setStr(&cfg.S3.Prefix, "POLYSCOUT_S3_PREFIX")

	// ── Notify ──
	setStr(&cfg.Notify.DiscordWebhookURL, "POLYSCOUT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStr(&cfg.Notify.DiscordWebhookURL, "DISCORD_WEBHOOK_POLYMARKET") // compatibility alias
	setStr(&cfg.Notify.TelegramToken, "POLYSCOUT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "POLYSCOUT_NOTIFY_TELEGRAM_CHAT_ID")
	setStringSlice(&cfg.Notify.Events, "POLYSCOUT_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "POLYSCOUT_MODE")
	setStr(&cfg.LogLevel, "POLYSCOUT_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
