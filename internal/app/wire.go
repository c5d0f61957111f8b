package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/polyscout/internal/analyzer"
	s3blob "github.com/alanyoungcy/polyscout/internal/blob/s3"
	"github.com/alanyoungcy/polyscout/internal/cache/redis"
	"github.com/alanyoungcy/polyscout/internal/config"
	"github.com/alanyoungcy/polyscout/internal/domain"
	"github.com/alanyoungcy/polyscout/internal/ledger"
	"github.com/alanyoungcy/polyscout/internal/notify"
	"github.com/alanyoungcy/polyscout/internal/pipeline"
	"github.com/alanyoungcy/polyscout/internal/platform/polymarket"
	"github.com/alanyoungcy/polyscout/internal/platform/tavily"
	"github.com/alanyoungcy/polyscout/internal/platform/zai"
	"github.com/alanyoungcy/polyscout/internal/suggest"
)

// Dependencies bundles everything the run modes need. It is constructed by
// Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Runner   *pipeline.Runner
	Ledger   *ledger.Ledger
	Archiver *s3blob.Archiver // nil when S3 is disabled
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources. Redis and S3 are optional: when
// disabled the pipeline runs without caching or archival.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Redis (optional market/price cache) ---
	var (
		marketCache domain.MarketCache
		priceCache  domain.PriceCache
	)
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		marketCache = redis.NewMarketCache(redisClient)
		priceCache = redis.NewPriceCache(redisClient)
	}

	// --- Platform clients ---
	gamma := polymarket.NewGammaClient(
		cfg.Polymarket.GammaHost,
		cfg.Polymarket.RequestTimeout.Duration,
		cfg.Polymarket.MaxMarketsPerEvent,
		marketCache,
		logger,
	)
	clob := polymarket.NewClobClient(
		cfg.Polymarket.ClobHost,
		cfg.Polymarket.RequestTimeout.Duration,
		cfg.Polymarket.PriceConcurrency,
		priceCache,
		logger,
	)
	search := tavily.NewClient(
		cfg.Search.BaseURL,
		cfg.Search.ApiKey,
		cfg.Search.MaxResults,
		cfg.Search.RequestTimeout.Duration,
		logger,
	)
	model := zai.NewClient(
		cfg.Model.BaseURL,
		cfg.Model.ApiKey,
		cfg.Model.Model,
		cfg.Model.Temperature,
		cfg.Model.RequestTimeout.Duration,
		logger,
	)

	// --- Estimation and ranking ---
	assessor := analyzer.New(model, analyzer.Config{
		Concurrency:   cfg.Model.Concurrency,
		EdgeThreshold: cfg.Suggest.EdgeThreshold,
		MaxAttempts:   cfg.Model.MaxAttempts,
		BaseDelay:     cfg.Model.BaseDelay.Duration,
		MaxDelay:      cfg.Model.MaxDelay.Duration,
	}, logger)

	engine := suggest.NewEngine(
		cfg.Suggest.MinConfidence,
		cfg.Suggest.MinEdge,
		cfg.Suggest.MinVolume,
		logger,
	)

	deps.Ledger = ledger.New(cfg.Pipeline.ResultsDir, logger)

	// --- S3 blob storage (optional snapshot archival) ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.Archiver = s3blob.NewArchiver(s3Client, cfg.S3.Prefix, logger)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Pipeline ---
	var archiver pipeline.Archiver
	if deps.Archiver != nil {
		archiver = deps.Archiver
	}
	deps.Runner = pipeline.NewRunner(
		gamma,
		clob,
		search,
		assessor,
		engine,
		deps.Ledger,
		archiver,
		deps.Notifier,
		pipeline.Config{
			MaxEvents:       cfg.Polymarket.MaxEvents,
			MaxResults:      cfg.Search.MaxResults,
			MaxSuggestions:  cfg.Suggest.MaxSuggestions,
			IncludeAnalyzed: cfg.Pipeline.IncludeAnalyzed,
		},
		logger,
	)

	return deps, cleanup, nil
}
