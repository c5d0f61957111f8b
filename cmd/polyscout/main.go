// Command polyscout researches Polymarket prediction markets and ranks
// trading suggestions. It loads configuration, validates it, wires
// dependencies, sets up signal handling, and starts the application in the
// configured mode.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alanyoungcy/polyscout/internal/app"
	"github.com/alanyoungcy/polyscout/internal/config"
)

func main() {
	var (
		configPath      = flag.String("config", "config.toml", "path to configuration file")
		mode            = flag.String("mode", "", "operating mode: run or watch (overrides config)")
		maxEvents       = flag.Int("events", 0, "maximum events to analyze (overrides config)")
		maxMarkets      = flag.Int("markets", 0, "maximum markets per event (overrides config)")
		minConfidence   = flag.Int("confidence", 0, "minimum confidence for suggestions (overrides config)")
		minEdge         = flag.Float64("edge", 0, "minimum edge for suggestions (overrides config)")
		resultsDir      = flag.String("output", "", "results directory (overrides config)")
		includeAnalyzed = flag.Bool("include-analyzed", false, "include previously analyzed events")
	)
	flag.Parse()

	// Setup structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration.
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config",
			slog.String("path", *configPath),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// Apply CLI overrides on top of file + environment.
	if *mode != "" {
		cfg.Mode = *mode
	}
	if *maxEvents > 0 {
		cfg.Polymarket.MaxEvents = *maxEvents
	}
	if *maxMarkets > 0 {
		cfg.Polymarket.MaxMarketsPerEvent = *maxMarkets
	}
	if *minConfidence > 0 {
		cfg.Suggest.MinConfidence = *minConfidence
	}
	if *minEdge > 0 {
		cfg.Suggest.MinEdge = *minEdge
	}
	if *resultsDir != "" {
		cfg.Pipeline.ResultsDir = *resultsDir
	}
	if *includeAnalyzed {
		cfg.Pipeline.IncludeAnalyzed = true
	}

	// Set log level from config.
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("polyscout starting",
		slog.String("mode", cfg.Mode),
		slog.String("config", *configPath),
	)

	// Create the application.
	application := app.New(cfg, logger)
	defer application.Close()

	// Setup signal handling for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run the application.
	if err := application.Run(ctx); err != nil {
		// context.Canceled is expected on clean shutdown.
		if errors.Is(err, context.Canceled) {
			logger.Info("application shut down gracefully")
		} else {
			logger.Error("application exited with error",
				slog.String("error", err.Error()),
			)
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			os.Exit(1)
		}
	}

	logger.Info("polyscout stopped")
}
