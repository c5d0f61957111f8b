package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/alanyoungcy/polyscout/internal/suggest"
)

// RunMode executes a single research-and-ranking run and prints the
// suggestion report to stdout.
func (a *App) RunMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting run mode")

	snap, err := deps.Runner.RunOnce(ctx)
	if err != nil {
		return fmt.Errorf("app: run: %w", err)
	}

	fmt.Fprintln(os.Stdout, suggest.Report(snap.Suggestions))
	return nil
}

// WatchMode runs the pipeline on the configured interval until the context
// is cancelled. When archival is enabled it first syncs the results
// directory with the bucket: restore pulls down snapshots a previous host
// archived, backfill uploads local ones that never made it up.
func (a *App) WatchMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting watch mode",
		slog.Duration("interval", a.cfg.Pipeline.ScanInterval.Duration),
	)

	if deps.Archiver != nil {
		if _, err := deps.Archiver.Restore(ctx, deps.Ledger.Dir()); err != nil {
			a.logger.Warn("snapshot restore failed", slog.String("error", err.Error()))
		}
		if _, err := deps.Archiver.Backfill(ctx, deps.Ledger.Dir()); err != nil {
			a.logger.Warn("snapshot backfill failed", slog.String("error", err.Error()))
		}
	}

	err := deps.Runner.RunLoop(ctx, a.cfg.Pipeline.ScanInterval.Duration)
	if errors.Is(err, context.Canceled) {
		return nil // clean shutdown
	}
	return err
}
