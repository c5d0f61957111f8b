package pipeline

import (
	"context"
	"log/slog"
	"time"
)

// RunLoop executes RunOnce immediately, then again on every tick until the
// context is cancelled. A failed run is logged and the loop keeps going; the
// ledger guarantees the next tick does not redo completed work.
func (r *Runner) RunLoop(ctx context.Context, interval time.Duration) error {
	r.logger.Info("watch loop starting", slog.Duration("interval", interval))

	if _, err := r.RunOnce(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.logger.Error("run failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("watch loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.logger.Error("run failed", slog.String("error", err.Error()))
			}
		}
	}
}
