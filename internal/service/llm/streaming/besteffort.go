package streaming

import (
	"context"
	"log/slog"
	"time"
)

// bestEffort runs fn and logs its outcome. Failures never reach the caller.
func bestEffort(ctx context.Context, logger *slog.Logger, name string, fn func(ctx context.Context) error) {
	started := time.Now()
	if err := fn(ctx); err != nil {
		logger.Warn("best-effort step failed", "step", name, "error", err)
		return
	}
	logger.Debug("best-effort step done", "step", name, "duration", time.Since(started))
}
