// Package janitor prunes stream handles on a cron schedule.
package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/adhocore/gronx"
)

// StreamPruner deletes stream handles created before cutoff.
type StreamPruner interface {
	DeleteStreamsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Janitor runs Prune at every tick of a cron expression.
type Janitor struct {
	streams   StreamPruner
	schedule  string
	retention time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// New validates the schedule and returns a janitor.
func New(streams StreamPruner, schedule string, retention time.Duration, logger *slog.Logger) (*Janitor, error) {
	if !gronx.IsValid(schedule) {
		return nil, fmt.Errorf("invalid prune schedule %q", schedule)
	}
	if retention <= 0 {
		return nil, fmt.Errorf("stream retention must be positive, got %s", retention)
	}
	return &Janitor{
		streams:   streams,
		schedule:  schedule,
		retention: retention,
		now:       time.Now,
		logger:    logger,
	}, nil
}

// Run blocks until ctx is cancelled, pruning at each scheduled tick.
func (j *Janitor) Run(ctx context.Context) {
	j.logger.Info("stream janitor started", "schedule", j.schedule, "retention", j.retention)
	for {
		next, err := gronx.NextTickAfter(j.schedule, j.now().UTC(), false)
		if err != nil {
			// Only reachable with an expression gronx validated but cannot step.
			j.logger.Error("next tick failed", "schedule", j.schedule, "error", err)
			return
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			j.logger.Info("stream janitor stopped")
			return
		case <-timer.C:
			if _, err := j.Prune(ctx); err != nil {
				j.logger.Error("stream prune failed", "error", err)
			}
		}
	}
}

// Prune deletes handles older than the retention period.
func (j *Janitor) Prune(ctx context.Context) (int64, error) {
	cutoff := j.now().Add(-j.retention)
	n, err := j.streams.DeleteStreamsBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	j.logger.Info("stream handles pruned", "count", n, "cutoff", cutoff)
	return n, nil
}
