package janitor

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

type recordingPruner struct {
	cutoffs []time.Time
}

func (r *recordingPruner) DeleteStreamsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.cutoffs = append(r.cutoffs, cutoff)
	return 3, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name      string
		schedule  string
		retention time.Duration
	}{
		{"bad cron", "every hour", time.Hour},
		{"zero retention", "0 * * * *", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(&recordingPruner{}, tt.schedule, tt.retention, discard()); err == nil {
				t.Error("New() error = nil")
			}
		})
	}
}

func TestPruneUsesRetention(t *testing.T) {
	pruner := &recordingPruner{}
	j, err := New(pruner, "0 * * * *", 24*time.Hour, discard())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return now }

	n, err := j.Prune(context.Background())
	if err != nil || n != 3 {
		t.Fatalf("Prune() = %d, %v", n, err)
	}
	if want := now.Add(-24 * time.Hour); !pruner.cutoffs[0].Equal(want) {
		t.Errorf("cutoff = %v, want %v", pruner.cutoffs[0], want)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	j, err := New(&recordingPruner{}, "0 0 1 1 *", time.Hour, discard())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
