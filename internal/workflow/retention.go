package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tinywideclouds/go-notification-relay/internal/metrics"
	"github.com/tinywideclouds/go-notification-relay/pkg/dispatch"
)

// DefaultRetentionWindow is how long records are kept before retention deletes them.
const DefaultRetentionWindow = 7 * 24 * time.Hour

// Retention deletes notification records older than its window.
type Retention struct {
	records dispatch.RecordStore
	window  time.Duration
	now     func() time.Time
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewRetention(records dispatch.RecordStore, window time.Duration, m *metrics.Metrics, logger *slog.Logger) *Retention {
	if window <= 0 {
		window = DefaultRetentionWindow
	}
	return &Retention{
		records: records,
		window:  window,
		now:     time.Now,
		metrics: m,
		logger:  logger.With("component", "Retention"),
	}
}

// WithClock replaces the time source. Used by tests.
func (r *Retention) WithClock(now func() time.Time) *Retention {
	r.now = now
	return r
}

// Run deletes every record created strictly before now minus the window
// and returns how many were deleted.
func (r *Retention) Run(ctx context.Context) (int, error) {
	cutoff := r.now().Add(-r.window)
	log := r.logger.With("run_id", uuid.NewString(), "cutoff", cutoff.UTC().Format(time.RFC3339))

	ids, err := r.records.StaleIDs(ctx, cutoff)
	if err != nil {
		r.metrics.RetentionRuns.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("failed to query stale notifications: %w", err)
	}

	if len(ids) == 0 {
		log.Info("No old notifications to delete")
		r.metrics.RetentionRuns.WithLabelValues("noop").Inc()
		return 0, nil
	}

	if err := r.records.DeleteRecords(ctx, ids); err != nil {
		r.metrics.RetentionRuns.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("failed to delete %d stale notifications: %w", len(ids), err)
	}

	r.metrics.RecordsDeleted.Add(float64(len(ids)))
	r.metrics.RetentionRuns.WithLabelValues("deleted").Inc()
	log.Info("Deleted old notifications", "count", len(ids))
	return len(ids), nil
}
