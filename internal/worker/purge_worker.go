package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/stockroom/internal/domain"
	"github.com/yourorg/stockroom/internal/observability/metrics"
)

// PurgeWorker periodically hard-deletes products that were soft-deleted and
// have aged past the retention window. This is the only caller of the
// permanent delete path outside of tests; the user-facing delete is always
// soft.
type PurgeWorker struct {
	products  domain.ProductRepository
	logger    *slog.Logger
	interval  time.Duration
	retention time.Duration
}

// NewPurgeWorker creates a new purge worker.
func NewPurgeWorker(
	products domain.ProductRepository,
	logger *slog.Logger,
	interval time.Duration,
	retention time.Duration,
) *PurgeWorker {
	if logger == nil {
		logger = slog.Default()
	}

	return &PurgeWorker{
		products:  products,
		logger:    logger,
		interval:  interval,
		retention: retention,
	}
}

// Start begins the purge loop. Runs until the context is cancelled.
func (w *PurgeWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("purge worker started",
		slog.Duration("interval", w.interval),
		slog.Duration("retention", w.retention),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("purge worker stopped")
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				w.logger.Error("purge run failed", slog.String("error", err.Error()))
			}
		}
	}
}

// RunOnce performs a single purge pass and returns how many rows were
// removed.
func (w *PurgeWorker) RunOnce(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-w.retention)

	removed, err := w.products.PurgeInactive(ctx, cutoff)
	if err != nil {
		metrics.ObservePurge("error", 0)
		return 0, err
	}

	metrics.ObservePurge("ok", removed)
	if removed > 0 {
		w.logger.Info("purged soft-deleted products",
			slog.Int64("removed", removed),
			slog.Time("cutoff", cutoff),
		)
	}
	return removed, nil
}
