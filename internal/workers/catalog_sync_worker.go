package workers

import (
	"context"
	"time"

	"clubhub/internal/metrics"
	catalogservice "clubhub/internal/services/catalog"
	"clubhub/pkg/errors"
)

// CatalogSyncWorker periodically refreshes the model catalog from the
// external API. The sync service itself guards against overlapping runs,
// so a slow sync simply makes the next tick a no-op.
type CatalogSyncWorker struct {
	*BaseWorker
	sync    *catalogservice.SyncService
	catalog *catalogservice.Service
}

// NewCatalogSyncWorker creates a new catalog sync worker
func NewCatalogSyncWorker(
	sync *catalogservice.SyncService,
	catalog *catalogservice.Service,
	interval time.Duration,
	enabled bool,
) *CatalogSyncWorker {
	return &CatalogSyncWorker{
		BaseWorker: NewBaseWorker("catalog_sync", interval, enabled),
		sync:       sync,
		catalog:    catalog,
	}
}

// Run executes one catalog sync pass
func (w *CatalogSyncWorker) Run(ctx context.Context) error {
	ok := w.sync.Sync(ctx)

	if count, err := w.catalog.Count(ctx); err == nil {
		metrics.CatalogModels.Set(float64(count))
	} else {
		w.Log().Warnw("Failed to read catalog size", "error", err)
	}

	var runErr error
	if !ok {
		// The sync service already logged the cause and wrote its audit
		// row; the scheduler only needs to know the run did not complete.
		runErr = errors.Wrap(errors.ErrExternal, "catalog sync did not complete")
	}

	w.RecordRun(runErr)
	return runErr
}
