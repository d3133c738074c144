package catalog

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/lib/pq"

	"clubhub/internal/adapters/openrouter"
	"clubhub/internal/domain/catalog"
	"clubhub/internal/metrics"
	"clubhub/pkg/logger"
)

// CatalogAPI is the external model-catalog endpoint consumed by the sync
type CatalogAPI interface {
	ListModels(ctx context.Context) ([]openrouter.ModelRecord, error)
}

// SyncService mirrors the external catalog into the local store.
//
// Only one sync runs at a time per process: a request arriving while one
// is in flight is a no-op that returns immediately. Every attempt writes
// exactly one sync-log row, successful or not. No retries; a failed sync
// leaves the stale catalog in place until the next attempt.
type SyncService struct {
	api      CatalogAPI
	models   catalog.Repository
	syncLogs catalog.SyncLogRepository
	log      *logger.Logger
	running  atomic.Bool
}

// NewSyncService creates a new catalog synchronizer
func NewSyncService(
	api CatalogAPI,
	models catalog.Repository,
	syncLogs catalog.SyncLogRepository,
	log *logger.Logger,
) *SyncService {
	return &SyncService{
		api:      api,
		models:   models,
		syncLogs: syncLogs,
		log:      log.With("service", "catalog_sync"),
	}
}

// IsRunning reports whether a sync is currently in flight
func (s *SyncService) IsRunning() bool {
	return s.running.Load()
}

// LastSync returns the most recent audit row
func (s *SyncService) LastSync(ctx context.Context) (*catalog.SyncLog, error) {
	return s.syncLogs.Latest(ctx)
}

// RecentSyncs returns the newest audit rows, newest first
func (s *SyncService) RecentSyncs(ctx context.Context, limit int) ([]*catalog.SyncLog, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.syncLogs.ListRecent(ctx, limit)
}

// TriggerManual runs one sync outside the schedule.
// Returns false without blocking when a sync is already running.
func (s *SyncService) TriggerManual(ctx context.Context) bool {
	if s.running.Load() {
		s.log.Info("Manual sync requested while another sync is running, skipping")
		return false
	}
	s.log.Info("Manual catalog sync triggered")
	return s.Sync(ctx)
}

// Sync fetches the authoritative model list, upserts valid records, purges
// deprecated rows and writes one audit row. Returns true only when the
// whole pass succeeded.
func (s *SyncService) Sync(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Debug("Sync already in progress, skipping")
		return false
	}
	defer s.running.Store(false)

	start := time.Now()
	entry := &catalog.SyncLog{
		SyncType: catalog.SyncTypeFull,
	}

	records, err := s.api.ListModels(ctx)
	if err != nil {
		s.log.Errorw("Catalog fetch failed", "error", err)
		s.finish(ctx, entry, start, err)
		return false
	}
	entry.ModelsFetched = len(records)

	for _, record := range records {
		if !validRecord(record) {
			continue
		}

		model := toModel(record)

		// Classify before writing so the upsert can't hide newness
		exists, err := s.models.Exists(ctx, model.ID)
		if err != nil {
			s.log.Errorw("Failed to check model existence", "model", model.ID, "error", err)
			continue
		}

		if err := s.models.Upsert(ctx, model); err != nil {
			s.log.Errorw("Failed to upsert model", "model", model.ID, "error", err)
			continue
		}

		if exists {
			entry.ModelsUpdated++
		} else {
			entry.ModelsAdded++
		}
	}

	removed, err := s.models.RemoveDeprecated(ctx)
	if err != nil {
		s.log.Errorw("Failed to remove deprecated models", "error", err)
		s.finish(ctx, entry, start, err)
		return false
	}
	entry.ModelsRemoved = int(removed)

	s.finish(ctx, entry, start, nil)

	s.log.Infow("Catalog sync completed",
		"fetched", entry.ModelsFetched,
		"added", entry.ModelsAdded,
		"updated", entry.ModelsUpdated,
		"removed", entry.ModelsRemoved,
		"duration_ms", entry.DurationMs,
	)

	return true
}

// finish stamps the log entry and appends it to the audit trail
func (s *SyncService) finish(ctx context.Context, entry *catalog.SyncLog, start time.Time, syncErr error) {
	entry.DurationMs = time.Since(start).Milliseconds()
	entry.Success = syncErr == nil
	entry.CreatedAt = time.Now().UTC()

	status := "success"
	if syncErr != nil {
		msg := syncErr.Error()
		entry.ErrorMessage = &msg
		status = "error"
	}

	metrics.CatalogSyncs.WithLabelValues(status).Inc()
	metrics.CatalogSyncDuration.Observe(time.Since(start).Seconds())

	if err := s.syncLogs.Insert(ctx, entry); err != nil {
		// Audit failures are logged, never escalated
		s.log.Errorw("Failed to write sync log", "error", err)
	}
}

// validRecord keeps only complete, active, non-deprecated descriptors.
// Invalid entries are discarded silently per the sync contract.
func validRecord(r openrouter.ModelRecord) bool {
	if r.ID == "" || r.Name == "" {
		return false
	}
	if r.Deprecated {
		return false
	}
	// The API omits status for active models
	if r.Status != "" && r.Status != catalog.StatusActive {
		return false
	}
	return true
}

// toModel converts a wire record into a catalog entry
func toModel(r openrouter.ModelRecord) *catalog.Model {
	status := r.Status
	if status == "" {
		status = catalog.StatusActive
	}

	return &catalog.Model{
		ID:                r.ID,
		Name:              r.Name,
		Description:       r.Description,
		ContextLength:     r.ContextLength,
		PricingPrompt:     r.Pricing.Prompt,
		PricingCompletion: r.Pricing.Completion,
		Modality:          r.Architecture.Modality,
		Tokenizer:         r.Architecture.Tokenizer,
		IsModerated:       r.TopProvider.IsModerated,
		Tags:              pq.StringArray(r.Tags),
		Status:            status,
		Deprecated:        r.Deprecated,
		LastUpdated:       time.Now().UTC(),
	}
}
