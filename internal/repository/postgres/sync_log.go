package postgres

import (
	"context"
	"database/sql"

	"clubhub/internal/domain/catalog"
	pkgerrors "clubhub/pkg/errors"
)

// Compile-time check
var _ catalog.SyncLogRepository = (*SyncLogRepository)(nil)

// SyncLogRepository implements catalog.SyncLogRepository using sqlx.
// The model_sync_logs table is an append-only audit trail.
type SyncLogRepository struct {
	db DBTX
}

// NewSyncLogRepository creates a new sync log repository
func NewSyncLogRepository(db DBTX) *SyncLogRepository {
	return &SyncLogRepository{db: db}
}

// Insert appends one sync-log row and backfills the generated id
func (r *SyncLogRepository) Insert(ctx context.Context, log *catalog.SyncLog) error {
	query := `
		INSERT INTO model_sync_logs (
			sync_type, models_fetched, models_added, models_updated,
			models_removed, duration_ms, success, error_message, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		log.SyncType, log.ModelsFetched, log.ModelsAdded, log.ModelsUpdated,
		log.ModelsRemoved, log.DurationMs, log.Success, log.ErrorMessage,
		log.CreatedAt,
	).Scan(&log.ID)

	if err != nil {
		return pkgerrors.Wrap(err, "failed to insert sync log")
	}

	return nil
}

// Latest returns the most recent sync-log row
func (r *SyncLogRepository) Latest(ctx context.Context) (*catalog.SyncLog, error) {
	query := `
		SELECT id, sync_type, models_fetched, models_added, models_updated,
			models_removed, duration_ms, success, error_message, created_at
		FROM model_sync_logs
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	var log catalog.SyncLog
	err := r.db.GetContext(ctx, &log, query)
	if err == sql.ErrNoRows {
		return nil, pkgerrors.Wrap(pkgerrors.ErrNotFound, "no sync has run yet")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to get latest sync log")
	}

	return &log, nil
}

// ListRecent returns the newest rows, newest first
func (r *SyncLogRepository) ListRecent(ctx context.Context, limit int) ([]*catalog.SyncLog, error) {
	query := `
		SELECT id, sync_type, models_fetched, models_added, models_updated,
			models_removed, duration_ms, success, error_message, created_at
		FROM model_sync_logs
		ORDER BY created_at DESC, id DESC
		LIMIT $1`

	var logs []*catalog.SyncLog
	if err := r.db.SelectContext(ctx, &logs, query, limit); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list sync logs")
	}

	return logs, nil
}
