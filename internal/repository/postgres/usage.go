package postgres

import (
	"context"
	"time"

	"clubhub/internal/domain/usage"
	pkgerrors "clubhub/pkg/errors"
)

// Compile-time check
var _ usage.Repository = (*UsageRepository)(nil)

// UsageRepository implements usage.Repository using sqlx.
// The usage_logs table is append-only; no method mutates existing rows.
type UsageRepository struct {
	db DBTX
}

// NewUsageRepository creates a new usage ledger repository
func NewUsageRepository(db DBTX) *UsageRepository {
	return &UsageRepository{db: db}
}

// Insert appends one entry to the ledger
func (r *UsageRepository) Insert(ctx context.Context, log *usage.Log) error {
	query := `
		INSERT INTO usage_logs (
			id, user_id, tokens_used, model, request_type, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)`

	_, err := r.db.ExecContext(ctx, query,
		log.ID, log.UserID, log.TokensUsed,
		log.Model, log.RequestType, log.CreatedAt,
	)

	if err != nil {
		return pkgerrors.Wrap(err, "failed to insert usage log")
	}

	return nil
}

// TotalTokens returns the sum of tokens_used for a user, 0 if none
func (r *UsageRepository) TotalTokens(ctx context.Context, userID string) (int64, error) {
	query := `
		SELECT COALESCE(SUM(tokens_used), 0)
		FROM usage_logs
		WHERE user_id = $1`

	var total int64
	if err := r.db.GetContext(ctx, &total, query, userID); err != nil {
		return 0, pkgerrors.Wrap(err, "failed to sum usage")
	}

	return total, nil
}

// UsageByModel returns per-model aggregates sorted by total tokens descending
func (r *UsageRepository) UsageByModel(ctx context.Context, userID string) ([]*usage.ModelUsage, error) {
	query := `
		SELECT model,
			SUM(tokens_used)  AS total_tokens,
			COUNT(*)          AS request_count,
			MAX(created_at)   AS last_used
		FROM usage_logs
		WHERE user_id = $1
		GROUP BY model
		ORDER BY total_tokens DESC`

	var rows []*usage.ModelUsage
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to aggregate usage by model")
	}

	return rows, nil
}

// AggregateStats summarizes ledger activity since now-window
func (r *UsageRepository) AggregateStats(ctx context.Context, window time.Duration) (*usage.AggregateStats, error) {
	query := `
		SELECT COUNT(DISTINCT user_id)            AS active_users,
			COALESCE(SUM(tokens_used), 0)         AS total_tokens,
			COUNT(*)                              AS total_requests,
			COALESCE(AVG(tokens_used), 0)         AS avg_tokens_per_request
		FROM usage_logs
		WHERE created_at >= $1`

	var stats usage.AggregateStats
	cutoff := time.Now().Add(-window)
	if err := r.db.GetContext(ctx, &stats, query, cutoff); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to compute aggregate stats")
	}

	return &stats, nil
}

// ListRecent returns a user's newest entries, newest first
func (r *UsageRepository) ListRecent(ctx context.Context, userID string, limit int) ([]*usage.Log, error) {
	query := `
		SELECT id, user_id, tokens_used, model, request_type, created_at
		FROM usage_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	var logs []*usage.Log
	if err := r.db.SelectContext(ctx, &logs, query, userID, limit); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list recent usage")
	}

	return logs, nil
}
