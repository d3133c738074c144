package usage

import (
	"context"
	"time"
)

// Repository defines durable operations on the usage ledger
type Repository interface {
	// Insert appends one entry to the ledger
	Insert(ctx context.Context, log *Log) error

	// TotalTokens returns the sum of tokens_used across all entries for a user (0 if none)
	TotalTokens(ctx context.Context, userID string) (int64, error)

	// UsageByModel returns per-model aggregates for a user, sorted by total_tokens descending
	UsageByModel(ctx context.Context, userID string) ([]*ModelUsage, error)

	// AggregateStats summarizes activity over a trailing time window
	AggregateStats(ctx context.Context, window time.Duration) (*AggregateStats, error)

	// ListRecent returns a user's newest entries, newest first
	ListRecent(ctx context.Context, userID string, limit int) ([]*Log, error)
}
