package catalog

import "time"

// Sync types recorded in the sync log
const (
	SyncTypeFull        = "full"
	SyncTypeIncremental = "incremental"
)

// SyncLog is one row of the append-only sync audit trail.
// Exactly one row is written per sync attempt, successful or not.
type SyncLog struct {
	ID            int64     `db:"id"`
	SyncType      string    `db:"sync_type"`
	ModelsFetched int       `db:"models_fetched"`
	ModelsAdded   int       `db:"models_added"`
	ModelsUpdated int       `db:"models_updated"`
	ModelsRemoved int       `db:"models_removed"`
	DurationMs    int64     `db:"duration_ms"`
	Success       bool      `db:"success"`
	ErrorMessage  *string   `db:"error_message"`
	CreatedAt     time.Time `db:"created_at"`
}
