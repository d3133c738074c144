package catalog

import "context"

// Repository defines durable operations on the model catalog
type Repository interface {
	// Upsert inserts or replaces a model keyed by id
	Upsert(ctx context.Context, model *Model) error

	// GetByID retrieves a model by its id
	GetByID(ctx context.Context, id string) (*Model, error)

	// Exists reports whether a model id is already in the catalog
	Exists(ctx context.Context, id string) (bool, error)

	// ListFree returns all free models ordered by name
	ListFree(ctx context.Context) ([]*Model, error)

	// ListPaid returns up to limit paid models ordered by name
	ListPaid(ctx context.Context, limit int) ([]*Model, error)

	// Search matches query as a substring over name, description and tags
	Search(ctx context.Context, query string) ([]*Model, error)

	// RemoveDeprecated deletes models that are deprecated or no longer active
	// and returns the number of rows removed
	RemoveDeprecated(ctx context.Context) (int64, error)

	// Count returns the catalog size
	Count(ctx context.Context) (int64, error)
}

// SyncLogRepository records catalog sync attempts
type SyncLogRepository interface {
	// Insert appends one sync-log row
	Insert(ctx context.Context, log *SyncLog) error

	// Latest returns the most recent sync-log row
	Latest(ctx context.Context) (*SyncLog, error)

	// ListRecent returns the newest rows, newest first
	ListRecent(ctx context.Context, limit int) ([]*SyncLog, error)
}
