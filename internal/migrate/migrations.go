package migrate

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// All returns the full ordered migration list for the platform core.
// Never renumber or edit an applied migration; append a new version instead.
func All() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_usage_logs",
			Apply: func(ctx context.Context, tx *sqlx.Tx) error {
				_, err := tx.ExecContext(ctx, `
					CREATE TABLE usage_logs (
						id           UUID PRIMARY KEY,
						user_id      TEXT NOT NULL,
						tokens_used  INTEGER NOT NULL CHECK (tokens_used >= 0),
						model        TEXT NOT NULL,
						request_type TEXT NOT NULL,
						created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
					);
					CREATE INDEX idx_usage_logs_user_id ON usage_logs (user_id);
					CREATE INDEX idx_usage_logs_created_at ON usage_logs (created_at);
				`)
				return err
			},
		},
		{
			Version: 2,
			Name:    "create_models",
			Apply: func(ctx context.Context, tx *sqlx.Tx) error {
				_, err := tx.ExecContext(ctx, `
					CREATE TABLE models (
						id                 TEXT PRIMARY KEY,
						name               TEXT NOT NULL,
						description        TEXT NOT NULL DEFAULT '',
						context_length     INTEGER NOT NULL DEFAULT 0,
						pricing_prompt     TEXT NOT NULL DEFAULT '0',
						pricing_completion TEXT NOT NULL DEFAULT '0',
						modality           TEXT NOT NULL DEFAULT '',
						tokenizer          TEXT NOT NULL DEFAULT '',
						is_moderated       BOOLEAN NOT NULL DEFAULT FALSE,
						tags               TEXT[] NOT NULL DEFAULT '{}',
						status             TEXT NOT NULL DEFAULT 'active',
						deprecated         BOOLEAN NOT NULL DEFAULT FALSE,
						is_free            BOOLEAN NOT NULL DEFAULT FALSE,
						last_updated       TIMESTAMPTZ NOT NULL DEFAULT NOW()
					);
					CREATE INDEX idx_models_is_free ON models (is_free) WHERE status = 'active';
				`)
				return err
			},
		},
		{
			Version: 3,
			Name:    "create_model_sync_logs",
			Apply: func(ctx context.Context, tx *sqlx.Tx) error {
				_, err := tx.ExecContext(ctx, `
					CREATE TABLE model_sync_logs (
						id             BIGSERIAL PRIMARY KEY,
						sync_type      TEXT NOT NULL,
						models_fetched INTEGER NOT NULL DEFAULT 0,
						models_added   INTEGER NOT NULL DEFAULT 0,
						models_updated INTEGER NOT NULL DEFAULT 0,
						models_removed INTEGER NOT NULL DEFAULT 0,
						duration_ms    BIGINT NOT NULL DEFAULT 0,
						success        BOOLEAN NOT NULL,
						error_message  TEXT,
						created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
					);
					CREATE INDEX idx_model_sync_logs_created_at ON model_sync_logs (created_at DESC);
				`)
				return err
			},
		},
		{
			Version: 4,
			Name:    "add_usage_logs_user_created_idx",
			Apply: func(ctx context.Context, tx *sqlx.Tx) error {
				// Composite index for per-user aggregation queries
				_, err := tx.ExecContext(ctx, `
					CREATE INDEX idx_usage_logs_user_created
						ON usage_logs (user_id, created_at DESC);
				`)
				return err
			},
		},
	}
}
