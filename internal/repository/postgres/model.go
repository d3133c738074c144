package postgres

import (
	"context"
	"database/sql"

	"clubhub/internal/domain/catalog"
	pkgerrors "clubhub/pkg/errors"
)

// Compile-time check
var _ catalog.Repository = (*ModelRepository)(nil)

// ModelRepository implements catalog.Repository using sqlx
type ModelRepository struct {
	db DBTX
}

// NewModelRepository creates a new model catalog repository
func NewModelRepository(db DBTX) *ModelRepository {
	return &ModelRepository{db: db}
}

const modelColumns = `
	id, name, description, context_length,
	pricing_prompt, pricing_completion, modality, tokenizer,
	is_moderated, tags, status, deprecated, is_free, last_updated`

// Upsert inserts or replaces a model keyed by id.
// The derived is_free flag is recomputed from pricing before writing.
func (r *ModelRepository) Upsert(ctx context.Context, model *catalog.Model) error {
	model.ComputeIsFree()

	query := `
		INSERT INTO models (
			id, name, description, context_length,
			pricing_prompt, pricing_completion, modality, tokenizer,
			is_moderated, tags, status, deprecated, is_free, last_updated
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)
		ON CONFLICT (id) DO UPDATE SET
			name               = EXCLUDED.name,
			description        = EXCLUDED.description,
			context_length     = EXCLUDED.context_length,
			pricing_prompt     = EXCLUDED.pricing_prompt,
			pricing_completion = EXCLUDED.pricing_completion,
			modality           = EXCLUDED.modality,
			tokenizer          = EXCLUDED.tokenizer,
			is_moderated       = EXCLUDED.is_moderated,
			tags               = EXCLUDED.tags,
			status             = EXCLUDED.status,
			deprecated         = EXCLUDED.deprecated,
			is_free            = EXCLUDED.is_free,
			last_updated       = EXCLUDED.last_updated`

	_, err := r.db.ExecContext(ctx, query,
		model.ID, model.Name, model.Description, model.ContextLength,
		model.PricingPrompt, model.PricingCompletion, model.Modality, model.Tokenizer,
		model.IsModerated, model.Tags, model.Status, model.Deprecated,
		model.IsFree, model.LastUpdated,
	)

	if err != nil {
		return pkgerrors.Wrapf(err, "failed to upsert model %s", model.ID)
	}

	return nil
}

// GetByID retrieves a model by its id
func (r *ModelRepository) GetByID(ctx context.Context, id string) (*catalog.Model, error) {
	query := `SELECT ` + modelColumns + ` FROM models WHERE id = $1`

	var model catalog.Model
	err := r.db.GetContext(ctx, &model, query, id)
	if err == sql.ErrNoRows {
		return nil, pkgerrors.Wrapf(pkgerrors.ErrNotFound, "model %s", id)
	}
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get model %s", id)
	}

	return &model, nil
}

// Exists reports whether a model id is already in the catalog
func (r *ModelRepository) Exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM models WHERE id = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, pkgerrors.Wrapf(err, "failed to check model %s", id)
	}

	return exists, nil
}

// ListFree returns all active free models ordered by name
func (r *ModelRepository) ListFree(ctx context.Context) ([]*catalog.Model, error) {
	query := `
		SELECT ` + modelColumns + `
		FROM models
		WHERE is_free = TRUE AND status = $1
		ORDER BY name`

	var models []*catalog.Model
	if err := r.db.SelectContext(ctx, &models, query, catalog.StatusActive); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list free models")
	}

	return models, nil
}

// ListPaid returns up to limit active paid models ordered by name
func (r *ModelRepository) ListPaid(ctx context.Context, limit int) ([]*catalog.Model, error) {
	query := `
		SELECT ` + modelColumns + `
		FROM models
		WHERE is_free = FALSE AND status = $1
		ORDER BY name
		LIMIT $2`

	var models []*catalog.Model
	if err := r.db.SelectContext(ctx, &models, query, catalog.StatusActive, limit); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list paid models")
	}

	return models, nil
}

// Search matches query as a case-insensitive substring over name,
// description and tags
func (r *ModelRepository) Search(ctx context.Context, query string) ([]*catalog.Model, error) {
	stmt := `
		SELECT ` + modelColumns + `
		FROM models
		WHERE status = $1 AND (
			name ILIKE '%' || $2 || '%'
			OR description ILIKE '%' || $2 || '%'
			OR EXISTS (
				SELECT 1 FROM unnest(tags) AS tag
				WHERE tag ILIKE '%' || $2 || '%'
			)
		)
		ORDER BY name`

	var models []*catalog.Model
	if err := r.db.SelectContext(ctx, &models, stmt, catalog.StatusActive, query); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to search models for %q", query)
	}

	return models, nil
}

// RemoveDeprecated deletes models that are deprecated or no longer active
func (r *ModelRepository) RemoveDeprecated(ctx context.Context) (int64, error) {
	query := `DELETE FROM models WHERE deprecated = TRUE OR status != $1`

	result, err := r.db.ExecContext(ctx, query, catalog.StatusActive)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "failed to remove deprecated models")
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, pkgerrors.Wrap(err, "failed to count removed models")
	}

	return removed, nil
}

// Count returns the catalog size
func (r *ModelRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM models`); err != nil {
		return 0, pkgerrors.Wrap(err, "failed to count models")
	}

	return count, nil
}
