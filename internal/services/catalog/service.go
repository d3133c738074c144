package catalog

import (
	"context"

	"clubhub/internal/domain/catalog"
	"clubhub/pkg/logger"
)

// DefaultPaidModelsLimit caps the paid-model listing shown to users
const DefaultPaidModelsLimit = 50

// Service exposes read access to the mirrored model catalog.
// The catalog is owned by the sync service; nothing here originates data.
type Service struct {
	repo catalog.Repository
	log  *logger.Logger
}

// NewService creates a new catalog service
func NewService(repo catalog.Repository, log *logger.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With("service", "catalog"),
	}
}

// GetModel retrieves one model by id
func (s *Service) GetModel(ctx context.Context, id string) (*catalog.Model, error) {
	return s.repo.GetByID(ctx, id)
}

// GetFreeModels returns all active free models
func (s *Service) GetFreeModels(ctx context.Context) ([]*catalog.Model, error) {
	return s.repo.ListFree(ctx)
}

// GetPaidModels returns up to limit active paid models
func (s *Service) GetPaidModels(ctx context.Context, limit int) ([]*catalog.Model, error) {
	if limit <= 0 {
		limit = DefaultPaidModelsLimit
	}
	return s.repo.ListPaid(ctx, limit)
}

// SearchModels matches query over model names, descriptions and tags
func (s *Service) SearchModels(ctx context.Context, query string) ([]*catalog.Model, error) {
	if query == "" {
		return []*catalog.Model{}, nil
	}
	return s.repo.Search(ctx, query)
}

// Count returns the catalog size
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}
