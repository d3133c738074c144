package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"clubhub/internal/domain/catalog"
	"clubhub/pkg/logger"
)

func TestService_SearchModels_EmptyQuery(t *testing.T) {
	repo := new(MockModelRepository)
	service := NewService(repo, logger.Get())

	models, err := service.SearchModels(context.Background(), "")

	require.NoError(t, err)
	assert.Empty(t, models)
	repo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestService_GetPaidModels_DefaultLimit(t *testing.T) {
	repo := new(MockModelRepository)
	service := NewService(repo, logger.Get())

	repo.On("ListPaid", mock.Anything, DefaultPaidModelsLimit).Return([]*catalog.Model{}, nil).Once()
	_, err := service.GetPaidModels(context.Background(), 0)
	require.NoError(t, err)

	repo.On("ListPaid", mock.Anything, 5).Return([]*catalog.Model{}, nil).Once()
	_, err = service.GetPaidModels(context.Background(), 5)
	require.NoError(t, err)

	repo.AssertExpectations(t)
}

func TestService_GetModel(t *testing.T) {
	repo := new(MockModelRepository)
	service := NewService(repo, logger.Get())

	expected := &catalog.Model{ID: "model-a", Name: "Model A"}
	repo.On("GetByID", mock.Anything, "model-a").Return(expected, nil)

	model, err := service.GetModel(context.Background(), "model-a")
	require.NoError(t, err)
	assert.Equal(t, expected, model)
}
