package usage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"clubhub/internal/domain/usage"
	"clubhub/pkg/errors"
	"clubhub/pkg/logger"
)

// MockUsageRepository is a mock for usage.Repository
type MockUsageRepository struct {
	mock.Mock
}

func (m *MockUsageRepository) Insert(ctx context.Context, log *usage.Log) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockUsageRepository) TotalTokens(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUsageRepository) UsageByModel(ctx context.Context, userID string) ([]*usage.ModelUsage, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*usage.ModelUsage), args.Error(1)
}

func (m *MockUsageRepository) AggregateStats(ctx context.Context, window time.Duration) (*usage.AggregateStats, error) {
	args := m.Called(ctx, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usage.AggregateStats), args.Error(1)
}

func (m *MockUsageRepository) ListRecent(ctx context.Context, userID string, limit int) ([]*usage.Log, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*usage.Log), args.Error(1)
}

func TestService_Record_Success(t *testing.T) {
	repo := new(MockUsageRepository)
	service := NewService(repo, logger.Get())

	repo.On("Insert", mock.Anything, mock.MatchedBy(func(entry *usage.Log) bool {
		return entry.UserID == "user-1" &&
			entry.TokensUsed == 150 &&
			entry.Model == "gpt-4o" &&
			entry.RequestType == "chat" &&
			!entry.CreatedAt.IsZero()
	})).Return(nil)

	ok := service.Record(context.Background(), "user-1", 150, "gpt-4o", "chat")

	assert.True(t, ok)
	repo.AssertExpectations(t)
}

func TestService_Record_SwallowsStorageFailure(t *testing.T) {
	repo := new(MockUsageRepository)
	service := NewService(repo, logger.Get())

	repo.On("Insert", mock.Anything, mock.Anything).Return(errors.ErrInternal)

	// A write failure degrades to false, never panics or errors out
	ok := service.Record(context.Background(), "user-1", 150, "gpt-4o", "chat")

	assert.False(t, ok)
	repo.AssertExpectations(t)
}

func TestService_Record_RejectsInvalidInput(t *testing.T) {
	repo := new(MockUsageRepository)
	service := NewService(repo, logger.Get())

	assert.False(t, service.Record(context.Background(), "", 100, "gpt-4o", "chat"))
	assert.False(t, service.Record(context.Background(), "user-1", -1, "gpt-4o", "chat"))

	// Zero tokens is a legitimate entry
	repo.On("Insert", mock.Anything, mock.Anything).Return(nil)
	assert.True(t, service.Record(context.Background(), "user-1", 0, "gpt-4o", "chat"))

	repo.AssertNumberOfCalls(t, "Insert", 1)
}

func TestService_TotalUsage(t *testing.T) {
	repo := new(MockUsageRepository)
	service := NewService(repo, logger.Get())

	repo.On("TotalTokens", mock.Anything, "user-1").Return(int64(4200), nil)

	total, err := service.TotalUsage(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(4200), total)
}
