package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubhub/internal/domain/usage"
	"clubhub/internal/testsupport"
)

func newUsageEntry(userID string, tokens int, model, requestType string) *usage.Log {
	return &usage.Log{
		ID:          uuid.New(),
		UserID:      userID,
		TokensUsed:  tokens,
		Model:       model,
		RequestType: requestType,
		CreatedAt:   time.Now().UTC(),
	}
}

func TestUsageRepository_InsertAndTotal(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	repo := NewUsageRepository(testDB.DB())
	ctx := context.Background()
	userID := uuid.New().String()

	// No entries yet: total must be zero, not an error
	total, err := repo.TotalTokens(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)

	require.NoError(t, repo.Insert(ctx, newUsageEntry(userID, 120, "gpt-4o", "chat")))
	require.NoError(t, repo.Insert(ctx, newUsageEntry(userID, 80, "gpt-4o-mini", "summary")))

	total, err = repo.TotalTokens(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(200), total)

	// Another user's entries must not leak into the total
	otherID := uuid.New().String()
	require.NoError(t, repo.Insert(ctx, newUsageEntry(otherID, 999, "gpt-4o", "chat")))

	total, err = repo.TotalTokens(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(200), total)
}

func TestUsageRepository_UsageByModel(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	repo := NewUsageRepository(testDB.DB())
	ctx := context.Background()
	userID := uuid.New().String()

	require.NoError(t, repo.Insert(ctx, newUsageEntry(userID, 100, "model-a", "chat")))
	require.NoError(t, repo.Insert(ctx, newUsageEntry(userID, 50, "model-a", "chat")))
	require.NoError(t, repo.Insert(ctx, newUsageEntry(userID, 300, "model-b", "chat")))

	byModel, err := repo.UsageByModel(ctx, userID)
	require.NoError(t, err)
	require.Len(t, byModel, 2)

	// Heaviest model first
	assert.Equal(t, "model-b", byModel[0].Model)
	assert.Equal(t, int64(300), byModel[0].TotalTokens)
	assert.Equal(t, int64(1), byModel[0].RequestCount)

	assert.Equal(t, "model-a", byModel[1].Model)
	assert.Equal(t, int64(150), byModel[1].TotalTokens)
	assert.Equal(t, int64(2), byModel[1].RequestCount)
}

func TestUsageRepository_ListRecent(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	repo := NewUsageRepository(testDB.DB())
	ctx := context.Background()
	userID := uuid.New().String()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		entry := newUsageEntry(userID, 10+i, "model-a", "chat")
		entry.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Insert(ctx, entry))
	}

	recent, err := repo.ListRecent(ctx, userID, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)

	// Newest first
	assert.Equal(t, 14, recent[0].TokensUsed)
	assert.Equal(t, 13, recent[1].TokensUsed)
	assert.Equal(t, 12, recent[2].TokensUsed)
}

func TestUsageRepository_AggregateStats(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	repo := NewUsageRepository(testDB.DB())
	ctx := context.Background()

	userA := uuid.New().String()
	userB := uuid.New().String()

	require.NoError(t, repo.Insert(ctx, newUsageEntry(userA, 100, "model-a", "chat")))
	require.NoError(t, repo.Insert(ctx, newUsageEntry(userB, 200, "model-b", "chat")))

	// An old entry outside the window must not count
	old := newUsageEntry(userA, 5000, "model-a", "chat")
	old.CreatedAt = time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, repo.Insert(ctx, old))

	stats, err := repo.AggregateStats(ctx, 24*time.Hour)
	require.NoError(t, err)

	// Other tests share the table, so assert lower bounds only
	assert.GreaterOrEqual(t, stats.ActiveUsers, int64(2))
	assert.GreaterOrEqual(t, stats.TotalTokens, int64(300))
	assert.GreaterOrEqual(t, stats.TotalRequests, int64(2))
	assert.Greater(t, stats.AvgTokensPerRequest, float64(0))
}
