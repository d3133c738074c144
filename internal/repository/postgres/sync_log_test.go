package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubhub/internal/domain/catalog"
	"clubhub/internal/testsupport"
)

func TestSyncLogRepository_InsertAndLatest(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	repo := NewSyncLogRepository(testDB.DB())
	ctx := context.Background()

	first := &catalog.SyncLog{
		SyncType:      catalog.SyncTypeFull,
		ModelsFetched: 10,
		ModelsAdded:   10,
		DurationMs:    120,
		Success:       true,
		CreatedAt:     time.Now().UTC().Add(-time.Minute),
	}
	require.NoError(t, repo.Insert(ctx, first))
	assert.NotZero(t, first.ID, "insert should populate the generated id")

	msg := "catalog API error (503)"
	second := &catalog.SyncLog{
		SyncType:     catalog.SyncTypeFull,
		DurationMs:   40,
		Success:      false,
		ErrorMessage: &msg,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, repo.Insert(ctx, second))

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	assert.False(t, latest.Success)
	require.NotNil(t, latest.ErrorMessage)
	assert.Equal(t, msg, *latest.ErrorMessage)
}

func TestSyncLogRepository_ListRecent(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	repo := NewSyncLogRepository(testDB.DB())
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 4; i++ {
		entry := &catalog.SyncLog{
			SyncType:      catalog.SyncTypeFull,
			ModelsFetched: i,
			Success:       true,
			CreatedAt:     base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, repo.Insert(ctx, entry))
	}

	recent, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	// Newest first
	assert.Equal(t, 3, recent[0].ModelsFetched)
	assert.Equal(t, 2, recent[1].ModelsFetched)
}
