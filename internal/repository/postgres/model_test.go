package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubhub/internal/domain/catalog"
	"clubhub/internal/testsupport"
	"clubhub/pkg/errors"
)

func newTestModel(id string) *catalog.Model {
	return &catalog.Model{
		ID:                id,
		Name:              "Test Model " + id,
		Description:       "A model for testing",
		ContextLength:     8192,
		PricingPrompt:     "0.000001",
		PricingCompletion: "0.000002",
		Modality:          "text",
		Tokenizer:         "cl100k",
		Tags:              pq.StringArray{"test"},
		Status:            catalog.StatusActive,
		LastUpdated:       time.Now().UTC(),
	}
}

func TestModelRepository_UpsertAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	repo := NewModelRepository(testDB.DB())
	ctx := context.Background()

	id := "test/" + uuid.New().String()
	model := newTestModel(id)

	require.NoError(t, repo.Upsert(ctx, model))

	retrieved, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.Name, retrieved.Name)
	assert.Equal(t, 8192, retrieved.ContextLength)
	assert.False(t, retrieved.IsFree, "paid pricing must not be marked free")

	// Second upsert with the same id replaces, not duplicates
	model.Name = "Renamed"
	model.PricingPrompt = "0"
	model.PricingCompletion = "0.00"
	require.NoError(t, repo.Upsert(ctx, model))

	retrieved, err = repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", retrieved.Name)
	assert.True(t, retrieved.IsFree, "zero pricing must be marked free")
}

func TestModelRepository_GetByID_NotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	repo := NewModelRepository(testDB.DB())

	_, err := repo.GetByID(context.Background(), "test/"+uuid.New().String())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestModelRepository_Exists(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	repo := NewModelRepository(testDB.DB())
	ctx := context.Background()

	id := "test/" + uuid.New().String()

	exists, err := repo.Exists(ctx, id)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.Upsert(ctx, newTestModel(id)))

	exists, err = repo.Exists(ctx, id)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestModelRepository_FreeAndPaidListings(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	repo := NewModelRepository(testDB.DB())
	ctx := context.Background()

	freeID := "test/" + uuid.New().String()
	freeModel := newTestModel(freeID)
	freeModel.PricingPrompt = "0"
	freeModel.PricingCompletion = "0"
	require.NoError(t, repo.Upsert(ctx, freeModel))

	paidID := "test/" + uuid.New().String()
	require.NoError(t, repo.Upsert(ctx, newTestModel(paidID)))

	inactiveID := "test/" + uuid.New().String()
	inactive := newTestModel(inactiveID)
	inactive.PricingPrompt = "0"
	inactive.PricingCompletion = "0"
	inactive.Status = catalog.StatusInactive
	require.NoError(t, repo.Upsert(ctx, inactive))

	free, err := repo.ListFree(ctx)
	require.NoError(t, err)

	freeIDs := modelIDs(free)
	assert.Contains(t, freeIDs, freeID)
	assert.NotContains(t, freeIDs, paidID)
	assert.NotContains(t, freeIDs, inactiveID, "inactive models must not be listed")

	paid, err := repo.ListPaid(ctx, 1000)
	require.NoError(t, err)

	paidIDs := modelIDs(paid)
	assert.Contains(t, paidIDs, paidID)
	assert.NotContains(t, paidIDs, freeID)
}

func TestModelRepository_Search(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	repo := NewModelRepository(testDB.DB())
	ctx := context.Background()

	marker := uuid.New().String()

	byName := newTestModel("test/" + uuid.New().String())
	byName.Name = "Aurora " + marker
	require.NoError(t, repo.Upsert(ctx, byName))

	byTag := newTestModel("test/" + uuid.New().String())
	byTag.Tags = pq.StringArray{marker}
	require.NoError(t, repo.Upsert(ctx, byTag))

	unrelated := newTestModel("test/" + uuid.New().String())
	require.NoError(t, repo.Upsert(ctx, unrelated))

	results, err := repo.Search(ctx, marker)
	require.NoError(t, err)

	ids := modelIDs(results)
	assert.Contains(t, ids, byName.ID)
	assert.Contains(t, ids, byTag.ID)
	assert.NotContains(t, ids, unrelated.ID)
}

func TestModelRepository_RemoveDeprecated(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	repo := NewModelRepository(testDB.DB())
	ctx := context.Background()

	keepID := "test/" + uuid.New().String()
	require.NoError(t, repo.Upsert(ctx, newTestModel(keepID)))

	deprecatedID := "test/" + uuid.New().String()
	deprecated := newTestModel(deprecatedID)
	deprecated.Deprecated = true
	require.NoError(t, repo.Upsert(ctx, deprecated))

	removed, err := repo.RemoveDeprecated(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, removed, int64(1))

	exists, err := repo.Exists(ctx, deprecatedID)
	require.NoError(t, err)
	assert.False(t, exists, "deprecated model should be purged")

	exists, err = repo.Exists(ctx, keepID)
	require.NoError(t, err)
	assert.True(t, exists, "active model should survive the purge")
}

func TestModelRepository_Count(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	repo := NewModelRepository(testDB.DB())
	ctx := context.Background()

	before, err := repo.Count(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.Upsert(ctx, newTestModel("test/"+uuid.New().String())))

	after, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)
}

func modelIDs(models []*catalog.Model) []string {
	ids := make([]string, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.ID)
	}
	return ids
}
