package migrate_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubhub/internal/adapters/postgres"
	"clubhub/internal/migrate"
	"clubhub/internal/testsupport"
	"clubhub/pkg/errors"
	"clubhub/pkg/logger"
)

func newTestRunner(t *testing.T) (*migrate.Runner, *sqlx.DB) {
	t.Helper()

	dbConfigs := testsupport.LoadDatabaseConfigsFromEnv(t)

	client, err := postgres.NewClient(dbConfigs.Postgres)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return migrate.NewRunner(client.DB(), logger.Get()), client.DB()
}

func TestRunner_RunIsIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	runner, _ := newTestRunner(t)
	ctx := context.Background()

	_, err := runner.Run(ctx, migrate.All())
	require.NoError(t, err)

	// A second run over the same set applies nothing
	applied, err := runner.Run(ctx, migrate.All())
	require.NoError(t, err)
	assert.Equal(t, 0, applied)
}

func TestRunner_FailedMigrationRollsBack(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	runner, db := newTestRunner(t)
	ctx := context.Background()

	// Baseline schema so the ledger exists
	_, err := runner.Run(ctx, migrate.All())
	require.NoError(t, err)

	// High version numbers keep the probe clear of the real migrations
	const goodVersion = 9001
	const badVersion = 9002

	t.Cleanup(func() {
		_, _ = db.ExecContext(context.Background(), `DROP TABLE IF EXISTS migrate_probe`)
		_, _ = db.ExecContext(context.Background(),
			`DELETE FROM schema_migrations WHERE version >= $1`, goodVersion)
	})

	probe := []migrate.Migration{
		{
			Version: goodVersion,
			Name:    "create_probe_table",
			Apply: func(ctx context.Context, tx *sqlx.Tx) error {
				_, err := tx.ExecContext(ctx, `CREATE TABLE migrate_probe (id INT PRIMARY KEY)`)
				return err
			},
		},
		{
			Version: badVersion,
			Name:    "broken_migration",
			Apply: func(ctx context.Context, tx *sqlx.Tx) error {
				_, err := tx.ExecContext(ctx, `THIS IS NOT SQL`)
				return err
			},
		},
	}

	_, err = runner.Run(ctx, probe)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrMigrationFailed))

	// The migration before the failure committed and is in the ledger
	var version int
	err = db.GetContext(ctx, &version,
		`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`)
	require.NoError(t, err)
	assert.Equal(t, goodVersion, version, "failed migration must not reach the ledger")

	var exists bool
	err = db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'migrate_probe')`)
	require.NoError(t, err)
	assert.True(t, exists, "migration preceding the failure must stay applied")

	// Re-running skips the committed migration and fails on the same one
	_, err = runner.Run(ctx, probe)
	require.Error(t, err)
}
