package migrate

import (
	"context"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"clubhub/pkg/errors"
	"clubhub/pkg/logger"
)

// Migration is one versioned, one-time schema transformation.
// Apply receives the transaction that also records the ledger row,
// so a schema change and its ledger entry commit or roll back together.
type Migration struct {
	Version int
	Name    string
	Apply   func(ctx context.Context, tx *sqlx.Tx) error
}

// Runner applies pending migrations in strict ascending order
type Runner struct {
	db  *sqlx.DB
	log *logger.Logger
}

// NewRunner creates a migration runner
func NewRunner(db *sqlx.DB, log *logger.Logger) *Runner {
	return &Runner{db: db, log: log.With("component", "migrate")}
}

const ledgerTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		name       TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL
	)`

// advisoryLockKey serializes migration runs across instances sharing a database
const advisoryLockKey = 0x636c7562 // "club"

// Run applies every migration with a version above the current maximum.
// Each migration runs in its own transaction; the first failure aborts
// the run and no later migration is attempted. A failed run is fatal to
// startup: the caller must not serve traffic afterwards.
func (r *Runner) Run(ctx context.Context, migrations []Migration) (int, error) {
	// Hold the advisory lock on a dedicated connection so two instances
	// starting at once cannot interleave schema changes
	conn, err := r.db.Connx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to acquire migration connection")
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, advisoryLockKey); err != nil {
		return 0, errors.Wrap(err, "failed to acquire migration lock")
	}
	defer func() {
		_, _ = conn.ExecContext(context.WithoutCancel(ctx), `SELECT pg_advisory_unlock($1)`, advisoryLockKey)
	}()

	if _, err := r.db.ExecContext(ctx, ledgerTable); err != nil {
		return 0, errors.Wrap(err, "failed to create migration ledger")
	}

	current, err := r.currentVersion(ctx)
	if err != nil {
		return 0, err
	}

	pending := pendingMigrations(migrations, current)
	if len(pending) == 0 {
		r.log.Infof("Schema up to date at version %d", current)
		return 0, nil
	}

	r.log.Infof("Applying %d migrations (current version %d)", len(pending), current)

	for _, m := range pending {
		if err := r.applyOne(ctx, m); err != nil {
			return 0, errors.Wrapf(errors.ErrMigrationFailed,
				"migration %d (%s): %v", m.Version, m.Name, err)
		}
		r.log.Infow("Migration applied", "version", m.Version, "name", m.Name)
	}

	return len(pending), nil
}

// currentVersion reads the maximum applied version, 0 if none
func (r *Runner) currentVersion(ctx context.Context) (int, error) {
	var version int
	err := r.db.GetContext(ctx, &version,
		`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`)
	if err != nil {
		return 0, errors.Wrap(err, "failed to read current migration version")
	}
	return version, nil
}

// applyOne runs a single migration and its ledger insert in one transaction
func (r *Runner) applyOne(ctx context.Context, m Migration) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}

	if err := m.Apply(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, name, applied_at) VALUES ($1, $2, $3)`,
		m.Version, m.Name, time.Now().UTC())
	if err != nil {
		_ = tx.Rollback()
		return errors.Wrap(err, "failed to record migration in ledger")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit migration")
	}

	return nil
}

// pendingMigrations selects migrations above current, sorted ascending
func pendingMigrations(migrations []Migration, current int) []Migration {
	pending := make([]Migration, 0, len(migrations))
	for _, m := range migrations {
		if m.Version > current {
			pending = append(pending, m)
		}
	}

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].Version < pending[j].Version
	})

	return pending
}
