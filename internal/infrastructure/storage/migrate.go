package storage

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	"github.com/campaignflow/engine/internal/infrastructure/logger"
)

// Migrator drives bun's schema migrations for the engine's Postgres store.
type Migrator struct {
	migrator *migrate.Migrator
	db       *bun.DB
	log      *logger.Logger
}

// MigratorWithAccess extends Migrator with the underlying bun migration
// group results, for callers (the migrate CLI) that report more than a
// bare success/failure.
type MigratorWithAccess struct {
	*Migrator
}

// NewMigratorWithAccess builds a MigratorWithAccess over the given db and
// discovered migration files.
func NewMigratorWithAccess(db *bun.DB, migrationsFS fs.FS) (*MigratorWithAccess, error) {
	m, err := NewMigrator(db, migrationsFS)
	if err != nil {
		return nil, err
	}
	return &MigratorWithAccess{Migrator: m}, nil
}

// Migrate runs pending migrations and returns the migration group.
func (m *MigratorWithAccess) Migrate(ctx context.Context) (*migrate.MigrationGroup, error) {
	group, err := m.migrator.Migrate(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return group, nil
}

// Rollback rolls back the last migration group and returns it.
func (m *MigratorWithAccess) Rollback(ctx context.Context) (*migrate.MigrationGroup, error) {
	group, err := m.migrator.Rollback(ctx)
	if err != nil {
		return nil, fmt.Errorf("rollback: %w", err)
	}
	return group, nil
}

// MigrationsWithStatus returns every discovered migration tagged with
// whether it has already been applied.
func (m *MigratorWithAccess) MigrationsWithStatus(ctx context.Context) (migrate.MigrationSlice, error) {
	ms, err := m.migrator.MigrationsWithStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration status: %w", err)
	}
	return ms, nil
}

// NewMigrator discovers migrations under migrationsFS and builds a
// Migrator bound to db. Log lines go through this tree's own logger,
// tagged as the "migrate" component, the same convention every other
// infrastructure package follows.
func NewMigrator(db *bun.DB, migrationsFS fs.FS) (*Migrator, error) {
	migrations := migrate.NewMigrations()
	if err := migrations.Discover(migrationsFS); err != nil {
		return nil, fmt.Errorf("discover migrations: %w", err)
	}

	return &Migrator{
		migrator: migrate.NewMigrator(db, migrations),
		db:       db,
		log:      logger.Default().Named("migrate"),
	}, nil
}

// Init creates the migration tracking tables.
func (m *Migrator) Init(ctx context.Context) error {
	m.log.Info("initializing migration tables")
	return m.migrator.Init(ctx)
}

// Up runs all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	m.log.Info("running migrations up")

	group, err := m.migrator.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if group.IsZero() {
		m.log.Info("no new migrations to run")
		return nil
	}

	m.log.Info("migrations applied successfully",
		"group_id", group.ID,
		"migrations", fmt.Sprintf("%v", group.Migrations.Applied()),
	)
	return nil
}

// Down rolls back the last migration group.
func (m *Migrator) Down(ctx context.Context) error {
	m.log.Info("rolling back last migration")

	group, err := m.migrator.Rollback(ctx)
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}

	if group.IsZero() {
		m.log.Info("no migrations to rollback")
		return nil
	}

	m.log.Info("migration rolled back successfully",
		"group_id", group.ID,
		"migrations", fmt.Sprintf("%v", group.Migrations.Unapplied()),
	)
	return nil
}

// Status logs the applied/pending state of every discovered migration.
func (m *Migrator) Status(ctx context.Context) error {
	ms, err := m.migrator.MigrationsWithStatus(ctx)
	if err != nil {
		return fmt.Errorf("migration status: %w", err)
	}

	m.log.Info("migration status", "total", len(ms))
	for _, migration := range ms {
		status := "pending"
		if migration.GroupID > 0 {
			status = "applied"
		}
		m.log.Info("migration", "name", migration.Name, "status", status)
	}
	return nil
}

// Reset rolls back every applied migration group, in order, down to
// nothing — used only by local/test environments to rebuild a clean schema.
func (m *Migrator) Reset(ctx context.Context) error {
	m.log.Warn("resetting all migrations: this drops every managed table")

	for {
		group, err := m.migrator.Rollback(ctx)
		if err != nil {
			return fmt.Errorf("rollback: %w", err)
		}
		if group.IsZero() {
			break
		}
		m.log.Info("rolled back migration group", "group_id", group.ID)
	}

	m.log.Info("all migrations rolled back")
	return nil
}

// CreateMigrationTable creates the migration tracking table.
func (m *Migrator) CreateMigrationTable(ctx context.Context) error {
	return m.migrator.Init(ctx)
}
