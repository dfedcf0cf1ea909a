package database

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// requiredTables are checked after migrating so a half-applied schema is
// reported at startup instead of on the first request.
var requiredTables = []string{
	"trash_entries",
	"notifications",
	"audit_entries",
	"products",
	"categories",
	"attributes",
}

// Migrate applies every pending up migration for the active driver.
func (db *DB) Migrate() error {
	m, err := db.migrator()
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database schema is dirty at version %d", version)
	}

	for _, table := range requiredTables {
		if err := db.tableExists(table); err != nil {
			return fmt.Errorf("schema initialization incomplete: %w", err)
		}
	}

	slog.Info("database schema ensured", "driver", db.driver, "version", version)
	return nil
}

// MigrateDown rolls back the given number of migrations.
func (db *DB) MigrateDown(steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be positive")
	}

	m, err := db.migrator()
	if err != nil {
		return err
	}

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("roll back migrations: %w", err)
	}
	return nil
}

// migrator is never closed: closing it would close the shared handle.
func (db *DB) migrator() (*migrate.Migrate, error) {
	sub, err := fs.Sub(migrationsFS, "migrations/"+db.driver)
	if err != nil {
		return nil, fmt.Errorf("locate migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("open migration source: %w", err)
	}

	var target migratedb.Driver
	switch db.driver {
	case DriverPostgres:
		target, err = pgxmigrate.WithInstance(db.DB.DB, &pgxmigrate.Config{})
	case DriverSQLite:
		target, err = sqlitemigrate.WithInstance(db.DB.DB, &sqlitemigrate.Config{})
	default:
		err = fmt.Errorf("unsupported database driver %q", db.driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open migration target: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, db.driver, target)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}

func (db *DB) tableExists(table string) error {
	var probe int
	row := db.QueryRowx(fmt.Sprintf(`SELECT COUNT(*) FROM %q WHERE 1 = 0`, table))
	if err := row.Scan(&probe); err != nil {
		return fmt.Errorf("table %s: %w", table, err)
	}
	return nil
}
