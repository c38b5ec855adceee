package database

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// One directory per dialect; file names follow NNNNNN_name.{up,down}.sql.
//
//go:embed migrations/postgres/*.sql migrations/mysql/*.sql
var migrationsFS embed.FS

// NewMigrator builds a migrate instance for driver using the embedded
// migrations of that dialect.
func NewMigrator(driver, dsn string) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		return nil, fmt.Errorf("database: migration source %s: %w", driver, err)
	}

	url, err := migrateURL(driver, dsn)
	if err != nil {
		return nil, err
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, url)
	if err != nil {
		return nil, fmt.Errorf("database: migrator: %w", err)
	}
	return m, nil
}

// Migrate applies every pending migration.  Already up to date is not an
// error.
func Migrate(driver, dsn string) error {
	m, err := NewMigrator(driver, dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("database: migrate up: %w", err)
	}
	return nil
}

// migrateURL turns a driver DSN into the URL form golang-migrate expects.
// Postgres DSNs must already be URLs; MySQL DSNs get a "mysql://" scheme.
func migrateURL(driver, dsn string) (string, error) {
	switch driver {
	case Postgres:
		if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
			return "", fmt.Errorf("database: migrations need a postgres:// URL DSN")
		}
		return dsn, nil
	case MySQL:
		if strings.HasPrefix(dsn, "mysql://") {
			return dsn, nil
		}
		return "mysql://" + dsn, nil
	default:
		return "", fmt.Errorf("database: unsupported driver %q", driver)
	}
}
