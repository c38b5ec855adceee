// Package database centralises sqlx connection helpers and schema
// migrations for the profile store.  Two drivers are linked in:
// go-sql-driver/mysql (also fine for MariaDB) and lib/pq for PostgreSQL.
//
// Public entry points:
//
//	Open(driver, dsn)                          – conservative pool sizes.
//	OpenWithOptions(driver, dsn, maxOpen, maxIdle) – fine-grained control.
//	Migrate(driver, dsn)                       – apply embedded migrations.
//
// Open helpers Ping the database before returning so callers can fail fast
// during bootstrap.  Callers should Close() the returned *sqlx.DB when no
// longer needed.
package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Supported driver names, matching config.Database.Driver.
const (
	Postgres = "postgres"
	MySQL    = "mysql"
)

// Open returns a *sqlx.DB with sane defaults: 15 max open, 5 idle, and a
// 30-minute connection lifetime.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(ctx, driver, dsn, 15, 5)
}

// OpenWithOptions lets callers tune maxOpen and maxIdle per pool.
func OpenWithOptions(ctx context.Context, driver, dsn string, maxOpen, maxIdle int) (*sqlx.DB, error) {
	if driver != Postgres && driver != MySQL {
		return nil, fmt.Errorf("database: unsupported driver %q", driver)
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("database: open %s: %w", driver, err)
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database: ping %s: %w", driver, err)
	}
	return db, nil
}
