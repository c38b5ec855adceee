package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// SQLStore keeps profiles in a table reachable through sqlx.  Queries are
// written with `?` and rebound for the driver in use.
type SQLStore struct {
	db    *sqlx.DB
	table string

	getQ    string
	insertQ string
}

// NewSQLStore returns a store over table.  table must be a trusted
// identifier; config validation enforces that.
func NewSQLStore(db *sqlx.DB, table string) *SQLStore {
	if table == "" {
		table = "profiles"
	}
	return &SQLStore{
		db:      db,
		table:   table,
		getQ:    db.Rebind(`SELECT id, first_name, last_name FROM ` + table + ` WHERE id = ? LIMIT 1`),
		insertQ: db.Rebind(`INSERT INTO ` + table + ` (id, first_name, last_name) VALUES (?, ?, ?)`),
	}
}

// Get implements Store.
func (s *SQLStore) Get(ctx context.Context, sub Subject) (*Profile, error) {
	if sub.ID == "" {
		return nil, ErrNotFound
	}
	var p Profile
	err := s.db.GetContext(ctx, &p, s.getQ, sub.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profile: get %s: %w", sub.ID, err)
	}
	return &p, nil
}

// Create implements Store.
func (s *SQLStore) Create(ctx context.Context, sub Subject, p Profile) error {
	p.ID = sub.ID
	if p.ID == "" {
		return errors.New("profile: create without subject id")
	}
	_, err := s.db.ExecContext(ctx, s.insertQ, p.ID, p.FirstName, p.LastName)
	if isDuplicate(err) {
		return ErrExists
	}
	if err != nil {
		return fmt.Errorf("profile: create %s: %w", p.ID, err)
	}
	return nil
}

// isDuplicate recognises primary-key violations from both drivers.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == 1062 {
		return true
	}
	var pe *pq.Error
	return errors.As(err, &pe) && pe.Code == "23505"
}
