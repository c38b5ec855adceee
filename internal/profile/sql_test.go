// internal/profile/sql_test.go
//
// Unit-tests for SQLStore using sqlmock, once per placeholder dialect.
//
// Run: go test ./internal/profile -v

package profile

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

func newMock(t *testing.T, driver string) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLStore(sqlx.NewDb(db, driver), "profiles"), mock
}

func TestSQLGet(t *testing.T) {
	s, mock := newMock(t, "mysql")
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, first_name, last_name FROM profiles WHERE id = ? LIMIT 1`,
	)).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name"}).AddRow("u1", "A", "B"))

	p, err := s.Get(context.Background(), Subject{ID: "u1"})
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if *p != (Profile{ID: "u1", FirstName: "A", LastName: "B"}) {
		t.Fatalf("unexpected profile: %#v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestSQLGetPostgresPlaceholders(t *testing.T) {
	s, mock := newMock(t, "postgres")
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, first_name, last_name FROM profiles WHERE id = $1 LIMIT 1`,
	)).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name"}))

	_, err := s.Get(context.Background(), Subject{ID: "u1"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestSQLGetFailureIsNotNotFound(t *testing.T) {
	s, mock := newMock(t, "mysql")
	mock.ExpectQuery(`SELECT`).WillReturnError(errors.New("connection reset"))

	_, err := s.Get(context.Background(), Subject{ID: "u1"})
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want wrapped lookup failure", err)
	}
}

func TestSQLGetEmptySubject(t *testing.T) {
	s, _ := newMock(t, "mysql")
	if _, err := s.Get(context.Background(), Subject{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSQLCreate(t *testing.T) {
	s, mock := newMock(t, "postgres")
	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO profiles (id, first_name, last_name) VALUES ($1, $2, $3)`,
	)).
		WithArgs("u1", "A", "B").
		WillReturnResult(sqlmock.NewResult(0, 1))

	// Subject id wins over whatever the caller put in the struct.
	err := s.Create(context.Background(), Subject{ID: "u1"}, Profile{ID: "spoofed", FirstName: "A", LastName: "B"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestSQLCreateDuplicate(t *testing.T) {
	cases := []struct {
		driver string
		err    error
	}{
		{"mysql", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}},
		{"postgres", &pq.Error{Code: "23505", Message: "duplicate key"}},
	}
	for _, tc := range cases {
		t.Run(tc.driver, func(t *testing.T) {
			s, mock := newMock(t, tc.driver)
			mock.ExpectExec(`INSERT INTO profiles`).WillReturnError(tc.err)

			err := s.Create(context.Background(), Subject{ID: "u1"}, Profile{FirstName: "A", LastName: "B"})
			if !errors.Is(err, ErrExists) {
				t.Fatalf("err = %v, want ErrExists", err)
			}
		})
	}
}

func TestSQLCreateWithoutSubject(t *testing.T) {
	s, _ := newMock(t, "mysql")
	if err := s.Create(context.Background(), Subject{}, Profile{FirstName: "A"}); err == nil {
		t.Fatal("expected error for empty subject")
	}
}
