package database

import (
	"context"
	"io/fs"
	"strings"
	"testing"
)

func TestMigrateURL(t *testing.T) {
	cases := []struct {
		driver, dsn, want string
		wantErr           bool
	}{
		{driver: Postgres, dsn: "postgres://u:p@db/adept?sslmode=disable", want: "postgres://u:p@db/adept?sslmode=disable"},
		{driver: Postgres, dsn: "host=db user=u", wantErr: true},
		{driver: MySQL, dsn: "u:p@tcp(db:3306)/adept", want: "mysql://u:p@tcp(db:3306)/adept"},
		{driver: MySQL, dsn: "mysql://u:p@tcp(db:3306)/adept", want: "mysql://u:p@tcp(db:3306)/adept"},
		{driver: "sqlite", dsn: "x", wantErr: true},
	}
	for _, tc := range cases {
		got, err := migrateURL(tc.driver, tc.dsn)
		if tc.wantErr {
			if err == nil {
				t.Errorf("migrateURL(%s, %q) expected error", tc.driver, tc.dsn)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("migrateURL(%s, %q) = %q, %v", tc.driver, tc.dsn, got, err)
		}
	}
}

// Every dialect ships matching up/down pairs that create the profiles table.
func TestEmbeddedMigrationsPaired(t *testing.T) {
	for _, dialect := range []string{Postgres, MySQL} {
		entries, err := fs.ReadDir(migrationsFS, "migrations/"+dialect)
		if err != nil {
			t.Fatalf("%s: %v", dialect, err)
		}
		ups, downs := map[string]bool{}, map[string]bool{}
		for _, e := range entries {
			name := e.Name()
			switch {
			case strings.HasSuffix(name, ".up.sql"):
				ups[strings.TrimSuffix(name, ".up.sql")] = true
			case strings.HasSuffix(name, ".down.sql"):
				downs[strings.TrimSuffix(name, ".down.sql")] = true
			}
		}
		if len(ups) == 0 {
			t.Fatalf("%s: no migrations embedded", dialect)
		}
		for v := range ups {
			if !downs[v] {
				t.Errorf("%s: %s has no down migration", dialect, v)
			}
		}

		body, err := fs.ReadFile(migrationsFS, "migrations/"+dialect+"/000001_create_profiles.up.sql")
		if err != nil {
			t.Fatalf("%s: %v", dialect, err)
		}
		for _, col := range []string{"profiles", "id", "first_name", "last_name"} {
			if !strings.Contains(string(body), col) {
				t.Errorf("%s: first migration missing %q", dialect, col)
			}
		}
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), "sqlite", "file::memory:"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
