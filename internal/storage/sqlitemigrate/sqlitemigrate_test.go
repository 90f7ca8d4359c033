package sqlitemigrate

import (
	"context"
	"database/sql"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func count(t *testing.T, db *sql.DB, query string) int {
	t.Helper()
	var n int
	if err := db.QueryRow(query).Scan(&n); err != nil {
		t.Fatalf("query %q: %v", query, err)
	}
	return n
}

func TestApplyRunsOnce(t *testing.T) {
	db := openMemory(t)
	migrations := fstest.MapFS{
		"001_objects.sql": &fstest.MapFile{Data: []byte("-- +migrate Up\nCREATE TABLE objects(id INTEGER PRIMARY KEY);\n-- +migrate Down\nDROP TABLE objects;")},
		"002_seed.sql":    &fstest.MapFile{Data: []byte("INSERT INTO objects(id) VALUES (1);")},
		"README.md":       &fstest.MapFile{Data: []byte("ignored")},
	}

	applied, err := Apply(context.Background(), db, migrations, "")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(applied) != 2 || applied[0] != "001_objects.sql" {
		t.Fatalf("expected both migrations applied in order, got %v", applied)
	}

	applied, err = Apply(context.Background(), db, migrations, ".")
	if err != nil {
		t.Fatalf("reapply: %v", err)
	}
	if len(applied) != 0 {
		t.Fatalf("expected nothing applied twice, got %v", applied)
	}
	if got := count(t, db, "SELECT COUNT(*) FROM objects"); got != 1 {
		t.Fatalf("expected seed row once, got %d", got)
	}
	if got := count(t, db, "SELECT COUNT(*) FROM schema_migrations"); got != 2 {
		t.Fatalf("expected 2 recorded migrations, got %d", got)
	}
}

func TestApplyRollsBackFailure(t *testing.T) {
	db := openMemory(t)
	migrations := fstest.MapFS{
		"001_bad.sql": &fstest.MapFile{Data: []byte("CREATE TABLE ok(id INTEGER); INSERT INTO missing VALUES (1);")},
	}
	if _, err := Apply(context.Background(), db, migrations, ""); err == nil {
		t.Fatalf("expected failing migration to return an error")
	}
	if got := count(t, db, "SELECT COUNT(*) FROM schema_migrations"); got != 0 {
		t.Fatalf("expected failed migration to stay unrecorded, got %d", got)
	}
}

func TestUpSection(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no markers", "SELECT 1;", "SELECT 1;"},
		{"up only", "-- +migrate Up\nSELECT 1;", "\nSELECT 1;"},
		{"up and down", "-- +migrate Up\nSELECT 1;\n-- +migrate Down\nSELECT 2;", "\nSELECT 1;\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := UpSection(tc.in); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
