package migration

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) (*sql.DB, func()) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	return db, func() { db.Close() }
}

func migrationFS(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, content := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return fsys
}

func TestApplyMigrations(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	runner := NewRunner(db, migrationFS(map[string]string{
		"002_add_column.sql": "ALTER TABLE goals ADD COLUMN color TEXT;",
		"001_init.sql":       "CREATE TABLE goals (id TEXT PRIMARY KEY, title TEXT NOT NULL);",
		"README.md":          "ignored",
	}), SQLite)

	version, err := runner.GetCurrentVersion(ctx)
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 0 {
		t.Errorf("fresh database version = %d, want 0", version)
	}

	var logs []string
	applied, err := runner.ApplyMigrations(ctx, func(msg string) { logs = append(logs, msg) })
	if err != nil {
		t.Fatalf("ApplyMigrations failed: %v", err)
	}
	if applied != 2 {
		t.Errorf("applied = %d, want 2", applied)
	}
	if len(logs) == 0 {
		t.Error("expected progress messages")
	}

	if _, err := db.Exec("INSERT INTO goals (id, title, color) VALUES ('g1', 'Run', 'blue')"); err != nil {
		t.Errorf("schema missing migrated column: %v", err)
	}

	// Second run is a no-op.
	applied, err = runner.ApplyMigrations(ctx, nil)
	if err != nil {
		t.Fatalf("second ApplyMigrations failed: %v", err)
	}
	if applied != 0 {
		t.Errorf("second run applied %d migrations, want 0", applied)
	}

	pending, err := runner.Pending(ctx)
	if err != nil || pending != 0 {
		t.Errorf("Pending() = %d, %v; want 0, nil", pending, err)
	}
}

func TestApplyMigrations_FailureRollsBack(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	runner := NewRunner(db, migrationFS(map[string]string{
		"001_init.sql":   "CREATE TABLE goals (id TEXT PRIMARY KEY);",
		"002_broken.sql": "CREATE TABLE oops (;",
	}), SQLite)

	applied, err := runner.ApplyMigrations(ctx, nil)
	if err == nil {
		t.Fatal("expected an error from the broken migration")
	}
	if applied != 1 {
		t.Errorf("applied = %d, want 1", applied)
	}
	if !strings.Contains(err.Error(), "migration 2") {
		t.Errorf("error %q does not name the failing migration", err)
	}

	version, _ := runner.GetCurrentVersion(ctx)
	if version != 1 {
		t.Errorf("version after failure = %d, want 1", version)
	}
}

func TestReadMigrationFiles_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{"missing underscore", map[string]string{"001.sql": "SELECT 1;"}},
		{"non numeric version", map[string]string{"abc_init.sql": "SELECT 1;"}},
		{"zero version", map[string]string{"000_init.sql": "SELECT 1;"}},
		{"duplicate version", map[string]string{"001_a.sql": "SELECT 1;", "001_b.sql": "SELECT 1;"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := NewRunner(nil, migrationFS(tt.files), SQLite)
			if _, err := runner.ReadMigrationFiles(); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestValidateVersion_NewerDatabase(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	runner := NewRunner(db, migrationFS(map[string]string{"001_init.sql": "SELECT 1;"}), SQLite)
	if err := runner.EnsureSchemaVersionTable(ctx); err != nil {
		t.Fatalf("EnsureSchemaVersionTable failed: %v", err)
	}
	if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (5)"); err != nil {
		t.Fatalf("failed to seed version: %v", err)
	}

	err := runner.ValidateVersion(ctx)
	if err == nil || !strings.Contains(err.Error(), "newer than supported") {
		t.Errorf("ValidateVersion() = %v, want newer-schema error", err)
	}
}

func TestDialectRebind(t *testing.T) {
	query := "UPDATE goals SET progress = ? WHERE id = ? AND user_id = ?"
	if got := SQLite.Rebind(query); got != query {
		t.Errorf("SQLite.Rebind() = %q, want unchanged", got)
	}
	want := "UPDATE goals SET progress = $1 WHERE id = $2 AND user_id = $3"
	if got := Postgres.Rebind(query); got != want {
		t.Errorf("Postgres.Rebind() = %q, want %q", got, want)
	}
}
