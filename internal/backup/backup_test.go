package backup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/goalkeeper/internal/constants"
)

func setupTestDB(t *testing.T) (string, func()) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "goalkeeper.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE goals (id TEXT PRIMARY KEY, title TEXT)`); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO goals (id, title) VALUES ('g1', 'Run a marathon')`); err != nil {
		t.Fatalf("failed to insert row: %v", err)
	}
	return dbPath, func() {}
}

func countGoals(t *testing.T, path string) int {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM goals`).Scan(&n); err != nil {
		t.Fatalf("failed to count goals: %v", err)
	}
	return n
}

// fixedClock returns successive times one minute apart.
func fixedClock(start time.Time) func() time.Time {
	next := start
	return func() time.Time {
		t := next
		next = next.Add(time.Minute)
		return t
	}
}

func TestCreateAndList(t *testing.T) {
	dbPath, cleanup := setupTestDB(t)
	defer cleanup()

	mgr := NewManager(dbPath)
	mgr.now = fixedClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.Local))
	ctx := context.Background()

	first, err := mgr.Create(ctx)
	if err != nil {
		t.Fatalf("failed to create backup: %v", err)
	}
	second, err := mgr.Create(ctx)
	if err != nil {
		t.Fatalf("failed to create backup: %v", err)
	}
	if countGoals(t, first.Path) != 1 {
		t.Error("backup does not contain the source rows")
	}

	backups, err := mgr.List()
	if err != nil {
		t.Fatalf("failed to list backups: %v", err)
	}
	if len(backups) != 2 {
		t.Fatalf("expected 2 backups, got %d", len(backups))
	}
	if backups[0].Path != second.Path {
		t.Errorf("expected newest backup first, got %s", backups[0].Name())
	}
}

func TestCreate_SameSecondGetsCounter(t *testing.T) {
	dbPath, cleanup := setupTestDB(t)
	defer cleanup()

	mgr := NewManager(dbPath)
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.Local)
	mgr.now = func() time.Time { return at }

	a, err := mgr.Create(context.Background())
	if err != nil {
		t.Fatalf("failed to create backup: %v", err)
	}
	b, err := mgr.Create(context.Background())
	if err != nil {
		t.Fatalf("failed to create backup: %v", err)
	}
	if a.Path == b.Path {
		t.Fatal("expected distinct backup paths")
	}
	want := fmt.Sprintf("%s%s-1%s", constants.BackupFilePrefix, at.Format(timestampLayout), constants.BackupFileSuffix)
	if b.Name() != want {
		t.Errorf("second backup name = %s, want %s", b.Name(), want)
	}
}

func TestCreate_Prunes(t *testing.T) {
	dbPath, cleanup := setupTestDB(t)
	defer cleanup()

	mgr := NewManager(dbPath)
	mgr.retain = 3
	mgr.now = fixedClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.Local))

	var last Info
	for i := 0; i < 5; i++ {
		info, err := mgr.Create(context.Background())
		if err != nil {
			t.Fatalf("failed to create backup %d: %v", i, err)
		}
		last = info
	}

	backups, _ := mgr.List()
	if len(backups) != 3 {
		t.Fatalf("expected 3 backups after pruning, got %d", len(backups))
	}
	if backups[0].Path != last.Path {
		t.Error("pruning removed the newest backup")
	}
}

func TestCreate_MissingDatabase(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "missing.db"))
	if _, err := mgr.Create(context.Background()); !errors.Is(err, ErrNoDatabase) {
		t.Fatalf("Create() error = %v, want ErrNoDatabase", err)
	}
}

func TestRestore(t *testing.T) {
	dbPath, cleanup := setupTestDB(t)
	defer cleanup()

	mgr := NewManager(dbPath)
	mgr.now = fixedClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.Local))
	ctx := context.Background()

	snap, err := mgr.Create(ctx)
	if err != nil {
		t.Fatalf("failed to create backup: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO goals (id, title) VALUES ('g2', 'Learn piano')`); err != nil {
		t.Fatalf("failed to insert row: %v", err)
	}
	db.Close()

	safety, err := mgr.Restore(ctx, snap.Name())
	if err != nil {
		t.Fatalf("failed to restore: %v", err)
	}
	if safety == nil || countGoals(t, safety.Path) != 2 {
		t.Error("expected a safety backup of the pre-restore database")
	}
	if countGoals(t, dbPath) != 1 {
		t.Error("database was not restored to the snapshot")
	}

	if _, err := mgr.Restore(ctx, "goalkeeper-19990101-000000.db"); err == nil {
		t.Error("expected an error restoring a missing backup")
	}
}

func TestParseName(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"goalkeeper-20250301-100000.db", true},
		{"goalkeeper-20250301-100000-2.db", true},
		{"goalkeeper-20250301-100000-x.db", false},
		{"goalkeeper-2025.db", false},
		{"other-20250301-100000.db", false},
		{"goalkeeper-20250301-100000.txt", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := parseName(tt.name); ok != tt.ok {
				t.Errorf("parseName(%q) ok = %v, want %v", tt.name, ok, tt.ok)
			}
		})
	}
}
