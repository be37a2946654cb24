package database

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(Config{
		Path:        filepath.Join(t.TempDir(), "netregistry.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func TestOpenAndHealthCheck(t *testing.T) {
	db := openTestDB(t)

	if err := db.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
	if db.Path() == "" {
		t.Error("Path() returned empty string")
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "netregistry.db")
	db, err := Open(Config{Path: path, BusyTimeout: 1})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	db.Close()
}

func TestMigrateWithoutEmbeddedFiles(t *testing.T) {
	db := openTestDB(t)

	// No embedded filesystem registered in this test binary: Migrate must
	// still create the bookkeeping table and succeed.
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	var count int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	if err != nil {
		t.Fatalf("querying schema_migrations: %v", err)
	}
	if count != 0 {
		t.Errorf("applied migrations = %d, want 0", count)
	}
}

func TestApplyMigrationIsRecorded(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.createMigrationsTable(ctx); err != nil {
		t.Fatalf("createMigrationsTable() error = %v", err)
	}

	m := Migration{
		Version: "20260301_120000",
		Name:    "create_widgets",
		UpSQL:   "CREATE TABLE widgets (id TEXT PRIMARY KEY)",
	}
	if err := db.applyMigration(ctx, m); err != nil {
		t.Fatalf("applyMigration() error = %v", err)
	}

	applied, err := db.appliedMigrations(ctx)
	if err != nil {
		t.Fatalf("appliedMigrations() error = %v", err)
	}
	if len(applied) != 1 || applied[0].Version != m.Version {
		t.Errorf("applied = %+v, want version %s", applied, m.Version)
	}

	// The migrated table is usable.
	if _, err := db.ExecContext(ctx, "INSERT INTO widgets (id) VALUES ('w1')"); err != nil {
		t.Errorf("inserting into migrated table: %v", err)
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name        string
		wantVersion string
		wantUp      bool
		wantOK      bool
	}{
		{"20260301_120000_create_devices.up.sql", "20260301_120000", true, true},
		{"20260301_120000_create_devices.down.sql", "20260301_120000", false, true},
		{"README.md", "", false, false},
		{"notes.sql", "", false, false},
		{"20260301_bare.up.sql", "20260301_bare", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, isUp, ok := parseMigrationFilename(tt.name)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if version != tt.wantVersion || isUp != tt.wantUp {
				t.Errorf("= (%q, %v), want (%q, %v)", version, isUp, tt.wantVersion, tt.wantUp)
			}
		})
	}
}

func TestMigrationName(t *testing.T) {
	if got := migrationName("20260301_120000_create_devices.up.sql"); got != "create_devices" {
		t.Errorf("migrationName() = %q, want %q", got, "create_devices")
	}
}
