package shared

import (
	"database/sql"
	"testing"
)

func newMigrationTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	ConfigureDatabase(db, 1, 1)

	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()

	var found string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&found)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	return true
}

func TestRunMigrations(t *testing.T) {
	db := newMigrationTestDB(t)

	if err := RunMigrations(db); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	for _, table := range []string{"tracks", "play_events", "playlists", "playlist_tracks", "identity_conflicts", "schema_migrations"} {
		if !tableExists(t, db, table) {
			t.Errorf("expected table %s to exist", table)
		}
	}

	// Applying again is a no-op
	if err := RunMigrations(db); err != nil {
		t.Errorf("expected rerun to be a no-op, got %v", err)
	}
}

func TestApplyMigration(t *testing.T) {
	t.Run("semicolon inside a comment does not split statements", func(t *testing.T) {
		db := newMigrationTestDB(t)
		if err := createMigrationsTable(db); err != nil {
			t.Fatalf("failed to create migrations table: %v", err)
		}

		migration := Migration{
			Version: 99,
			Up: `-- membership rows; one per pair
CREATE TABLE pairs (
    id TEXT PRIMARY KEY,
    label TEXT -- display label; free text
);`,
			Down: "DROP TABLE pairs;",
		}

		if err := applyMigration(db, migration); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !tableExists(t, db, "pairs") {
			t.Error("expected table pairs to exist")
		}

		version, err := getCurrentVersion(db)
		if err != nil || version != 99 {
			t.Errorf("expected version 99 recorded, got %d (err %v)", version, err)
		}

		if err := rollbackMigration(db, migration); err != nil {
			t.Fatalf("rollback failed: %v", err)
		}
		if tableExists(t, db, "pairs") {
			t.Error("expected table pairs to be dropped")
		}
		version, err = getCurrentVersion(db)
		if err != nil || version != 0 {
			t.Errorf("expected version record removed, got %d (err %v)", version, err)
		}
	})

	t.Run("invalid SQL rolls back", func(t *testing.T) {
		db := newMigrationTestDB(t)
		if err := createMigrationsTable(db); err != nil {
			t.Fatalf("failed to create migrations table: %v", err)
		}

		migration := Migration{
			Version: 99,
			Up:      "CREATE TABLE pairs (id TEXT PRIMARY KEY);\nnot valid sql;",
			Down:    "DROP TABLE pairs;",
		}

		if err := applyMigration(db, migration); err == nil {
			t.Fatal("expected error for invalid SQL")
		}

		version, err := getCurrentVersion(db)
		if err != nil || version != 0 {
			t.Errorf("expected no version recorded after failure, got %d (err %v)", version, err)
		}
	})
}

func TestRemoveComments(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"full-line comment", "-- just a comment", ""},
		{"trailing comment", "SELECT 1 -- explain", "SELECT 1"},
		{"comment with semicolon", "-- a; b\nSELECT 1", "SELECT 1"},
		{"no comment", "SELECT 1", "SELECT 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := removeComments(tt.input); got != tt.want {
				t.Errorf("removeComments(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
