package db_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/oscar066/kiduka-cli/internal/db"
)

func TestApplyMigrationsIdempotent(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "kiduka.db")
	sqldb, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer sqldb.Close()

	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("first apply migrations: %v", err)
	}
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("second apply migrations: %v", err)
	}

	version, err := db.SchemaVersion(sqldb)
	if err != nil {
		t.Fatalf("read schema version: %v", err)
	}
	if version != 3 {
		t.Fatalf("expected schema version 3, got %d", version)
	}

	var migrationCount int
	if err := sqldb.QueryRow(`SELECT COUNT(1) FROM schema_migrations`).Scan(&migrationCount); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if migrationCount != 3 {
		t.Fatalf("expected 3 migration versions, got %d", migrationCount)
	}

	for _, table := range []string{"app_config", "session", "cached_user", "soil_draft", "analysis_cache"} {
		var count int
		if err := sqldb.QueryRow(`SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&count); err != nil {
			t.Fatalf("check %s table: %v", table, err)
		}
		if count != 1 {
			t.Fatalf("expected %s table to exist", table)
		}
	}

	var draftColCount int
	if err := sqldb.QueryRow(`SELECT COUNT(1) FROM pragma_table_info('soil_draft') WHERE name = 'organic_matter'`).Scan(&draftColCount); err != nil {
		t.Fatalf("check soil_draft organic_matter column: %v", err)
	}
	if draftColCount != 1 {
		t.Fatalf("expected organic_matter column in soil_draft table")
	}

	var cacheIndexCount int
	if err := sqldb.QueryRow(`SELECT COUNT(1) FROM sqlite_master WHERE type = 'index' AND name = 'idx_analysis_cache_fetched_at'`).Scan(&cacheIndexCount); err != nil {
		t.Fatalf("check analysis_cache fetched index: %v", err)
	}
	if cacheIndexCount != 1 {
		t.Fatalf("expected idx_analysis_cache_fetched_at index to exist")
	}

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected db file to exist: %v", err)
	}
}
