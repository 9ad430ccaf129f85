package database

import (
	"strings"
	"testing"
)

// 埋め込みマイグレーションにup/downのペアが揃っていることを検証
func TestMigrationsFS_ContainsUpDownPairs(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("failed to read embedded migrations: %v", err)
	}

	if len(entries) == 0 {
		t.Fatal("no migration files embedded")
	}

	ups := 0
	downs := 0
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups++
		case strings.HasSuffix(name, ".down.sql"):
			downs++
		default:
			t.Errorf("unexpected migration file name: %s", name)
		}
	}

	if ups != downs {
		t.Errorf("up migrations = %d, down migrations = %d, want equal", ups, downs)
	}
}

// 初期マイグレーションが全テーブルを作成することを検証
func TestMigrationsFS_InitCreatesAllTables(t *testing.T) {
	data, err := migrationsFS.ReadFile("migrations/000001_init.up.sql")
	if err != nil {
		t.Fatalf("failed to read init migration: %v", err)
	}

	sql := string(data)
	tables := []string{"users", "projects", "project_files", "project_deployments", "project_configs"}
	for _, table := range tables {
		if !strings.Contains(sql, "CREATE TABLE "+table) {
			t.Errorf("init migration does not create table %s", table)
		}
	}

	// ファイルの自然キーと設定の一意制約
	if !strings.Contains(sql, "UNIQUE (project_id, path)") {
		t.Error("project_files is missing the (project_id, path) unique constraint")
	}
}
