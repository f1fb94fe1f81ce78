package migrations_test

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"sort"
	"strings"
	"testing"
	"testing/fstest"

	_ "github.com/mattn/go-sqlite3"

	"github.com/goliatone/go-audit/migrations"
)

func TestMigrationsApplyToSQLite(t *testing.T) {
	t.Parallel()

	db := openSQLite(t)
	ctx := context.Background()
	for _, source := range migrations.Sources() {
		if err := applyFilesystem(ctx, db, source.FS, "sqlite/*.up.sql"); err != nil {
			t.Fatalf("failed to apply migrations: %v", err)
		}
	}

	var tableName string
	if err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name='activity_logs'").Scan(&tableName); err != nil {
		t.Fatalf("failed to verify activity_logs table: %v", err)
	}
	if tableName != "activity_logs" {
		t.Fatalf("expected activity_logs table, got %q", tableName)
	}
	if err := migrations.ValidateSchema(ctx, db, "sqlite3"); err != nil {
		t.Fatalf("expected schema to validate, got %v", err)
	}
}

func TestMigrationsRollbackOnSQLite(t *testing.T) {
	t.Parallel()

	db := openSQLite(t)
	ctx := context.Background()
	for _, source := range migrations.Sources() {
		if err := applyFilesystem(ctx, db, source.FS, "sqlite/*.up.sql"); err != nil {
			t.Fatalf("failed to apply migrations: %v", err)
		}
		if err := applyFilesystemReversed(ctx, db, source.FS, "sqlite/*.down.sql"); err != nil {
			t.Fatalf("failed to roll back migrations: %v", err)
		}
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type='table'").Scan(&count); err != nil {
		t.Fatalf("failed to count tables: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no tables after rollback, got %d", count)
	}
}

func TestPostgresMigrationsMirrorSQLite(t *testing.T) {
	t.Parallel()

	for _, source := range migrations.Sources() {
		root, err := fs.Glob(source.FS, "*.sql")
		if err != nil {
			t.Fatalf("glob failed: %v", err)
		}
		sqlite, err := fs.Glob(source.FS, "sqlite/*.sql")
		if err != nil {
			t.Fatalf("glob failed: %v", err)
		}
		if len(root) == 0 {
			t.Fatal("expected postgres migrations")
		}
		for i := range sqlite {
			sqlite[i] = strings.TrimPrefix(sqlite[i], "sqlite/")
		}
		sort.Strings(root)
		sort.Strings(sqlite)
		if strings.Join(root, ",") != strings.Join(sqlite, ",") {
			t.Fatalf("expected matching migration sets, got %v and %v", root, sqlite)
		}
	}
}

func TestRegisterKeepsFirstSourcePerLabel(t *testing.T) {
	t.Parallel()

	before := migrations.Sources()
	if len(before) == 0 || before[0].Label != migrations.CoreSource {
		t.Fatalf("expected core source to be registered first, got %+v", before)
	}
	migrations.Register(migrations.CoreSource, fstest.MapFS{})
	migrations.Register("ignored", nil)

	after := migrations.Sources()
	if len(after) != len(before) {
		t.Fatalf("expected %d sources, got %d", len(before), len(after))
	}
	if _, err := fs.Stat(after[0].FS, "00002_activity_logs.up.sql"); err != nil {
		t.Fatalf("expected core source to keep its files: %v", err)
	}
}

func TestValidateSchemaReportsMissingTables(t *testing.T) {
	t.Parallel()

	db := openSQLite(t)
	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "CREATE TABLE activity_logs (id TEXT PRIMARY KEY, action TEXT)"); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}

	err := migrations.ValidateSchema(ctx, db, "sqlite")
	var schemaErr *migrations.SchemaValidationError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected schema validation error, got %v", err)
	}
	if len(schemaErr.MissingTables) != 4 {
		t.Fatalf("expected four missing directory tables, got %v", schemaErr.MissingTables)
	}
	missing := schemaErr.MissingColumns["activity_logs"]
	if len(missing) != 7 {
		t.Fatalf("expected seven missing activity columns, got %v", missing)
	}
	if !strings.Contains(err.Error(), "activity_logs(") {
		t.Fatalf("expected error to name activity_logs, got %q", err.Error())
	}

	custom := migrations.WithSchemaChecks([]migrations.SchemaCheck{{Table: "activity_logs", Columns: []string{"id", "action"}}})
	if err := migrations.ValidateSchema(ctx, db, "sqlite", custom); err != nil {
		t.Fatalf("expected custom checks to pass, got %v", err)
	}
}

func TestValidateSchemaRejectsUnknownDialect(t *testing.T) {
	t.Parallel()

	db := openSQLite(t)
	if err := migrations.ValidateSchema(context.Background(), db, "mysql"); err == nil {
		t.Fatal("expected unsupported dialect error")
	}
	if err := migrations.ValidateSchema(context.Background(), nil, "sqlite"); err == nil {
		t.Fatal("expected nil db error")
	}
}

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func applyFilesystem(ctx context.Context, db *sql.DB, filesystem fs.FS, pattern string) error {
	entries, err := fs.Glob(filesystem, pattern)
	if err != nil {
		return err
	}
	sort.Strings(entries)
	return execFiles(ctx, db, filesystem, entries)
}

func applyFilesystemReversed(ctx context.Context, db *sql.DB, filesystem fs.FS, pattern string) error {
	entries, err := fs.Glob(filesystem, pattern)
	if err != nil {
		return err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(entries)))
	return execFiles(ctx, db, filesystem, entries)
}

func execFiles(ctx context.Context, db *sql.DB, filesystem fs.FS, entries []string) error {
	for _, entry := range entries {
		sqlBytes, err := fs.ReadFile(filesystem, entry)
		if err != nil {
			return err
		}
		statements := splitStatements(string(sqlBytes))
		for _, stmt := range statements {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
	}
	return nil
}

func splitStatements(sql string) []string {
	parts := strings.Split(sql, ";")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
