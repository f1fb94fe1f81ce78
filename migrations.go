package audit

import "embed"

// MigrationsFS contains SQL migrations for both PostgreSQL and SQLite.
//
// The migrations are organized in a dialect-aware structure:
//   - Root files (data/sql/migrations/*.sql) contain PostgreSQL migrations
//   - SQLite overrides are in data/sql/migrations/sqlite/*.sql
//
// The go-persistence-bun loader will automatically select the correct
// migrations based on the database dialect being used.
//
// Usage:
//
//	import "io/fs"
//	import audit "github.com/goliatone/go-audit"
//	import persistence "github.com/goliatone/go-persistence-bun"
//
//	migrationsFS, _ := fs.Sub(audit.GetMigrationsFS(), "data/sql/migrations")
//	client.RegisterDialectMigrations(
//	    migrationsFS,
//	    persistence.WithDialectSourceLabel("."),
//	    persistence.WithValidationTargets("postgres", "sqlite"),
//	)
//
//go:embed data/sql/migrations
var MigrationsFS embed.FS

// GetMigrationsFS exposes the SQL migration files so host applications can
// register them with go-persistence-bun (or another migration runner).
func GetMigrationsFS() embed.FS {
	return MigrationsFS
}
