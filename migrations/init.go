package migrations

import (
	"io/fs"

	audit "github.com/goliatone/go-audit"
)

// CoreSource labels the directory and activity_logs migrations.
const CoreSource = "go-audit"

func init() {
	coreFS, err := fs.Sub(audit.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return
	}
	Register(CoreSource, coreFS)
}
