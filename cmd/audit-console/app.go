package main

import (
	"context"
	"database/sql"
	"fmt"

	audit "github.com/goliatone/go-audit"
	"github.com/goliatone/go-audit/activity"
	"github.com/goliatone/go-audit/migrations"
	"github.com/goliatone/go-audit/pkg/authctx"
	"github.com/goliatone/go-audit/pkg/types"
	"github.com/goliatone/go-audit/registry"
	"github.com/goliatone/go-auth"
	gconfig "github.com/goliatone/go-config/config"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-persistence-bun"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

// App bundles the runtime used by every console command.
type App struct {
	config    *gconfig.Container[*Config]
	logger    *glog.BaseLogger
	db        *bun.DB
	sqlDB     *sql.DB
	dialect   string
	directory *registry.Directory
	store     *activity.Repository
	audit     *audit.Service
}

func (a *App) Config() *Config {
	return a.config.Raw()
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

// Close releases the database handle.
func (a *App) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

// AsActor binds the console principal to ctx.
func (a *App) AsActor(ctx context.Context, actorID string) context.Context {
	if actorID == "" {
		return ctx
	}
	return authctx.WithActor(ctx, &auth.ActorContext{ActorID: actorID})
}

func newApp(ctx context.Context, opts rootOptions) (*App, error) {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("audit"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	base := defaultConfig()
	cfg := gconfig.New(base).WithLogger(lgr.GetLogger("config"))
	if err := cfg.Load(ctx); err != nil {
		return nil, err
	}
	if opts.driver != "" {
		cfg.Raw().Persistence.Driver = opts.driver
	}
	if opts.dsn != "" {
		cfg.Raw().Persistence.Server = opts.dsn
	}
	if err := cfg.Raw().Validate(); err != nil {
		return nil, err
	}

	app := &App{config: cfg, logger: lgr}
	if err := WithPersistence(ctx, app); err != nil {
		return nil, err
	}
	if err := WithAuditService(ctx, app); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

// WithPersistence opens the database, registers the dialect aware migrations
// and applies them.
func WithPersistence(ctx context.Context, app *App) error {
	cfg := app.Config().GetPersistence()
	dialectName, err := migrations.NormalizeDialect(cfg.GetDriver())
	if err != nil {
		return err
	}

	driverName := "sqlite3"
	var dialect schema.Dialect = sqlitedialect.New()
	if dialectName == "postgres" {
		driverName = "pgx"
		dialect = pgdialect.New()
	}

	db, err := sql.Open(driverName, cfg.GetServer())
	if err != nil {
		return err
	}
	if dialectName == "sqlite" {
		db.SetMaxOpenConns(1)
	}

	persistence.RegisterModel((*activity.LogEntry)(nil))
	persistence.RegisterModel((*registry.UserRecord)(nil))
	persistence.RegisterModel((*registry.WorkspaceRecord)(nil))
	persistence.RegisterModel((*registry.MemberRecord)(nil))
	persistence.RegisterModel((*registry.GlobalUserRecord)(nil))

	bunClient, err := persistence.New(cfg, db, dialect)
	if err != nil {
		return err
	}
	bunClient.SetLogger(app.GetLogger("persistence"))

	sources := migrations.Sources()
	if len(sources) == 0 {
		return fmt.Errorf("no migration sources registered")
	}
	for _, source := range sources {
		app.GetLogger("persistence").Debug("registering migrations", "source", source.Label)
		bunClient.RegisterDialectMigrations(
			source.FS,
			persistence.WithDialectSourceLabel("."),
			persistence.WithValidationTargets("postgres", "sqlite"),
		)
	}
	if err := bunClient.ValidateDialects(ctx); err != nil {
		app.GetLogger("persistence").Warn("dialect validation failed", "error", err)
	}
	if err := bunClient.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if report := bunClient.Report(); report != nil && !report.IsZero() {
		app.GetLogger("persistence").Info("migrations applied", "report", report.String())
	}

	app.db = bunClient.DB()
	app.sqlDB = db
	app.dialect = dialectName
	return nil
}

// WithAuditService assembles the repositories and the go-audit service.
func WithAuditService(ctx context.Context, app *App) error {
	logger := &loggerAdapter{app.GetLogger("audit")}

	store, err := activity.NewRepository(activity.RepositoryConfig{DB: app.db})
	if err != nil {
		return err
	}
	directory, err := registry.NewDirectory(registry.DirectoryConfig{
		DB:     app.db,
		Logger: logger,
	})
	if err != nil {
		return err
	}
	location, err := app.Config().Stats.Location()
	if err != nil {
		return err
	}

	svc := audit.New(audit.Config{
		ActivityStore: store,
		Users:         directory,
		Location:      location,
		Hooks: types.Hooks{
			AfterActivity: func(_ context.Context, entry types.ActivityEntry) {
				app.GetLogger("hooks").Debug("activity recorded",
					"id", entry.ID,
					"workspace_id", entry.WorkspaceID,
					"action", entry.Action)
			},
		},
		Logger: logger,
	})
	if err := svc.HealthCheck(ctx); err != nil {
		return err
	}

	app.store = store
	app.directory = directory
	app.audit = svc
	return nil
}

// loggerAdapter adapts glog.Logger to types.Logger
type loggerAdapter struct {
	l glog.Logger
}

func (a *loggerAdapter) Debug(msg string, args ...any) {
	a.l.Debug(msg, args...)
}

func (a *loggerAdapter) Info(msg string, args ...any) {
	a.l.Info(msg, args...)
}

func (a *loggerAdapter) Error(msg string, err error, args ...any) {
	if err != nil {
		args = append([]any{"error", err}, args...)
	}
	a.l.Error(msg, args...)
}
