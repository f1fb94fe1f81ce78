package service

import (
	"context"
	"time"

	"github.com/goliatone/go-audit/activity"
	"github.com/goliatone/go-audit/command"
	"github.com/goliatone/go-audit/pkg/authctx"
	"github.com/goliatone/go-audit/pkg/types"
	"github.com/goliatone/go-audit/query"
	"github.com/goliatone/go-audit/scope"
	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/goliatone/go-masker"
)

// Service is the entry point for go-audit. It wires the activity store, the
// directory resolvers, hooks, and command/query facades supplied by the host
// application.
type Service struct {
	cfg        Config
	commands   Commands
	queries    Queries
	access     *scope.AccessController
	scopeGuard scope.Guard
}

// Commands exposes the service command handlers.
type Commands struct {
	CreateActivityLog *command.CreateActivityLogCommand
}

// Queries exposes read-model helpers.
type Queries struct {
	WorkspaceActivity      *query.WorkspaceActivityQuery
	ActivityCount          *query.ActivityCountQuery
	AdminActivityFeed      *query.AdminActivityFeedQuery
	AllActivity            *query.AllActivityQuery
	WorkspaceAdminActivity *query.WorkspaceAdminActivityQuery
	ActivityStats          *query.ActivityStatsQuery
}

// Config captures all required dependencies so callers can provide their own
// instances (bun-backed repositories, feature gates, hooks, etc.).
type Config struct {
	ActivityStore       types.ActivityStore
	Sessions            types.SessionResolver
	Memberships         types.MembershipResolver
	GlobalRoles         types.GlobalRoleResolver
	Users               types.UserDirectory
	Workspaces          types.WorkspaceDirectory
	FeatureGate         featuregate.FeatureGate
	AuthorizationPolicy types.AuthorizationPolicy
	Formatter           *activity.Formatter
	Masker              *masker.Masker
	Hooks               types.Hooks
	Clock               types.Clock
	Logger              types.Logger
	// Location sets the calendar used by the stats rollup. Defaults to UTC.
	Location *time.Location
}

// New constructs a Service from the supplied configuration.
func New(cfg Config) *Service {
	norm := normalizeConfig(cfg)
	access := scope.NewAccessController(scope.AccessConfig{
		Sessions:    norm.Sessions,
		Memberships: norm.Memberships,
		GlobalRoles: norm.GlobalRoles,
		Logger:      norm.Logger,
	})
	s := &Service{
		cfg:        norm,
		access:     access,
		scopeGuard: scope.NewGuard(access, norm.AuthorizationPolicy),
	}
	s.commands = s.buildCommands()
	s.queries = s.buildQueries()
	return s
}

func normalizeConfig(cfg Config) Config {
	if cfg.Clock == nil {
		cfg.Clock = types.SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = types.NopLogger{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Sessions == nil {
		cfg.Sessions = authctx.SessionResolver{}
	}
	if cfg.Formatter == nil {
		cfg.Formatter = activity.NewFormatter(activity.DefaultCatalog())
	}
	// A single directory usually serves every lookup.
	if cfg.Memberships == nil {
		if cast, ok := cfg.Users.(types.MembershipResolver); ok {
			cfg.Memberships = cast
		}
	}
	if cfg.GlobalRoles == nil {
		if cast, ok := cfg.Users.(types.GlobalRoleResolver); ok {
			cfg.GlobalRoles = cast
		}
	}
	if cfg.Workspaces == nil {
		if cast, ok := cfg.Users.(types.WorkspaceDirectory); ok {
			cfg.Workspaces = cast
		}
	}
	return cfg
}

// Commands returns the command facade.
func (s *Service) Commands() Commands {
	return s.commands
}

// Queries returns the query facade.
func (s *Service) Queries() Queries {
	return s.queries
}

// Ready reports whether the service has the required dependencies wired in.
func (s *Service) Ready() bool {
	return s != nil &&
		s.cfg.ActivityStore != nil &&
		s.cfg.Sessions != nil &&
		s.cfg.Memberships != nil &&
		s.cfg.GlobalRoles != nil
}

// HealthCheck surfaces missing configuration so transports can refuse to
// start before serving requests.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s == nil {
		return types.ErrServiceNotReady
	}
	if s.cfg.ActivityStore == nil {
		return types.ErrMissingActivityStore
	}
	if s.cfg.Sessions == nil {
		return types.ErrMissingSessionResolver
	}
	if s.cfg.Memberships == nil {
		return types.ErrMissingMembershipResolver
	}
	if s.cfg.GlobalRoles == nil {
		return types.ErrMissingGlobalRoleResolver
	}
	if s.cfg.Users == nil {
		s.cfg.Logger.Debug("go-audit: no user directory configured, names fall back to email snapshots")
	}
	if s.cfg.Workspaces == nil {
		s.cfg.Logger.Debug("go-audit: no workspace directory configured, stats show workspace ids")
	}
	return nil
}

// ScopeGuard exposes the guard instance used internally so transports can
// reuse the same access rules for their adapters.
func (s *Service) ScopeGuard() scope.Guard {
	if s == nil {
		return scope.Ensure(nil)
	}
	return scope.Ensure(s.scopeGuard)
}

// Formatter returns the formatter used by the query handlers.
func (s *Service) Formatter() *activity.Formatter {
	if s == nil {
		return activity.NewFormatter(activity.DefaultCatalog())
	}
	return s.cfg.Formatter
}

// Users returns the directory used to resolve actor names, or nil.
func (s *Service) Users() types.UserDirectory {
	if s == nil {
		return nil
	}
	return s.cfg.Users
}

// AccessController exposes the membership/global admin decision.
func (s *Service) AccessController() *scope.AccessController {
	if s == nil {
		return nil
	}
	return s.access
}

// StatsOrZero runs the stats rollup for UI widgets. Storage failures are
// logged and reported as zeroed stats. Authentication and authorization
// failures are still returned.
func (s *Service) StatsOrZero(ctx context.Context) (types.ActivityStats, error) {
	stats, err := s.queries.ActivityStats.Query(ctx, query.ActivityStatsFilter{})
	if err == nil {
		return stats, nil
	}
	if types.IsAccessError(err) {
		return types.ActivityStats{}, err
	}
	s.cfg.Logger.Error("go-audit: activity stats unavailable", err)
	return zeroStats(s.cfg.Clock.Now().In(s.cfg.Location)), nil
}

// CountOrZero counts workspace activity for UI badges. Storage failures are
// logged and reported as zero. Authentication and authorization failures are
// still returned.
func (s *Service) CountOrZero(ctx context.Context, filter query.ActivityCountFilter) (int, error) {
	count, err := s.queries.ActivityCount.Query(ctx, filter)
	if err == nil {
		return count, nil
	}
	if types.IsAccessError(err) {
		return 0, err
	}
	s.cfg.Logger.Error("go-audit: activity count unavailable", err, "workspace_id", filter.WorkspaceID)
	return 0, nil
}

func zeroStats(now time.Time) types.ActivityStats {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	days := make([]types.DayCount, 0, 7)
	for i := 6; i >= 0; i-- {
		days = append(days, types.DayCount{Date: start.AddDate(0, 0, -i).Format("2006-01-02")})
	}
	return types.ActivityStats{
		LogsByAction:  []types.ActionCount{},
		LogsByDay:     days,
		TopWorkspaces: []types.WorkspaceCount{},
	}
}

func (s *Service) buildCommands() Commands {
	return Commands{
		CreateActivityLog: command.NewCreateActivityLogCommand(command.CreateActivityLogConfig{
			Store:       s.cfg.ActivityStore,
			Users:       s.cfg.Users,
			Guard:       s.scopeGuard,
			FeatureGate: s.cfg.FeatureGate,
			Hooks:       s.cfg.Hooks,
			Clock:       s.cfg.Clock,
			Logger:      s.cfg.Logger,
		}),
	}
}

func (s *Service) buildQueries() Queries {
	opts := []query.Option{
		query.WithUserDirectory(s.cfg.Users),
		query.WithFormatter(s.cfg.Formatter),
		query.WithMasker(s.cfg.Masker),
	}
	return Queries{
		WorkspaceActivity:      query.NewWorkspaceActivityQuery(s.cfg.ActivityStore, s.scopeGuard, opts...),
		ActivityCount:          query.NewActivityCountQuery(s.cfg.ActivityStore, s.scopeGuard),
		AdminActivityFeed:      query.NewAdminActivityFeedQuery(s.cfg.ActivityStore, s.scopeGuard, opts...),
		AllActivity:            query.NewAllActivityQuery(s.cfg.ActivityStore, s.scopeGuard, opts...),
		WorkspaceAdminActivity: query.NewWorkspaceAdminActivityQuery(s.cfg.ActivityStore, s.scopeGuard, opts...),
		ActivityStats: query.NewActivityStatsQuery(query.ActivityStatsConfig{
			Store:      s.cfg.ActivityStore,
			Workspaces: s.cfg.Workspaces,
			Guard:      s.scopeGuard,
			Clock:      s.cfg.Clock,
			Location:   s.cfg.Location,
		}),
	}
}
