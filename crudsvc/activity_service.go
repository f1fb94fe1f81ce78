package crudsvc

import (
	"context"
	"strings"

	"github.com/goliatone/go-audit/activity"
	"github.com/goliatone/go-audit/command"
	"github.com/goliatone/go-audit/crudguard"
	"github.com/goliatone/go-audit/pkg/types"
	"github.com/goliatone/go-audit/query"
	"github.com/goliatone/go-audit/service"
	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-crud"
	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
)

// ActivityServiceConfig wires dependencies for the CRUD-backed activity service.
type ActivityServiceConfig struct {
	Guard         GuardAdapter
	CreateCommand gocommand.Commander[command.CreateActivityLogInput]
	FeedQuery     gocommand.Querier[query.WorkspaceActivityFilter, []types.ActivityDisplay]
	CountQuery    gocommand.Querier[query.ActivityCountFilter, int]
	AdminQuery    gocommand.Querier[query.AllActivityFilter, types.ActivityPage]
	Users         types.UserDirectory
	Formatter     *activity.Formatter
}

// ActivityServiceConfigFrom takes the handlers from an assembled service.
func ActivityServiceConfigFrom(svc *service.Service, guard GuardAdapter) ActivityServiceConfig {
	commands := svc.Commands()
	queries := svc.Queries()
	return ActivityServiceConfig{
		Guard:         guard,
		CreateCommand: commands.CreateActivityLog,
		FeedQuery:     queries.WorkspaceActivity,
		CountQuery:    queries.ActivityCount,
		AdminQuery:    queries.AllActivity,
		Users:         svc.Users(),
		Formatter:     svc.Formatter(),
	}
}

// ActivityService adapts the go-audit command/query layer to a go-crud
// controller. Listing with a workspace_id parameter returns the tenant feed.
// Listing without it returns the paginated admin view.
type ActivityService struct {
	guard     GuardAdapter
	create    gocommand.Commander[command.CreateActivityLogInput]
	feed      gocommand.Querier[query.WorkspaceActivityFilter, []types.ActivityDisplay]
	count     gocommand.Querier[query.ActivityCountFilter, int]
	admin     gocommand.Querier[query.AllActivityFilter, types.ActivityPage]
	users     types.UserDirectory
	formatter *activity.Formatter
	logger    types.Logger
}

// NewActivityService constructs the adapter.
func NewActivityService(cfg ActivityServiceConfig, opts ...ServiceOption) *ActivityService {
	options := applyOptions(opts)
	formatter := cfg.Formatter
	if formatter == nil {
		formatter = activity.NewFormatter(activity.DefaultCatalog())
	}
	return &ActivityService{
		guard:     cfg.Guard,
		create:    cfg.CreateCommand,
		feed:      cfg.FeedQuery,
		count:     cfg.CountQuery,
		admin:     cfg.AdminQuery,
		users:     cfg.Users,
		formatter: formatter,
		logger:    options.logger,
	}
}

func (s *ActivityService) Create(ctx crud.Context, record *activity.LogEntry) (*activity.LogEntry, error) {
	if s.create == nil {
		return nil, goerrors.New("activity logging unavailable", goerrors.CategoryInternal).WithCode(goerrors.CodeInternal)
	}
	if record == nil {
		return nil, types.NewValidationError("activity log data must be an object")
	}
	input := activity.InputFromLogEntry(record)
	if _, err := s.guard.Enforce(crudguard.GuardInput{
		Context:     ctx,
		Operation:   crud.OpCreate,
		WorkspaceID: input.WorkspaceID,
	}); err != nil {
		return nil, err
	}

	var stored types.ActivityEntry
	if err := s.create.Execute(ctx.UserContext(), command.CreateActivityLogInput{
		Input:  input,
		Result: &stored,
	}); err != nil {
		return nil, err
	}
	display := s.formatter.Format(stored.Record(), s.actorName(ctx.UserContext(), stored))
	return activity.FromActivityDisplay(display), nil
}

// actorName resolves the name the feed renders for the stored entry. The
// entry is already persisted, so a failed lookup falls back to the email.
func (s *ActivityService) actorName(ctx context.Context, stored types.ActivityEntry) string {
	if s.users != nil && stored.UserID != "" {
		users, err := s.users.FindUsersByIDs(ctx, []string{stored.UserID})
		if err != nil {
			s.logger.Error("activity actor lookup failed", err, "user_id", stored.UserID)
		} else if user, ok := users[stored.UserID]; ok {
			if name := user.DisplayName(); name != "" {
				return name
			}
		}
	}
	return strings.TrimSpace(stored.UserEmail)
}

// CreateBatch is disabled. Entries are written one at a time so a rejected
// record never leaves part of a batch behind.
func (s *ActivityService) CreateBatch(crud.Context, []*activity.LogEntry) ([]*activity.LogEntry, error) {
	return nil, notSupported(crud.OpCreateBatch)
}

func (s *ActivityService) Update(crud.Context, *activity.LogEntry) (*activity.LogEntry, error) {
	return nil, notSupported(crud.OpUpdate)
}

func (s *ActivityService) UpdateBatch(crud.Context, []*activity.LogEntry) ([]*activity.LogEntry, error) {
	return nil, notSupported(crud.OpUpdateBatch)
}

func (s *ActivityService) Delete(crud.Context, *activity.LogEntry) error {
	return notSupported(crud.OpDelete)
}

func (s *ActivityService) DeleteBatch(crud.Context, []*activity.LogEntry) error {
	return notSupported(crud.OpDeleteBatch)
}

func (s *ActivityService) Index(ctx crud.Context, _ []repository.SelectCriteria) ([]*activity.LogEntry, int, error) {
	if workspaceID := strings.TrimSpace(ctx.Query(crudguard.WorkspaceQueryParam)); workspaceID != "" {
		return s.workspaceIndex(ctx, workspaceID)
	}
	return s.adminIndex(ctx)
}

func (s *ActivityService) workspaceIndex(ctx crud.Context, workspaceID string) ([]*activity.LogEntry, int, error) {
	if s.feed == nil {
		return nil, 0, goerrors.New("activity feed query unavailable", goerrors.CategoryInternal).WithCode(goerrors.CodeInternal)
	}
	if _, err := s.guard.Enforce(crudguard.GuardInput{
		Context:     ctx,
		Operation:   crud.OpList,
		WorkspaceID: workspaceID,
	}); err != nil {
		return nil, 0, err
	}

	logs, err := s.feed.Query(ctx.UserContext(), query.WorkspaceActivityFilter{
		WorkspaceID: workspaceID,
		Pagination: types.Pagination{
			Limit:  queryInt(ctx, "limit", activity.DefaultPageSize),
			Offset: queryInt(ctx, "offset", 0),
		},
	})
	if err != nil {
		return nil, 0, err
	}
	total := len(logs)
	if s.count != nil {
		count, err := s.count.Query(ctx.UserContext(), query.ActivityCountFilter{WorkspaceID: workspaceID})
		if err != nil {
			s.logger.Error("activity count failed", err, "workspace_id", workspaceID)
		} else {
			total = count
		}
	}
	return toEntries(logs), total, nil
}

func (s *ActivityService) adminIndex(ctx crud.Context) ([]*activity.LogEntry, int, error) {
	if s.admin == nil {
		return nil, 0, goerrors.New("admin activity query unavailable", goerrors.CategoryInternal).WithCode(goerrors.CodeInternal)
	}
	if _, err := s.guard.Enforce(crudguard.GuardInput{
		Context:   ctx,
		Operation: crud.OpList,
		Action:    types.PolicyActionActivityAdmin,
	}); err != nil {
		return nil, 0, err
	}

	action, err := queryAction(ctx, "action")
	if err != nil {
		return nil, 0, err
	}
	dateFrom, err := queryTime(ctx, "date_from", false)
	if err != nil {
		return nil, 0, err
	}
	dateTo, err := queryTime(ctx, "date_to", true)
	if err != nil {
		return nil, 0, err
	}

	page, err := s.admin.Query(ctx.UserContext(), query.AllActivityFilter{
		WorkspaceID: strings.TrimSpace(ctx.Query("workspace")),
		Action:      action,
		UserID:      strings.TrimSpace(ctx.Query("user_id")),
		DateFrom:    dateFrom,
		DateTo:      dateTo,
		Page:        queryInt(ctx, "page", 1),
		Limit:       queryInt(ctx, "limit", activity.DefaultPageSize),
	})
	if err != nil {
		return nil, 0, err
	}
	return toEntries(page.Logs), page.Total, nil
}

func (s *ActivityService) Show(crud.Context, string, []repository.SelectCriteria) (*activity.LogEntry, error) {
	return nil, notSupported(crud.OpRead)
}

func toEntries(logs []types.ActivityDisplay) []*activity.LogEntry {
	entries := make([]*activity.LogEntry, 0, len(logs))
	for _, display := range logs {
		entries = append(entries, activity.FromActivityDisplay(display))
	}
	return entries
}
