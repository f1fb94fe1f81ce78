package query

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/goliatone/go-audit/activity"
	"github.com/goliatone/go-audit/pkg/types"
	"github.com/goliatone/go-audit/scope"
	gocommand "github.com/goliatone/go-command"
)

// AdminFeedSize is the number of entries returned by the admin feed.
const AdminFeedSize = 100

// maxListingOffset bounds the row offset of the admin listing so it fits a
// 32-bit OFFSET on every supported dialect.
const maxListingOffset = math.MaxInt32

// WorkspaceActivityFilter selects a page of a single workspace feed.
type WorkspaceActivityFilter struct {
	WorkspaceID string
	Pagination  types.Pagination
}

// WorkspaceActivityQuery lists the activity of one workspace for its members.
// Metadata is masked before it leaves the query.
type WorkspaceActivityQuery struct {
	store    types.ActivityStore
	guard    scope.Guard
	renderer renderer
}

// NewWorkspaceActivityQuery constructs the tenant feed query.
func NewWorkspaceActivityQuery(store types.ActivityStore, guard scope.Guard, opts ...Option) *WorkspaceActivityQuery {
	return &WorkspaceActivityQuery{
		store:    store,
		guard:    safeScopeGuard(guard),
		renderer: applyOptions(opts).renderer(true),
	}
}

var _ gocommand.Querier[WorkspaceActivityFilter, []types.ActivityDisplay] = (*WorkspaceActivityQuery)(nil)

// Query returns the newest entries first. The page defaults to 50 entries
// and is capped at 100.
func (q *WorkspaceActivityQuery) Query(ctx context.Context, filter WorkspaceActivityFilter) ([]types.ActivityDisplay, error) {
	if q.store == nil {
		return nil, types.ErrMissingActivityStore
	}
	workspaceID := strings.TrimSpace(filter.WorkspaceID)
	if _, err := q.guard.Enforce(ctx, types.PolicyActionActivityRead, workspaceID); err != nil {
		return nil, err
	}
	page := activity.NormalizePagination(filter.Pagination, activity.DefaultPageSize, activity.MaxPageSize)
	records, _, err := q.store.FindMany(ctx, types.ActivityFilter{WorkspaceID: workspaceID}, page)
	if err != nil {
		return nil, err
	}
	return q.renderer.render(ctx, records)
}

// ActivityCountFilter narrows the tenant count.
type ActivityCountFilter struct {
	WorkspaceID string
	Action      types.ActivityAction
	DateFrom    *time.Time
	DateTo      *time.Time
}

// ActivityCountQuery counts the activity of one workspace for its members.
type ActivityCountQuery struct {
	store types.ActivityStore
	guard scope.Guard
}

// NewActivityCountQuery constructs the tenant count query.
func NewActivityCountQuery(store types.ActivityStore, guard scope.Guard) *ActivityCountQuery {
	return &ActivityCountQuery{
		store: store,
		guard: safeScopeGuard(guard),
	}
}

var _ gocommand.Querier[ActivityCountFilter, int] = (*ActivityCountQuery)(nil)

// Query returns the number of entries matching the filter.
func (q *ActivityCountQuery) Query(ctx context.Context, filter ActivityCountFilter) (int, error) {
	if q.store == nil {
		return 0, types.ErrMissingActivityStore
	}
	workspaceID := strings.TrimSpace(filter.WorkspaceID)
	if _, err := q.guard.Enforce(ctx, types.PolicyActionActivityRead, workspaceID); err != nil {
		return 0, err
	}
	return q.store.Count(ctx, types.ActivityFilter{
		WorkspaceID: workspaceID,
		Action:      filter.Action,
		DateFrom:    filter.DateFrom,
		DateTo:      filter.DateTo,
	})
}

// AdminActivityFeedFilter optionally narrows the admin feed to one workspace.
type AdminActivityFeedFilter struct {
	WorkspaceID string
}

// AdminActivityFeedQuery returns the newest entries across every workspace
// for global admins.
type AdminActivityFeedQuery struct {
	store    types.ActivityStore
	guard    scope.Guard
	renderer renderer
}

// NewAdminActivityFeedQuery constructs the admin feed query.
func NewAdminActivityFeedQuery(store types.ActivityStore, guard scope.Guard, opts ...Option) *AdminActivityFeedQuery {
	return &AdminActivityFeedQuery{
		store:    store,
		guard:    safeScopeGuard(guard),
		renderer: applyOptions(opts).renderer(false),
	}
}

var _ gocommand.Querier[AdminActivityFeedFilter, []types.ActivityDisplay] = (*AdminActivityFeedQuery)(nil)

// Query returns up to AdminFeedSize entries, newest first.
func (q *AdminActivityFeedQuery) Query(ctx context.Context, filter AdminActivityFeedFilter) ([]types.ActivityDisplay, error) {
	if _, err := q.guard.Enforce(ctx, types.PolicyActionActivityAdmin, ""); err != nil {
		return nil, err
	}
	if q.store == nil {
		return nil, types.ErrMissingActivityStore
	}
	records, _, err := q.store.FindMany(ctx,
		types.ActivityFilter{WorkspaceID: strings.TrimSpace(filter.WorkspaceID)},
		types.Pagination{Limit: AdminFeedSize})
	if err != nil {
		return nil, err
	}
	return q.renderer.render(ctx, records)
}

// AllActivityFilter holds the admin listing filters. Page is 1-based and an
// empty WorkspaceID spans every workspace.
type AllActivityFilter struct {
	WorkspaceID string
	Action      types.ActivityAction
	UserID      string
	DateFrom    *time.Time
	DateTo      *time.Time
	Page        int
	Limit       int
}

// AllActivityQuery is the paginated cross-tenant listing for global admins.
type AllActivityQuery struct {
	store    types.ActivityStore
	guard    scope.Guard
	renderer renderer
}

// NewAllActivityQuery constructs the admin listing query.
func NewAllActivityQuery(store types.ActivityStore, guard scope.Guard, opts ...Option) *AllActivityQuery {
	return &AllActivityQuery{
		store:    store,
		guard:    safeScopeGuard(guard),
		renderer: applyOptions(opts).renderer(false),
	}
}

var _ gocommand.Querier[AllActivityFilter, types.ActivityPage] = (*AllActivityQuery)(nil)

// Query returns one page of matching entries. The page size defaults to 50
// and is capped at 100 regardless of the requested limit. Pages whose offset
// would exceed maxListingOffset are rejected.
func (q *AllActivityQuery) Query(ctx context.Context, filter AllActivityFilter) (types.ActivityPage, error) {
	if _, err := q.guard.Enforce(ctx, types.PolicyActionActivityAdmin, ""); err != nil {
		return types.ActivityPage{}, err
	}
	if q.store == nil {
		return types.ActivityPage{}, types.ErrMissingActivityStore
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pagination := activity.NormalizePagination(types.Pagination{Limit: filter.Limit}, activity.DefaultPageSize, activity.MaxPageSize)
	if page-1 > maxListingOffset/pagination.Limit {
		return types.ActivityPage{}, types.NewValidationError(fmt.Sprintf("page %d is out of range", page))
	}
	pagination.Offset = (page - 1) * pagination.Limit

	records, total, err := q.store.FindMany(ctx, types.ActivityFilter{
		WorkspaceID: strings.TrimSpace(filter.WorkspaceID),
		Action:      filter.Action,
		UserID:      strings.TrimSpace(filter.UserID),
		DateFrom:    filter.DateFrom,
		DateTo:      filter.DateTo,
	}, pagination)
	if err != nil {
		return types.ActivityPage{}, err
	}
	logs, err := q.renderer.render(ctx, records)
	if err != nil {
		return types.ActivityPage{}, err
	}
	return types.ActivityPage{
		Logs:       logs,
		Total:      total,
		Page:       page,
		TotalPages: totalPages(total, pagination.Limit),
	}, nil
}

// WorkspaceAdminActivityFilter selects one workspace for the admin view.
type WorkspaceAdminActivityFilter struct {
	WorkspaceID string
	Limit       int
}

// WorkspaceAdminActivityQuery lists any workspace feed for global admins.
type WorkspaceAdminActivityQuery struct {
	store    types.ActivityStore
	guard    scope.Guard
	renderer renderer
}

// NewWorkspaceAdminActivityQuery constructs the admin workspace query.
func NewWorkspaceAdminActivityQuery(store types.ActivityStore, guard scope.Guard, opts ...Option) *WorkspaceAdminActivityQuery {
	return &WorkspaceAdminActivityQuery{
		store:    store,
		guard:    safeScopeGuard(guard),
		renderer: applyOptions(opts).renderer(false),
	}
}

var _ gocommand.Querier[WorkspaceAdminActivityFilter, []types.ActivityDisplay] = (*WorkspaceAdminActivityQuery)(nil)

// Query returns the newest entries of the workspace, capped at 100.
func (q *WorkspaceAdminActivityQuery) Query(ctx context.Context, filter WorkspaceAdminActivityFilter) ([]types.ActivityDisplay, error) {
	if _, err := q.guard.Enforce(ctx, types.PolicyActionActivityAdmin, ""); err != nil {
		return nil, err
	}
	if q.store == nil {
		return nil, types.ErrMissingActivityStore
	}
	workspaceID := strings.TrimSpace(filter.WorkspaceID)
	if workspaceID == "" {
		return nil, types.NewValidationError("workspaceId is required")
	}
	page := activity.NormalizePagination(types.Pagination{Limit: filter.Limit}, activity.DefaultPageSize, activity.MaxPageSize)
	records, _, err := q.store.FindMany(ctx, types.ActivityFilter{WorkspaceID: workspaceID}, page)
	if err != nil {
		return nil, err
	}
	return q.renderer.render(ctx, records)
}
