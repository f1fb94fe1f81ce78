package query

import (
	"context"
	"time"

	"github.com/goliatone/go-audit/pkg/types"
	"github.com/goliatone/go-audit/scope"
	gocommand "github.com/goliatone/go-command"
)

const (
	statsTopActions    = 10
	statsTopWorkspaces = 5
	statsDays          = 7
	statsDayLayout     = "2006-01-02"
)

// ActivityStatsFilter is the empty request of the global stats rollup.
type ActivityStatsFilter struct{}

// ActivityStatsConfig wires the stats query.
type ActivityStatsConfig struct {
	Store      types.ActivityStore
	Workspaces types.WorkspaceDirectory
	Guard      scope.Guard
	Clock      types.Clock
	// Location sets the calendar used for "today", "this month" and the day
	// series. Defaults to UTC.
	Location *time.Location
}

// ActivityStatsQuery computes the global activity rollup for admins.
type ActivityStatsQuery struct {
	store      types.ActivityStore
	workspaces types.WorkspaceDirectory
	guard      scope.Guard
	clock      types.Clock
	location   *time.Location
}

// NewActivityStatsQuery constructs the stats query.
func NewActivityStatsQuery(cfg ActivityStatsConfig) *ActivityStatsQuery {
	location := cfg.Location
	if location == nil {
		location = time.UTC
	}
	return &ActivityStatsQuery{
		store:      cfg.Store,
		workspaces: cfg.Workspaces,
		guard:      safeScopeGuard(cfg.Guard),
		clock:      safeClock(cfg.Clock),
		location:   location,
	}
}

var _ gocommand.Querier[ActivityStatsFilter, types.ActivityStats] = (*ActivityStatsQuery)(nil)

// Query returns totals for every window, the top actions, the daily series of
// the last seven days (oldest first, zero filled) and the busiest workspaces.
func (q *ActivityStatsQuery) Query(ctx context.Context, _ ActivityStatsFilter) (types.ActivityStats, error) {
	if _, err := q.guard.Enforce(ctx, types.PolicyActionActivityAdmin, ""); err != nil {
		return types.ActivityStats{}, err
	}
	if q.store == nil {
		return types.ActivityStats{}, types.ErrMissingActivityStore
	}

	now := q.clock.Now().In(q.location)
	windows, days := statsWindows(now)
	counts, err := q.store.CountWindows(ctx, types.ActivityFilter{}, windows)
	if err != nil {
		return types.ActivityStats{}, err
	}

	stats := types.ActivityStats{
		TotalLogs:     counts[0],
		LogsToday:     counts[1],
		LogsThisWeek:  counts[2],
		LogsThisMonth: counts[3],
		LogsByDay:     make([]types.DayCount, 0, len(days)),
	}
	for i, day := range days {
		stats.LogsByDay = append(stats.LogsByDay, types.DayCount{
			Date:  day.Format(statsDayLayout),
			Count: counts[4+i],
		})
	}

	byAction, err := q.store.GroupCount(ctx, types.GroupByAction, types.ActivityFilter{}, statsTopActions)
	if err != nil {
		return types.ActivityStats{}, err
	}
	stats.LogsByAction = make([]types.ActionCount, 0, len(byAction))
	for _, group := range byAction {
		stats.LogsByAction = append(stats.LogsByAction, types.ActionCount{
			Action: types.ActivityAction(group.Key),
			Count:  group.Count,
		})
	}

	byWorkspace, err := q.store.GroupCount(ctx, types.GroupByWorkspaceID, types.ActivityFilter{}, statsTopWorkspaces)
	if err != nil {
		return types.ActivityStats{}, err
	}
	names, err := q.workspaceNames(ctx, byWorkspace)
	if err != nil {
		return types.ActivityStats{}, err
	}
	stats.TopWorkspaces = make([]types.WorkspaceCount, 0, len(byWorkspace))
	for _, group := range byWorkspace {
		name := names[group.Key]
		if name == "" {
			name = group.Key
		}
		stats.TopWorkspaces = append(stats.TopWorkspaces, types.WorkspaceCount{
			WorkspaceID:   group.Key,
			WorkspaceName: name,
			Count:         group.Count,
		})
	}
	return stats, nil
}

func (q *ActivityStatsQuery) workspaceNames(ctx context.Context, groups []types.GroupCount) (map[string]string, error) {
	if q.workspaces == nil || len(groups) == 0 {
		return map[string]string{}, nil
	}
	ids := make([]string, 0, len(groups))
	for _, group := range groups {
		ids = append(ids, group.Key)
	}
	workspaces, err := q.workspaces.FindWorkspacesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(workspaces))
	for id, workspace := range workspaces {
		names[id] = workspace.Name
	}
	return names, nil
}

// statsWindows returns, in order: all time, today, the rolling week, the
// calendar month and one window per day of the series. The day starts are
// returned for labelling. Calendar boundaries follow now's location.
func statsWindows(now time.Time) ([]types.TimeWindow, []time.Time) {
	loc := now.Location()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	weekStart := now.Add(-7 * 24 * time.Hour)

	windows := []types.TimeWindow{
		{},
		{From: todayStart},
		{From: weekStart},
		{From: monthStart},
	}
	days := make([]time.Time, 0, statsDays)
	for i := statsDays - 1; i >= 0; i-- {
		start := todayStart.AddDate(0, 0, -i)
		days = append(days, start)
		windows = append(windows, types.TimeWindow{From: start, To: start.AddDate(0, 0, 1)})
	}
	return windows, days
}
