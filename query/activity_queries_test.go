package query

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-audit/activity"
	"github.com/goliatone/go-audit/command"
	"github.com/goliatone/go-audit/pkg/authctx"
	"github.com/goliatone/go-audit/pkg/types"
	"github.com/goliatone/go-audit/registry"
	"github.com/goliatone/go-audit/scope"
	"github.com/goliatone/go-auth"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

type fixture struct {
	store *activity.Repository
	dir   *registry.Directory
	guard scope.Guard
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	db := newActivityQueryDB(t)
	applyActivityQueryDDL(t, db)

	store, err := activity.NewRepository(activity.RepositoryConfig{DB: db})
	require.NoError(t, err)
	dir, err := registry.NewDirectory(registry.DirectoryConfig{DB: db})
	require.NoError(t, err)

	require.NoError(t, dir.SaveWorkspace(ctx, types.WorkspaceSummary{ID: "ws_1", Name: "Acme"}))
	require.NoError(t, dir.SaveWorkspace(ctx, types.WorkspaceSummary{ID: "ws_2", Name: "Globex"}))
	require.NoError(t, dir.SaveUser(ctx, types.UserSummary{ID: "u_1", Name: "Ana", Email: "ana@example.com"}))
	require.NoError(t, dir.SaveUser(ctx, types.UserSummary{ID: "u_2", Email: "bruno@example.com"}))
	require.NoError(t, dir.SaveUser(ctx, types.UserSummary{ID: "u_admin", Name: "Root", Email: "root@example.com"}))
	require.NoError(t, dir.AddMember(ctx, types.WorkspaceMember{WorkspaceID: "ws_1", UserID: "u_1", IsActive: true}))
	require.NoError(t, dir.AddMember(ctx, types.WorkspaceMember{WorkspaceID: "ws_2", UserID: "u_2", IsActive: true}))
	require.NoError(t, dir.SetGlobalRole(ctx, types.GlobalUser{UserID: "u_admin", Role: types.GlobalRoleAdmin, IsActive: true}))

	access := scope.NewAccessController(scope.AccessConfig{
		Sessions:    authctx.SessionResolver{},
		Memberships: dir,
		GlobalRoles: dir,
	})
	return fixture{store: store, dir: dir, guard: scope.NewGuard(access, nil)}
}

func as(userID string) context.Context {
	return authctx.WithActor(context.Background(), &auth.ActorContext{ActorID: userID})
}

func (f fixture) seed(t *testing.T, workspaceID, userID string, action types.ActivityAction, at time.Time) types.ActivityEntry {
	t.Helper()
	entry, err := f.store.Insert(context.Background(), types.ActivityEntry{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Action:      action,
		EntityType:  types.EntityProject,
		CreatedAt:   at,
	})
	require.NoError(t, err)
	return entry
}

func TestScenarioCreateThenListByMember(t *testing.T) {
	f := newFixture(t)
	create := command.NewCreateActivityLogCommand(command.CreateActivityLogConfig{
		Store: f.store,
		Users: f.dir,
		Guard: f.guard,
	})

	entityID := "proj_9"
	result := &types.ActivityEntry{}
	err := create.Execute(as("u_1"), command.CreateActivityLogInput{
		Input: types.ActivityInput{
			WorkspaceID: "ws_1",
			UserID:      "u_1",
			Action:      "PROJECT_CREATED",
			EntityType:  "PROJECT",
			EntityID:    &entityID,
		},
		Result: result,
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.ID)

	feed := NewWorkspaceActivityQuery(f.store, f.guard, WithUserDirectory(f.dir))
	logs, err := feed.Query(as("u_1"), WorkspaceActivityFilter{WorkspaceID: "ws_1"})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, result.ID, logs[0].ID)
	require.Equal(t, "ana@example.com", logs[0].UserEmail)
	require.Contains(t, logs[0].FormattedMessage, "Ana")
	require.Contains(t, logs[0].FormattedMessage, "criou o projeto")
	require.Contains(t, logs[0].FormattedMessage, "(proj_9)")
}

func TestScenarioNonMemberCreateLeavesFeedUnchanged(t *testing.T) {
	f := newFixture(t)
	create := command.NewCreateActivityLogCommand(command.CreateActivityLogConfig{
		Store: f.store,
		Guard: f.guard,
	})
	count := NewActivityCountQuery(f.store, f.guard)

	before, err := count.Query(as("u_1"), ActivityCountFilter{WorkspaceID: "ws_1"})
	require.NoError(t, err)

	err = create.Execute(as("u_2"), command.CreateActivityLogInput{Input: types.ActivityInput{
		WorkspaceID: "ws_1",
		UserID:      "u_2",
		Action:      "PROJECT_CREATED",
		EntityType:  "PROJECT",
	}})
	require.True(t, types.IsAuthorizationError(err))

	after, err := count.Query(as("u_1"), ActivityCountFilter{WorkspaceID: "ws_1"})
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestWorkspaceActivityQueryIsolatesTenants(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	f.seed(t, "ws_1", "u_1", types.ActionProjectCreated, base)
	f.seed(t, "ws_2", "u_2", types.ActionProjectCreated, base)

	feed := NewWorkspaceActivityQuery(f.store, f.guard, WithUserDirectory(f.dir))

	logs, err := feed.Query(as("u_1"), WorkspaceActivityFilter{WorkspaceID: "ws_1"})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, "ws_1", logs[0].WorkspaceID)

	_, err = feed.Query(as("u_1"), WorkspaceActivityFilter{WorkspaceID: "ws_2"})
	require.True(t, types.IsAuthorizationError(err))

	_, err = feed.Query(context.Background(), WorkspaceActivityFilter{WorkspaceID: "ws_1"})
	require.True(t, types.IsAuthenticationError(err))

	_, err = feed.Query(as("u_1"), WorkspaceActivityFilter{})
	require.True(t, types.IsAuthorizationError(err), "tenant feeds never run unfiltered")

	logs, err = feed.Query(as("u_admin"), WorkspaceActivityFilter{WorkspaceID: "ws_2"})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, "bruno@example.com criou o projeto", logs[0].FormattedMessage)
}

func TestWorkspaceActivityQueryPagesNewestFirst(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		f.seed(t, "ws_1", "u_1", types.ActionProjectUpdated, base.Add(time.Duration(i)*time.Minute))
	}

	feed := NewWorkspaceActivityQuery(f.store, f.guard)
	logs, err := feed.Query(as("u_1"), WorkspaceActivityFilter{WorkspaceID: "ws_1"})
	require.NoError(t, err)
	require.Len(t, logs, activity.DefaultPageSize)
	require.True(t, logs[0].CreatedAt.Equal(base.Add(59*time.Minute)))
	for i := 1; i < len(logs); i++ {
		require.False(t, logs[i].CreatedAt.After(logs[i-1].CreatedAt))
	}

	rest, err := feed.Query(as("u_1"), WorkspaceActivityFilter{
		WorkspaceID: "ws_1",
		Pagination:  types.Pagination{Limit: 50, Offset: 50},
	})
	require.NoError(t, err)
	require.Len(t, rest, 10)
	require.True(t, rest[9].CreatedAt.Equal(base))
}

func TestWorkspaceActivityQueryMasksMetadata(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.Insert(context.Background(), types.ActivityEntry{
		WorkspaceID: "ws_1",
		UserID:      "u_1",
		Action:      types.ActionSettingsUpdated,
		EntityType:  types.EntitySettings,
		Metadata:    map[string]any{"apiKey": "sk_live_1234567890", "field": "webhook"},
	})
	require.NoError(t, err)

	tenant, err := NewWorkspaceActivityQuery(f.store, f.guard).Query(as("u_1"), WorkspaceActivityFilter{WorkspaceID: "ws_1"})
	require.NoError(t, err)
	require.Equal(t, "webhook", tenant[0].Metadata["field"])
	require.NotEqual(t, "sk_live_1234567890", tenant[0].Metadata["apiKey"])

	admin, err := NewAdminActivityFeedQuery(f.store, f.guard).Query(as("u_admin"), AdminActivityFeedFilter{})
	require.NoError(t, err)
	require.Equal(t, "sk_live_1234567890", admin[0].Metadata["apiKey"])
}

func TestAllActivityQueryAdminSpansTenants(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	f.seed(t, "ws_1", "u_1", types.ActionProjectCreated, base)
	f.seed(t, "ws_2", "u_2", types.ActionMemberInvited, base.Add(time.Minute))

	all := NewAllActivityQuery(f.store, f.guard, WithUserDirectory(f.dir))
	page, err := all.Query(as("u_admin"), AllActivityFilter{})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	require.Equal(t, 1, page.Page)
	require.Equal(t, 1, page.TotalPages)
	workspaces := []string{page.Logs[0].WorkspaceID, page.Logs[1].WorkspaceID}
	require.ElementsMatch(t, []string{"ws_1", "ws_2"}, workspaces)

	_, err = all.Query(as("u_1"), AllActivityFilter{})
	require.True(t, types.IsAuthorizationError(err))
	require.Equal(t, types.TextCodeAdminRequired, types.TextCode(err))

	_, err = all.Query(as("u_1"), AllActivityFilter{WorkspaceID: "ws_1"})
	require.True(t, types.IsAuthorizationError(err), "members get no degraded admin listing")

	_, err = all.Query(context.Background(), AllActivityFilter{})
	require.True(t, types.IsAuthenticationError(err))

	page, err = all.Query(as("u_admin"), AllActivityFilter{Action: types.ActionMemberInvited})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Equal(t, "ws_2", page.Logs[0].WorkspaceID)

	page, err = all.Query(as("u_admin"), AllActivityFilter{UserID: "u_1", WorkspaceID: "ws_1"})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Equal(t, "Ana criou o projeto", page.Logs[0].FormattedMessage)

	from := base.Add(30 * time.Second)
	page, err = all.Query(as("u_admin"), AllActivityFilter{DateFrom: &from})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
}

func TestAdminListingsCapPageSize(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 120; i++ {
		workspaceID := "ws_1"
		if i%2 == 0 {
			workspaceID = "ws_2"
		}
		f.seed(t, workspaceID, "u_1", types.ActionProjectUpdated, base.Add(time.Duration(i)*time.Second))
	}
	for i := 0; i < 10; i++ {
		f.seed(t, "ws_1", "u_1", types.ActionProjectUpdated, base.Add(-time.Duration(i+1)*time.Hour))
	}

	page, err := NewAllActivityQuery(f.store, f.guard).Query(as("u_admin"), AllActivityFilter{Limit: 500})
	require.NoError(t, err)
	require.Len(t, page.Logs, 100)
	require.Equal(t, 130, page.Total)
	require.Equal(t, 2, page.TotalPages)

	page, err = NewAllActivityQuery(f.store, f.guard).Query(as("u_admin"), AllActivityFilter{Limit: 500, Page: 2})
	require.NoError(t, err)
	require.Len(t, page.Logs, 30)
	require.Equal(t, 2, page.Page)

	byWorkspace, err := NewWorkspaceAdminActivityQuery(f.store, f.guard).Query(as("u_admin"), WorkspaceAdminActivityFilter{WorkspaceID: "ws_1", Limit: 1000})
	require.NoError(t, err)
	require.Len(t, byWorkspace, 70)

	feed, err := NewAdminActivityFeedQuery(f.store, f.guard).Query(as("u_admin"), AdminActivityFeedFilter{})
	require.NoError(t, err)
	require.Len(t, feed, AdminFeedSize)

	feed, err = NewAdminActivityFeedQuery(f.store, f.guard).Query(as("u_admin"), AdminActivityFeedFilter{WorkspaceID: "ws_2"})
	require.NoError(t, err)
	require.Len(t, feed, 60)
}

func TestAllActivityQueryRejectsOutOfRangePage(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "ws_1", "u_1", types.ActionProjectCreated, time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))
	all := NewAllActivityQuery(f.store, f.guard)

	for _, filter := range []AllActivityFilter{
		{Page: math.MaxInt},
		{Page: math.MaxInt / 2, Limit: 100},
		{Page: math.MaxInt32, Limit: 10},
	} {
		page, err := all.Query(as("u_admin"), filter)
		require.True(t, types.IsValidationError(err), "page %d", filter.Page)
		require.Equal(t, types.TextCodeInvalidActivityData, types.TextCode(err))
		require.Empty(t, page.Logs)
	}

	page, err := all.Query(as("u_admin"), AllActivityFilter{Page: 1000, Limit: 10})
	require.NoError(t, err)
	require.Empty(t, page.Logs)
	require.Equal(t, 1, page.Total)
	require.Equal(t, 1000, page.Page)
	require.Equal(t, 1, page.TotalPages)

	_, err = all.Query(as("u_1"), AllActivityFilter{Page: math.MaxInt})
	require.True(t, types.IsAuthorizationError(err))
}

func TestWorkspaceAdminActivityQueryRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	q := NewWorkspaceAdminActivityQuery(f.store, f.guard)

	_, err := q.Query(as("u_1"), WorkspaceAdminActivityFilter{WorkspaceID: "ws_1"})
	require.True(t, types.IsAuthorizationError(err), "membership does not unlock the admin view")

	_, err = q.Query(as("u_admin"), WorkspaceAdminActivityFilter{})
	require.True(t, types.IsValidationError(err))

	_, err = NewAdminActivityFeedQuery(f.store, f.guard).Query(as("u_2"), AdminActivityFeedFilter{WorkspaceID: "ws_2"})
	require.True(t, types.IsAuthorizationError(err))
}

func TestQueriesPropagateStoreErrors(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("store unreachable")
	store := failingStore{err: boom}

	_, err := NewWorkspaceActivityQuery(store, f.guard).Query(as("u_1"), WorkspaceActivityFilter{WorkspaceID: "ws_1"})
	require.ErrorIs(t, err, boom)
	_, err = NewAllActivityQuery(store, f.guard).Query(as("u_admin"), AllActivityFilter{})
	require.ErrorIs(t, err, boom)
	_, err = NewActivityCountQuery(store, f.guard).Query(as("u_1"), ActivityCountFilter{WorkspaceID: "ws_1"})
	require.ErrorIs(t, err, boom)
	_, err = NewActivityStatsQuery(ActivityStatsConfig{Store: store, Guard: f.guard}).Query(as("u_admin"), ActivityStatsFilter{})
	require.ErrorIs(t, err, boom)
}

func TestUserNamesResolvedInOneLookup(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		f.seed(t, "ws_1", "u_1", types.ActionProjectUpdated, base.Add(time.Duration(i)*time.Second))
		f.seed(t, "ws_1", "u_2", types.ActionProjectUpdated, base.Add(time.Duration(i)*time.Second))
	}
	f.seed(t, "ws_1", "", types.ActionSettingsUpdated, base)

	users := &countingUsers{inner: f.dir}
	logs, err := NewWorkspaceActivityQuery(f.store, f.guard, WithUserDirectory(users)).
		Query(as("u_1"), WorkspaceActivityFilter{WorkspaceID: "ws_1"})
	require.NoError(t, err)
	require.Len(t, logs, 11)
	require.Equal(t, 1, users.calls)
	require.ElementsMatch(t, []string{"u_1", "u_2"}, users.lastIDs)
}

type countingUsers struct {
	inner   types.UserDirectory
	calls   int
	lastIDs []string
}

func (c *countingUsers) FindUsersByIDs(ctx context.Context, ids []string) (map[string]types.UserSummary, error) {
	c.calls++
	c.lastIDs = append([]string(nil), ids...)
	return c.inner.FindUsersByIDs(ctx, ids)
}

type failingStore struct {
	err error
}

func (f failingStore) Insert(context.Context, types.ActivityEntry) (types.ActivityEntry, error) {
	return types.ActivityEntry{}, f.err
}

func (f failingStore) FindMany(context.Context, types.ActivityFilter, types.Pagination) ([]types.ActivityRecord, int, error) {
	return nil, 0, f.err
}

func (f failingStore) Count(context.Context, types.ActivityFilter) (int, error) {
	return 0, f.err
}

func (f failingStore) GroupCount(context.Context, types.GroupField, types.ActivityFilter, int) ([]types.GroupCount, error) {
	return nil, f.err
}

func (f failingStore) CountWindows(context.Context, types.ActivityFilter, []types.TimeWindow) ([]int, error) {
	return nil, f.err
}

func newActivityQueryDB(t *testing.T) *bun.DB {
	sqldb, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func applyActivityQueryDDL(t *testing.T, db *bun.DB) {
	t.Helper()
	files, err := filepath.Glob("../data/sql/migrations/sqlite/*.up.sql")
	require.NoError(t, err)
	sort.Strings(files)
	for _, file := range files {
		content, err := os.ReadFile(file)
		require.NoError(t, err)
		for _, stmt := range splitStatements(string(content)) {
			_, err := db.Exec(stmt)
			require.NoError(t, err)
		}
	}
}

func splitStatements(sql string) []string {
	lines := strings.Split(sql, "\n")
	var builder strings.Builder
	var statements []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		builder.WriteString(line)
		if strings.HasSuffix(line, ";") {
			statements = append(statements, strings.TrimSuffix(builder.String(), ";"))
			builder.Reset()
		} else {
			builder.WriteString(" ")
		}
	}
	if builder.Len() > 0 {
		statements = append(statements, builder.String())
	}
	return statements
}
