package crudsvc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-audit/activity"
	"github.com/goliatone/go-audit/command"
	"github.com/goliatone/go-audit/crudguard"
	"github.com/goliatone/go-audit/pkg/types"
	"github.com/goliatone/go-audit/query"
	"github.com/goliatone/go-crud"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestActivityServiceCreateRunsCommand(t *testing.T) {
	guard := &stubGuardAdapter{result: crudguard.GuardResult{Session: types.Session{UserID: "u_1"}}}
	create := &stubCreateCommand{}
	svc := NewActivityService(ActivityServiceConfig{Guard: guard, CreateCommand: create})

	record, err := svc.Create(newTestCrudContext(context.Background()), &activity.LogEntry{
		WorkspaceID: "ws_1",
		UserID:      "u_1",
		Action:      string(types.ActionProjectCreated),
		EntityType:  string(types.EntityProject),
		EntityID:    "p_9",
		Details:     map[string]any{"name": "Roadmap"},
	})
	require.NoError(t, err)

	require.Equal(t, crud.OpCreate, guard.lastInput.Operation)
	require.Equal(t, "ws_1", guard.lastInput.WorkspaceID)
	require.NotNil(t, create.lastInput.Input.EntityID)
	require.Equal(t, "p_9", *create.lastInput.Input.EntityID)
	require.Equal(t, map[string]any{"name": "Roadmap"}, create.lastInput.Input.Metadata)

	require.Equal(t, create.stored.ID, record.ID)
	require.Equal(t, "ana@example.com criou o projeto (p_9)", record.FormattedMessage)
	require.Equal(t, "Roadmap", record.Details["name"])
}

func TestActivityServiceCreateResolvesActorName(t *testing.T) {
	entry := &activity.LogEntry{
		WorkspaceID: "ws_1",
		UserID:      "u_1",
		Action:      string(types.ActionMemberInvited),
		EntityType:  string(types.EntityMember),
	}

	users := &stubUsers{users: map[string]types.UserSummary{"u_1": {ID: "u_1", Name: "Ana"}}}
	svc := NewActivityService(ActivityServiceConfig{Guard: &stubGuardAdapter{}, CreateCommand: &stubCreateCommand{}, Users: users})
	record, err := svc.Create(newTestCrudContext(context.Background()), entry)
	require.NoError(t, err)
	require.Equal(t, "Ana convidou o membro", record.FormattedMessage)
	require.Equal(t, []string{"u_1"}, users.lastIDs)

	failing := &stubUsers{err: errors.New("directory offline")}
	svc = NewActivityService(ActivityServiceConfig{Guard: &stubGuardAdapter{}, CreateCommand: &stubCreateCommand{}, Users: failing})
	record, err = svc.Create(newTestCrudContext(context.Background()), entry)
	require.NoError(t, err)
	require.Equal(t, "ana@example.com convidou o membro", record.FormattedMessage)
}

func TestActivityServiceCreateStopsOnGuardError(t *testing.T) {
	guard := &stubGuardAdapter{err: types.NewWorkspaceAccessError()}
	create := &stubCreateCommand{}
	svc := NewActivityService(ActivityServiceConfig{Guard: guard, CreateCommand: create})

	_, err := svc.Create(newTestCrudContext(context.Background()), &activity.LogEntry{WorkspaceID: "ws_2"})
	require.True(t, types.IsAuthorizationError(err))
	require.False(t, create.called)
}

func TestActivityServiceIndexWorkspaceFeed(t *testing.T) {
	guard := &stubGuardAdapter{}
	feed := &stubFeedQuery{logs: []types.ActivityDisplay{
		{ID: uuid.New(), WorkspaceID: "ws_1", Action: types.ActionMemberJoined, FormattedMessage: "Ana adicionou o membro"},
	}}
	count := &stubCountQuery{count: 12}
	svc := NewActivityService(ActivityServiceConfig{Guard: guard, FeedQuery: feed, CountQuery: count})

	ctx := newTestCrudContext(context.Background())
	ctx.queries["workspace_id"] = "ws_1"
	ctx.queries["limit"] = "5"
	ctx.queries["offset"] = "10"

	records, total, err := svc.Index(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 12, total)
	require.Len(t, records, 1)
	require.Equal(t, "Ana adicionou o membro", records[0].FormattedMessage)
	require.Equal(t, "ws_1", feed.lastFilter.WorkspaceID)
	require.Equal(t, types.Pagination{Limit: 5, Offset: 10}, feed.lastFilter.Pagination)
	require.Equal(t, "ws_1", guard.lastInput.WorkspaceID)
	require.Empty(t, guard.lastInput.Action)
}

func TestActivityServiceIndexCountFailureKeepsPage(t *testing.T) {
	feed := &stubFeedQuery{logs: []types.ActivityDisplay{{ID: uuid.New()}, {ID: uuid.New()}}}
	count := &stubCountQuery{err: errors.New("timeout")}
	svc := NewActivityService(ActivityServiceConfig{Guard: &stubGuardAdapter{}, FeedQuery: feed, CountQuery: count})

	ctx := newTestCrudContext(context.Background())
	ctx.queries["workspace_id"] = "ws_1"
	records, total, err := svc.Index(ctx, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, 2, total)
}

func TestActivityServiceIndexAdminListing(t *testing.T) {
	guard := &stubGuardAdapter{}
	admin := &stubAdminQuery{page: types.ActivityPage{
		Logs:       []types.ActivityDisplay{{ID: uuid.New(), Action: types.ActionWalletDebited}},
		Total:      41,
		Page:       3,
		TotalPages: 3,
	}}
	svc := NewActivityService(ActivityServiceConfig{Guard: guard, AdminQuery: admin})

	ctx := newTestCrudContext(context.Background())
	ctx.queries["page"] = "3"
	ctx.queries["limit"] = "20"
	ctx.queries["action"] = "wallet_debited"
	ctx.queries["user_id"] = "u_7"
	ctx.queries["workspace"] = "ws_3"
	ctx.queries["date_from"] = "2025-01-01"
	ctx.queries["date_to"] = "2025-01-31"

	records, total, err := svc.Index(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 41, total)
	require.Len(t, records, 1)
	require.Equal(t, types.PolicyActionActivityAdmin, guard.lastInput.Action)

	filter := admin.lastFilter
	require.Equal(t, 3, filter.Page)
	require.Equal(t, 20, filter.Limit)
	require.Equal(t, types.ActionWalletDebited, filter.Action)
	require.Equal(t, "u_7", filter.UserID)
	require.Equal(t, "ws_3", filter.WorkspaceID)
	require.NotNil(t, filter.DateFrom)
	require.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), *filter.DateFrom)
	require.NotNil(t, filter.DateTo)
	require.Equal(t, time.Date(2025, 1, 31, 23, 59, 59, 999999999, time.UTC), *filter.DateTo)
}

func TestActivityServiceIndexAdminRejectsBadFilters(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown action":    {"action": "MEMBER_REMOVD"},
		"unparseable from":  {"date_from": "not-a-date"},
		"unparseable to":    {"date_to": "31/01/2025"},
		"action and date":   {"action": "MEMBER_REMOVD", "date_from": "not-a-date"},
		"partial timestamp": {"date_from": "2025-01-01T10:00"},
	}
	for name, params := range cases {
		t.Run(name, func(t *testing.T) {
			admin := &stubAdminQuery{}
			svc := NewActivityService(ActivityServiceConfig{Guard: &stubGuardAdapter{}, AdminQuery: admin})
			ctx := newTestCrudContext(context.Background())
			for key, value := range params {
				ctx.queries[key] = value
			}

			records, total, err := svc.Index(ctx, nil)
			require.True(t, types.IsValidationError(err))
			require.Equal(t, types.TextCodeInvalidActivityData, types.TextCode(err))
			require.Nil(t, records)
			require.Zero(t, total)
			require.False(t, admin.called)
		})
	}
}

func TestActivityServiceIndexAdminDenied(t *testing.T) {
	guard := &stubGuardAdapter{err: types.NewAdminRequiredError()}
	admin := &stubAdminQuery{}
	svc := NewActivityService(ActivityServiceConfig{Guard: guard, AdminQuery: admin})

	_, _, err := svc.Index(newTestCrudContext(context.Background()), nil)
	require.Equal(t, types.TextCodeAdminRequired, types.TextCode(err))
	require.False(t, admin.called)
}

func TestActivityServiceRejectsMutations(t *testing.T) {
	guard := &stubGuardAdapter{}
	create := &stubCreateCommand{}
	svc := NewActivityService(ActivityServiceConfig{Guard: guard, CreateCommand: create})
	ctx := newTestCrudContext(context.Background())

	created, err := svc.CreateBatch(ctx, []*activity.LogEntry{
		{WorkspaceID: "ws_1", UserID: "u_1", Action: string(types.ActionProjectCreated), EntityType: string(types.EntityProject)},
		{WorkspaceID: "ws_1", UserID: "u_1", Action: "BOGUS", EntityType: string(types.EntityProject)},
	})
	require.Nil(t, created)
	require.True(t, types.IsValidationError(err))
	require.False(t, create.called)
	require.False(t, guard.called)

	_, err = svc.Update(ctx, &activity.LogEntry{})
	require.True(t, types.IsValidationError(err))
	require.True(t, types.IsValidationError(svc.Delete(ctx, &activity.LogEntry{})))
	require.True(t, types.IsValidationError(svc.DeleteBatch(ctx, nil)))
	_, err = svc.UpdateBatch(ctx, nil)
	require.Error(t, err)
	_, err = svc.Show(ctx, uuid.NewString(), nil)
	require.Error(t, err)
}

func TestActivityServiceMissingHandlers(t *testing.T) {
	svc := NewActivityService(ActivityServiceConfig{Guard: &stubGuardAdapter{}})
	_, err := svc.Create(newTestCrudContext(context.Background()), &activity.LogEntry{})
	require.Error(t, err)
	_, _, err = svc.Index(newTestCrudContext(context.Background()), nil)
	require.Error(t, err)
}

// helpers

type stubGuardAdapter struct {
	called    bool
	result    crudguard.GuardResult
	err       error
	lastInput crudguard.GuardInput
}

func (s *stubGuardAdapter) Enforce(in crudguard.GuardInput) (crudguard.GuardResult, error) {
	s.called = true
	s.lastInput = in
	if s.err != nil {
		return crudguard.GuardResult{}, s.err
	}
	return s.result, nil
}

type stubCreateCommand struct {
	called    bool
	lastInput command.CreateActivityLogInput
	stored    types.ActivityEntry
}

func (s *stubCreateCommand) Execute(_ context.Context, input command.CreateActivityLogInput) error {
	s.called = true
	s.lastInput = input
	in := input.Input
	s.stored = types.ActivityEntry{
		ID:          uuid.New(),
		WorkspaceID: in.WorkspaceID,
		UserID:      in.UserID,
		UserEmail:   "ana@example.com",
		Action:      types.ActivityAction(in.Action),
		EntityType:  types.EntityType(in.EntityType),
		CreatedAt:   time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC),
	}
	if in.EntityID != nil {
		s.stored.EntityID = *in.EntityID
	}
	if metadata, ok := in.Metadata.(map[string]any); ok {
		s.stored.Metadata = metadata
	}
	if input.Result != nil {
		*input.Result = s.stored
	}
	return nil
}

type stubUsers struct {
	users   map[string]types.UserSummary
	err     error
	lastIDs []string
}

func (s *stubUsers) FindUsersByIDs(_ context.Context, ids []string) (map[string]types.UserSummary, error) {
	s.lastIDs = ids
	if s.err != nil {
		return nil, s.err
	}
	return s.users, nil
}

type stubFeedQuery struct {
	logs       []types.ActivityDisplay
	lastFilter query.WorkspaceActivityFilter
}

func (s *stubFeedQuery) Query(_ context.Context, filter query.WorkspaceActivityFilter) ([]types.ActivityDisplay, error) {
	s.lastFilter = filter
	return s.logs, nil
}

type stubCountQuery struct {
	count int
	err   error
}

func (s *stubCountQuery) Query(context.Context, query.ActivityCountFilter) (int, error) {
	return s.count, s.err
}

type stubAdminQuery struct {
	called     bool
	page       types.ActivityPage
	lastFilter query.AllActivityFilter
}

func (s *stubAdminQuery) Query(_ context.Context, filter query.AllActivityFilter) (types.ActivityPage, error) {
	s.called = true
	s.lastFilter = filter
	return s.page, nil
}

type testCrudContext struct {
	ctx     context.Context
	queries map[string]string
}

func newTestCrudContext(ctx context.Context) *testCrudContext {
	return &testCrudContext{
		ctx:     ctx,
		queries: map[string]string{},
	}
}

func (t *testCrudContext) UserContext() context.Context {
	return t.ctx
}

func (t *testCrudContext) Params(string, ...string) string {
	return ""
}

func (t *testCrudContext) BodyParser(out any) error {
	return nil
}

func (t *testCrudContext) Query(key string, defaultValue ...string) string {
	if v, ok := t.queries[key]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (t *testCrudContext) QueryValues(key string) []string {
	if v, ok := t.queries[key]; ok {
		return []string{v}
	}
	return nil
}

func (t *testCrudContext) QueryInt(string, ...int) int {
	return 0
}

func (t *testCrudContext) Queries() map[string]string {
	return t.queries
}

func (t *testCrudContext) Body() []byte {
	return nil
}

func (t *testCrudContext) Status(int) crud.Response {
	return t
}

func (t *testCrudContext) JSON(any, ...string) error {
	return nil
}

func (t *testCrudContext) SendStatus(int) error {
	return nil
}
