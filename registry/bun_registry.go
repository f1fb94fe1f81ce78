package registry

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-audit/pkg/types"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DirectoryConfig configures the Bun-backed directory.
type DirectoryConfig struct {
	DB          *bun.DB
	Users       repository.Repository[*UserRecord]
	Workspaces  repository.Repository[*WorkspaceRecord]
	Members     repository.Repository[*MemberRecord]
	GlobalUsers repository.Repository[*GlobalUserRecord]
	Clock       types.Clock
	Logger      types.Logger
}

// Directory resolves memberships, global roles and display data for the
// activity subsystem. Lookups over id sets run as a single IN query.
type Directory struct {
	users       repository.Repository[*UserRecord]
	workspaces  repository.Repository[*WorkspaceRecord]
	members     repository.Repository[*MemberRecord]
	globalUsers repository.Repository[*GlobalUserRecord]
	clock       types.Clock
	logger      types.Logger
}

var (
	_ types.MembershipResolver = (*Directory)(nil)
	_ types.GlobalRoleResolver = (*Directory)(nil)
	_ types.UserDirectory      = (*Directory)(nil)
	_ types.WorkspaceDirectory = (*Directory)(nil)
)

// NewDirectory constructs the default directory. Either DB or every
// repository must be provided; when DB is supplied missing repositories are
// created automatically.
func NewDirectory(cfg DirectoryConfig) (*Directory, error) {
	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}

	users := cfg.Users
	workspaces := cfg.Workspaces
	members := cfg.Members
	globalUsers := cfg.GlobalUsers

	if users == nil || workspaces == nil || members == nil || globalUsers == nil {
		if cfg.DB == nil {
			return nil, errors.New("bun directory: db or repositories must be provided")
		}
		if users == nil {
			users = repository.NewRepository(cfg.DB, stringKeyedHandlers(func() *UserRecord { return &UserRecord{} }))
		}
		if workspaces == nil {
			workspaces = repository.NewRepository(cfg.DB, stringKeyedHandlers(func() *WorkspaceRecord { return &WorkspaceRecord{} }))
		}
		if members == nil {
			members = repository.NewRepository(cfg.DB, stringKeyedHandlers(func() *MemberRecord { return &MemberRecord{} }))
		}
		if globalUsers == nil {
			globalUsers = repository.NewRepository(cfg.DB, stringKeyedHandlers(func() *GlobalUserRecord { return &GlobalUserRecord{} }))
		}
	}

	return &Directory{
		users:       users,
		workspaces:  workspaces,
		members:     members,
		globalUsers: globalUsers,
		clock:       clock,
		logger:      logger,
	}, nil
}

// stringKeyedHandlers builds handlers for tables keyed by host supplied
// string ids, which never carry a generated UUID.
func stringKeyedHandlers[T any](newRecord func() T) repository.ModelHandlers[T] {
	return repository.ModelHandlers[T]{
		NewRecord: newRecord,
		GetID: func(T) uuid.UUID {
			return uuid.Nil
		},
		SetID: func(T, uuid.UUID) {},
	}
}

// IsActiveMember implements types.MembershipResolver.
func (d *Directory) IsActiveMember(ctx context.Context, workspaceID, userID string) (bool, error) {
	workspaceID = strings.TrimSpace(workspaceID)
	userID = strings.TrimSpace(userID)
	if workspaceID == "" || userID == "" {
		return false, nil
	}
	records, _, err := d.members.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("workspace_id = ?", workspaceID).
			Where("user_id = ?", userID).
			Where("is_active = ?", true).
			Limit(1)
	})
	if err != nil {
		return false, err
	}
	return len(records) > 0, nil
}

// GetGlobalUser returns the global role row for userID. The boolean is false
// when the principal holds no global role.
func (d *Directory) GetGlobalUser(ctx context.Context, userID string) (types.GlobalUser, bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return types.GlobalUser{}, false, nil
	}
	records, _, err := d.globalUsers.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("user_id = ?", userID).Limit(1)
	})
	if err != nil {
		return types.GlobalUser{}, false, err
	}
	if len(records) == 0 || records[0] == nil {
		return types.GlobalUser{}, false, nil
	}
	record := records[0]
	return types.GlobalUser{
		UserID:   record.UserID,
		Role:     types.NormalizeGlobalRole(record.Role),
		IsActive: record.IsActive,
	}, true, nil
}

// IsGlobalAdmin implements types.GlobalRoleResolver. Only an active ADMIN
// row qualifies.
func (d *Directory) IsGlobalAdmin(ctx context.Context, userID string) (bool, error) {
	global, ok, err := d.GetGlobalUser(ctx, userID)
	if err != nil || !ok {
		return false, err
	}
	return global.IsActiveAdmin(), nil
}

// FindUsersByIDs implements types.UserDirectory.
func (d *Directory) FindUsersByIDs(ctx context.Context, ids []string) (map[string]types.UserSummary, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return map[string]types.UserSummary{}, nil
	}
	records, _, err := d.users.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("id IN (?)", bun.In(ids))
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]types.UserSummary, len(records))
	for _, record := range records {
		if record == nil {
			continue
		}
		out[record.ID] = types.UserSummary{
			ID:    record.ID,
			Name:  record.Name,
			Email: record.Email,
		}
	}
	return out, nil
}

// FindWorkspacesByIDs implements types.WorkspaceDirectory.
func (d *Directory) FindWorkspacesByIDs(ctx context.Context, ids []string) (map[string]types.WorkspaceSummary, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return map[string]types.WorkspaceSummary{}, nil
	}
	records, _, err := d.workspaces.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("id IN (?)", bun.In(ids))
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]types.WorkspaceSummary, len(records))
	for _, record := range records {
		if record == nil {
			continue
		}
		out[record.ID] = types.WorkspaceSummary{ID: record.ID, Name: record.Name}
	}
	return out, nil
}

// SaveUser inserts a user row. Used by seeding tools and tests.
func (d *Directory) SaveUser(ctx context.Context, user types.UserSummary) error {
	id := strings.TrimSpace(user.ID)
	if id == "" {
		return errors.New("bun directory: user id required")
	}
	_, err := d.users.Create(ctx, &UserRecord{
		ID:        id,
		Name:      strings.TrimSpace(user.Name),
		Email:     strings.TrimSpace(user.Email),
		CreatedAt: d.clock.Now(),
	})
	return err
}

// SaveWorkspace inserts a workspace row.
func (d *Directory) SaveWorkspace(ctx context.Context, workspace types.WorkspaceSummary) error {
	id := strings.TrimSpace(workspace.ID)
	if id == "" {
		return errors.New("bun directory: workspace id required")
	}
	_, err := d.workspaces.Create(ctx, &WorkspaceRecord{
		ID:        id,
		Name:      strings.TrimSpace(workspace.Name),
		CreatedAt: d.clock.Now(),
	})
	return err
}

// AddMember inserts a membership row.
func (d *Directory) AddMember(ctx context.Context, member types.WorkspaceMember) error {
	workspaceID := strings.TrimSpace(member.WorkspaceID)
	userID := strings.TrimSpace(member.UserID)
	if workspaceID == "" || userID == "" {
		return errors.New("bun directory: workspace id and user id required")
	}
	role := strings.TrimSpace(member.Role)
	if role == "" {
		role = "MEMBER"
	}
	_, err := d.members.Create(ctx, &MemberRecord{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        role,
		IsActive:    member.IsActive,
		CreatedAt:   d.clock.Now(),
	})
	return err
}

// SetGlobalRole inserts a global role row.
func (d *Directory) SetGlobalRole(ctx context.Context, global types.GlobalUser) error {
	userID := strings.TrimSpace(global.UserID)
	if userID == "" {
		return errors.New("bun directory: user id required")
	}
	_, err := d.globalUsers.Create(ctx, &GlobalUserRecord{
		UserID:    userID,
		Role:      string(types.NormalizeGlobalRole(string(global.Role))),
		IsActive:  global.IsActive,
		CreatedAt: d.clock.Now(),
	})
	if err != nil {
		d.logger.Error("global role insert failed", err, "user_id", userID)
	}
	return err
}

func uniqueIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
