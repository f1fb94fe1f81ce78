package scope

import (
	"context"
	"strings"

	"github.com/goliatone/go-audit/pkg/types"
)

// AccessConfig wires the collaborators consulted by the access controller.
type AccessConfig struct {
	Sessions    types.SessionResolver
	Memberships types.MembershipResolver
	GlobalRoles types.GlobalRoleResolver
	Logger      types.Logger
}

// AccessController decides whether a principal may read or write activity for
// a workspace. Active members of the workspace are granted access. Active
// global ADMIN principals are granted access to every workspace; this is the
// only exception to tenant isolation.
type AccessController struct {
	sessions    types.SessionResolver
	memberships types.MembershipResolver
	globalRoles types.GlobalRoleResolver
	logger      types.Logger
}

// NewAccessController builds the controller. Missing resolvers deny access.
func NewAccessController(cfg AccessConfig) *AccessController {
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &AccessController{
		sessions:    cfg.Sessions,
		memberships: cfg.Memberships,
		globalRoles: cfg.GlobalRoles,
		logger:      logger,
	}
}

// HasWorkspaceAccess reports whether userID may access workspaceID. Resolver
// errors are returned as-is and never read as a grant.
func (c *AccessController) HasWorkspaceAccess(ctx context.Context, userID, workspaceID string) (bool, error) {
	userID = strings.TrimSpace(userID)
	workspaceID = strings.TrimSpace(workspaceID)
	if userID == "" || workspaceID == "" {
		return false, nil
	}

	admin, err := c.isGlobalAdmin(ctx, userID)
	if err != nil {
		return false, err
	}
	if admin {
		c.logger.Debug("workspace access granted by global admin role",
			"user_id", userID, "workspace_id", workspaceID)
		return true, nil
	}

	if c.memberships == nil {
		return false, nil
	}
	return c.memberships.IsActiveMember(ctx, workspaceID, userID)
}

// RequireSession returns the current session or an authentication error.
func (c *AccessController) RequireSession(ctx context.Context) (types.Session, error) {
	if c.sessions == nil {
		return types.Session{}, types.NewAuthenticationError()
	}
	session, ok, err := c.sessions.CurrentSession(ctx)
	if err != nil {
		return types.Session{}, err
	}
	session.UserID = strings.TrimSpace(session.UserID)
	if !ok || session.UserID == "" {
		return types.Session{}, types.NewAuthenticationError()
	}
	return session, nil
}

// RequireAdmin guards every cross-tenant query. It fails with an
// authentication error without a session and with an authorization error
// unless the principal is an active global ADMIN.
func (c *AccessController) RequireAdmin(ctx context.Context) (string, error) {
	session, err := c.RequireSession(ctx)
	if err != nil {
		return "", err
	}
	admin, err := c.isGlobalAdmin(ctx, session.UserID)
	if err != nil {
		return "", err
	}
	if !admin {
		c.logger.Info("admin activity access denied", "user_id", session.UserID)
		return "", types.NewAdminRequiredError()
	}
	return session.UserID, nil
}

// RequireWorkspaceAccess resolves the session and checks it against
// workspaceID. It fails with an authentication error without a session and
// with an authorization error when access is denied.
func (c *AccessController) RequireWorkspaceAccess(ctx context.Context, workspaceID string) (string, error) {
	session, err := c.RequireSession(ctx)
	if err != nil {
		return "", err
	}
	ok, err := c.HasWorkspaceAccess(ctx, session.UserID, workspaceID)
	if err != nil {
		return "", err
	}
	if !ok {
		c.logger.Info("workspace activity access denied",
			"user_id", session.UserID, "workspace_id", workspaceID)
		return "", types.NewWorkspaceAccessError()
	}
	return session.UserID, nil
}

func (c *AccessController) isGlobalAdmin(ctx context.Context, userID string) (bool, error) {
	if c.globalRoles == nil {
		return false, nil
	}
	return c.globalRoles.IsGlobalAdmin(ctx, userID)
}
