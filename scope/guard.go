package scope

import (
	"context"

	"github.com/goliatone/go-audit/pkg/types"
)

// Guard enforces access for commands and queries. It is intentionally small
// so callers can swap custom guards in tests if needed.
type Guard interface {
	Authenticate(ctx context.Context) (types.Session, error)
	Enforce(ctx context.Context, action types.PolicyAction, workspaceID string) (types.Session, error)
}

type guard struct {
	access *AccessController
	policy types.AuthorizationPolicy
}

// NewGuard builds a Guard over the access controller. The optional policy
// runs after the built-in checks and can only narrow access.
func NewGuard(access *AccessController, policy types.AuthorizationPolicy) Guard {
	return guard{
		access: access,
		policy: policy,
	}
}

// Ensure returns a non-nil guard. A nil guard is replaced by one that denies
// every request, so a missing wire-up never opens tenant data.
func Ensure(g Guard) Guard {
	if g == nil {
		return guard{}
	}
	return g
}

// Authenticate resolves the current session without authorizing anything.
func (g guard) Authenticate(ctx context.Context) (types.Session, error) {
	if g.access == nil {
		return types.Session{}, types.NewAuthenticationError()
	}
	return g.access.RequireSession(ctx)
}

// Enforce authenticates the caller and authorizes the action. Admin actions
// require the global ADMIN role and ignore workspaceID. Every other action
// requires access to workspaceID.
func (g guard) Enforce(ctx context.Context, action types.PolicyAction, workspaceID string) (types.Session, error) {
	if g.access == nil {
		return types.Session{}, types.NewAuthenticationError()
	}

	var (
		userID string
		err    error
	)
	if action.IsAdmin() {
		userID, err = g.access.RequireAdmin(ctx)
	} else {
		userID, err = g.access.RequireWorkspaceAccess(ctx, workspaceID)
	}
	if err != nil {
		return types.Session{}, err
	}
	session := types.Session{UserID: userID}

	if g.policy != nil && action != "" {
		check := types.PolicyCheck{
			Session:     session,
			WorkspaceID: workspaceID,
			Action:      action,
		}
		if err := g.policy.Authorize(ctx, check); err != nil {
			return types.Session{}, err
		}
	}
	return session, nil
}
