package types

import "context"

// PolicyAction enumerates the authorization actions enforced by the access
// guard. Host applications can remap these actions to their own policies.
type PolicyAction string

const (
	PolicyActionActivityRead  PolicyAction = "activity:read"
	PolicyActionActivityWrite PolicyAction = "activity:write"
	PolicyActionActivityAdmin PolicyAction = "activity:admin"
)

// IsAdmin reports whether the action belongs to the cross-tenant admin path.
func (a PolicyAction) IsAdmin() bool {
	return a == PolicyActionActivityAdmin
}

// PolicyCheck captures the authorization context for a single command/query
// after the built-in access checks passed.
type PolicyCheck struct {
	Session     Session
	WorkspaceID string
	Action      PolicyAction
}

// AuthorizationPolicy lets hosts layer extra rules on top of the membership
// and global admin checks. It can only narrow access.
type AuthorizationPolicy interface {
	Authorize(ctx context.Context, check PolicyCheck) error
}

// AuthorizationPolicyFunc adapts bare functions to AuthorizationPolicy.
type AuthorizationPolicyFunc func(ctx context.Context, check PolicyCheck) error

// Authorize implements AuthorizationPolicy.
func (f AuthorizationPolicyFunc) Authorize(ctx context.Context, check PolicyCheck) error {
	return f(ctx, check)
}
