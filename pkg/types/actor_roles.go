package types

import "strings"

// GlobalRole is a system wide role tracked independently of tenant membership.
type GlobalRole string

const (
	// GlobalRoleAdmin grants cross-tenant visibility over the activity log.
	GlobalRoleAdmin GlobalRole = "ADMIN"
	// GlobalRoleSupport is stored for support staff. It grants nothing here.
	GlobalRoleSupport GlobalRole = "SUPPORT"
	// GlobalRoleBilling is stored for billing staff. It grants nothing here.
	GlobalRoleBilling GlobalRole = "BILLING"
)

// GlobalUser links a principal to its global role.
type GlobalUser struct {
	UserID   string
	Role     GlobalRole
	IsActive bool
}

// IsActiveAdmin reports whether the global user unlocks the admin carve-out.
// Only an active ADMIN qualifies.
func (g GlobalUser) IsActiveAdmin() bool {
	return g.IsActive && NormalizeGlobalRole(string(g.Role)) == GlobalRoleAdmin
}

// WorkspaceMember links a principal to a tenant.
type WorkspaceMember struct {
	WorkspaceID string
	UserID      string
	Role        string
	IsActive    bool
}

// NormalizeGlobalRole upper-cases and trims role names read from storage.
func NormalizeGlobalRole(role string) GlobalRole {
	return GlobalRole(strings.ToUpper(strings.TrimSpace(role)))
}
