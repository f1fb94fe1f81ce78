package registry

import (
	"time"

	"github.com/uptrace/bun"
)

// UserRecord represents the subset of the users table needed to render
// activity.
type UserRecord struct {
	bun.BaseModel `bun:"table:users"`

	ID        string    `bun:"id,pk"`
	Name      string    `bun:"name,nullzero"`
	Email     string    `bun:"email,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

// WorkspaceRecord represents rows from workspaces.
type WorkspaceRecord struct {
	bun.BaseModel `bun:"table:workspaces"`

	ID        string    `bun:"id,pk"`
	Name      string    `bun:"name,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

// MemberRecord represents rows from workspace_members.
type MemberRecord struct {
	bun.BaseModel `bun:"table:workspace_members"`

	WorkspaceID string    `bun:"workspace_id,pk"`
	UserID      string    `bun:"user_id,pk"`
	Role        string    `bun:"role,notnull"`
	IsActive    bool      `bun:"is_active,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
}

// GlobalUserRecord represents rows from global_users.
type GlobalUserRecord struct {
	bun.BaseModel `bun:"table:global_users"`

	UserID    string    `bun:"user_id,pk"`
	Role      string    `bun:"role,notnull"`
	IsActive  bool      `bun:"is_active,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}
