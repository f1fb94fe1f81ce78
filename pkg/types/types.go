package types

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Pagination supports offset based listings across tenant and admin feeds.
type Pagination struct {
	Limit  int
	Offset int
}

// Session is the authenticated principal resolved for the current request.
type Session struct {
	UserID string
}

// Hooks groups optional callbacks invoked after key workflows complete.
type Hooks struct {
	AfterActivity func(context.Context, ActivityEntry)
}

// SessionResolver returns the principal bound to the current request. It
// reports false when the request is anonymous.
type SessionResolver interface {
	CurrentSession(ctx context.Context) (Session, bool, error)
}

// MembershipResolver reports tenant membership for a principal.
type MembershipResolver interface {
	IsActiveMember(ctx context.Context, workspaceID, userID string) (bool, error)
}

// GlobalRoleResolver reports whether a principal holds the active global
// ADMIN role.
type GlobalRoleResolver interface {
	IsGlobalAdmin(ctx context.Context, userID string) (bool, error)
}

// UserDirectory resolves display data for a set of principals in one lookup.
type UserDirectory interface {
	FindUsersByIDs(ctx context.Context, ids []string) (map[string]UserSummary, error)
}

// WorkspaceDirectory resolves workspace names for a set of ids in one lookup.
type WorkspaceDirectory interface {
	FindWorkspacesByIDs(ctx context.Context, ids []string) (map[string]WorkspaceSummary, error)
}

// ActivityStore is the append-only event store backing the activity log.
// Implementations never expose update or delete operations. FindMany orders
// rows newest first and reports the unpaginated total.
type ActivityStore interface {
	Insert(ctx context.Context, entry ActivityEntry) (ActivityEntry, error)
	FindMany(ctx context.Context, filter ActivityFilter, page Pagination) ([]ActivityRecord, int, error)
	Count(ctx context.Context, filter ActivityFilter) (int, error)
	GroupCount(ctx context.Context, field GroupField, filter ActivityFilter, limit int) ([]GroupCount, error)
	CountWindows(ctx context.Context, filter ActivityFilter, windows []TimeWindow) ([]int, error)
}

// Clock abstracts time retrieval for deterministic testing.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID creation.
type IDGenerator interface {
	UUID() uuid.UUID
}

// Logger captures basic logging hooks used by the service.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Error(msg string, err error, fields ...any)
}

// SystemClock defers to time.Now for production usage.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// UUIDGenerator produces time ordered UUIDv7 identifiers so rows sharing a
// timestamp keep their insertion order.
type UUIDGenerator struct{}

// UUID implements IDGenerator.
func (UUIDGenerator) UUID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

// NopLogger discards all log lines.
type NopLogger struct{}

// Debug implements Logger.
func (NopLogger) Debug(string, ...any) {}

// Info implements Logger.
func (NopLogger) Info(string, ...any) {}

// Error implements Logger.
func (NopLogger) Error(string, error, ...any) {}

var (
	// ErrServiceNotReady indicates the service has not been properly configured.
	ErrServiceNotReady = errors.New("go-audit: service not ready")
	// ErrMissingActivityStore occurs when no activity store was supplied.
	ErrMissingActivityStore = errors.New("go-audit: missing activity store")
	// ErrMissingSessionResolver occurs when no session resolver was supplied.
	ErrMissingSessionResolver = errors.New("go-audit: missing session resolver")
	// ErrMissingMembershipResolver occurs when no membership resolver was supplied.
	ErrMissingMembershipResolver = errors.New("go-audit: missing membership resolver")
	// ErrMissingGlobalRoleResolver occurs when no global role resolver was supplied.
	ErrMissingGlobalRoleResolver = errors.New("go-audit: missing global role resolver")
	// ErrMissingUserDirectory occurs when no user directory was supplied.
	ErrMissingUserDirectory = errors.New("go-audit: missing user directory")
	// ErrMissingWorkspaceDirectory occurs when no workspace directory was supplied.
	ErrMissingWorkspaceDirectory = errors.New("go-audit: missing workspace directory")
	// ErrMissingAccessGuard occurs when a command or query was built without a guard.
	ErrMissingAccessGuard = errors.New("go-audit: missing access guard")
)
