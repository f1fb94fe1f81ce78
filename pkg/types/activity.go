package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ActivityAction is the closed set of business actions recorded in the
// activity log.
type ActivityAction string

const (
	ActionProjectCreated        ActivityAction = "PROJECT_CREATED"
	ActionProjectUpdated        ActivityAction = "PROJECT_UPDATED"
	ActionProjectDeleted        ActivityAction = "PROJECT_DELETED"
	ActionMemberInvited         ActivityAction = "MEMBER_INVITED"
	ActionMemberJoined          ActivityAction = "MEMBER_JOINED"
	ActionMemberRemoved         ActivityAction = "MEMBER_REMOVED"
	ActionMemberRoleChanged     ActivityAction = "MEMBER_ROLE_CHANGED"
	ActionWorkspaceCreated      ActivityAction = "WORKSPACE_CREATED"
	ActionWorkspaceUpdated      ActivityAction = "WORKSPACE_UPDATED"
	ActionSettingsUpdated       ActivityAction = "SETTINGS_UPDATED"
	ActionFeatureEnabled        ActivityAction = "FEATURE_ENABLED"
	ActionFeatureDisabled       ActivityAction = "FEATURE_DISABLED"
	ActionSubscriptionCreated   ActivityAction = "SUBSCRIPTION_CREATED"
	ActionSubscriptionUpdated   ActivityAction = "SUBSCRIPTION_UPDATED"
	ActionSubscriptionCancelled ActivityAction = "SUBSCRIPTION_CANCELLED"
	ActionWalletCredited        ActivityAction = "WALLET_CREDITED"
	ActionWalletDebited         ActivityAction = "WALLET_DEBITED"
	ActionOnboardingCompleted   ActivityAction = "ONBOARDING_COMPLETED"
)

// FallbackActivityAction replaces unknown actions when rendering stored rows.
const FallbackActivityAction = ActionSettingsUpdated

// Valid reports whether the action belongs to the closed set.
func (a ActivityAction) Valid() bool {
	switch a {
	case ActionProjectCreated, ActionProjectUpdated, ActionProjectDeleted,
		ActionMemberInvited, ActionMemberJoined, ActionMemberRemoved, ActionMemberRoleChanged,
		ActionWorkspaceCreated, ActionWorkspaceUpdated,
		ActionSettingsUpdated,
		ActionFeatureEnabled, ActionFeatureDisabled,
		ActionSubscriptionCreated, ActionSubscriptionUpdated, ActionSubscriptionCancelled,
		ActionWalletCredited, ActionWalletDebited,
		ActionOnboardingCompleted:
		return true
	default:
		return false
	}
}

// ParseActivityAction returns the typed action for raw when it is a member of
// the closed set.
func ParseActivityAction(raw string) (ActivityAction, bool) {
	action := ActivityAction(raw)
	return action, action.Valid()
}

// AllActivityActions lists every known action in declaration order.
func AllActivityActions() []ActivityAction {
	return []ActivityAction{
		ActionProjectCreated,
		ActionProjectUpdated,
		ActionProjectDeleted,
		ActionMemberInvited,
		ActionMemberJoined,
		ActionMemberRemoved,
		ActionMemberRoleChanged,
		ActionWorkspaceCreated,
		ActionWorkspaceUpdated,
		ActionSettingsUpdated,
		ActionFeatureEnabled,
		ActionFeatureDisabled,
		ActionSubscriptionCreated,
		ActionSubscriptionUpdated,
		ActionSubscriptionCancelled,
		ActionWalletCredited,
		ActionWalletDebited,
		ActionOnboardingCompleted,
	}
}

// EntityType is the closed set of things an activity can apply to.
type EntityType string

const (
	EntityProject      EntityType = "PROJECT"
	EntityMember       EntityType = "MEMBER"
	EntityWorkspace    EntityType = "WORKSPACE"
	EntitySettings     EntityType = "SETTINGS"
	EntitySubscription EntityType = "SUBSCRIPTION"
	EntityWallet       EntityType = "WALLET"
	EntityFeature      EntityType = "FEATURE"
	EntityInvitation   EntityType = "INVITATION"
)

// FallbackEntityType replaces unknown entity types when rendering stored rows.
const FallbackEntityType = EntityWorkspace

// Valid reports whether the entity type belongs to the closed set.
func (e EntityType) Valid() bool {
	switch e {
	case EntityProject, EntityMember, EntityWorkspace, EntitySettings,
		EntitySubscription, EntityWallet, EntityFeature, EntityInvitation:
		return true
	default:
		return false
	}
}

// ParseEntityType returns the typed entity type for raw when it is a member of
// the closed set.
func ParseEntityType(raw string) (EntityType, bool) {
	entity := EntityType(raw)
	return entity, entity.Valid()
}

// AllEntityTypes lists every known entity type in declaration order.
func AllEntityTypes() []EntityType {
	return []EntityType{
		EntityProject,
		EntityMember,
		EntityWorkspace,
		EntitySettings,
		EntitySubscription,
		EntityWallet,
		EntityFeature,
		EntityInvitation,
	}
}

// ActivityEntry is a persisted, append-only activity log row. Empty
// WorkspaceID marks a global/system event and empty UserID a system actor.
type ActivityEntry struct {
	ID          uuid.UUID
	WorkspaceID string
	UserID      string
	UserEmail   string
	Action      ActivityAction
	EntityType  EntityType
	EntityID    string
	Metadata    map[string]any
	CreatedAt   time.Time
}

// Record converts the entry into the raw shape accepted by the formatter.
func (e ActivityEntry) Record() ActivityRecord {
	record := ActivityRecord{
		ID:          e.ID,
		WorkspaceID: e.WorkspaceID,
		UserID:      e.UserID,
		UserEmail:   e.UserEmail,
		Action:      string(e.Action),
		EntityType:  string(e.EntityType),
		EntityID:    e.EntityID,
		CreatedAt:   e.CreatedAt,
	}
	if e.Metadata != nil {
		record.Metadata = e.Metadata
	}
	return record
}

// ActivityRecord is the raw, loosely typed row shape read back from storage.
// Action and EntityType may hold values outside the current enumeration and
// Metadata may hold any decoded JSON value.
type ActivityRecord struct {
	ID          uuid.UUID
	WorkspaceID string
	UserID      string
	UserEmail   string
	Action      string
	EntityType  string
	EntityID    string
	Metadata    any
	CreatedAt   time.Time
}

// ActivityDisplay is the read-only projection returned to callers. It is
// recomputed on every read and never stored.
type ActivityDisplay struct {
	ID               uuid.UUID      `json:"id"`
	WorkspaceID      string         `json:"workspaceId,omitempty"`
	UserID           string         `json:"userId,omitempty"`
	UserEmail        string         `json:"userEmail,omitempty"`
	UserName         string         `json:"userName,omitempty"`
	Action           ActivityAction `json:"action"`
	EntityType       EntityType     `json:"entityType"`
	EntityID         string         `json:"entityId,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	FormattedMessage string         `json:"formattedMessage"`
	CreatedAt        time.Time      `json:"createdAt"`
}

// ActivityInput is the typed log creation payload. Optional fields use
// pointers or any so absent values stay distinguishable from empty ones.
type ActivityInput struct {
	WorkspaceID string
	UserID      string
	UserEmail   string
	Action      string
	EntityType  string
	EntityID    *string
	Metadata    any
}

// Candidate renders the input as the untyped object checked by the
// validator. Absent optional fields are omitted.
func (in ActivityInput) Candidate() map[string]any {
	candidate := map[string]any{
		"workspaceId": in.WorkspaceID,
		"userId":      in.UserID,
		"action":      in.Action,
		"entityType":  in.EntityType,
	}
	if in.EntityID != nil {
		candidate["entityId"] = *in.EntityID
	}
	if in.Metadata != nil {
		candidate["metadata"] = in.Metadata
	}
	return candidate
}

// ActivityFilter narrows store queries. Empty WorkspaceID means every tenant
// and is only reachable from admin paths.
type ActivityFilter struct {
	WorkspaceID string
	Action      ActivityAction
	UserID      string
	DateFrom    *time.Time
	DateTo      *time.Time
}

// ActivityPage is a page of formatted entries.
type ActivityPage struct {
	Logs       []ActivityDisplay `json:"logs"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	TotalPages int               `json:"totalPages"`
}

// ActionCount is one row of the per action breakdown.
type ActionCount struct {
	Action ActivityAction `json:"action"`
	Count  int            `json:"count"`
}

// DayCount is one bucket of the daily series. Date is YYYY-MM-DD in the
// configured location.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// WorkspaceCount is one row of the top tenants ranking.
type WorkspaceCount struct {
	WorkspaceID   string `json:"workspaceId"`
	WorkspaceName string `json:"workspaceName"`
	Count         int    `json:"count"`
}

// ActivityStats is the global rollup returned to admins.
type ActivityStats struct {
	TotalLogs     int              `json:"totalLogs"`
	LogsToday     int              `json:"logsToday"`
	LogsThisWeek  int              `json:"logsThisWeek"`
	LogsThisMonth int              `json:"logsThisMonth"`
	LogsByAction  []ActionCount    `json:"logsByAction"`
	LogsByDay     []DayCount       `json:"logsByDay"`
	TopWorkspaces []WorkspaceCount `json:"topWorkspaces"`
}

// GroupField names the columns the store can aggregate on.
type GroupField string

const (
	GroupByAction      GroupField = "action"
	GroupByWorkspaceID GroupField = "workspace_id"
)

// GroupCount is a single aggregation bucket.
type GroupCount struct {
	Key   string
	Count int
}

// TimeWindow is a half-open [From, To) range. A zero bound is unbounded.
type TimeWindow struct {
	From time.Time
	To   time.Time
}

// UserSummary carries the user fields needed to render activity.
type UserSummary struct {
	ID    string
	Name  string
	Email string
}

// DisplayName prefers the user name and falls back to the email.
func (u UserSummary) DisplayName() string {
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	return strings.TrimSpace(u.Email)
}

// WorkspaceSummary carries the workspace fields needed by the stats rollup.
type WorkspaceSummary struct {
	ID   string
	Name string
}
