package activity

import (
	"strings"
	"time"

	"github.com/goliatone/go-audit/pkg/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// LogEntry models the persisted row in activity_logs. Metadata holds the raw
// JSON document so rows written before the current schema can still be read.
//
// The bun:"-" fields are computed on read, or parsed from request bodies, and
// never persisted. They let the same model back CRUD transports.
type LogEntry struct {
	bun.BaseModel `bun:"table:activity_logs" crud:"resource:activity"`

	ID          uuid.UUID `bun:",pk,type:uuid" json:"id"`
	WorkspaceID string    `bun:"workspace_id,nullzero" json:"workspaceId,omitempty"`
	UserID      string    `bun:"user_id,nullzero" json:"userId,omitempty"`
	UserEmail   string    `bun:"user_email,nullzero" json:"userEmail,omitempty"`
	Action      string    `bun:"action,notnull" json:"action"`
	EntityType  string    `bun:"entity_type,notnull" json:"entityType"`
	EntityID    string    `bun:"entity_id,nullzero" json:"entityId,omitempty"`
	Metadata    string    `bun:"metadata,nullzero" json:"-"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"createdAt"`

	Details          map[string]any `bun:"-" json:"metadata,omitempty"`
	UserName         string         `bun:"-" json:"userName,omitempty"`
	FormattedMessage string         `bun:"-" json:"formattedMessage,omitempty"`
}

// FromActivityDisplay converts a display projection into the transport model.
func FromActivityDisplay(display types.ActivityDisplay) *LogEntry {
	return &LogEntry{
		ID:               display.ID,
		WorkspaceID:      display.WorkspaceID,
		UserID:           display.UserID,
		UserEmail:        display.UserEmail,
		Action:           string(display.Action),
		EntityType:       string(display.EntityType),
		EntityID:         display.EntityID,
		CreatedAt:        display.CreatedAt,
		Details:          cloneMap(display.Metadata),
		UserName:         display.UserName,
		FormattedMessage: display.FormattedMessage,
	}
}

// InputFromLogEntry builds a creation payload from a transport model. An empty
// EntityID is treated as absent.
func InputFromLogEntry(record *LogEntry) types.ActivityInput {
	if record == nil {
		return types.ActivityInput{}
	}
	input := types.ActivityInput{
		WorkspaceID: strings.TrimSpace(record.WorkspaceID),
		UserID:      strings.TrimSpace(record.UserID),
		UserEmail:   strings.TrimSpace(record.UserEmail),
		Action:      strings.TrimSpace(record.Action),
		EntityType:  strings.TrimSpace(record.EntityType),
	}
	if entityID := strings.TrimSpace(record.EntityID); entityID != "" {
		input.EntityID = &entityID
	}
	if record.Details != nil {
		input.Metadata = cloneMap(record.Details)
	}
	return input
}
