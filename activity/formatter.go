package activity

import (
	"strings"

	"github.com/goliatone/go-audit/pkg/types"
)

// Formatter turns raw activity records into display projections using a
// message catalog. Formatting never touches storage and never fails.
type Formatter struct {
	catalog MessageCatalog
}

// NewFormatter builds a formatter over the supplied catalog. A zero catalog
// falls back to the default pt-BR phrases.
func NewFormatter(catalog MessageCatalog) *Formatter {
	if catalog.empty() {
		catalog = DefaultCatalog()
	}
	return &Formatter{catalog: catalog}
}

var defaultFormatter = NewFormatter(DefaultCatalog())

// FormatForDisplay formats a record with the default catalog. An empty
// resolvedUserName renders the generic actor placeholder.
func FormatForDisplay(record types.ActivityRecord, resolvedUserName string) types.ActivityDisplay {
	return defaultFormatter.Format(record, resolvedUserName)
}

// Format builds the display projection for record. Unknown actions and entity
// types are replaced by their fallbacks. Metadata is only passed through when
// it is a non-nil object.
func (f *Formatter) Format(record types.ActivityRecord, resolvedUserName string) types.ActivityDisplay {
	if f == nil {
		f = defaultFormatter
	}
	action := resolveAction(record.Action)
	entityType := resolveEntityType(record.EntityType)
	name := strings.TrimSpace(resolvedUserName)

	return types.ActivityDisplay{
		ID:               record.ID,
		WorkspaceID:      record.WorkspaceID,
		UserID:           record.UserID,
		UserEmail:        record.UserEmail,
		UserName:         name,
		Action:           action,
		EntityType:       entityType,
		EntityID:         record.EntityID,
		Metadata:         displayMetadata(record.Metadata),
		FormattedMessage: f.message(action, entityType, record.EntityID, name),
		CreatedAt:        record.CreatedAt,
	}
}

func (f *Formatter) message(action types.ActivityAction, entityType types.EntityType, entityID, name string) string {
	var b strings.Builder
	if name != "" {
		b.WriteString(name)
	} else {
		b.WriteString(f.catalog.ActorPlaceholder())
	}
	b.WriteString(" ")
	b.WriteString(f.catalog.ActionPhrase(action))
	b.WriteString(" ")
	b.WriteString(f.catalog.EntityLabel(entityType))
	if entityID != "" {
		b.WriteString(" (")
		b.WriteString(entityID)
		b.WriteString(")")
	}
	return b.String()
}

func resolveAction(raw string) types.ActivityAction {
	if action, ok := types.ParseActivityAction(raw); ok {
		return action
	}
	return types.FallbackActivityAction
}

func resolveEntityType(raw string) types.EntityType {
	if entityType, ok := types.ParseEntityType(raw); ok {
		return entityType
	}
	return types.FallbackEntityType
}

func displayMetadata(value any) map[string]any {
	obj, ok := value.(map[string]any)
	if !ok || obj == nil {
		return nil
	}
	return cloneMap(obj)
}
