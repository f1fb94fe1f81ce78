package activity

import (
	"testing"
	"time"

	"github.com/goliatone/go-audit/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func sampleRecord() types.ActivityRecord {
	return types.ActivityRecord{
		ID:          uuid.MustParse("018e2a3c-0000-7000-8000-000000000001"),
		WorkspaceID: "ws_1",
		UserID:      "u_1",
		UserEmail:   "ana@example.com",
		Action:      "PROJECT_CREATED",
		EntityType:  "PROJECT",
		EntityID:    "proj_9",
		Metadata:    map[string]any{"name": "Roadmap"},
		CreatedAt:   time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestFormatForDisplayComposesMessage(t *testing.T) {
	display := FormatForDisplay(sampleRecord(), "Ana")

	require.Equal(t, "Ana criou o projeto (proj_9)", display.FormattedMessage)
	require.Equal(t, "Ana", display.UserName)
	require.Equal(t, types.ActionProjectCreated, display.Action)
	require.Equal(t, types.EntityProject, display.EntityType)
	require.Equal(t, "ws_1", display.WorkspaceID)
	require.Equal(t, map[string]any{"name": "Roadmap"}, display.Metadata)
}

func TestFormatForDisplayWithoutNameOrEntity(t *testing.T) {
	record := sampleRecord()
	record.EntityID = ""
	record.Action = "MEMBER_ROLE_CHANGED"
	record.EntityType = "MEMBER"

	display := FormatForDisplay(record, "  ")
	require.Equal(t, "Usuário alterou a função de o membro", display.FormattedMessage)
	require.Empty(t, display.UserName)
}

func TestFormatForDisplayFallsBackOnUnknownEnums(t *testing.T) {
	record := sampleRecord()
	record.Action = "LEGACY_EXPORT"
	record.EntityType = "REPORT"

	display := FormatForDisplay(record, "Ana")
	require.Equal(t, types.FallbackActivityAction, display.Action)
	require.Equal(t, types.FallbackEntityType, display.EntityType)
	require.Equal(t, "Ana atualizou o workspace (proj_9)", display.FormattedMessage)
}

func TestFormatForDisplayDropsNonObjectMetadata(t *testing.T) {
	for _, metadata := range []any{nil, []any{}, []any{"a"}, "x", 3, map[string]any(nil)} {
		record := sampleRecord()
		record.Metadata = metadata
		require.Nil(t, FormatForDisplay(record, "").Metadata)
	}
}

func TestFormatForDisplayIsDeterministic(t *testing.T) {
	record := sampleRecord()
	first := FormatForDisplay(record, "Ana")
	second := FormatForDisplay(record, "Ana")
	require.Equal(t, first, second)

	first.Metadata["name"] = "changed"
	require.Equal(t, "Roadmap", record.Metadata.(map[string]any)["name"])
}

func TestFormatterEveryKnownActionHasPhrase(t *testing.T) {
	for _, action := range types.AllActivityActions() {
		for _, entityType := range types.AllEntityTypes() {
			record := sampleRecord()
			record.Action = string(action)
			record.EntityType = string(entityType)
			display := FormatForDisplay(record, "Ana")
			require.Equal(t, action, display.Action)
			require.Equal(t, entityType, display.EntityType)
			require.Contains(t, display.FormattedMessage, DefaultCatalog().ActionPhrase(action))
		}
	}
}

func TestNewCatalogAppliesOverrides(t *testing.T) {
	catalog, err := NewCatalog(CatalogOverrides{
		ActorPlaceholder: "Someone",
		Actions: map[types.ActivityAction]string{
			types.ActionProjectCreated:    "created",
			types.ActivityAction("BOGUS"): "ignored",
		},
		Entities: map[types.EntityType]string{
			types.EntityProject:   "the project",
			types.EntityWorkspace: "  ",
		},
	})
	require.NoError(t, err)

	formatter := NewFormatter(catalog)
	display := formatter.Format(sampleRecord(), "")
	require.Equal(t, "Someone created the project (proj_9)", display.FormattedMessage)

	record := sampleRecord()
	record.Action = "LEGACY"
	record.EntityType = "LEGACY"
	display = formatter.Format(record, "Ana")
	require.Equal(t, "Ana atualizou o workspace (proj_9)", display.FormattedMessage)
}

func TestNewFormatterWithZeroCatalogUsesDefaults(t *testing.T) {
	formatter := NewFormatter(MessageCatalog{})
	require.Equal(t, FormatForDisplay(sampleRecord(), "Ana"), formatter.Format(sampleRecord(), "Ana"))

	var nilFormatter *Formatter
	require.Equal(t, "Ana criou o projeto (proj_9)", nilFormatter.Format(sampleRecord(), "Ana").FormattedMessage)
}
