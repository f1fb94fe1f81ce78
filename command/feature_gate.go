package command

import (
	"context"
	"strings"

	featuregate "github.com/goliatone/go-featuregate/gate"
)

// FeatureActivityLog switches activity logging per workspace.
const FeatureActivityLog = "workspace.activity_log"

func featureEnabled(ctx context.Context, gate featuregate.FeatureGate, key, workspaceID, userID string) (bool, error) {
	if gate == nil {
		return true, nil
	}
	scopeSet := featureScopeSet(workspaceID, userID)
	if scopeSet == nil {
		return gate.Enabled(ctx, key)
	}
	return gate.Enabled(ctx, key, featuregate.WithScopeSet(*scopeSet))
}

// featureScopeSet maps the workspace onto the gate tenant scope.
func featureScopeSet(workspaceID, userID string) *featuregate.ScopeSet {
	workspaceID = strings.TrimSpace(workspaceID)
	userID = strings.TrimSpace(userID)
	if workspaceID == "" && userID == "" {
		return nil
	}
	return &featuregate.ScopeSet{
		System:   true,
		TenantID: workspaceID,
		UserID:   userID,
	}
}
