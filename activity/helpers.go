package activity

import (
	"strings"

	"github.com/goliatone/go-audit/pkg/authctx"
	"github.com/goliatone/go-audit/pkg/types"
	"github.com/goliatone/go-auth"
)

// InputOption mutates the ActivityInput produced by BuildInputFromActor.
type InputOption func(*types.ActivityInput)

// WithWorkspace overrides the tenant bound to the actor. Admin tooling uses it
// when acting on a workspace other than its own.
func WithWorkspace(workspaceID string) InputOption {
	return func(input *types.ActivityInput) {
		if workspaceID = strings.TrimSpace(workspaceID); workspaceID != "" {
			input.WorkspaceID = workspaceID
		}
	}
}

// WithUserEmail sets the email snapshot so the create command does not need
// to look it up.
func WithUserEmail(email string) InputOption {
	return func(input *types.ActivityInput) {
		input.UserEmail = strings.TrimSpace(email)
	}
}

// BuildInputFromActor constructs an ActivityInput using the actor metadata
// supplied by go-auth middleware plus action/entity details and optional
// metadata. The actor tenant becomes the workspace and metadata is copied so
// later caller mutation does not leak into the stored entry.
func BuildInputFromActor(actor *auth.ActorContext, action types.ActivityAction, entityType types.EntityType, entityID string, metadata map[string]any, opts ...InputOption) (types.ActivityInput, error) {
	session, err := authctx.SessionFromActorContext(actor)
	if err != nil {
		return types.ActivityInput{}, err
	}

	input := types.ActivityInput{
		WorkspaceID: authctx.WorkspaceFromActorContext(actor),
		UserID:      session.UserID,
		Action:      string(action),
		EntityType:  string(entityType),
	}
	if entityID = strings.TrimSpace(entityID); entityID != "" {
		input.EntityID = &entityID
	}
	if metadata != nil {
		input.Metadata = cloneMap(metadata)
	}

	for _, opt := range opts {
		if opt != nil {
			opt(&input)
		}
	}

	return input, nil
}
