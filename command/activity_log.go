package command

import (
	"context"
	"strings"

	"github.com/goliatone/go-audit/activity"
	"github.com/goliatone/go-audit/pkg/types"
	"github.com/goliatone/go-audit/scope"
	gocommand "github.com/goliatone/go-command"
	featuregate "github.com/goliatone/go-featuregate/gate"
)

// CreateActivityLogInput wraps the payload to persist. Result receives the
// stored entry, including its assigned id.
type CreateActivityLogInput struct {
	Input  types.ActivityInput
	Result *types.ActivityEntry
}

// Type implements gocommand.Message.
func (CreateActivityLogInput) Type() string {
	return "command.activity.create"
}

// Validate implements gocommand.Message.
func (input CreateActivityLogInput) Validate() error {
	if result := activity.ValidateInput(input.Input); !result.Valid {
		return types.NewValidationError(result.Error)
	}
	return nil
}

// CreateActivityLogConfig wires dependencies for the create command.
type CreateActivityLogConfig struct {
	Store       types.ActivityStore
	Users       types.UserDirectory
	Guard       scope.Guard
	FeatureGate featuregate.FeatureGate
	Hooks       types.Hooks
	Clock       types.Clock
	Logger      types.Logger
}

// CreateActivityLogCommand records a tenant scoped business action.
type CreateActivityLogCommand struct {
	store       types.ActivityStore
	users       types.UserDirectory
	guard       scope.Guard
	featureGate featuregate.FeatureGate
	hooks       types.Hooks
	clock       types.Clock
	logger      types.Logger
}

// NewCreateActivityLogCommand constructs the create command handler.
func NewCreateActivityLogCommand(cfg CreateActivityLogConfig) *CreateActivityLogCommand {
	return &CreateActivityLogCommand{
		store:       cfg.Store,
		users:       cfg.Users,
		guard:       safeScopeGuard(cfg.Guard),
		featureGate: cfg.FeatureGate,
		hooks:       cfg.Hooks,
		clock:       safeClock(cfg.Clock),
		logger:      safeLogger(cfg.Logger),
	}
}

var _ gocommand.Commander[CreateActivityLogInput] = (*CreateActivityLogCommand)(nil)

// Execute authenticates the caller, validates the payload, checks workspace
// access and the activity log feature, then appends the entry. Nothing is
// written when any step fails.
func (c *CreateActivityLogCommand) Execute(ctx context.Context, input CreateActivityLogInput) error {
	if c.store == nil {
		return ErrMissingActivityStore
	}
	if _, err := c.guard.Authenticate(ctx); err != nil {
		return err
	}
	if err := input.Validate(); err != nil {
		return err
	}

	payload := input.Input
	workspaceID := strings.TrimSpace(payload.WorkspaceID)
	session, err := c.guard.Enforce(ctx, types.PolicyActionActivityWrite, workspaceID)
	if err != nil {
		return err
	}

	enabled, err := featureEnabled(ctx, c.featureGate, FeatureActivityLog, workspaceID, session.UserID)
	if err != nil {
		return err
	}
	if !enabled {
		return types.NewActivityLoggingDisabledError()
	}

	entry := types.ActivityEntry{
		WorkspaceID: workspaceID,
		UserID:      strings.TrimSpace(payload.UserID),
		UserEmail:   strings.TrimSpace(payload.UserEmail),
		Action:      types.ActivityAction(payload.Action),
		EntityType:  types.EntityType(payload.EntityType),
		CreatedAt:   c.clock.Now(),
	}
	if payload.EntityID != nil {
		entry.EntityID = *payload.EntityID
	}
	if metadata, ok := payload.Metadata.(map[string]any); ok && metadata != nil {
		entry.Metadata = metadata
	}
	if entry.UserEmail == "" {
		email, err := c.lookupEmail(ctx, entry.UserID)
		if err != nil {
			return err
		}
		entry.UserEmail = email
	}

	stored, err := c.store.Insert(ctx, entry)
	if err != nil {
		c.logger.Error("activity log insert failed", err,
			"workspace_id", workspaceID, "action", entry.Action)
		return err
	}
	if input.Result != nil {
		*input.Result = stored
	}
	emitActivityHook(ctx, c.logger, c.hooks, stored)
	return nil
}

// lookupEmail snapshots the actor email at write time.
func (c *CreateActivityLogCommand) lookupEmail(ctx context.Context, userID string) (string, error) {
	if c.users == nil || userID == "" {
		return "", nil
	}
	users, err := c.users.FindUsersByIDs(ctx, []string{userID})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(users[userID].Email), nil
}
