package crudguard

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-audit/pkg/authctx"
	"github.com/goliatone/go-audit/pkg/types"
	"github.com/goliatone/go-audit/scope"
	auth "github.com/goliatone/go-auth"
	"github.com/goliatone/go-crud"
	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeScopeEnforcementFail = "SCOPE_ENFORCEMENT_FAILED"
	textCodeMissingPolicy        = "SCOPE_POLICY_MISSING"
	textCodeMissingContext       = "CONTEXT_MISSING"
)

// WorkspaceQueryParam is read by DefaultWorkspaceExtractor.
const WorkspaceQueryParam = "workspace_id"

// WorkspaceExtractor derives the requested workspace from the crud context
// prior to guard evaluation.
type WorkspaceExtractor func(ctx crud.Context, actor *auth.ActorContext) (string, error)

// Config drives Adapter construction.
type Config struct {
	Guard              scope.Guard
	Logger             types.Logger
	PolicyMap          map[crud.CrudOperation]types.PolicyAction
	WorkspaceExtractor WorkspaceExtractor
	FallbackAction     types.PolicyAction
}

// Adapter turns go-crud operations into access guard enforcement calls.
type Adapter struct {
	guard              scope.Guard
	logger             types.Logger
	workspaceExtractor WorkspaceExtractor
	policyMap          map[crud.CrudOperation]types.PolicyAction
	fallbackAction     types.PolicyAction
}

// GuardInput captures per-request parameters supplied by transports.
// WorkspaceID and Action override the extracted workspace and the mapped
// action when set.
type GuardInput struct {
	Context     crud.Context
	Operation   crud.CrudOperation
	WorkspaceID string
	Action      types.PolicyAction
}

// GuardResult reports the resolved session and workspace.
type GuardResult struct {
	Session     types.Session
	WorkspaceID string
	Operation   crud.CrudOperation
	Action      types.PolicyAction
}

// DefaultWorkspaceExtractor reads the workspace_id query parameter and falls
// back to the tenant carried by the actor context.
func DefaultWorkspaceExtractor(ctx crud.Context, actor *auth.ActorContext) (string, error) {
	if workspaceID := strings.TrimSpace(ctx.Query(WorkspaceQueryParam)); workspaceID != "" {
		return workspaceID, nil
	}
	return authctx.WorkspaceFromActorContext(actor), nil
}

// NewAdapter constructs a Guard adapter and validates the supplied config.
func NewAdapter(cfg Config) (*Adapter, error) {
	if cfg.Guard == nil {
		return nil, goerrors.New("go-audit: access guard is required", goerrors.CategoryInternal).
			WithCode(goerrors.CodeInternal).
			WithTextCode(textCodeScopeEnforcementFail)
	}
	if len(cfg.PolicyMap) == 0 && cfg.FallbackAction == "" {
		return nil, goerrors.New("go-audit: policy map or fallback action must be provided", goerrors.CategoryInternal).
			WithCode(goerrors.CodeInternal).
			WithTextCode(textCodeMissingPolicy)
	}

	extractor := cfg.WorkspaceExtractor
	if extractor == nil {
		extractor = DefaultWorkspaceExtractor
	}

	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}

	return &Adapter{
		guard:              scope.Ensure(cfg.Guard),
		logger:             logger,
		workspaceExtractor: extractor,
		policyMap:          clonePolicyMap(cfg.PolicyMap),
		fallbackAction:     cfg.FallbackAction,
	}, nil
}

// Enforce resolves the actor, derives the requested workspace and enforces the
// access guard with the mapped action. Every call reaches the guard.
func (a *Adapter) Enforce(in GuardInput) (GuardResult, error) {
	if in.Context == nil {
		return GuardResult{}, goerrors.New("go-audit: crudguard requires a context", goerrors.CategoryInternal).
			WithCode(goerrors.CodeInternal).
			WithTextCode(textCodeMissingContext)
	}

	ctx := in.Context.UserContext()
	actorCtx, err := authctx.ResolveActorContext(ctx)
	if err != nil {
		return GuardResult{}, err
	}

	workspaceID, err := a.workspaceExtractor(in.Context, actorCtx)
	if err != nil {
		return GuardResult{}, err
	}
	if override := strings.TrimSpace(in.WorkspaceID); override != "" {
		workspaceID = override
	}

	action := in.Action
	if action == "" {
		action, err = a.actionForOperation(in.Operation)
		if err != nil {
			return GuardResult{}, err
		}
	}

	session, err := a.guard.Enforce(ctx, action, workspaceID)
	if err != nil {
		a.logger.Debug("crudguard: enforcement rejected", "operation", string(in.Operation), "action", string(action), "workspace_id", workspaceID)
		return GuardResult{}, wrapGuardError(err, action)
	}

	return GuardResult{
		Session:     session,
		WorkspaceID: workspaceID,
		Operation:   in.Operation,
		Action:      action,
	}, nil
}

func (a *Adapter) actionForOperation(op crud.CrudOperation) (types.PolicyAction, error) {
	if act, ok := a.policyMap[op]; ok && act != "" {
		return act, nil
	}
	if a.fallbackAction != "" {
		return a.fallbackAction, nil
	}
	return "", goerrors.New(fmt.Sprintf("go-audit: no policy action configured for %s", op), goerrors.CategoryInternal).
		WithCode(goerrors.CodeInternal).
		WithTextCode(textCodeMissingPolicy)
}

// wrapGuardError keeps access and validation failures intact so transports can
// map their text codes. Anything else is an internal failure.
func wrapGuardError(err error, action types.PolicyAction) error {
	if types.IsAccessError(err) || types.IsValidationError(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, fmt.Sprintf("go-audit: access guard failed for action %s", action)).
		WithCode(goerrors.CodeInternal).
		WithTextCode(textCodeScopeEnforcementFail)
}
