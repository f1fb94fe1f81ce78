package authctx

import (
	"context"
	"strings"

	"github.com/goliatone/go-audit/pkg/types"
	auth "github.com/goliatone/go-auth"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

const (
	textCodeActorMissing = "ACTOR_CONTEXT_MISSING"
	textCodeActorInvalid = "ACTOR_CONTEXT_INVALID"
)

// ClaimsLocalsKey is where go-auth JWT middleware leaves the parsed claims.
const ClaimsLocalsKey = "user"

// ActorFromContext is a thin wrapper around go-auth helpers so callers do not
// need to import auth directly when they only need the actor payload.
func ActorFromContext(ctx context.Context) (*auth.ActorContext, bool) {
	return auth.ActorFromContext(ctx)
}

// ActorFromRouterContext extracts the actor payload from router contexts using
// go-auth helpers.
func ActorFromRouterContext(ctx router.Context) (*auth.ActorContext, bool) {
	return auth.ActorFromRouterContext(ctx)
}

// WithActor stores the actor payload on ctx the same way go-auth middleware
// does. Jobs and CLIs use it to act on behalf of a principal.
func WithActor(ctx context.Context, actor *auth.ActorContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return auth.WithActorContext(ctx, actor)
}

// ResolveActorContext returns the actor metadata stored by go-auth middleware
// or rebuilds it from JWT claims when the ContextEnricher hook was not
// configured.
func ResolveActorContext(ctx context.Context) (*auth.ActorContext, error) {
	if ctx == nil {
		return nil, errors.New("go-audit: missing request context", errors.CategoryAuth).
			WithCode(errors.CodeUnauthorized).
			WithTextCode(textCodeActorMissing)
	}

	if actor, ok := auth.ActorFromContext(ctx); ok && actor != nil {
		return actor, nil
	}

	if claims, ok := auth.GetClaims(ctx); ok && claims != nil {
		if actor := auth.ActorContextFromClaims(claims); actor != nil {
			return actor, nil
		}
	}

	return nil, errors.New("go-audit: auth actor context not found on request", errors.CategoryAuth).
		WithCode(errors.CodeUnauthorized).
		WithTextCode(textCodeActorMissing)
}

// ResolveActorContextFromRouter mirrors ResolveActorContext for router
// transports where middleware stores actor metadata directly in the router
// context or leaves only the JWT claims in locals.
func ResolveActorContextFromRouter(ctx router.Context) (*auth.ActorContext, error) {
	if ctx == nil {
		return nil, errors.New("go-audit: missing router context", errors.CategoryAuth).
			WithCode(errors.CodeUnauthorized).
			WithTextCode(textCodeActorMissing)
	}

	if actor, ok := auth.ActorFromRouterContext(ctx); ok && actor != nil {
		return actor, nil
	}

	if claims, ok := auth.GetRouterClaims(ctx, ClaimsLocalsKey); ok && claims != nil {
		if actor := auth.ActorContextFromClaims(claims); actor != nil {
			return actor, nil
		}
	}

	return ResolveActorContext(ctx.Context())
}

// ActorMiddleware copies the go-auth actor onto the request context so the
// session resolver and crud handlers, which only see context.Context, find
// it. Anonymous requests pass through and are rejected by the access guard.
func ActorMiddleware() router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if actor, err := ResolveActorContextFromRouter(ctx); err == nil {
				ctx.SetContext(auth.WithActorContext(ctx.Context(), actor))
			}
			return next(ctx)
		}
	}
}

// SessionFromActorContext converts the auth middleware payload into the
// session consumed by the access controller.
func SessionFromActorContext(actor *auth.ActorContext) (types.Session, error) {
	if actor == nil {
		return types.Session{}, errors.New("go-audit: actor context is nil", errors.CategoryAuth).
			WithCode(errors.CodeUnauthorized).
			WithTextCode(textCodeActorInvalid)
	}
	actorID := strings.TrimSpace(actor.ActorID)
	if actorID == "" {
		return types.Session{}, errors.New("go-audit: actor context missing actor_id", errors.CategoryAuth).
			WithCode(errors.CodeUnauthorized).
			WithTextCode(textCodeActorInvalid)
	}
	return types.Session{UserID: actorID}, nil
}

// WorkspaceFromActorContext returns the tenant go-auth bound to the actor,
// which is the workspace the request operates on.
func WorkspaceFromActorContext(actor *auth.ActorContext) string {
	if actor == nil {
		return ""
	}
	return strings.TrimSpace(actor.TenantID)
}

// SessionResolver reads the current principal from go-auth request metadata.
type SessionResolver struct{}

var _ types.SessionResolver = SessionResolver{}

// CurrentSession implements types.SessionResolver. Anonymous requests and
// actor payloads without an id report no session.
func (SessionResolver) CurrentSession(ctx context.Context) (types.Session, bool, error) {
	actor, err := ResolveActorContext(ctx)
	if err != nil {
		return types.Session{}, false, nil
	}
	session, err := SessionFromActorContext(actor)
	if err != nil {
		return types.Session{}, false, nil
	}
	return session, true, nil
}
