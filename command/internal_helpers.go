package command

import (
	"context"
	"errors"

	"github.com/goliatone/go-audit/pkg/types"
	"github.com/goliatone/go-audit/scope"
)

func safeClock(clock types.Clock) types.Clock {
	if clock != nil {
		return clock
	}
	return types.SystemClock{}
}

func safeLogger(logger types.Logger) types.Logger {
	if logger != nil {
		return logger
	}
	return types.NopLogger{}
}

func safeScopeGuard(g scope.Guard) scope.Guard {
	return scope.Ensure(g)
}

func emitActivityHook(ctx context.Context, logger types.Logger, hooks types.Hooks, entry types.ActivityEntry) {
	if hooks.AfterActivity == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("activity hook panic", errors.New("panic in AfterActivity"), "panic", rec)
		}
	}()
	hooks.AfterActivity(ctx, entry)
}
