package crudsvc

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-audit/pkg/types"
	"github.com/goliatone/go-crud"
)

func queryInt(ctx crud.Context, key string, def int) int {
	if value := ctx.Query(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return def
}

// queryTime accepts RFC3339 timestamps and plain YYYY-MM-DD dates. A plain
// date used as an upper bound covers the whole day.
func queryTime(ctx crud.Context, key string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(ctx.Query(key))
	if raw == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return &parsed, nil
	}
	parsed, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, types.NewValidationError(fmt.Sprintf("%s must be a date (YYYY-MM-DD) or RFC3339 timestamp: %q", key, raw))
	}
	if endOfDay {
		parsed = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	return &parsed, nil
}

// queryAction rejects values outside the closed action set. An empty
// parameter means no action filter.
func queryAction(ctx crud.Context, key string) (types.ActivityAction, error) {
	raw := strings.ToUpper(strings.TrimSpace(ctx.Query(key)))
	if raw == "" {
		return "", nil
	}
	action, ok := types.ParseActivityAction(raw)
	if !ok {
		return "", types.NewValidationError(fmt.Sprintf("unknown %s: %s", key, raw))
	}
	return action, nil
}
