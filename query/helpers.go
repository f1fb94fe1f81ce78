package query

import (
	"context"
	"strings"

	"github.com/goliatone/go-audit/activity"
	"github.com/goliatone/go-audit/pkg/types"
	"github.com/goliatone/go-audit/scope"
	"github.com/goliatone/go-masker"
)

func safeScopeGuard(g scope.Guard) scope.Guard {
	return scope.Ensure(g)
}

func safeClock(clock types.Clock) types.Clock {
	if clock != nil {
		return clock
	}
	return types.SystemClock{}
}

// renderer turns raw records into display entries. User names are resolved
// with one batched lookup per page.
type renderer struct {
	users     types.UserDirectory
	formatter *activity.Formatter
	masker    *masker.Masker
	mask      bool
}

func (r renderer) render(ctx context.Context, records []types.ActivityRecord) ([]types.ActivityDisplay, error) {
	names, err := r.resolveNames(ctx, records)
	if err != nil {
		return nil, err
	}
	displays := make([]types.ActivityDisplay, 0, len(records))
	for _, record := range records {
		name := names[record.UserID]
		if name == "" {
			name = strings.TrimSpace(record.UserEmail)
		}
		displays = append(displays, r.formatter.Format(record, name))
	}
	if r.mask {
		displays = activity.SanitizeDisplays(r.masker, displays)
	}
	return displays, nil
}

func (r renderer) resolveNames(ctx context.Context, records []types.ActivityRecord) (map[string]string, error) {
	if r.users == nil || len(records) == 0 {
		return map[string]string{}, nil
	}
	ids := make([]string, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, record := range records {
		if record.UserID == "" {
			continue
		}
		if _, ok := seen[record.UserID]; ok {
			continue
		}
		seen[record.UserID] = struct{}{}
		ids = append(ids, record.UserID)
	}
	if len(ids) == 0 {
		return map[string]string{}, nil
	}
	users, err := r.users.FindUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(users))
	for id, user := range users {
		names[id] = user.DisplayName()
	}
	return names, nil
}

// Option customizes the query handlers.
type Option func(*options)

type options struct {
	users     types.UserDirectory
	formatter *activity.Formatter
	masker    *masker.Masker
}

// WithUserDirectory resolves actor names for formatted messages.
func WithUserDirectory(users types.UserDirectory) Option {
	return func(o *options) {
		o.users = users
	}
}

// WithFormatter overrides the default pt-BR formatter.
func WithFormatter(formatter *activity.Formatter) Option {
	return func(o *options) {
		if formatter != nil {
			o.formatter = formatter
		}
	}
}

// WithMasker overrides the masker applied to tenant facing feeds.
func WithMasker(mask *masker.Masker) Option {
	return func(o *options) {
		o.masker = mask
	}
}

func applyOptions(opts []Option) options {
	cfg := options{formatter: activity.NewFormatter(activity.DefaultCatalog())}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func (o options) renderer(mask bool) renderer {
	return renderer{
		users:     o.users,
		formatter: o.formatter,
		masker:    o.masker,
		mask:      mask,
	}
}

func totalPages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
