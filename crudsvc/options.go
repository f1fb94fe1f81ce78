package crudsvc

import (
	"fmt"

	"github.com/goliatone/go-audit/activity"
	"github.com/goliatone/go-audit/crudguard"
	"github.com/goliatone/go-audit/pkg/types"
	"github.com/goliatone/go-crud"
	goerrors "github.com/goliatone/go-errors"
)

// GuardAdapter captures the subset of crudguard.Adapter we rely on so tests can
// swap in fakes.
type GuardAdapter interface {
	Enforce(in crudguard.GuardInput) (crudguard.GuardResult, error)
}

type serviceOptions struct {
	logger types.Logger
}

// ServiceOption customizes CRUD service behaviour.
type ServiceOption func(*serviceOptions)

// WithLogger wires a logger for service diagnostics.
func WithLogger(logger types.Logger) ServiceOption {
	return func(cfg *serviceOptions) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

func applyOptions(opts []ServiceOption) serviceOptions {
	cfg := serviceOptions{
		logger: types.NopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func notSupported(op crud.CrudOperation) error {
	return goerrors.New(
		fmt.Sprintf("go-audit: crud operation %s disabled for this resource", op),
		goerrors.CategoryValidation,
	).WithCode(goerrors.CodeBadRequest)
}

// ActivityControllerOptions mounts svc on a go-crud controller and switches
// off every route that would change stored rows.
func ActivityControllerOptions(svc *ActivityService) []crud.Option[*activity.LogEntry] {
	disabled := crud.RouteOptions{Enabled: crud.BoolPtr(false)}
	return []crud.Option[*activity.LogEntry]{
		crud.WithService[*activity.LogEntry](svc),
		crud.WithRouteConfig[*activity.LogEntry](crud.RouteConfig{
			Operations: map[crud.CrudOperation]crud.RouteOptions{
				crud.OpRead:        disabled,
				crud.OpUpdate:      disabled,
				crud.OpDelete:      disabled,
				crud.OpCreateBatch: disabled,
				crud.OpUpdateBatch: disabled,
				crud.OpDeleteBatch: disabled,
			},
		}),
	}
}
