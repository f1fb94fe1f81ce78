package crudsvc

import (
	"github.com/goliatone/go-audit/activity"
	"github.com/goliatone/go-crud"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
)

// RegisterActivityRoutes mounts the activity controller on r. Hosts are
// expected to install authctx.ActorMiddleware (or go-auth middleware that
// stores the actor on the request context) on r beforehand.
//
// Registered routes:
//
//	GET  /activity/schema
//	GET  /activities
//	POST /activity
func RegisterActivityRoutes[T any](r router.Router[T], repo repository.Repository[*activity.LogEntry], svc *ActivityService) *crud.Controller[*activity.LogEntry] {
	controller := crud.NewController(repo, ActivityControllerOptions(svc)...)
	controller.RegisterRoutes(crud.NewGoRouterAdapter(r))
	return controller
}
