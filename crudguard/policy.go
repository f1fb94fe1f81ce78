package crudguard

import (
	"maps"

	"github.com/goliatone/go-audit/pkg/types"
	"github.com/goliatone/go-audit/scope"
	"github.com/goliatone/go-crud"
)

// ActivityPolicyMap maps go-crud operations on the activity resource. Reads
// require workspace access and single creates require write access. Batch
// writes, updates and deletes have no entry and resolve to the fallback
// action when one is configured.
func ActivityPolicyMap() map[crud.CrudOperation]types.PolicyAction {
	return map[crud.CrudOperation]types.PolicyAction{
		crud.OpRead:   types.PolicyActionActivityRead,
		crud.OpList:   types.PolicyActionActivityRead,
		crud.OpCreate: types.PolicyActionActivityWrite,
	}
}

// NewActivityAdapter builds the adapter used by the activity CRUD resource.
func NewActivityAdapter(guard scope.Guard, logger types.Logger) (*Adapter, error) {
	return NewAdapter(Config{
		Guard:     guard,
		Logger:    logger,
		PolicyMap: ActivityPolicyMap(),
	})
}

func clonePolicyMap(in map[crud.CrudOperation]types.PolicyAction) map[crud.CrudOperation]types.PolicyAction {
	if len(in) == 0 {
		return nil
	}
	cp := make(map[crud.CrudOperation]types.PolicyAction, len(in))
	maps.Copy(cp, in)
	return cp
}
