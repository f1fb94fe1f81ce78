package command

import (
	"errors"

	"github.com/goliatone/go-audit/pkg/types"
)

var (
	// ErrActivityInputRequired indicates the create command received no payload.
	ErrActivityInputRequired = errors.New("go-audit: activity input required")
	// ErrMissingActivityStore indicates the command was built without a store.
	ErrMissingActivityStore = types.ErrMissingActivityStore
)
