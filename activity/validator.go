package activity

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-audit/pkg/types"
)

// ValidationResult reports whether a candidate log record may be persisted.
// Error names the offending field when Valid is false.
type ValidationResult struct {
	Valid bool
	Error string
}

func invalid(format string, args ...any) ValidationResult {
	return ValidationResult{Valid: false, Error: fmt.Sprintf(format, args...)}
}

// Validate checks the shape of an untyped candidate record. A plain object is
// a map[string]any keyed by the camelCase field names. A nil metadata value
// counts as absent. Validate is pure.
func Validate(candidate any) ValidationResult {
	obj, ok := candidate.(map[string]any)
	if !ok || obj == nil {
		return invalid("activity log data must be an object")
	}

	if !nonEmptyString(obj["workspaceId"]) {
		return invalid("workspaceId is required")
	}
	if !nonEmptyString(obj["userId"]) {
		return invalid("userId is required")
	}

	rawAction, present := obj["action"]
	action, isString := rawAction.(string)
	if !present || !isString || action == "" {
		return invalid("action is required")
	}
	if _, ok := types.ParseActivityAction(action); !ok {
		return invalid("invalid action: %s", action)
	}

	rawEntity, present := obj["entityType"]
	entityType, isString := rawEntity.(string)
	if !present || !isString || entityType == "" {
		return invalid("entityType is required")
	}
	if _, ok := types.ParseEntityType(entityType); !ok {
		return invalid("invalid entityType: %s", entityType)
	}

	if entityID, present := obj["entityId"]; present && !nonEmptyString(entityID) {
		return invalid("entityId must be a non-empty string")
	}

	if metadata, present := obj["metadata"]; present && metadata != nil && !isPlainObject(metadata) {
		return invalid("metadata must be an object")
	}

	return ValidationResult{Valid: true}
}

// ValidateInput validates the typed creation payload through the same rules.
func ValidateInput(input types.ActivityInput) ValidationResult {
	return Validate(input.Candidate())
}

func nonEmptyString(value any) bool {
	str, ok := value.(string)
	return ok && strings.TrimSpace(str) != ""
}

func isPlainObject(value any) bool {
	_, ok := value.(map[string]any)
	return ok
}
