package types

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeNotAuthenticated        = "NOT_AUTHENTICATED"
	TextCodeWorkspaceAccessDenied   = "WORKSPACE_ACCESS_DENIED"
	TextCodeAdminRequired           = "ADMIN_REQUIRED"
	TextCodeActivityLoggingDisabled = "ACTIVITY_LOGGING_DISABLED"
	TextCodeInvalidActivityData     = "INVALID_ACTIVITY_DATA"
)

// NewAuthenticationError reports a request without a resolvable session.
func NewAuthenticationError() error {
	return goerrors.New("not authenticated", goerrors.CategoryAuth).
		WithCode(goerrors.CodeUnauthorized).
		WithTextCode(TextCodeNotAuthenticated)
}

// NewWorkspaceAccessError reports a principal that is neither an active member
// of the workspace nor an active global admin.
func NewWorkspaceAccessError() error {
	return goerrors.New("no access to workspace", goerrors.CategoryAuthz).
		WithCode(goerrors.CodeForbidden).
		WithTextCode(TextCodeWorkspaceAccessDenied)
}

// NewAdminRequiredError reports a principal calling an admin only path.
func NewAdminRequiredError() error {
	return goerrors.New("admin access required", goerrors.CategoryAuthz).
		WithCode(goerrors.CodeForbidden).
		WithTextCode(TextCodeAdminRequired)
}

// NewActivityLoggingDisabledError reports a workspace where the activity log
// feature is switched off.
func NewActivityLoggingDisabledError() error {
	return goerrors.New("activity logging disabled for workspace", goerrors.CategoryAuthz).
		WithCode(goerrors.CodeForbidden).
		WithTextCode(TextCodeActivityLoggingDisabled)
}

// NewValidationError wraps a validator message.
func NewValidationError(reason string) error {
	return goerrors.New("invalid activity log data: "+reason, goerrors.CategoryValidation).
		WithCode(goerrors.CodeBadRequest).
		WithTextCode(TextCodeInvalidActivityData)
}

// IsAuthenticationError reports whether err is an authentication failure.
func IsAuthenticationError(err error) bool {
	richErr := asRichError(err)
	return richErr != nil && richErr.Category == goerrors.CategoryAuth
}

// IsAuthorizationError reports whether err is an authorization failure.
func IsAuthorizationError(err error) bool {
	richErr := asRichError(err)
	return richErr != nil && richErr.Category == goerrors.CategoryAuthz
}

// IsValidationError reports whether err is a validation failure.
func IsValidationError(err error) bool {
	richErr := asRichError(err)
	return richErr != nil && richErr.Category == goerrors.CategoryValidation
}

// IsAccessError reports authentication or authorization failures.
func IsAccessError(err error) bool {
	return IsAuthenticationError(err) || IsAuthorizationError(err)
}

// TextCode returns the text code carried by a rich error, if any.
func TextCode(err error) string {
	richErr := asRichError(err)
	if richErr == nil {
		return ""
	}
	return richErr.TextCode
}

func asRichError(err error) *goerrors.Error {
	var richErr *goerrors.Error
	if err == nil || !goerrors.As(err, &richErr) {
		return nil
	}
	return richErr
}
