// internal/domain/errors.go
package domain

import "errors"

var (
	// Authentication errors
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrMalformedContext = errors.New("token is missing required claims")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is deactivated")

	// Organization errors
	ErrOrganizationNotFound    = errors.New("organization not found")
	ErrOrganizationInactive    = errors.New("organization is inactive")
	ErrCrossOrganizationAccess = errors.New("resource belongs to another organization")

	// Authorization errors
	ErrForbiddenRole      = errors.New("action not permitted for role")
	ErrForbiddenOwnership = errors.New("actor is neither privileged nor the resource owner")

	// Task errors
	ErrInvalidAssignee = errors.New("assignee must be a non-guest user in the same organization")
	ErrInvalidTopic    = errors.New("topic not found")
	ErrInactiveTopic   = errors.New("cannot attach task to an inactive topic")

	// User errors
	ErrCapacityExceeded = errors.New("maximum active user limit reached")
	ErrDuplicateEntry   = errors.New("already exists")

	// General errors
	ErrNotFound             = errors.New("not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrSlugGenerationFailed = errors.New("could not generate a valid slug")
	ErrInternal             = errors.New("internal error")
)

// CodeInternal is the fallback code for errors with no domain mapping.
const CodeInternal = "INTERNAL_ERROR"

// Code returns the stable machine-readable code for a domain error.
// Cross-organization access deliberately reports NOT_FOUND so that callers
// cannot confirm the existence of resources in other organizations.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrAccountInactive):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrMalformedContext):
		return "MALFORMED_CONTEXT"
	case errors.Is(err, ErrOrganizationNotFound):
		return "ORGANIZATION_NOT_FOUND"
	case errors.Is(err, ErrOrganizationInactive):
		return "ORGANIZATION_INACTIVE"
	case errors.Is(err, ErrCrossOrganizationAccess), errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInvalidTopic):
		return "NOT_FOUND"
	case errors.Is(err, ErrForbiddenRole), errors.Is(err, ErrForbiddenOwnership):
		return "FORBIDDEN"
	case errors.Is(err, ErrCapacityExceeded), errors.Is(err, ErrDuplicateEntry):
		return "CONFLICT"
	case errors.Is(err, ErrInvalidAssignee), errors.Is(err, ErrInactiveTopic),
		errors.Is(err, ErrInvalidInput), errors.Is(err, ErrSlugGenerationFailed):
		return "VALIDATION_ERROR"
	default:
		return CodeInternal
	}
}
