package request

import (
	"github.com/iota-uz/facilities/pkg/serrors"
)

// Canonical error kinds of the request workflow. Callers match them with
// errors.Is; messages are specialized with WithDetails.
var (
	ErrNotFound = serrors.NewError(
		"FACILITIES_NOT_FOUND",
		"request not found",
		"Facilities.Errors.NotFound",
	)
	ErrConflict = serrors.NewError(
		"FACILITIES_CONFLICT",
		"resource is already reserved for an overlapping interval",
		"Facilities.Errors.Conflict",
	)
	ErrInvalidTransition = serrors.NewError(
		"FACILITIES_INVALID_TRANSITION",
		"status change is not legal from the current status",
		"Facilities.Errors.InvalidTransition",
	)
	ErrValidation = serrors.NewError(
		"FACILITIES_VALIDATION",
		"payload is malformed or missing a required field",
		"Facilities.Errors.Validation",
	)
	ErrForbidden = serrors.NewError(
		"AUTHZ_FORBIDDEN",
		"actor role does not satisfy the gate for this action",
		"Authorization.PermissionDenied",
	)
	ErrStale = serrors.NewError(
		"FACILITIES_STALE",
		"request was modified concurrently, reload and retry",
		"Facilities.Errors.Stale",
	)
)
