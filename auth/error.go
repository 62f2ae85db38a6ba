package auth

import (
	"github.com/noteapp/noteapp/kit/errors"
)

var (
	// ErrTenantRequired is returned when no tenant id accompanies the request.
	ErrTenantRequired = &errors.Error{
		Code: errors.EUnauthorized,
		Msg:  "tenant not specified",
	}

	// ErrNoBearerToken is returned when the Authorization value is missing or
	// does not use the bearer scheme.
	ErrNoBearerToken = &errors.Error{
		Code: errors.EUnauthorized,
		Msg:  "authorization header not present or not using valid scheme",
	}

	// ErrUnknownTenant is returned when the tenant has no directory mapping.
	ErrUnknownTenant = &errors.Error{
		Code: errors.EUnauthorized,
		Msg:  "tenant mapping not found",
	}
)

// ErrTokenNotValid wraps a validation failure into the generic reason string
// surfaced to callers. Internal detail stays in the wrapped error for logs.
func ErrTokenNotValid(err error) *errors.Error {
	return &errors.Error{
		Code: errors.EUnauthorized,
		Msg:  "token not valid. " + err.Error(),
	}
}
