package tenant

import (
	"github.com/noteapp/noteapp/kit/errors"
)

var (
	// ErrTenantNotFound is returned when no mapping exists for a tenant id.
	// An unknown tenant is an expected outcome, not a fault.
	ErrTenantNotFound = &errors.Error{
		Code: errors.ENotFound,
		Msg:  "tenant mapping not found",
	}

	// ErrIDRequired is returned when a mapping is stored without an id.
	ErrIDRequired = &errors.Error{
		Code: errors.EInvalid,
		Msg:  "tenant id is required",
	}

	// ErrDomainRequired is returned when a mapping is stored without an
	// issuer domain.
	ErrDomainRequired = &errors.Error{
		Code: errors.EInvalid,
		Msg:  "tenant issuer domain is required",
	}
)

// ErrCorruptTenant is used when the mapping stored for a tenant cannot be
// decoded.
func ErrCorruptTenant(err error) *errors.Error {
	return &errors.Error{
		Code: errors.EInternal,
		Msg:  "tenant mapping could not be decoded",
		Err:  err,
	}
}

// ErrInternalServiceError is used when the error comes from the underlying
// store.
func ErrInternalServiceError(op string, err error) *errors.Error {
	return &errors.Error{
		Code: errors.EInternal,
		Op:   op,
		Err:  err,
	}
}
