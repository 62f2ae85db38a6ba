package media

import (
	"github.com/noteapp/noteapp/kit/errors"
)

// ErrMediaNotFound is returned when a media id does not resolve within the
// tenant's partition.
var ErrMediaNotFound = &errors.Error{
	Code: errors.ENotFound,
	Msg:  "media item not found",
}

// ErrStorageWrite is used when the underlying store reports a non-success
// status.
func ErrStorageWrite(op string, err error) *errors.Error {
	return &errors.Error{
		Code: errors.EInternal,
		Msg:  op + " failed",
		Err:  err,
	}
}
