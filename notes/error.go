package notes

import (
	"github.com/noteapp/noteapp/kit/errors"
)

var (
	// ErrNoteNotFound is returned when a note id does not resolve within the
	// tenant's partition.
	ErrNoteNotFound = &errors.Error{
		Code: errors.ENotFound,
		Msg:  "note not found",
	}

	// ErrSlugRequired is returned when publishing a note with an empty slug.
	ErrSlugRequired = &errors.Error{
		Code: errors.EInvalid,
		Msg:  "note slug not valid",
	}
)

// ErrCorruptNote is used when a stored note record cannot be decoded.
func ErrCorruptNote(err error) *errors.Error {
	return &errors.Error{
		Code: errors.EInternal,
		Msg:  "note record could not be decoded",
		Err:  err,
	}
}

// ErrStorageWrite is used when the underlying store reports a non-success
// status. The operation name is embedded for diagnosability; no retry is
// attempted.
func ErrStorageWrite(op string, err error) *errors.Error {
	return &errors.Error{
		Code: errors.EInternal,
		Msg:  op + " failed",
		Err:  err,
	}
}
