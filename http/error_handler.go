package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/noteapp/noteapp/kit/errors"
)

// ErrorCodeHeader carries the error code of a failed request.
const ErrorCodeHeader = "X-Notes-Error-Code"

// ErrorHandler is the error handler in http package.
type ErrorHandler int

// HandleHTTPError encodes err with the appropriate status code and format,
// sets the X-Notes-Error-Code header on the response and sets the response
// status to the corresponding status code.
func (h ErrorHandler) HandleHTTPError(ctx context.Context, err error, w http.ResponseWriter) {
	if err == nil {
		return
	}

	code := errors.ErrorCode(err)
	httpCode, ok := statusCodeErrorMap[code]
	if !ok {
		httpCode = http.StatusBadRequest
	}
	w.Header().Set(ErrorCodeHeader, code)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(httpCode)
	var e struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	e.Code = code
	if err, ok := err.(*errors.Error); ok {
		e.Message = err.Error()
	} else {
		e.Message = "An internal error has occurred"
	}
	b, _ := json.Marshal(e)
	_, _ = w.Write(b)
}

// statusCodeErrorMap maps error codes to http status codes.
var statusCodeErrorMap = map[string]int{
	errors.EInternal:            http.StatusInternalServerError,
	errors.EInvalid:             http.StatusBadRequest,
	errors.EUnprocessableEntity: http.StatusUnprocessableEntity,
	errors.EConflict:            http.StatusConflict,
	errors.ENotFound:            http.StatusNotFound,
	errors.EUnauthorized:        http.StatusUnauthorized,
}
