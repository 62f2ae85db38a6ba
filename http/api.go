package http

import (
	"encoding/json"
	"net/http"

	"github.com/noteapp/noteapp/kit/errors"
	"go.uber.org/zap"
)

// API provides a consolidated means for handling API response writing and
// error handling.
type API struct {
	logger     *zap.Logger
	errHandler errors.HTTPErrorHandler
}

// APIOptFn is a functional option for setting fields on the API type.
type APIOptFn func(*API)

// WithLog sets the logger.
func WithLog(logger *zap.Logger) APIOptFn {
	return func(api *API) {
		api.logger = logger
	}
}

// NewAPI creates a new API type.
func NewAPI(opts ...APIOptFn) *API {
	api := API{
		errHandler: ErrorHandler(0),
	}
	for _, o := range opts {
		o(&api)
	}
	return &api
}

// DecodeJSON decodes the request body into v, wrapping malformed input in an
// EInvalid error.
func (a *API) DecodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &errors.Error{
			Code: errors.EInvalid,
			Msg:  "invalid json structure",
			Err:  err,
		}
	}
	return nil
}

// Respond writes to the response writer. A nil v writes only the status code.
func (a *API) Respond(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	if v == nil {
		w.WriteHeader(status)
		return
	}

	b, err := json.Marshal(v)
	if err != nil {
		a.Err(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(b); err != nil && a.logger != nil {
		a.logger.Error("Failed to write response body", zap.Error(err))
	}
}

// Err handles the error response and parsing.
func (a *API) Err(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	if a.logger != nil {
		a.logger.Debug("Api error", zap.String("path", r.URL.Path), zap.Error(err))
	}

	a.errHandler.HandleHTTPError(r.Context(), err, w)
}
