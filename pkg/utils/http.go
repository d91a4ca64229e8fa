// Package utils holds the response helpers shared by the local API
// handlers: JSON envelopes and the mapping from engine error kinds onto
// HTTP statuses.
package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pubky/franky-sub007/pkg/errs"
)

// StatusFor maps an engine error onto the HTTP status the local API
// reports it under. Unknown errors are internal.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrMalformedID):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrRemoteUnavailable), errors.Is(err, errs.ErrInvalidResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// JSONError writes a JSON error envelope with the given status code.
func JSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// JSONErrorFrom writes err under the status StatusFor assigns it.
func JSONErrorFrom(w http.ResponseWriter, err error) {
	JSONError(w, StatusFor(err), err.Error())
}

// JSONWrite writes v as JSON with the given status code.
func JSONWrite(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	return json.NewEncoder(w).Encode(v)
}
