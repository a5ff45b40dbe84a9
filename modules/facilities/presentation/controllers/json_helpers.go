package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/iota-uz/facilities/pkg/composables"
	"github.com/iota-uz/facilities/pkg/constants"
	"github.com/iota-uz/facilities/pkg/serrors"
)

type apiError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func writeJSON[T any](w http.ResponseWriter, status int, payload T) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeAPIError(w http.ResponseWriter, status int, requestID, code, message string) {
	meta := map[string]string{}
	if requestID != "" {
		meta["request_id"] = requestID
	}
	writeJSON(w, status, apiError{Code: code, Message: message, Meta: meta})
}

func requestIDFrom(r *http.Request) string {
	if id, ok := r.Context().Value(constants.RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// respondError maps structured error codes onto HTTP statuses; anything
// unrecognized is a 500 with the code masked.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := requestIDFrom(r)

	if errors.Is(err, composables.ErrNoActorFound) {
		writeAPIError(w, http.StatusUnauthorized, requestID, "UNAUTHENTICATED", "no acting identity on request")
		return
	}

	var base *serrors.BaseError
	if !errors.As(err, &base) {
		writeAPIError(w, http.StatusInternalServerError, requestID, "INTERNAL", "internal error")
		return
	}

	status := http.StatusInternalServerError
	switch base.Code {
	case "FACILITIES_VALIDATION", "FIELD_REQUIRED", "FIELD_INVALID":
		status = http.StatusBadRequest
	case "FACILITIES_NOT_FOUND":
		status = http.StatusNotFound
	case "FACILITIES_CONFLICT", "FACILITIES_STALE":
		status = http.StatusConflict
	case "FACILITIES_INVALID_TRANSITION":
		status = http.StatusUnprocessableEntity
	case "AUTHZ_FORBIDDEN":
		status = http.StatusForbidden
	}
	writeAPIError(w, status, requestID, base.Code, base.Message)
}
