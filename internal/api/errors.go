package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jtmorrow/netregistry/internal/device"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest = "bad_request"
	ErrCodeNotFound   = "not_found"
	ErrCodeConflict   = "conflict"
	ErrCodeInternal   = "internal_error"
)

// duplicateIPMessage is the field error returned when a create or update
// collides with an existing device's address.
const duplicateIPMessage = "A device with this IP address already exists."

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeFieldErrors writes per-field validation errors in the shape clients
// render next to form inputs: {"errors": {"field": "message"}}.
func writeFieldErrors(w http.ResponseWriter, status int, fields map[string]string) {
	writeJSON(w, status, map[string]any{"errors": fields})
}

// writeDeviceError maps device package errors to HTTP responses.
func writeDeviceError(w http.ResponseWriter, err error) {
	if verr, ok := device.IsValidationError(err); ok {
		writeFieldErrors(w, http.StatusBadRequest, verr.Fields)
		return
	}

	switch {
	case errors.Is(err, device.ErrInvalidDeviceID):
		writeBadRequest(w, "invalid device id")
	case errors.Is(err, device.ErrDeviceNotFound):
		writeNotFound(w, "device not found")
	case errors.Is(err, device.ErrDuplicateIP):
		writeFieldErrors(w, http.StatusConflict, map[string]string{
			"ip_address": duplicateIPMessage,
		})
	case errors.Is(err, device.ErrNoUpdatableFields):
		writeBadRequest(w, "no updatable fields in request body")
	default:
		writeInternalError(w, "internal server error")
	}
}
