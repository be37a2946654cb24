package device

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrDeviceNotFound) {
//	    // handle not found case
//	}
//
// The validator and the repositories never log; they return these typed
// conditions and leave presentation to the caller.
var (
	// ErrDeviceNotFound is returned when a device ID does not exist.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrInvalidDeviceID is returned when a lookup key is not a well-formed
	// identifier. Distinct from ErrDeviceNotFound so callers can map it to a
	// bad-request rather than a missing-resource response.
	ErrInvalidDeviceID = errors.New("device: invalid id")

	// ErrDuplicateIP is returned when a create or update would give two
	// devices the same ip_address.
	ErrDuplicateIP = errors.New("device: ip_address already registered")

	// ErrNoUpdatableFields is returned when an update payload contains no
	// recognised fields after validation.
	ErrNoUpdatableFields = errors.New("device: no updatable fields")

	// ErrBackendUnavailable is returned when the persistent store cannot be
	// reached. Callers decide whether to fall back to the in-memory backend
	// or surface a service-unavailable failure.
	ErrBackendUnavailable = errors.New("device: storage backend unavailable")
)

// ValidationError carries per-field validation failures for a payload.
// The map is keyed by field name; values are human-readable messages.
type ValidationError struct {
	Fields map[string]string
}

// Error returns the field errors joined in a stable order.
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "device: validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("device: validation failed: ")
	for i, k := range keys {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s: %s", k, e.Fields[k])
	}
	return b.String()
}

// IsValidationError reports whether err is a *ValidationError and returns it.
func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
