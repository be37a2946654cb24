package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jtmorrow/netregistry/internal/device"
)

// handleListDevices returns a page of devices.
//
// Query parameters:
//   - type: filter by device type (router, server, switch)
//   - status: filter by status (offline, online, unknown)
//   - q: case-insensitive substring match across name, ip_address, location
//   - page, page_size: pagination (page_size capped at 100)
//   - sort: name, ip_address, type, status, created_at, updated_at
//   - order: asc or desc (desc is the default only for the default sort)
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	opts := listOptionsFromQuery(r)

	devices, meta, err := s.service.List(r.Context(), opts)
	if err != nil {
		writeInternalError(w, "failed to list devices")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"devices": devices,
		"meta":    meta,
	})
}

// handleGetDevice returns a single device by ID.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	d, err := s.service.Get(r.Context(), id)
	if err != nil {
		writeDeviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, d)
}

// handleCreateDevice registers a new device.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	d, err := s.service.Create(r.Context(), payload)
	if err != nil {
		writeDeviceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, d)
}

// handleReplaceDevice fully replaces a device's client-settable fields.
// Missing required fields are rejected, unlike a partial update.
func (s *Server) handleReplaceDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	d, err := s.service.Replace(r.Context(), id, payload)
	if err != nil {
		writeDeviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, d)
}

// handleUpdateDevice partially updates a device.
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	d, err := s.service.Update(r.Context(), id, payload)
	if err != nil {
		writeDeviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, d)
}

// handleDeleteDevice removes a device by ID. Deleting an absent id reports
// 404 so clients can tell a no-op from a deletion.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	deleted, err := s.service.Delete(r.Context(), id)
	if err != nil {
		writeDeviceError(w, err)
		return
	}
	if !deleted {
		writeNotFound(w, "device not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handlePingDevice probes a device's address and returns the updated device
// together with the probe outcome.
func (s *Server) handlePingDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := s.service.Ping(r.Context(), id)
	if err != nil {
		writeDeviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device":    result.Device,
		"reachable": result.Reachable,
		"method":    result.Method,
	})
}

// decodePayload reads the request body as a generic JSON object. Validation
// of individual fields happens downstream; only malformed JSON or a
// non-object body is rejected here.
func decodePayload(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "request body too large")
			return nil, false
		}
		writeBadRequest(w, "invalid JSON body")
		return nil, false
	}
	if payload == nil {
		writeBadRequest(w, "request body must be a JSON object")
		return nil, false
	}
	return payload, true
}

// listOptionsFromQuery parses filter, sort, and pagination query parameters.
// Out-of-range values are clamped rather than rejected.
func listOptionsFromQuery(r *http.Request) device.ListOptions {
	q := r.URL.Query()

	opts := device.ListOptions{
		Filter: device.ListFilter{
			Type:   device.DeviceType(q.Get("type")),
			Status: device.Status(q.Get("status")),
			Query:  q.Get("q"),
		},
	}

	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		opts.Page = page
	}
	if size, err := strconv.Atoi(q.Get("page_size")); err == nil {
		opts.PageSize = size
	}

	if sort := q.Get("sort"); sort != "" {
		opts.Sort = device.Sort{
			Field: device.SortField(sort),
			Desc:  q.Get("order") == "desc",
		}
	}

	return opts
}
