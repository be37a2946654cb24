package device

import (
	"context"
	"time"

	"github.com/jtmorrow/netregistry/internal/probe"
)

// Prober checks whether a network address is reachable.
// internal/probe provides the production implementation; tests inject stubs.
type Prober interface {
	Probe(ctx context.Context, address string) probe.Result
}

// EventPublisher receives device lifecycle notifications.
// Implementations must not block; publishing failures are theirs to handle.
type EventPublisher interface {
	DeviceCreated(d *Device)
	DeviceUpdated(d *Device)
	DeviceDeleted(id string)
	DevicePinged(d *Device, result probe.Result)
}

// ProbeRecorder persists individual probe outcomes for later analysis.
type ProbeRecorder interface {
	RecordProbe(ctx context.Context, d *Device, result probe.Result, elapsed time.Duration)
}

// PingResult bundles the refreshed device with the probe outcome.
type PingResult struct {
	Device    *Device
	Reachable bool
	Method    string
}

// Service orchestrates validation, storage, probing and notification.
// It owns no business rules beyond sequencing: typed failures from the
// validator and repository pass through unchanged so callers can match
// them with errors.Is.
type Service struct {
	repo    Repository
	prober  Prober
	events  EventPublisher
	history ProbeRecorder
}

// NewService creates a device service. events and history may be nil when
// the corresponding subsystem is disabled.
func NewService(repo Repository, prober Prober, events EventPublisher, history ProbeRecorder) *Service {
	return &Service{
		repo:    repo,
		prober:  prober,
		events:  events,
		history: history,
	}
}

// SetEventPublisher installs or replaces the event publisher. Intended for
// startup wiring, before the service handles requests.
func (s *Service) SetEventPublisher(events EventPublisher) {
	s.events = events
}

// Create validates a full payload and stores a new device.
func (s *Service) Create(ctx context.Context, payload map[string]any) (*Device, error) {
	fields, err := ValidatePayload(payload, false)
	if err != nil {
		return nil, err
	}

	d, err := s.repo.Create(ctx, fields)
	if err != nil {
		return nil, err
	}
	if s.events != nil {
		s.events.DeviceCreated(d)
	}
	return d, nil
}

// Get retrieves a single device by id.
func (s *Service) Get(ctx context.Context, id string) (*Device, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves a page of devices.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]Device, PageMeta, error) {
	return s.repo.List(ctx, opts)
}

// Replace validates a full payload and applies every field to an existing
// device. Missing required fields are validation errors, unlike Update.
func (s *Service) Replace(ctx context.Context, id string, payload map[string]any) (*Device, error) {
	fields, err := ValidatePayload(payload, false)
	if err != nil {
		return nil, err
	}

	d, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	if s.events != nil {
		s.events.DeviceUpdated(d)
	}
	return d, nil
}

// Update validates a partial payload and applies it to an existing device.
// A payload that validates but carries no recognised field is rejected
// before it reaches the repository.
func (s *Service) Update(ctx context.Context, id string, payload map[string]any) (*Device, error) {
	fields, err := ValidatePayload(payload, true)
	if err != nil {
		return nil, err
	}
	if fields.IsEmpty() {
		return nil, ErrNoUpdatableFields
	}

	d, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	if s.events != nil {
		s.events.DeviceUpdated(d)
	}
	return d, nil
}

// Delete removes a device. Reports whether anything was removed; deleting
// an already-absent id succeeds with deleted=false.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted && s.events != nil {
		s.events.DeviceDeleted(id)
	}
	return deleted, nil
}

// Ping probes a device's address and records the outcome.
// The probe runs after the device lookup and outside any repository lock;
// status and last_checked are then written together.
func (s *Service) Ping(ctx context.Context, id string) (*PingResult, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result := s.prober.Probe(ctx, d.IPAddress)
	elapsed := time.Since(start)

	status := StatusOffline
	if result.Reachable {
		status = StatusOnline
	}

	updated, err := s.repo.UpdateProbeResult(ctx, id, status)
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.DevicePinged(updated, result)
	}
	if s.history != nil {
		s.history.RecordProbe(ctx, updated, result, elapsed)
	}

	return &PingResult{
		Device:    updated,
		Reachable: result.Reachable,
		Method:    result.Method,
	}, nil
}
