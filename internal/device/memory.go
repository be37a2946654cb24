package device

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository implements Repository with process-local storage.
// It is the fallback backend when the SQLite store cannot be opened:
// the registry stays available at the cost of durability.
//
// A single mutex guards every operation for its full duration, including
// list scans, so readers never observe a half-applied update.
type MemoryRepository struct {
	mu      sync.Mutex
	devices map[string]*Device
	byIP    map[string]string // ip_address -> device id
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		devices: make(map[string]*Device),
		byIP:    make(map[string]string),
	}
}

// Create inserts a new device built from validated fields.
func (r *MemoryRepository) Create(_ context.Context, fields *Fields) (*Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ip := *fields.IPAddress
	if _, taken := r.byIP[ip]; taken {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateIP, ip)
	}

	now := time.Now().UTC().Truncate(time.Second)
	d := &Device{
		ID:        uuid.NewString(),
		Name:      *fields.Name,
		IPAddress: ip,
		Type:      *fields.Type,
		Location:  *fields.Location,
		Status:    *fields.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.devices[d.ID] = d
	r.byIP[ip] = d.ID
	return d.Clone(), nil
}

// GetByID retrieves a device by its unique identifier.
func (r *MemoryRepository) GetByID(_ context.Context, id string) (*Device, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[id]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	return d.Clone(), nil
}

// GetByIP retrieves a device by its IPv4 address.
func (r *MemoryRepository) GetByIP(_ context.Context, ip string) (*Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byIP[ip]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	return r.devices[id].Clone(), nil
}

// List retrieves a page of devices matching the options.
func (r *MemoryRepository) List(_ context.Context, opts ListOptions) ([]Device, PageMeta, error) {
	opts = opts.normalized()

	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make([]*Device, 0, len(r.devices))
	for _, d := range r.devices {
		if matchesFilter(d, opts.Filter) {
			matched = append(matched, d)
		}
	}
	sortDevices(matched, opts.Sort)

	meta := pageMeta(len(matched), opts)

	start := (opts.Page - 1) * opts.PageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + opts.PageSize
	if end > len(matched) {
		end = len(matched)
	}

	page := make([]Device, 0, end-start)
	for _, d := range matched[start:end] {
		page = append(page, *d.Clone())
	}
	return page, meta, nil
}

// Update applies the non-nil fields to an existing device atomically.
// An ip_address change checks the new address against the index and swaps
// the index entries inside the same critical section.
func (r *MemoryRepository) Update(_ context.Context, id string, fields *Fields) (*Device, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	if fields == nil || fields.IsEmpty() {
		return nil, ErrNoUpdatableFields
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[id]
	if !ok {
		return nil, ErrDeviceNotFound
	}

	if fields.IPAddress != nil && *fields.IPAddress != d.IPAddress {
		newIP := *fields.IPAddress
		if _, taken := r.byIP[newIP]; taken {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateIP, newIP)
		}
		delete(r.byIP, d.IPAddress)
		r.byIP[newIP] = d.ID
		d.IPAddress = newIP
	}
	if fields.Name != nil {
		d.Name = *fields.Name
	}
	if fields.Type != nil {
		d.Type = *fields.Type
	}
	if fields.Status != nil {
		d.Status = *fields.Status
	}
	if fields.Location != nil {
		d.Location = *fields.Location
	}
	d.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	return d.Clone(), nil
}

// UpdateProbeResult records a reachability outcome for a device.
func (r *MemoryRepository) UpdateProbeResult(_ context.Context, id string, status Status) (*Device, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[id]
	if !ok {
		return nil, ErrDeviceNotFound
	}

	now := time.Now().UTC().Truncate(time.Second)
	d.Status = status
	d.LastChecked = &now
	d.UpdatedAt = now
	return d.Clone(), nil
}

// Delete removes a device by ID.
func (r *MemoryRepository) Delete(_ context.Context, id string) (bool, error) {
	if err := ValidateID(id); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[id]
	if !ok {
		return false, nil
	}
	delete(r.byIP, d.IPAddress)
	delete(r.devices, id)
	return true, nil
}

// matchesFilter reports whether a device satisfies every filter constraint.
func matchesFilter(d *Device, f ListFilter) bool {
	if f.Type != "" && d.Type != f.Type {
		return false
	}
	if f.Status != "" && d.Status != f.Status {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(d.Name), q) &&
			!strings.Contains(strings.ToLower(d.IPAddress), q) &&
			!strings.Contains(strings.ToLower(d.Location), q) {
			return false
		}
	}
	return true
}

// sortDevices orders devices by the requested field, breaking ties by ID
// so pagination is stable across calls.
func sortDevices(devices []*Device, s Sort) {
	key := func(d *Device) string {
		switch s.Field {
		case SortByName:
			return d.Name
		case SortByIPAddress:
			return d.IPAddress
		case SortByType:
			return string(d.Type)
		case SortByStatus:
			return string(d.Status)
		case SortByUpdatedAt:
			return d.UpdatedAt.Format(time.RFC3339Nano)
		default:
			return d.CreatedAt.Format(time.RFC3339Nano)
		}
	}
	sort.Slice(devices, func(i, j int) bool {
		ki, kj := key(devices[i]), key(devices[j])
		if ki == kj {
			return devices[i].ID < devices[j].ID
		}
		if s.Desc {
			return ki > kj
		}
		return ki < kj
	})
}
